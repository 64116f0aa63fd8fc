package instrument

import (
	"strings"
	"testing"
)

func TestEpMotionPoolFile(t *testing.T) {
	out := EpMotionPoolFile([]EpMotionRow{
		{SourceWell: "A1", DestWell: "1", Volume: 1.5},
		{SourceWell: "B1", DestWell: "1", Volume: 0.1234},
	})
	lines := strings.Split(out, "\r\n")
	if lines[0] != "Rack,Source,Rack,Destination,Volume,Tool" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "1,A1,1,1,1.500,1" {
		t.Fatalf("row 1 = %q", lines[1])
	}
	if lines[2] != "1,B1,1,1,0.123,1" {
		t.Fatalf("row 2 = %q", lines[2])
	}
	if !strings.HasSuffix(out, "\r\n") {
		t.Fatal("file must end with CRLF")
	}
	if strings.Contains(strings.ReplaceAll(out, "\r\n", ""), "\n") {
		t.Fatal("every line ending must be CRLF")
	}
}
