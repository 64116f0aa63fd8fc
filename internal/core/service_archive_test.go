package core

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"labcore/internal/blob"
)

func TestArchiveRunStoresAllArtifacts(t *testing.T) {
	f := newFixture(t)
	run := f.buildAmplicon16SRun()
	store := blob.NewMemory()

	archive, err := f.svc.ArchiveRun(f.ctx, store, run.seqProcID)
	if err != nil {
		t.Fatalf("archive run: %v", err)
	}
	want := []string{
		"SampleSheet.csv",
		fmt.Sprintf("EpMotion_pool_%d.csv", run.poolProcID),
		fmt.Sprintf("Echo_pool_%d.csv", run.poolProcID),
	}
	if len(archive.Keys) != len(want) {
		t.Fatalf("got %d keys, want %d: %v", len(archive.Keys), len(want), archive.Keys)
	}
	prefix := fmt.Sprintf("runs/%s/", archive.RunID)
	for i, name := range want {
		if archive.Keys[i] != prefix+name {
			t.Fatalf("key[%d] = %q, want %q", i, archive.Keys[i], prefix+name)
		}
	}

	info, rc, err := store.Get(f.ctx, prefix+"SampleSheet.csv")
	if err != nil {
		t.Fatalf("get sample sheet: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read sample sheet: %v", err)
	}
	if !strings.Contains(string(body), "[Data]") {
		t.Fatalf("stored sheet malformed:\n%s", body)
	}
	if info.ContentType != "text/csv" {
		t.Fatalf("content type = %q", info.ContentType)
	}
	if got := info.Metadata["sequencing_process_id"]; got != fmt.Sprintf("%d", run.seqProcID) {
		t.Fatalf("metadata = %v", info.Metadata)
	}
}

func TestArchiveRunUnknownProcess(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.ArchiveRun(f.ctx, blob.NewMemory(), 9999); err == nil {
		t.Fatal("archiving an unknown process must fail")
	}
}
