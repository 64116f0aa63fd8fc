package instrument

import (
	"fmt"
	"strings"
)

// EpMotionRow is one transfer of an EpMotion pool file.
type EpMotionRow struct {
	SourceWell string
	DestWell   string
	Volume     float64
}

// EpMotionPoolFile renders the comma-separated transfer file for the
// EpMotion liquid handler. Rack and tool literals are fixed at 1 and line
// endings are CRLF: the file is consumed by a Windows-hosted instrument PC.
func EpMotionPoolFile(rows []EpMotionRow) string {
	var b strings.Builder
	b.WriteString("Rack,Source,Rack,Destination,Volume,Tool\r\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "1,%s,1,%s,%.3f,1\r\n", r.SourceWell, r.DestWell, r.Volume)
	}
	return b.String()
}
