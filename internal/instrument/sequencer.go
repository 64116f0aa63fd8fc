// Package instrument renders the machine-readable files consumed by the
// wet-lab hardware: Echo picklists, EpMotion transfer files, Illumina sample
// sheets, and prep-information sheets. Everything here is pure formatting
// over already-computed volumes and assignments.
package instrument

import "regexp"

// laneCounts fixes the lane capacity per sequencer model.
var laneCounts = map[string]int{
	"HiSeq4000": 8,
	"HiSeq3000": 8,
	"HiSeq2500": 2,
	"NovaSeq":   4,
	"NextSeq":   1,
	"MiniSeq":   1,
	"MiSeq":     1,
}

// i5ReverseComplementModels lists the sequencer models whose workflow reads
// the i5 index on the bottom strand, requiring the sample sheet to carry its
// reverse complement.
var i5ReverseComplementModels = map[string]bool{
	"HiSeq4000": true,
	"HiSeq3000": true,
	"NextSeq":   true,
	"MiniSeq":   true,
}

// LaneCount returns the lane capacity of a sequencer model. Unknown models
// are treated as single-lane.
func LaneCount(model string) int {
	if n, ok := laneCounts[model]; ok {
		return n
	}
	return 1
}

// NeedsI5ReverseComplement reports whether sample sheets for the model must
// reverse-complement the i5 index sequence.
func NeedsI5ReverseComplement(model string) bool {
	return i5ReverseComplementModels[model]
}

// ReverseComplement returns the DNA reverse complement of seq. Characters
// outside ACGT (either case) map to N.
func ReverseComplement(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		var c byte
		switch seq[len(seq)-1-i] {
		case 'A', 'a':
			c = 'T'
		case 'C', 'c':
			c = 'G'
		case 'G', 'g':
			c = 'C'
		case 'T', 't':
			c = 'A'
		default:
			c = 'N'
		}
		out[i] = c
	}
	return string(out)
}

var sampleNameScrub = regexp.MustCompile(`[^0-9a-zA-Z_-]+`)

// ScrubSampleName collapses every run of characters outside [0-9a-zA-Z_-]
// into a single underscore, the character set bcl2fastq accepts.
func ScrubSampleName(name string) string {
	return sampleNameScrub.ReplaceAllString(name, "_")
}
