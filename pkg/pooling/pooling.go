// Package pooling implements the pure numeric volume calculators used to
// combine quantified libraries into pools. Inputs are 2-D concentration
// grids mirroring plate geometry; outputs are per-well transfer volumes in
// nL. NaN concentrations propagate as sentinels rather than failing a
// whole-plate computation.
package pooling

import "fmt"

// MinVolumeOptions parameterizes the weighted floor-and-cap strategy.
type MinVolumeOptions struct {
	// Fractions are per-sample target fractions; nil means uniform.
	Fractions [][]float64
	// FloorVol is assigned verbatim to samples below FloorConc.
	FloorVol  float64
	FloorConc float64
	// Total is the target amount distributed across samples (per sample
	// when TotalEach is set).
	Total       float64
	TotalEach   bool
	VolConstant float64
}

// DefaultMinVolumeOptions returns the wet-lab defaults: 100 nL floor below
// 40 units of concentration, target 100 per sample.
func DefaultMinVolumeOptions() MinVolumeOptions {
	return MinVolumeOptions{
		FloorVol:    100,
		FloorConc:   40,
		Total:       100,
		TotalEach:   true,
		VolConstant: 1,
	}
}

// EqualVolume assigns the same volume to every well regardless of
// concentration: total_vol_uL / n_samples, converted to nL.
func EqualVolume(concs [][]float64, totalVolUL float64) [][]float64 {
	n := cellCount(concs)
	out := make([][]float64, len(concs))
	for i, row := range concs {
		out[i] = make([]float64, len(row))
		for j := range row {
			out[i][j] = totalVolUL / float64(n) * 1000
		}
	}
	return out
}

// MinVolume computes per-sample volumes as (total * fraction) / conc *
// vol_constant, with every sample below the concentration floor assigned
// exactly the floor volume. This protects against over-diluting from a
// near-zero-concentration well.
func MinVolume(concs [][]float64, opts MinVolumeOptions) ([][]float64, error) {
	if opts.Fractions != nil && !sameShape(concs, opts.Fractions) {
		return nil, fmt.Errorf("fractions shape does not match concentrations")
	}
	n := cellCount(concs)
	out := make([][]float64, len(concs))
	for i, row := range concs {
		out[i] = make([]float64, len(row))
		for j, conc := range row {
			frac := 1.0
			if opts.Fractions != nil {
				frac = opts.Fractions[i][j]
			} else if !opts.TotalEach {
				frac = 1.0 / float64(n)
			}
			v := opts.Total * frac / conc * opts.VolConstant
			if conc < opts.FloorConc {
				v = opts.FloorVol
			}
			out[i][j] = v
		}
	}
	return out, nil
}

// AdjustBlankVolumes overrides every blank well's volume with a fixed value.
func AdjustBlankVolumes(vols [][]float64, isBlank [][]bool, blankVol float64) ([][]float64, error) {
	if !sameShapeBool(vols, isBlank) {
		return nil, fmt.Errorf("blank mask shape does not match volumes")
	}
	out := make([][]float64, len(vols))
	for i, row := range vols {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
		for j := range row {
			if isBlank[i][j] {
				out[i][j] = blankVol
			}
		}
	}
	return out, nil
}

// SelectBlanks keeps only the keepN most concentrated blank wells in the
// pool, zeroing the volume of every other blank. Sample wells are untouched.
func SelectBlanks(vols, rawConcs [][]float64, isBlank [][]bool, keepN int) ([][]float64, error) {
	if keepN < 0 {
		return nil, fmt.Errorf("keepN must be non-negative: %d", keepN)
	}
	if !sameShape(vols, rawConcs) || !sameShapeBool(vols, isBlank) {
		return nil, fmt.Errorf("volumes, concentrations and blank mask shapes disagree")
	}
	type blank struct {
		i, j int
		conc float64
	}
	var blanks []blank
	for i, row := range isBlank {
		for j, b := range row {
			if b {
				blanks = append(blanks, blank{i, j, rawConcs[i][j]})
			}
		}
	}
	// Rank blanks by raw concentration descending; stable order breaks ties
	// by plate position.
	for a := 1; a < len(blanks); a++ {
		for b := a; b > 0 && blanks[b].conc > blanks[b-1].conc; b-- {
			blanks[b], blanks[b-1] = blanks[b-1], blanks[b]
		}
	}
	out := make([][]float64, len(vols))
	for i, row := range vols {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	for idx, b := range blanks {
		if idx >= keepN {
			out[b.i][b.j] = 0
		}
	}
	return out, nil
}

// EstimatePoolConcVol returns the expected pool concentration (nM) and total
// volume (nL) of combining the given per-sample volumes (nL) at the given
// concentrations (nM): the pool concentration is the volume-weighted mean.
func EstimatePoolConcVol(vols, concs []float64) (poolConc, totalVol float64, err error) {
	if len(vols) != len(concs) {
		return 0, 0, fmt.Errorf("volumes and concentrations length mismatch: %d != %d", len(vols), len(concs))
	}
	var totalPmol float64
	for i := range vols {
		totalVol += vols[i]
		totalPmol += concs[i] * vols[i] * 1e-9
	}
	if totalVol > 0 {
		poolConc = totalPmol / (totalVol * 1e-9)
	}
	return poolConc, totalVol, nil
}

func cellCount(grid [][]float64) int {
	n := 0
	for _, row := range grid {
		n += len(row)
	}
	return n
}

func sameShape(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
	}
	return true
}

func sameShapeBool(a [][]float64, b [][]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
	}
	return true
}
