// Package normalize implements the normalization volume calculation that
// turns raw gDNA concentrations into per-well DNA and water transfer
// volumes for the Echo dispenser.
package normalize

import "math"

// DNAVolume computes the DNA transfer volume (nL) needed to hit targetNG
// nanograms from a well at conc ng/uL, rounded to the nearest multiple of
// resolution and clipped into [minVol, maxVol]. A NaN or zero concentration
// saturates to maxVol: the division by a near-zero reading produces an
// arbitrarily large volume which the clip caps, so a missing reading becomes
// a capped transfer instead of a failure.
func DNAVolume(conc, targetNG, minVol, maxVol, resolution float64) float64 {
	if math.IsNaN(conc) {
		conc = 0
	}
	v := targetNG / conc * 1000
	v = math.Round(v/resolution) * resolution
	if v < minVol {
		v = minVol
	}
	if v > maxVol {
		v = maxVol
	}
	return v
}

// DNAVolumes applies DNAVolume across a concentration grid.
func DNAVolumes(concs [][]float64, targetNG, minVol, maxVol, resolution float64) [][]float64 {
	out := make([][]float64, len(concs))
	for i, row := range concs {
		out[i] = make([]float64, len(row))
		for j, conc := range row {
			out[i][j] = DNAVolume(conc, targetNG, minVol, maxVol, resolution)
		}
	}
	return out
}

// WaterVolumes returns totalVol minus the DNA volume for every well.
func WaterVolumes(dnaVols [][]float64, totalVol float64) [][]float64 {
	out := make([][]float64, len(dnaVols))
	for i, row := range dnaVols {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = totalVol - v
		}
	}
	return out
}

// LibraryConcentration converts a raw ng/uL DNA reading into a nanomolar
// library concentration for the given mean fragment size in base pairs:
// nM = ng/uL / (660 * size_bp) * 10^6.
func LibraryConcentration(ngPerUL float64, sizeBP int) float64 {
	return ngPerUL / (660 * float64(sizeBP)) * 1e6
}
