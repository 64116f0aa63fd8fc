package pooling

import (
	"math"
	"testing"
)

func TestEqualVolumeSplitsTotal(t *testing.T) {
	vols := EqualVolume([][]float64{{5, 10}, {20, 40}}, 60)
	for i, row := range vols {
		for j, v := range row {
			if v != 15000 {
				t.Fatalf("well (%d, %d) = %g, want 15000", i, j, v)
			}
		}
	}
}

func TestMinVolumeFloorsLowConcentrations(t *testing.T) {
	vols, err := MinVolume([][]float64{{50, 10}}, DefaultMinVolumeOptions())
	if err != nil {
		t.Fatalf("min volume: %v", err)
	}
	if vols[0][0] != 2 { // 100 / 50
		t.Fatalf("well above floor = %g, want 2", vols[0][0])
	}
	if vols[0][1] != 100 { // below the 40-unit floor
		t.Fatalf("well below floor = %g, want floor volume 100", vols[0][1])
	}
}

func TestMinVolumeRejectsShapeMismatch(t *testing.T) {
	opts := DefaultMinVolumeOptions()
	opts.Fractions = [][]float64{{1}}
	if _, err := MinVolume([][]float64{{1, 2}}, opts); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestAdjustBlankVolumes(t *testing.T) {
	vols, err := AdjustBlankVolumes([][]float64{{10, 20}}, [][]bool{{false, true}}, 3)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if vols[0][0] != 10 || vols[0][1] != 3 {
		t.Fatalf("adjusted volumes = %v", vols)
	}
}

func TestSelectBlanksKeepsMostConcentrated(t *testing.T) {
	vols := [][]float64{{5, 5, 5, 5}}
	concs := [][]float64{{1, 9, 3, 7}}
	isBlank := [][]bool{{true, true, false, true}}
	out, err := SelectBlanks(vols, concs, isBlank, 2)
	if err != nil {
		t.Fatalf("select blanks: %v", err)
	}
	// Blanks at columns 2 and 4 have the highest readings; column 1 zeroes.
	want := []float64{0, 5, 5, 5}
	for j, v := range out[0] {
		if v != want[j] {
			t.Fatalf("column %d = %g, want %g", j+1, v, want[j])
		}
	}
}

func TestEstimatePoolConcVol(t *testing.T) {
	conc, vol, err := EstimatePoolConcVol([]float64{1000, 1000}, []float64{10, 20})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if vol != 2000 {
		t.Fatalf("total volume = %g, want 2000", vol)
	}
	if math.Abs(conc-15) > 1e-9 {
		t.Fatalf("pool concentration = %g, want 15", conc)
	}
	if _, _, err := EstimatePoolConcVol([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
