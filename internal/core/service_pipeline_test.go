package core

import (
	"fmt"
	"testing"

	"labcore/pkg/domain"
)

func TestCreateGDNAExtractionSkipsEmptyWells(t *testing.T) {
	f := newFixture(t)
	plating := f.plateSamples("Test plate 1")
	extraction := f.extractGDNA(plating.Plate.ID, "Test gDNA plate 1")

	wells := f.wellsOf(extraction.Plate.ID)
	if len(wells) != 3 {
		t.Fatalf("got %d output wells, want 3", len(wells))
	}
	err := f.svc.Store().View(f.ctx, func(view TransactionView) error {
		if _, ok := view.WellAt(extraction.Plate.ID, 2, 2); ok {
			t.Fatal("well plated as empty must produce no gDNA well")
		}
		well, ok := view.WellAt(extraction.Plate.ID, 1, 1)
		if !ok {
			t.Fatal("gDNA well A1 missing")
		}
		gdna, ok := view.FindGDNAComposition(well.CompositionID)
		if !ok {
			t.Fatal("well A1 does not hold gDNA")
		}
		sample, ok, err := domain.OriginSample(view, gdna.ID)
		if err != nil || !ok {
			t.Fatalf("origin sample = (%v, %v)", ok, err)
		}
		if sample.Content != "S1" {
			t.Fatalf("A1 origin = %q, want S1", sample.Content)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestCreatePlateCompressionInterleavesQuarters(t *testing.T) {
	f := newFixture(t)
	plating := f.plateSamples("Test plate 1")
	extraction := f.extractGDNA(plating.Plate.ID, "Test gDNA plate 1")

	compression, _, err := f.svc.CreatePlateCompression(f.ctx, PlateCompressionRequest{
		OperatorID:                 f.operator.ID,
		RobotID:                    f.robot.ID,
		GDNAPlateIDs:               []int64{extraction.Plate.ID, extraction.Plate.ID, extraction.Plate.ID, extraction.Plate.ID},
		OutputPlateExternalID:      "Test compressed plate 1",
		OutputPlateConfigurationID: f.config4x4.ID,
		Date:                       testDate,
	})
	if err != nil {
		t.Fatalf("create compression: %v", err)
	}
	wells := f.wellsOf(compression.Plate.ID)
	if len(wells) != 12 {
		t.Fatalf("got %d compressed wells, want 12 (3 source wells x 4 quarters)", len(wells))
	}
	// Source A1 lands on A1/A2/B1/B2 across the four quarters; the missing
	// source B2 leaves C3/C4/D3/D4 empty.
	err = f.svc.Store().View(f.ctx, func(view TransactionView) error {
		for _, pos := range []struct{ row, col int }{{1, 1}, {1, 2}, {2, 1}, {2, 2}} {
			well, ok := view.WellAt(compression.Plate.ID, pos.row, pos.col)
			if !ok {
				t.Fatalf("compressed well (%d, %d) missing", pos.row, pos.col)
			}
			compressed, ok := view.FindCompressedGDNAComposition(well.CompositionID)
			if !ok {
				t.Fatalf("well (%d, %d) does not hold compressed gDNA", pos.row, pos.col)
			}
			sample, ok, err := domain.OriginSample(view, compressed.ID)
			if err != nil || !ok {
				return err
			}
			if sample.Content != "S1" {
				t.Fatalf("well (%d, %d) origin = %q, want S1", pos.row, pos.col, sample.Content)
			}
		}
		for _, pos := range []struct{ row, col int }{{3, 3}, {3, 4}, {4, 3}, {4, 4}} {
			if _, ok := view.WellAt(compression.Plate.ID, pos.row, pos.col); ok {
				t.Fatalf("position (%d, %d) must stay empty", pos.row, pos.col)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestCreatePlateCompressionRejectsMismatchedGeometry(t *testing.T) {
	f := newFixture(t)
	plating := f.plateSamples("Test plate 1")
	extraction := f.extractGDNA(plating.Plate.ID, "Test gDNA plate 1")

	// The output geometry must be exactly double in both dimensions.
	_, _, err := f.svc.CreatePlateCompression(f.ctx, PlateCompressionRequest{
		OperatorID:                 f.operator.ID,
		RobotID:                    f.robot.ID,
		GDNAPlateIDs:               []int64{extraction.Plate.ID},
		OutputPlateExternalID:      "Test compressed plate 1",
		OutputPlateConfigurationID: f.config2x2.ID,
		Date:                       testDate,
	})
	if err == nil {
		t.Fatal("compression onto same-size plate must fail")
	}
}

func TestCreateNormalizationComputesVolumes(t *testing.T) {
	f := newFixture(t)
	plating := f.plateSamples("Test plate 1")
	extraction := f.extractGDNA(plating.Plate.ID, "Test gDNA plate 1")
	compression, _, err := f.svc.CreatePlateCompression(f.ctx, PlateCompressionRequest{
		OperatorID:                 f.operator.ID,
		RobotID:                    f.robot.ID,
		GDNAPlateIDs:               []int64{extraction.Plate.ID, extraction.Plate.ID, extraction.Plate.ID, extraction.Plate.ID},
		OutputPlateExternalID:      "Test compressed plate 1",
		OutputPlateConfigurationID: f.config4x4.ID,
		Date:                       testDate,
	})
	if err != nil {
		t.Fatalf("create compression: %v", err)
	}

	grid := make([][]float64, 4)
	for r := range grid {
		grid[r] = []float64{2, 2, 2, 2}
	}
	// A1 gets a hot concentration, C1 a dead read.
	grid[0][0] = 100
	grid[2][0] = 0
	quant := f.quantifyPlate(compression.Plate.ID, grid)

	norm, _, err := f.svc.CreateNormalization(f.ctx, NormalizationRequest{
		OperatorID:              f.operator.ID,
		QuantificationProcessID: quant.ID,
		WaterLotID:              f.waterProcessID,
		OutputPlateExternalID:   "Test normalized plate 1",
		Params:                  domain.DefaultNormalizationParams(),
		Date:                    testDate,
	})
	if err != nil {
		t.Fatalf("create normalization: %v", err)
	}
	wells := f.wellsOf(norm.Plate.ID)
	if len(wells) != 12 {
		t.Fatalf("got %d normalized wells, want 12", len(wells))
	}
	err = f.svc.Store().View(f.ctx, func(view TransactionView) error {
		for _, want := range []struct {
			row, col         int
			dnaVol, waterVol float64
		}{
			{1, 1, 50, 3450},   // 100 ng/uL needs 50 nL for 5 ng
			{1, 2, 2500, 1000}, // 2 ng/uL needs 2500 nL
			{3, 1, 3500, 0},    // zero concentration saturates to the maximum
		} {
			well, ok := view.WellAt(norm.Plate.ID, want.row, want.col)
			if !ok {
				t.Fatalf("normalized well (%d, %d) missing", want.row, want.col)
			}
			comp, ok := view.FindNormalizedGDNAComposition(well.CompositionID)
			if !ok {
				t.Fatalf("well (%d, %d) does not hold normalized gDNA", want.row, want.col)
			}
			if comp.DNAVolume != want.dnaVol || comp.WaterVolume != want.waterVol {
				t.Fatalf("well (%d, %d) volumes = (%g, %g), want (%g, %g)",
					want.row, want.col, comp.DNAVolume, comp.WaterVolume, want.dnaVol, want.waterVol)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestCreateLibraryPrep16SPairsPrimers(t *testing.T) {
	f := newFixture(t)
	plating := f.plateSamples("Test plate 1")
	extraction := f.extractGDNA(plating.Plate.ID, "Test gDNA plate 1")
	primerPlate := f.seedPrimerSet("EMP 16S V4", "515rcbc", f.config2x2)

	prep := f.prep16S(extraction.Plate.ID, primerPlate.ID, "Test 16S plate 1")
	wells := f.wellsOf(prep.Plate.ID)
	if len(wells) != 3 {
		t.Fatalf("got %d library wells, want 3", len(wells))
	}
	err := f.svc.Store().View(f.ctx, func(view TransactionView) error {
		well, ok := view.WellAt(prep.Plate.ID, 1, 2)
		if !ok {
			t.Fatal("library well A2 missing")
		}
		lib, err := view.CompositionByID(well.CompositionID)
		if err != nil {
			return err
		}
		prep16s, ok := lib.(domain.LibraryPrep16SComposition)
		if !ok {
			t.Fatalf("well A2 holds %T", lib)
		}
		primer, ok := view.FindPrimerComposition(prep16s.PrimerCompositionID)
		if !ok {
			t.Fatal("library primer reference unresolved")
		}
		template, ok := view.FindPrimerSetComposition(primer.PrimerSetCompositionID)
		if !ok {
			t.Fatal("working primer template reference unresolved")
		}
		// A2 is row-major index 1 on the 2x2 primer grid.
		if template.ExternalID != "515rcbc_1" {
			t.Fatalf("A2 primer = %q, want 515rcbc_1", template.ExternalID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestCreateLibraryPrepShotgunAssignsCombos(t *testing.T) {
	f := newFixture(t)
	run := f.buildShotgunRun()

	wells := f.wellsOf(run.prep.Plate.ID)
	if len(wells) != 12 {
		t.Fatalf("got %d shotgun wells, want 12", len(wells))
	}
	if len(run.prep.Combos) != 12 {
		t.Fatalf("got %d combos, want 12", len(run.prep.Combos))
	}
	if run.prep.Combos[0].I5.Name != "iTru5_0" || run.prep.Combos[0].I7.Name != "iTru7_0" {
		t.Fatalf("first combo = %+v", run.prep.Combos[0])
	}

	err := f.svc.Store().View(f.ctx, func(view TransactionView) error {
		set, ok := view.FindShotgunPrimerSet(run.shotgunSet.ID)
		if !ok {
			t.Fatal("shotgun primer set missing")
		}
		if set.CurrentComboIndex != 12 {
			t.Fatalf("cursor = %d, want 12", set.CurrentComboIndex)
		}
		// The first well in interleaving order is A1; its i5 primer is the
		// row-major first well of the i5 working plate.
		well, ok := view.WellAt(run.prep.Plate.ID, 1, 1)
		if !ok {
			t.Fatal("shotgun well A1 missing")
		}
		comp, err := view.CompositionByID(well.CompositionID)
		if err != nil {
			return err
		}
		lib, ok := comp.(domain.LibraryPrepShotgunComposition)
		if !ok {
			t.Fatalf("well A1 holds %T", comp)
		}
		primer, ok := view.FindPrimerComposition(lib.I5PrimerCompositionID)
		if !ok {
			t.Fatal("i5 primer reference unresolved")
		}
		template, ok := view.FindPrimerSetComposition(primer.PrimerSetCompositionID)
		if !ok {
			t.Fatal("i5 template reference unresolved")
		}
		if template.ExternalID != "iTru5_0" {
			t.Fatalf("A1 i5 primer = %q, want iTru5_0", template.ExternalID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

// shotgunRun is a fully built shotgun pipeline over a 4x4 compressed plate.
type shotgunRun struct {
	samplePlate     domain.Plate
	gdnaPlate       domain.Plate
	compressedPlate domain.Plate
	normPlate       domain.Plate
	normProcess     domain.NormalizationProcess
	compressedQuant domain.QuantificationProcess
	shotgunSet      domain.ShotgunPrimerSet
	prep            LibraryPrepShotgunResult
}

func (f *fixture) buildShotgunRun() shotgunRun {
	f.t.Helper()
	plating := f.plateSamples("Test plate 1")
	extraction := f.extractGDNA(plating.Plate.ID, "Test gDNA plate 1")
	compression, _, err := f.svc.CreatePlateCompression(f.ctx, PlateCompressionRequest{
		OperatorID:                 f.operator.ID,
		RobotID:                    f.robot.ID,
		GDNAPlateIDs:               []int64{extraction.Plate.ID, extraction.Plate.ID, extraction.Plate.ID, extraction.Plate.ID},
		OutputPlateExternalID:      "Test compressed plate 1",
		OutputPlateConfigurationID: f.config4x4.ID,
		Date:                       testDate,
	})
	if err != nil {
		f.t.Fatalf("create compression: %v", err)
	}
	grid := make([][]float64, 4)
	for r := range grid {
		grid[r] = []float64{2, 2, 2, 2}
	}
	quant := f.quantifyPlate(compression.Plate.ID, grid)
	norm, _, err := f.svc.CreateNormalization(f.ctx, NormalizationRequest{
		OperatorID:              f.operator.ID,
		QuantificationProcessID: quant.ID,
		WaterLotID:              f.waterProcessID,
		OutputPlateExternalID:   "Test normalized plate 1",
		Params:                  domain.DefaultNormalizationParams(),
		Date:                    testDate,
	})
	if err != nil {
		f.t.Fatalf("create normalization: %v", err)
	}

	i5Plate := f.seedPrimerSet("iTru5", "iTru5", f.config4x4)
	i7Plate := f.seedPrimerSet("iTru7", "iTru7", f.config4x4)
	combos := make([]domain.IndexCombo, 16)
	for i := range combos {
		combos[i] = domain.IndexCombo{
			I5: domain.IndexPrimer{Name: fmt.Sprintf("iTru5_%d", i), Sequence: "ACCGACAA"},
			I7: domain.IndexPrimer{Name: fmt.Sprintf("iTru7_%d", i), Sequence: "ACGTTACC"},
		}
	}
	set, _, err := f.svc.RegisterShotgunPrimerSet(f.ctx, "iTru combos", combos)
	if err != nil {
		f.t.Fatalf("register shotgun primer set: %v", err)
	}
	prep, _, err := f.svc.CreateLibraryPrepShotgun(f.ctx, LibraryPrepShotgunRequest{
		OperatorID:            f.operator.ID,
		NormalizedPlateID:     norm.Plate.ID,
		I5PlateID:             i5Plate.ID,
		I7PlateID:             i7Plate.ID,
		ShotgunPrimerSetID:    set.ID,
		OutputPlateExternalID: "Test shotgun plate 1",
		KitID:                 f.kitProcessID,
		StubLotID:             f.waterProcessID,
		Volume:                50,
		Date:                  testDate,
	})
	if err != nil {
		f.t.Fatalf("create shotgun prep: %v", err)
	}
	return shotgunRun{
		samplePlate:     plating.Plate,
		gdnaPlate:       extraction.Plate,
		compressedPlate: compression.Plate,
		normPlate:       norm.Plate,
		normProcess:     norm.Process,
		compressedQuant: quant,
		shotgunSet:      set,
		prep:            prep,
	}
}
