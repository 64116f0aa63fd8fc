package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"labcore/internal/infra/persistence/memory"
	"labcore/internal/registry"
	"labcore/pkg/domain"
)

var testDate = time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

// fixture wires a service over the in-memory store with the reference data
// every pipeline run needs: an operator, a study, plate geometries, lab
// equipment, and reagent lots.
type fixture struct {
	t   *testing.T
	ctx context.Context
	svc *Service
	reg *registry.Registry

	operator  domain.User
	study     domain.Study
	config2x2 domain.PlateConfiguration
	config4x4 domain.PlateConfiguration
	robot     domain.Equipment
	tool      domain.Equipment
	miseq     domain.Equipment
	hiseq     domain.Equipment

	kitProcessID       int64
	masterMixProcessID int64
	waterProcessID     int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:   t,
		ctx: context.Background(),
		reg: registry.New(),
	}
	store := memory.NewStore(DefaultRulesEngine())
	f.svc = NewService(store, f.reg)

	var err error
	f.operator, _, err = f.svc.CreateUser(f.ctx, domain.User{Email: "dorothy@lab.example", Name: "Dorothy"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	f.study, _, err = f.svc.CreateStudy(f.ctx, domain.Study{Title: "Identification of microbiomes", Alias: "Study 1"})
	if err != nil {
		t.Fatalf("create study: %v", err)
	}
	f.config2x2, _, err = f.svc.CreatePlateConfiguration(f.ctx, domain.PlateConfiguration{Description: "2x2 test plate", NumRows: 2, NumColumns: 2})
	if err != nil {
		t.Fatalf("create 2x2 configuration: %v", err)
	}
	f.config4x4, _, err = f.svc.CreatePlateConfiguration(f.ctx, domain.PlateConfiguration{Description: "4x4 test plate", NumRows: 4, NumColumns: 4})
	if err != nil {
		t.Fatalf("create 4x4 configuration: %v", err)
	}

	f.robot = f.equipment("JerE", "EpMotion")
	f.tool = f.equipment("108379Z", "tm1000-8")
	f.miseq = f.equipment("MiSeq01", "MiSeq")
	f.hiseq = f.equipment("HiSeq01", "HiSeq4000")

	f.kitProcessID = f.reagent("157022406", "extraction kit")
	f.masterMixProcessID = f.reagent("443912", "master mix")
	f.waterProcessID = f.reagent("RNBF7110", "water")

	for _, sampleID := range []string{"S1", "S2", "S3"} {
		f.reg.RegisterSample(registry.SampleRecord{SampleID: sampleID, StudyID: f.study.ID})
	}
	return f
}

func (f *fixture) equipment(externalID, equipmentType string) domain.Equipment {
	f.t.Helper()
	eq, _, err := f.svc.CreateEquipment(f.ctx, domain.Equipment{ExternalID: externalID, EquipmentType: equipmentType})
	if err != nil {
		f.t.Fatalf("create equipment %s: %v", externalID, err)
	}
	return eq
}

func (f *fixture) reagent(lotID, reagentType string) int64 {
	f.t.Helper()
	out, _, err := f.svc.CreateReagent(f.ctx, ReagentCreationRequest{
		OperatorID:    f.operator.ID,
		ExternalLotID: lotID,
		ReagentType:   reagentType,
		Volume:        100000,
		Date:          testDate,
	})
	if err != nil {
		f.t.Fatalf("create reagent %s: %v", lotID, err)
	}
	return out.Process.ID
}

// plateSamples creates a 2x2 sample plate and assigns S1, S2, a vibrio
// control, and an empty well.
func (f *fixture) plateSamples(externalID string) SamplePlatingResult {
	f.t.Helper()
	plating, _, err := f.svc.CreateSamplePlating(f.ctx, SamplePlatingRequest{
		OperatorID:           f.operator.ID,
		PlateConfigurationID: f.config2x2.ID,
		PlateExternalID:      externalID,
		StartingVolume:       10,
		Date:                 testDate,
	})
	if err != nil {
		f.t.Fatalf("create sample plating: %v", err)
	}
	for _, assign := range []struct {
		row, col int
		content  string
	}{
		{1, 1, "S1"},
		{1, 2, "S2"},
		{2, 1, domain.SampleTypeVibrioPositiveControl},
		{2, 2, domain.SampleTypeEmpty},
	} {
		if _, _, _, err := f.svc.UpdatePlatedSample(f.ctx, plating.Plate.ID, assign.row, assign.col, assign.content); err != nil {
			f.t.Fatalf("assign (%d, %d): %v", assign.row, assign.col, err)
		}
	}
	return plating
}

func (f *fixture) extractGDNA(sourcePlateID int64, externalID string) GDNAExtractionResult {
	f.t.Helper()
	out, _, err := f.svc.CreateGDNAExtraction(f.ctx, GDNAExtractionRequest{
		OperatorID:            f.operator.ID,
		SourcePlateID:         sourcePlateID,
		OutputPlateExternalID: externalID,
		RobotID:               f.robot.ID,
		ToolID:                f.tool.ID,
		KitID:                 f.kitProcessID,
		Volume:                10,
		Date:                  testDate,
	})
	if err != nil {
		f.t.Fatalf("create gDNA extraction: %v", err)
	}
	return out
}

// seedPrimerSet registers a primer set with one fully populated template
// plate of the given geometry and returns its working plate. Template primer
// names are "<prefix>_<well>", barcodes "<prefix>" plus a unique suffix over
// the ACGT alphabet.
func (f *fixture) seedPrimerSet(setName, platePrefix string, config domain.PlateConfiguration) domain.Plate {
	f.t.Helper()
	primers := make([][]*PrimerTemplate, config.NumRows)
	letters := []byte{'A', 'C', 'G', 'T'}
	for r := range primers {
		primers[r] = make([]*PrimerTemplate, config.NumColumns)
		for c := range primers[r] {
			index := r*config.NumColumns + c
			barcode := []byte("AGCCTTCGTCGC")
			barcode[0] = letters[index%4]
			barcode[1] = letters[(index/4)%4]
			primers[r][c] = &PrimerTemplate{
				Barcode:    string(barcode),
				ExternalID: fmt.Sprintf("%s_%d", platePrefix, index),
			}
		}
	}
	set, _, err := f.svc.RegisterPrimerSet(f.ctx, PrimerSetSeedRequest{
		ExternalID: setName,
		TargetName: "16S rRNA V4",
		TemplatePlates: []PrimerTemplatePlate{{
			ExternalID:           platePrefix + " template plate",
			PlateConfigurationID: config.ID,
			Primers:              primers,
		}},
	})
	if err != nil {
		f.t.Fatalf("register primer set %s: %v", setName, err)
	}
	working, _, err := f.svc.CreatePrimerWorkingPlates(f.ctx, PrimerWorkingPlateRequest{
		OperatorID:  f.operator.ID,
		PrimerSetID: set.ID,
		Date:        testDate,
	})
	if err != nil {
		f.t.Fatalf("create working plates for %s: %v", setName, err)
	}
	if len(working.Plates) != 1 {
		f.t.Fatalf("got %d working plates, want 1", len(working.Plates))
	}
	return working.Plates[0]
}

func (f *fixture) prep16S(gdnaPlateID, primerPlateID int64, externalID string) LibraryPrep16SResult {
	f.t.Helper()
	out, _, err := f.svc.CreateLibraryPrep16S(f.ctx, LibraryPrep16SRequest{
		OperatorID:            f.operator.ID,
		GDNAPlateID:           gdnaPlateID,
		PrimerPlateID:         primerPlateID,
		OutputPlateExternalID: externalID,
		RobotID:               f.robot.ID,
		Tool300ID:             f.tool.ID,
		Tool50ID:              f.tool.ID,
		MasterMixID:           f.masterMixProcessID,
		WaterLotID:            f.waterProcessID,
		Volume:                10,
		Date:                  testDate,
	})
	if err != nil {
		f.t.Fatalf("create 16S library prep: %v", err)
	}
	return out
}

func (f *fixture) quantifyPlate(plateID int64, grid [][]float64) domain.QuantificationProcess {
	f.t.Helper()
	quant, _, err := f.svc.CreateQuantification(f.ctx, QuantificationRequest{
		OperatorID:     f.operator.ID,
		PlateID:        &plateID,
		Concentrations: grid,
		Date:           testDate,
	})
	if err != nil {
		f.t.Fatalf("create quantification: %v", err)
	}
	return quant
}

// wellsOf lists the wells of a plate with their composition ids, ascending by
// well id.
func (f *fixture) wellsOf(plateID int64) []domain.Well {
	f.t.Helper()
	var wells []domain.Well
	err := f.svc.Store().View(f.ctx, func(view TransactionView) error {
		wells = view.WellsOnPlate(plateID)
		return nil
	})
	if err != nil {
		f.t.Fatalf("list wells: %v", err)
	}
	return wells
}

func (f *fixture) poolWells(quantProcessID int64, poolName string, wells []domain.Well, volumeEach float64) PoolingResult {
	f.t.Helper()
	components := make([]PoolComponentInput, 0, len(wells))
	for _, w := range wells {
		components = append(components, PoolComponentInput{
			CompositionID:      w.CompositionID,
			InputVolume:        volumeEach,
			PercentageOfOutput: 100 / float64(len(wells)),
		})
	}
	out, _, err := f.svc.CreatePooling(f.ctx, PoolingRequest{
		OperatorID:              f.operator.ID,
		QuantificationProcessID: quantProcessID,
		PoolName:                poolName,
		TotalVolume:             volumeEach * float64(len(wells)),
		Components:              components,
		FunctionName:            "equal",
		Date:                    testDate,
	})
	if err != nil {
		f.t.Fatalf("create pooling: %v", err)
	}
	return out
}

func (f *fixture) sequence(sequencerID int64, runName string, poolIDs []int64) domain.SequencingProcess {
	f.t.Helper()
	seq, _, err := f.svc.CreateSequencing(f.ctx, SequencingRequest{
		OperatorID:              f.operator.ID,
		RunName:                 runName,
		ExperimentName:          runName,
		SequencerID:             sequencerID,
		FwdCycles:               151,
		RevCycles:               151,
		Assay:                   "TruSeq HT",
		PrincipalInvestigatorID: f.operator.ID,
		ContactIDs:              []int64{f.operator.ID},
		PoolIDs:                 poolIDs,
		Date:                    testDate,
	})
	if err != nil {
		f.t.Fatalf("create sequencing: %v", err)
	}
	return seq
}
