package core

import (
	"context"
	"fmt"

	"labcore/internal/instrument"
	"labcore/pkg/domain"
	"labcore/pkg/layout"
)

// GenerateNormalizationPicklist renders the Echo picklist for a committed
// normalization run: one water row and one DNA row per normalized well.
func (s *Service) GenerateNormalizationPicklist(ctx context.Context, normProcessID int64) (string, error) {
	var picklist string
	err := s.view(ctx, "generate_normalization_picklist", func(view TransactionView) error {
		process, err := view.ProcessByID(normProcessID)
		if err != nil {
			return err
		}
		norm, ok := process.(domain.NormalizationProcess)
		if !ok {
			return domain.Invalidf("process %d is not a normalization process", normProcessID)
		}
		quant, ok := view.FindQuantificationProcess(norm.QuantificationProcessID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityProcess, ID: norm.QuantificationProcessID}
		}
		concByComposition := make(map[int64]float64, len(quant.Readings))
		for _, r := range quant.Readings {
			concByComposition[r.CompositionID] = r.RawConcentration
		}

		var rows []instrument.NormalizationPicklistRow
		for _, well := range view.WellsOnPlate(norm.OutputPlateID) {
			normComp, ok := view.FindNormalizedGDNAComposition(well.CompositionID)
			if !ok {
				continue
			}
			compressed, ok := view.FindCompressedGDNAComposition(normComp.CompressedGDNACompositionID)
			if !ok {
				return domain.UnknownIDError{Entity: domain.EntityComposition, ID: normComp.CompressedGDNACompositionID}
			}
			srcWell, ok := view.FindWell(compressed.Container.ID)
			if !ok {
				return domain.UnknownIDError{Entity: domain.EntityWell, ID: compressed.Container.ID}
			}
			sample, _, err := domain.OriginSample(view, normComp.ID)
			if err != nil {
				return err
			}
			rows = append(rows, instrument.NormalizationPicklistRow{
				SampleID:      sample.Content,
				SourceWell:    layout.WellName(srcWell.Row, srcWell.Column),
				DestWell:      layout.WellName(well.Row, well.Column),
				Concentration: concByComposition[compressed.ID],
				DNAVolume:     normComp.DNAVolume,
				WaterVolume:   normComp.WaterVolume,
			})
		}
		picklist = instrument.NormalizationPicklist(rows, instrument.DefaultNormalizationPicklistOptions())
		return nil
	})
	return picklist, err
}

// GenerateIndexPicklist renders the Echo picklist assigning i5/i7 index
// primers to a committed shotgun library prep.
func (s *Service) GenerateIndexPicklist(ctx context.Context, shotgunProcessID int64) (string, error) {
	var picklist string
	err := s.view(ctx, "generate_index_picklist", func(view TransactionView) error {
		process, err := view.ProcessByID(shotgunProcessID)
		if err != nil {
			return err
		}
		prep, ok := process.(domain.LibraryPrepShotgunProcess)
		if !ok {
			return domain.Invalidf("process %d is not a shotgun library prep", shotgunProcessID)
		}
		i5Plate, _ := view.FindPlate(prep.I5PlateID)
		i7Plate, _ := view.FindPlate(prep.I7PlateID)

		var i5Rows, i7Rows []instrument.IndexPicklistRow
		for _, well := range view.WellsOnPlate(prep.OutputPlateID) {
			libComp, err := view.CompositionByID(well.CompositionID)
			if err != nil {
				return err
			}
			lib, ok := libComp.(domain.LibraryPrepShotgunComposition)
			if !ok {
				continue
			}
			sample, _, err := domain.OriginSample(view, lib.ID)
			if err != nil {
				return err
			}
			destWell := layout.WellName(well.Row, well.Column)
			i5Row, err := indexPicklistRow(view, lib.I5PrimerCompositionID, i5Plate.ExternalID, sample.Content, destWell)
			if err != nil {
				return err
			}
			i7Row, err := indexPicklistRow(view, lib.I7PrimerCompositionID, i7Plate.ExternalID, sample.Content, destWell)
			if err != nil {
				return err
			}
			i5Rows = append(i5Rows, i5Row)
			i7Rows = append(i7Rows, i7Row)
		}
		picklist = instrument.IndexPicklist(i5Rows, i7Rows, instrument.DefaultIndexPicklistOptions())
		return nil
	})
	return picklist, err
}

func indexPicklistRow(view TransactionView, primerCompID int64, plateName, sample, destWell string) (instrument.IndexPicklistRow, error) {
	primer, ok := view.FindPrimerComposition(primerCompID)
	if !ok {
		return instrument.IndexPicklistRow{}, domain.UnknownIDError{Entity: domain.EntityComposition, ID: primerCompID}
	}
	template, ok := view.FindPrimerSetComposition(primer.PrimerSetCompositionID)
	if !ok {
		return instrument.IndexPicklistRow{}, domain.UnknownIDError{Entity: domain.EntityComposition, ID: primer.PrimerSetCompositionID}
	}
	primerWell, ok := view.FindWell(primer.Container.ID)
	if !ok {
		return instrument.IndexPicklistRow{}, domain.UnknownIDError{Entity: domain.EntityWell, ID: primer.Container.ID}
	}
	return instrument.IndexPicklistRow{
		Sample:          sample,
		SourcePlateName: plateName,
		SourceWell:      layout.WellName(primerWell.Row, primerWell.Column),
		IndexName:       template.ExternalID,
		IndexSequence:   template.Barcode,
		DestWell:        destWell,
	}, nil
}

// poolComponentSources resolves the source well and plate of every pool
// component, with the raw concentration recorded for it by the pooling
// run's quantification process.
func poolComponentSources(view TransactionView, pooling domain.PoolingProcess) ([]instrument.PoolPicklistRow, error) {
	pool, ok := view.FindPoolComposition(pooling.PoolCompositionID)
	if !ok {
		return nil, domain.UnknownIDError{Entity: domain.EntityComposition, ID: pooling.PoolCompositionID}
	}
	quant, ok := view.FindQuantificationProcess(pooling.QuantificationProcessID)
	if !ok {
		return nil, domain.UnknownIDError{Entity: domain.EntityProcess, ID: pooling.QuantificationProcessID}
	}
	concByComposition := make(map[int64]float64, len(quant.Readings))
	for _, r := range quant.Readings {
		concByComposition[r.CompositionID] = r.RawConcentration
	}

	var rows []instrument.PoolPicklistRow
	for _, component := range pool.Components {
		comp, err := view.CompositionByID(component.CompositionID)
		if err != nil {
			return nil, err
		}
		container := comp.Common().Container
		if container.Kind != domain.ContainerWell {
			return nil, domain.Invalidf("pool component %d is not plated in a well", component.CompositionID)
		}
		well, ok := view.FindWell(container.ID)
		if !ok {
			return nil, domain.UnknownIDError{Entity: domain.EntityWell, ID: container.ID}
		}
		plate, ok := view.FindPlate(well.PlateID)
		if !ok {
			return nil, domain.UnknownIDError{Entity: domain.EntityPlate, ID: well.PlateID}
		}
		rows = append(rows, instrument.PoolPicklistRow{
			SourcePlateName: plate.ExternalID,
			SourceWell:      layout.WellName(well.Row, well.Column),
			Concentration:   concByComposition[component.CompositionID],
			Volume:          component.InputVolume,
		})
	}
	return rows, nil
}

// GeneratePoolPicklist renders the Echo pooling picklist for a committed
// pooling run, accumulating transfers per destination well.
func (s *Service) GeneratePoolPicklist(ctx context.Context, poolingProcessID int64) (string, error) {
	var picklist string
	err := s.view(ctx, "generate_pool_picklist", func(view TransactionView) error {
		process, err := view.ProcessByID(poolingProcessID)
		if err != nil {
			return err
		}
		pooling, ok := process.(domain.PoolingProcess)
		if !ok {
			return domain.Invalidf("process %d is not a pooling process", poolingProcessID)
		}
		rows, err := poolComponentSources(view, pooling)
		if err != nil {
			return err
		}
		picklist, err = instrument.PoolPicklist(rows, instrument.DefaultPoolPicklistOptions())
		return err
	})
	return picklist, err
}

// GenerateEpMotionPoolFile renders the EpMotion transfer file for a
// committed amplicon pooling run: one row per pooled component, volumes to
// three decimal places, CRLF endings.
func (s *Service) GenerateEpMotionPoolFile(ctx context.Context, poolingProcessID int64) (string, error) {
	var file string
	err := s.view(ctx, "generate_epmotion_pool_file", func(view TransactionView) error {
		process, err := view.ProcessByID(poolingProcessID)
		if err != nil {
			return err
		}
		pooling, ok := process.(domain.PoolingProcess)
		if !ok {
			return domain.Invalidf("process %d is not a pooling process", poolingProcessID)
		}
		sources, err := poolComponentSources(view, pooling)
		if err != nil {
			return err
		}
		rows := make([]instrument.EpMotionRow, 0, len(sources))
		for _, src := range sources {
			rows = append(rows, instrument.EpMotionRow{
				SourceWell: src.SourceWell,
				DestWell:   "1",
				Volume:     src.Volume,
			})
		}
		file = instrument.EpMotionPoolFile(rows)
		return nil
	})
	return file, err
}

// GenerateSampleSheet renders the Illumina sample sheet for a committed
// sequencing run. Shotgun library components produce per-sample rows with
// their index assignments; other pools produce one row per lane.
func (s *Service) GenerateSampleSheet(ctx context.Context, sequencingProcessID int64) (string, error) {
	var sheet string
	err := s.view(ctx, "generate_sample_sheet", func(view TransactionView) error {
		process, err := view.ProcessByID(sequencingProcessID)
		if err != nil {
			return err
		}
		seq, ok := process.(domain.SequencingProcess)
		if !ok {
			return domain.Invalidf("process %d is not a sequencing process", sequencingProcessID)
		}
		sequencer, ok := view.FindEquipment(seq.SequencerID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityEquipment, ID: seq.SequencerID}
		}
		pi, ok := view.FindUser(seq.PrincipalInvestigatorID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityUser, ID: seq.PrincipalInvestigatorID}
		}
		comments := []string{fmt.Sprintf("PI,%s,%s", pi.Name, pi.Email)}
		for _, contactID := range seq.ContactIDs {
			if contact, ok := view.FindUser(contactID); ok {
				comments = append(comments, fmt.Sprintf("Contact,%s,%s", contact.Name, contact.Email))
			}
		}

		amplicon := true
		var samples []instrument.SampleSheetSample
		for lane, poolID := range seq.PoolIDs {
			pool, ok := view.FindPoolComposition(poolID)
			if !ok {
				return domain.UnknownIDError{Entity: domain.EntityComposition, ID: poolID}
			}
			rows, shotgun, err := sampleSheetRowsForPool(view, pool, lane+1, seq.RunName)
			if err != nil {
				return err
			}
			if shotgun {
				amplicon = false
			}
			samples = append(samples, rows...)
		}

		sheet = instrument.SampleSheet(instrument.SampleSheetData{
			Comments:         comments,
			InvestigatorName: pi.Name,
			ExperimentName:   seq.ExperimentName,
			Date:             seq.Date,
			Assay:            seq.Assay,
			Description:      seq.RunName,
			Chemistry:        "Default",
			FwdCycles:        seq.FwdCycles,
			RevCycles:        seq.RevCycles,
			SequencerModel:   sequencer.EquipmentType,
			Amplicon:         amplicon,
			Samples:          samples,
		})
		return nil
	})
	return sheet, err
}

func sampleSheetRowsForPool(view TransactionView, pool domain.PoolComposition, lane int, runName string) ([]instrument.SampleSheetSample, bool, error) {
	var rows []instrument.SampleSheetSample
	shotgun := false
	for _, component := range pool.Components {
		comp, err := view.CompositionByID(component.CompositionID)
		if err != nil {
			return nil, false, err
		}
		lib, ok := comp.(domain.LibraryPrepShotgunComposition)
		if !ok {
			continue
		}
		shotgun = true
		sample, _, err := domain.OriginSample(view, lib.ID)
		if err != nil {
			return nil, false, err
		}
		i5Row, err := indexPicklistRow(view, lib.I5PrimerCompositionID, "", "", "")
		if err != nil {
			return nil, false, err
		}
		i7Row, err := indexPicklistRow(view, lib.I7PrimerCompositionID, "", "", "")
		if err != nil {
			return nil, false, err
		}
		var plateName, wellLabel string
		if well, ok := view.FindWell(lib.Container.ID); ok {
			wellLabel = layout.WellName(well.Row, well.Column)
			if plate, ok := view.FindPlate(well.PlateID); ok {
				plateName = plate.ExternalID
			}
		}
		rows = append(rows, instrument.SampleSheetSample{
			Lane:            lane,
			SampleID:        sample.Content,
			SampleName:      sample.Content,
			SamplePlate:     plateName,
			SampleWell:      wellLabel,
			I7IndexID:       i7Row.IndexName,
			I7Index:         i7Row.IndexSequence,
			I5IndexID:       i5Row.IndexName,
			I5Index:         i5Row.IndexSequence,
			SampleProject:   runName,
			WellDescription: fmt.Sprintf("%s.%s", plateName, wellLabel),
		})
	}
	if !shotgun {
		// Amplicon lanes are demultiplexed downstream; the sheet carries one
		// row per pool.
		tubeName := fmt.Sprintf("pool%d", pool.ID)
		if tube, ok := view.FindTube(pool.Container.ID); ok {
			tubeName = tube.ExternalID
		}
		rows = append(rows, instrument.SampleSheetSample{
			Lane:          lane,
			SampleID:      tubeName,
			SampleName:    tubeName,
			SampleProject: runName,
		})
	}
	return rows, shotgun, nil
}

// GeneratePrepSheet renders the prep-information sheet for a committed 16S
// library plate, joining each well's full upstream lineage.
func (s *Service) GeneratePrepSheet(ctx context.Context, prepProcessID int64) (string, error) {
	var sheet string
	err := s.view(ctx, "generate_prep_sheet", func(view TransactionView) error {
		process, err := view.ProcessByID(prepProcessID)
		if err != nil {
			return err
		}
		prep, ok := process.(domain.LibraryPrep16SProcess)
		if !ok {
			return domain.Invalidf("process %d is not a 16S library prep", prepProcessID)
		}
		plate, ok := view.FindPlate(prep.OutputPlateID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPlate, ID: prep.OutputPlateID}
		}

		robot := equipmentExternalID(view, prep.RobotID)
		masterMix := reagentLot(view, prep.MasterMixID)
		waterLot := reagentLot(view, prep.WaterLotID)

		var rows []instrument.PrepSheetRow
		for _, well := range view.WellsOnPlate(plate.ID) {
			libComp, err := view.CompositionByID(well.CompositionID)
			if err != nil {
				return err
			}
			lib, ok := libComp.(domain.LibraryPrep16SComposition)
			if !ok {
				continue
			}
			sample, _, err := domain.OriginSample(view, lib.ID)
			if err != nil {
				return err
			}
			primer, _ := view.FindPrimerComposition(lib.PrimerCompositionID)
			template, _ := view.FindPrimerSetComposition(primer.PrimerSetCompositionID)

			var extractionRobot, extractionKit, extractionTool string
			if gdna, ok := view.FindGDNAComposition(lib.GDNACompositionID); ok {
				if proc, err := view.ProcessByID(gdna.ProcessID); err == nil {
					if extraction, ok := proc.(domain.GDNAExtractionProcess); ok {
						extractionRobot = equipmentExternalID(view, extraction.RobotID)
						extractionTool = equipmentExternalID(view, extraction.ToolID)
						extractionKit = reagentLot(view, extraction.KitID)
					}
				}
			}

			project := ""
			if s.registry != nil {
				if studyID, ok, err := domain.StudyForComposition(view, s.registry, lib.ID); err != nil {
					return err
				} else if ok {
					if study, found := view.FindStudy(studyID); found {
						project = study.Alias
					}
				}
			}

			rows = append(rows, instrument.PrepSheetRow{
				SampleName:      sample.Content,
				Barcode:         template.Barcode,
				PrimerSequence:  template.ExternalID,
				Plate:           plate.ExternalID,
				Well:            layout.WellName(well.Row, well.Column),
				ExtractionRobot: extractionRobot,
				ExtractionKit:   extractionKit,
				ExtractionTool:  extractionTool,
				MasterMixLot:    masterMix,
				WaterLot:        waterLot,
				ProcessingRobot: robot,
				Project:         project,
			})
		}
		sheet = instrument.PrepSheet(rows)
		return nil
	})
	return sheet, err
}

func equipmentExternalID(view TransactionView, id int64) string {
	if eq, ok := view.FindEquipment(id); ok {
		return eq.ExternalID
	}
	return ""
}

// reagentLot resolves a reagent lot id through the reagent creation process
// that registered it.
func reagentLot(view TransactionView, processID int64) string {
	proc, err := view.ProcessByID(processID)
	if err != nil {
		return ""
	}
	creation, ok := proc.(domain.ReagentCreationProcess)
	if !ok {
		return ""
	}
	if reagent, ok := view.FindReagentComposition(creation.CompositionID); ok {
		return reagent.ExternalLotID
	}
	return ""
}
