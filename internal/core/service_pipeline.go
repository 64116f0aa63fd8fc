package core

import (
	"context"
	"time"

	"labcore/pkg/domain"
	"labcore/pkg/layout"
	"labcore/pkg/normalize"
)

// GDNAExtractionRequest carries the inputs of a gDNA extraction run.
type GDNAExtractionRequest struct {
	OperatorID            int64
	SourcePlateID         int64
	OutputPlateExternalID string
	RobotID               int64
	ToolID                int64
	KitID                 int64
	Volume                float64
	ExternallyExtracted   bool
	Date                  time.Time
	Notes                 *string
}

// GDNAExtractionResult reports the created process and output plate.
type GDNAExtractionResult struct {
	Process domain.GDNAExtractionProcess
	Plate   domain.Plate
}

// CreateGDNAExtraction extracts gDNA from every non-empty well of a sample
// plate onto a fresh plate of identical geometry. Wells plated as "empty"
// produce no output well.
func (s *Service) CreateGDNAExtraction(ctx context.Context, req GDNAExtractionRequest) (GDNAExtractionResult, Result, error) {
	var out GDNAExtractionResult
	res, err := s.run(ctx, "create_gdna_extraction", func(tx Transaction) error {
		view := tx.Snapshot()
		source, ok := view.FindPlate(req.SourcePlateID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPlate, ID: req.SourcePlateID}
		}
		output, err := tx.CreatePlate(domain.Plate{
			ExternalID:           req.OutputPlateExternalID,
			PlateConfigurationID: source.PlateConfigurationID,
		})
		if err != nil {
			return err
		}
		process, err := tx.CreateGDNAExtractionProcess(domain.GDNAExtractionProcess{
			ProcessBase:         domain.ProcessBase{Date: req.Date, OperatorID: req.OperatorID, Notes: req.Notes},
			SourcePlateID:       source.ID,
			OutputPlateID:       output.ID,
			RobotID:             req.RobotID,
			ToolID:              req.ToolID,
			KitID:               req.KitID,
			Volume:              req.Volume,
			ExternallyExtracted: req.ExternallyExtracted,
		})
		if err != nil {
			return err
		}
		for _, srcWell := range view.WellsOnPlate(source.ID) {
			sample, ok := view.FindSampleComposition(srcWell.CompositionID)
			if !ok {
				continue
			}
			if sample.SampleCompositionType == domain.SampleTypeEmpty {
				continue
			}
			comp, err := tx.CreateGDNAComposition(domain.GDNAComposition{
				CompositionBase: domain.CompositionBase{
					TotalVolume: req.Volume,
					ProcessID:   process.ID,
				},
				SampleCompositionID: sample.ID,
			})
			if err != nil {
				return err
			}
			if _, err := tx.CreateWell(domain.Well{
				PlateID:         output.ID,
				Row:             srcWell.Row,
				Column:          srcWell.Column,
				CompositionID:   comp.ID,
				RemainingVolume: req.Volume,
				LatestProcessID: process.ID,
			}); err != nil {
				return err
			}
		}
		out = GDNAExtractionResult{Process: process, Plate: output}
		return nil
	})
	return out, res, err
}

// PlateCompressionRequest carries the inputs of an interleaved compression
// run. GDNAPlateIDs is quarter order; the same plate may fill several
// quarters.
type PlateCompressionRequest struct {
	OperatorID                 int64
	RobotID                    int64
	GDNAPlateIDs               []int64
	OutputPlateExternalID      string
	OutputPlateConfigurationID int64
	Date                       time.Time
	Notes                      *string
}

// PlateCompressionResult reports the created process and output plate.
type PlateCompressionResult struct {
	Process domain.GDNAPlateCompressionProcess
	Plate   domain.Plate
}

// CreatePlateCompression interleaves 1-4 gDNA plates onto one 4x-larger
// plate. Source positions with no well leave the destination position empty
// so downstream steps can tell "never had material" from "zero volume".
func (s *Service) CreatePlateCompression(ctx context.Context, req PlateCompressionRequest) (PlateCompressionResult, Result, error) {
	var out PlateCompressionResult
	res, err := s.run(ctx, "create_plate_compression", func(tx Transaction) error {
		if len(req.GDNAPlateIDs) < 1 || len(req.GDNAPlateIDs) > 4 {
			return domain.Invalidf("compression takes 1 to 4 plates, got %d", len(req.GDNAPlateIDs))
		}
		view := tx.Snapshot()
		outConfig, ok := view.FindPlateConfiguration(req.OutputPlateConfigurationID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPlateConfiguration, ID: req.OutputPlateConfigurationID}
		}
		for _, plateID := range req.GDNAPlateIDs {
			plate, ok := view.FindPlate(plateID)
			if !ok {
				return domain.UnknownIDError{Entity: domain.EntityPlate, ID: plateID}
			}
			config, ok := view.FindPlateConfiguration(plate.PlateConfigurationID)
			if !ok {
				return domain.UnknownIDError{Entity: domain.EntityPlateConfiguration, ID: plate.PlateConfigurationID}
			}
			if config.NumRows != outConfig.NumRows/2 || config.NumColumns != outConfig.NumColumns/2 {
				return domain.Invalidf("plate %d geometry %dx%d does not quarter into %dx%d",
					plateID, config.NumRows, config.NumColumns, outConfig.NumRows, outConfig.NumColumns)
			}
		}

		positions, err := layout.InterleavedPositions(len(req.GDNAPlateIDs), outConfig.NumRows, outConfig.NumColumns)
		if err != nil {
			return err
		}
		output, err := tx.CreatePlate(domain.Plate{
			ExternalID:           req.OutputPlateExternalID,
			PlateConfigurationID: outConfig.ID,
		})
		if err != nil {
			return err
		}
		process, err := tx.CreateGDNAPlateCompressionProcess(domain.GDNAPlateCompressionProcess{
			ProcessBase:   domain.ProcessBase{Date: req.Date, OperatorID: req.OperatorID, Notes: req.Notes},
			RobotID:       req.RobotID,
			GDNAPlateIDs:  req.GDNAPlateIDs,
			OutputPlateID: output.ID,
		})
		if err != nil {
			return err
		}
		for pos := range positions {
			sourcePlateID := req.GDNAPlateIDs[pos.InputPlate]
			srcWell, ok := view.WellAt(sourcePlateID, pos.InputRow+1, pos.InputCol+1)
			if !ok {
				continue
			}
			gdna, ok := view.FindGDNAComposition(srcWell.CompositionID)
			if !ok {
				continue
			}
			comp, err := tx.CreateCompressedGDNAComposition(domain.CompressedGDNAComposition{
				CompositionBase: domain.CompositionBase{
					TotalVolume: srcWell.RemainingVolume,
					ProcessID:   process.ID,
				},
				GDNACompositionID: gdna.ID,
			})
			if err != nil {
				return err
			}
			if _, err := tx.CreateWell(domain.Well{
				PlateID:         output.ID,
				Row:             pos.OutputRow + 1,
				Column:          pos.OutputCol + 1,
				CompositionID:   comp.ID,
				RemainingVolume: srcWell.RemainingVolume,
				LatestProcessID: process.ID,
			}); err != nil {
				return err
			}
		}
		out = PlateCompressionResult{Process: process, Plate: output}
		return nil
	})
	return out, res, err
}

// LibraryPrep16SRequest carries the inputs of an amplicon library prep run.
type LibraryPrep16SRequest struct {
	OperatorID            int64
	GDNAPlateID           int64
	PrimerPlateID         int64
	OutputPlateExternalID string
	RobotID               int64
	Tool300ID             int64
	Tool50ID              int64
	MasterMixID           int64
	WaterLotID            int64
	Volume                float64
	Date                  time.Time
	Notes                 *string
}

// LibraryPrep16SResult reports the created process and output plate.
type LibraryPrep16SResult struct {
	Process domain.LibraryPrep16SProcess
	Plate   domain.Plate
}

// CreateLibraryPrep16S builds an amplicon library for every gDNA well,
// pairing it with the working primer at the same grid position.
func (s *Service) CreateLibraryPrep16S(ctx context.Context, req LibraryPrep16SRequest) (LibraryPrep16SResult, Result, error) {
	var out LibraryPrep16SResult
	res, err := s.run(ctx, "create_library_prep_16s", func(tx Transaction) error {
		view := tx.Snapshot()
		gdnaPlate, ok := view.FindPlate(req.GDNAPlateID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPlate, ID: req.GDNAPlateID}
		}
		primerPlate, ok := view.FindPlate(req.PrimerPlateID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPlate, ID: req.PrimerPlateID}
		}
		if gdnaPlate.PlateConfigurationID != primerPlate.PlateConfigurationID {
			return domain.Invalidf("gDNA plate %d and primer plate %d have different geometries", gdnaPlate.ID, primerPlate.ID)
		}
		output, err := tx.CreatePlate(domain.Plate{
			ExternalID:           req.OutputPlateExternalID,
			PlateConfigurationID: gdnaPlate.PlateConfigurationID,
		})
		if err != nil {
			return err
		}
		process, err := tx.CreateLibraryPrep16SProcess(domain.LibraryPrep16SProcess{
			ProcessBase:   domain.ProcessBase{Date: req.Date, OperatorID: req.OperatorID, Notes: req.Notes},
			GDNAPlateID:   gdnaPlate.ID,
			PrimerPlateID: primerPlate.ID,
			OutputPlateID: output.ID,
			RobotID:       req.RobotID,
			Tool300ID:     req.Tool300ID,
			Tool50ID:      req.Tool50ID,
			MasterMixID:   req.MasterMixID,
			WaterLotID:    req.WaterLotID,
			Volume:        req.Volume,
		})
		if err != nil {
			return err
		}
		for _, gdnaWell := range view.WellsOnPlate(gdnaPlate.ID) {
			gdna, ok := view.FindGDNAComposition(gdnaWell.CompositionID)
			if !ok {
				continue
			}
			primerWell, ok := view.WellAt(primerPlate.ID, gdnaWell.Row, gdnaWell.Column)
			if !ok {
				return domain.Invalidf("primer plate %d has no well at (%d, %d)", primerPlate.ID, gdnaWell.Row, gdnaWell.Column)
			}
			primer, ok := view.FindPrimerComposition(primerWell.CompositionID)
			if !ok {
				return domain.Invalidf("well %d on primer plate %d does not hold a working primer", primerWell.ID, primerPlate.ID)
			}
			comp, err := tx.CreateLibraryPrep16SComposition(domain.LibraryPrep16SComposition{
				CompositionBase: domain.CompositionBase{
					TotalVolume: req.Volume,
					ProcessID:   process.ID,
				},
				GDNACompositionID:   gdna.ID,
				PrimerCompositionID: primer.ID,
			})
			if err != nil {
				return err
			}
			if _, err := tx.CreateWell(domain.Well{
				PlateID:         output.ID,
				Row:             gdnaWell.Row,
				Column:          gdnaWell.Column,
				CompositionID:   comp.ID,
				RemainingVolume: req.Volume,
				LatestProcessID: process.ID,
			}); err != nil {
				return err
			}
		}
		out = LibraryPrep16SResult{Process: process, Plate: output}
		return nil
	})
	return out, res, err
}

// NormalizationRequest carries the inputs of a normalization run.
type NormalizationRequest struct {
	OperatorID              int64
	QuantificationProcessID int64
	WaterLotID              int64
	OutputPlateExternalID   string
	Params                  domain.NormalizationParams
	Date                    time.Time
	Notes                   *string
}

// NormalizationResult reports the created process and output plate.
type NormalizationResult struct {
	Process domain.NormalizationProcess
	Plate   domain.Plate
}

// CreateNormalization dilutes every quantified compressed-gDNA composition
// to the target mass. A NaN or zero concentration saturates the DNA volume
// to the configured maximum. With Params.Reformat set, output wells are
// de-interleaved into half-plate quadrants.
func (s *Service) CreateNormalization(ctx context.Context, req NormalizationRequest) (NormalizationResult, Result, error) {
	var out NormalizationResult
	res, err := s.run(ctx, "create_normalization", func(tx Transaction) error {
		view := tx.Snapshot()
		quant, ok := view.FindQuantificationProcess(req.QuantificationProcessID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityProcess, ID: req.QuantificationProcessID}
		}
		if quant.PlateID == nil {
			return domain.Invalidf("normalization requires a plate-scoped quantification process")
		}
		quantPlate, ok := view.FindPlate(*quant.PlateID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPlate, ID: *quant.PlateID}
		}
		config, ok := view.FindPlateConfiguration(quantPlate.PlateConfigurationID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPlateConfiguration, ID: quantPlate.PlateConfigurationID}
		}
		output, err := tx.CreatePlate(domain.Plate{
			ExternalID:           req.OutputPlateExternalID,
			PlateConfigurationID: config.ID,
		})
		if err != nil {
			return err
		}
		process, err := tx.CreateNormalizationProcess(domain.NormalizationProcess{
			ProcessBase:             domain.ProcessBase{Date: req.Date, OperatorID: req.OperatorID, Notes: req.Notes},
			QuantificationProcessID: quant.ID,
			WaterLotID:              req.WaterLotID,
			OutputPlateID:           output.ID,
			Params:                  req.Params,
		})
		if err != nil {
			return err
		}
		for _, reading := range quant.Readings {
			compressed, ok := view.FindCompressedGDNAComposition(reading.CompositionID)
			if !ok {
				return domain.Invalidf("quantified composition %d is not compressed gDNA", reading.CompositionID)
			}
			srcWell, ok := view.FindWell(compressed.Container.ID)
			if !ok {
				return domain.UnknownIDError{Entity: domain.EntityWell, ID: compressed.Container.ID}
			}
			dnaVol := normalize.DNAVolume(reading.RawConcentration, req.Params.TargetDNA, req.Params.MinVolume, req.Params.MaxVolume, req.Params.Resolution)
			waterVol := req.Params.TotalVolume - dnaVol
			row, col := srcWell.Row, srcWell.Column
			if req.Params.Reformat {
				row, col = layout.ReformatPosition(row, col, config.NumRows, config.NumColumns)
			}
			comp, err := tx.CreateNormalizedGDNAComposition(domain.NormalizedGDNAComposition{
				CompositionBase: domain.CompositionBase{
					TotalVolume: req.Params.TotalVolume,
					ProcessID:   process.ID,
				},
				CompressedGDNACompositionID: compressed.ID,
				DNAVolume:                   dnaVol,
				WaterVolume:                 waterVol,
			})
			if err != nil {
				return err
			}
			if _, err := tx.CreateWell(domain.Well{
				PlateID:         output.ID,
				Row:             row,
				Column:          col,
				CompositionID:   comp.ID,
				RemainingVolume: req.Params.TotalVolume,
				LatestProcessID: process.ID,
			}); err != nil {
				return err
			}
		}
		out = NormalizationResult{Process: process, Plate: output}
		return nil
	})
	return out, res, err
}

// LibraryPrepShotgunRequest carries the inputs of a shotgun library prep run.
type LibraryPrepShotgunRequest struct {
	OperatorID            int64
	NormalizedPlateID     int64
	I5PlateID             int64
	I7PlateID             int64
	ShotgunPrimerSetID    int64
	OutputPlateExternalID string
	KitID                 int64
	StubLotID             int64
	Volume                float64
	Date                  time.Time
	Notes                 *string
}

// LibraryPrepShotgunResult reports the created process, output plate, and
// the index combos assigned in well order.
type LibraryPrepShotgunResult struct {
	Process domain.LibraryPrepShotgunProcess
	Plate   domain.Plate
	Combos  []domain.IndexCombo
}

// CreateLibraryPrepShotgun builds a shotgun library for every normalized
// well, assigning the next unused (i5, i7) index combination per well while
// walking the plate in four-quarter interleaving order. Combo offsets select
// the matching primer wells on the i5/i7 working plates in row-major order,
// and the primer-set cursor advances in this same transaction.
func (s *Service) CreateLibraryPrepShotgun(ctx context.Context, req LibraryPrepShotgunRequest) (LibraryPrepShotgunResult, Result, error) {
	var out LibraryPrepShotgunResult
	res, err := s.run(ctx, "create_library_prep_shotgun", func(tx Transaction) error {
		view := tx.Snapshot()
		normPlate, ok := view.FindPlate(req.NormalizedPlateID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPlate, ID: req.NormalizedPlateID}
		}
		config, ok := view.FindPlateConfiguration(normPlate.PlateConfigurationID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPlateConfiguration, ID: normPlate.PlateConfigurationID}
		}
		for _, plateID := range []int64{req.I5PlateID, req.I7PlateID} {
			if _, ok := view.FindPlate(plateID); !ok {
				return domain.UnknownIDError{Entity: domain.EntityPlate, ID: plateID}
			}
		}

		positions, err := layout.InterleavedPositions(4, config.NumRows, config.NumColumns)
		if err != nil {
			return err
		}
		var ordered []domain.Well
		for pos := range positions {
			if w, ok := view.WellAt(normPlate.ID, pos.OutputRow+1, pos.OutputCol+1); ok {
				if _, isNorm := view.FindNormalizedGDNAComposition(w.CompositionID); isNorm {
					ordered = append(ordered, w)
				}
			}
		}
		if len(ordered) == 0 {
			return domain.Invalidf("normalized plate %d has no wells to prep", normPlate.ID)
		}

		set, ok := view.FindShotgunPrimerSet(req.ShotgunPrimerSetID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityShotgunPrimerSet, ID: req.ShotgunPrimerSetID}
		}
		startIndex := set.CurrentComboIndex
		combos, err := nextIndexCombos(tx, req.ShotgunPrimerSetID, len(ordered))
		if err != nil {
			return err
		}

		output, err := tx.CreatePlate(domain.Plate{
			ExternalID:           req.OutputPlateExternalID,
			PlateConfigurationID: config.ID,
		})
		if err != nil {
			return err
		}
		process, err := tx.CreateLibraryPrepShotgunProcess(domain.LibraryPrepShotgunProcess{
			ProcessBase:       domain.ProcessBase{Date: req.Date, OperatorID: req.OperatorID, Notes: req.Notes},
			NormalizedPlateID: normPlate.ID,
			I5PlateID:         req.I5PlateID,
			I7PlateID:         req.I7PlateID,
			OutputPlateID:     output.ID,
			KitID:             req.KitID,
			StubLotID:         req.StubLotID,
			Volume:            req.Volume,
		})
		if err != nil {
			return err
		}
		for i, normWell := range ordered {
			offset := (startIndex + i) % len(set.Combos)
			i5Comp, err := primerAtIndex(view, req.I5PlateID, offset, config)
			if err != nil {
				return err
			}
			i7Comp, err := primerAtIndex(view, req.I7PlateID, offset, config)
			if err != nil {
				return err
			}
			comp, err := tx.CreateLibraryPrepShotgunComposition(domain.LibraryPrepShotgunComposition{
				CompositionBase: domain.CompositionBase{
					TotalVolume: req.Volume,
					ProcessID:   process.ID,
				},
				NormalizedGDNACompositionID: normWell.CompositionID,
				I5PrimerCompositionID:       i5Comp.ID,
				I7PrimerCompositionID:       i7Comp.ID,
			})
			if err != nil {
				return err
			}
			if _, err := tx.CreateWell(domain.Well{
				PlateID:         output.ID,
				Row:             normWell.Row,
				Column:          normWell.Column,
				CompositionID:   comp.ID,
				RemainingVolume: req.Volume,
				LatestProcessID: process.ID,
			}); err != nil {
				return err
			}
		}
		out = LibraryPrepShotgunResult{Process: process, Plate: output, Combos: combos}
		return nil
	})
	return out, res, err
}

// primerAtIndex resolves the working primer at a row-major well index on an
// index primer plate.
func primerAtIndex(view TransactionView, plateID int64, index int, config domain.PlateConfiguration) (domain.PrimerComposition, error) {
	row := index/config.NumColumns + 1
	col := index%config.NumColumns + 1
	well, ok := view.WellAt(plateID, row, col)
	if !ok {
		return domain.PrimerComposition{}, domain.Invalidf("index plate %d has no well at (%d, %d)", plateID, row, col)
	}
	primer, ok := view.FindPrimerComposition(well.CompositionID)
	if !ok {
		return domain.PrimerComposition{}, domain.Invalidf("well %d on index plate %d does not hold a working primer", well.ID, plateID)
	}
	return primer, nil
}
