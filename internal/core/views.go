package core

import (
	"context"
	"sort"
	"strings"

	"labcore/pkg/domain"
)

// WellView is one cell of a plate layout, joined with its resolved sample
// content when the well holds sample lineage.
type WellView struct {
	Well          domain.Well
	CompositionID int64
	// Content is the origin sample content, empty for wells without sample
	// lineage (primers, reagents).
	Content    string
	SampleType string
	SampleID   *string
}

// PlateView is the aggregate read model of a plate: its layout grid plus the
// derived duplicate, unknown-sample, and study summaries.
type PlateView struct {
	Plate         domain.Plate
	Configuration domain.PlateConfiguration
	// Layout is indexed [row-1][column-1]; nil marks positions without a well.
	Layout [][]*WellView
	// Duplicates maps a resolved sample id to the wells that hold it, only
	// for sample ids held by more than one well.
	Duplicates map[string][]domain.Well
	// UnknownSamples lists wells whose content is neither a registered
	// control nor a sample known to the registry.
	UnknownSamples []domain.Well
	// StudyIDs lists the studies represented on the plate, ascending.
	StudyIDs []int64
}

// PlateView assembles the layout grid and summaries for one plate.
func (s *Service) PlateView(ctx context.Context, plateID int64) (PlateView, error) {
	var pv PlateView
	err := s.view(ctx, "plate_view", func(view TransactionView) error {
		plate, ok := view.FindPlate(plateID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPlate, ID: plateID}
		}
		config, ok := view.FindPlateConfiguration(plate.PlateConfigurationID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPlateConfiguration, ID: plate.PlateConfigurationID}
		}

		layout := make([][]*WellView, config.NumRows)
		for i := range layout {
			layout[i] = make([]*WellView, config.NumColumns)
		}

		bySample := make(map[string][]domain.Well)
		var unknown []domain.Well
		studySet := make(map[int64]struct{})

		for _, well := range view.WellsOnPlate(plateID) {
			wv := &WellView{Well: well, CompositionID: well.CompositionID}
			if sample, ok, err := domain.OriginSample(view, well.CompositionID); err != nil {
				return err
			} else if ok {
				wv.Content = sample.Content
				wv.SampleType = sample.SampleCompositionType
				wv.SampleID = sample.SampleID

				if sample.SampleID != nil {
					bySample[*sample.SampleID] = append(bySample[*sample.SampleID], well)
				}
				if sample.SampleCompositionType == domain.SampleTypeExperimental &&
					sample.SampleID == nil && !domain.IsControlSampleType(sample.Content) {
					unknown = append(unknown, well)
				}
				if s.registry != nil && sample.SampleID != nil {
					if studyID, found := s.registry.StudyForSample(*sample.SampleID); found {
						studySet[studyID] = struct{}{}
					}
				}
			}
			if well.Row >= 1 && well.Row <= config.NumRows &&
				well.Column >= 1 && well.Column <= config.NumColumns {
				layout[well.Row-1][well.Column-1] = wv
			}
		}

		duplicates := make(map[string][]domain.Well)
		for sampleID, wells := range bySample {
			if len(wells) > 1 {
				duplicates[sampleID] = wells
			}
		}

		studyIDs := make([]int64, 0, len(studySet))
		for id := range studySet {
			studyIDs = append(studyIDs, id)
		}
		sort.Slice(studyIDs, func(i, j int) bool { return studyIDs[i] < studyIDs[j] })

		pv = PlateView{
			Plate:          plate,
			Configuration:  config,
			Layout:         layout,
			Duplicates:     duplicates,
			UnknownSamples: unknown,
			StudyIDs:       studyIDs,
		}
		return nil
	})
	return pv, err
}

// PlateSearchQuery filters plates by the samples they hold or by plate notes.
// Both filters are optional; a plate matches when it satisfies every one
// given.
type PlateSearchQuery struct {
	// SampleIDs restricts to plates holding every listed sample id.
	SampleIDs []string
	// NotesSubstring restricts to plates whose notes contain the substring,
	// case-insensitively.
	NotesSubstring string
}

// SearchPlates returns the plates matching the query, ascending by id.
func (s *Service) SearchPlates(ctx context.Context, query PlateSearchQuery) ([]domain.Plate, error) {
	var matches []domain.Plate
	err := s.view(ctx, "search_plates", func(view TransactionView) error {
		for _, plate := range view.ListPlates() {
			ok, err := plateMatches(view, plate, query)
			if err != nil {
				return err
			}
			if ok {
				matches = append(matches, plate)
			}
		}
		return nil
	})
	return matches, err
}

func plateMatches(view TransactionView, plate domain.Plate, query PlateSearchQuery) (bool, error) {
	if query.NotesSubstring != "" {
		if plate.Notes == nil ||
			!strings.Contains(strings.ToLower(*plate.Notes), strings.ToLower(query.NotesSubstring)) {
			return false, nil
		}
	}
	if len(query.SampleIDs) == 0 {
		return true, nil
	}
	held := make(map[string]struct{})
	for _, well := range view.WellsOnPlate(plate.ID) {
		sample, ok, err := domain.OriginSample(view, well.CompositionID)
		if err != nil {
			return false, err
		}
		if ok && sample.SampleID != nil {
			held[*sample.SampleID] = struct{}{}
		}
	}
	for _, want := range query.SampleIDs {
		if _, ok := held[want]; !ok {
			return false, nil
		}
	}
	return true, nil
}
