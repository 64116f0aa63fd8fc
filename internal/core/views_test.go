package core

import (
	"testing"

	"labcore/pkg/domain"
)

func TestPlateViewLayoutAndSummaries(t *testing.T) {
	f := newFixture(t)
	plating := f.plateSamples("Test plate 1")
	if _, _, _, err := f.svc.UpdatePlatedSample(f.ctx, plating.Plate.ID, 1, 2, "S1"); err != nil {
		t.Fatalf("assign duplicate: %v", err)
	}
	if _, _, _, err := f.svc.UpdatePlatedSample(f.ctx, plating.Plate.ID, 2, 2, "mystery"); err != nil {
		t.Fatalf("assign unknown: %v", err)
	}

	pv, err := f.svc.PlateView(f.ctx, plating.Plate.ID)
	if err != nil {
		t.Fatalf("plate view: %v", err)
	}
	if len(pv.Layout) != 2 || len(pv.Layout[0]) != 2 {
		t.Fatalf("layout shape = %dx%d", len(pv.Layout), len(pv.Layout[0]))
	}
	a1 := pv.Layout[0][0]
	if a1 == nil || a1.Content != "S1" || a1.SampleID == nil || *a1.SampleID != "S1" {
		t.Fatalf("A1 view = %+v", a1)
	}
	if wells, ok := pv.Duplicates["S1"]; !ok || len(wells) != 2 {
		t.Fatalf("duplicates = %v", pv.Duplicates)
	}
	if len(pv.UnknownSamples) != 1 {
		t.Fatalf("unknown samples = %v", pv.UnknownSamples)
	}
	if pv.UnknownSamples[0].Row != 2 || pv.UnknownSamples[0].Column != 2 {
		t.Fatalf("unknown sample at (%d, %d)", pv.UnknownSamples[0].Row, pv.UnknownSamples[0].Column)
	}
	if len(pv.StudyIDs) != 1 || pv.StudyIDs[0] != f.study.ID {
		t.Fatalf("study ids = %v", pv.StudyIDs)
	}
}

func TestPlateViewFollowsLineage(t *testing.T) {
	f := newFixture(t)
	plating := f.plateSamples("Test plate 1")
	extraction := f.extractGDNA(plating.Plate.ID, "Test gDNA plate 1")

	pv, err := f.svc.PlateView(f.ctx, extraction.Plate.ID)
	if err != nil {
		t.Fatalf("plate view: %v", err)
	}
	a1 := pv.Layout[0][0]
	if a1 == nil || a1.Content != "S1" {
		t.Fatalf("gDNA A1 view = %+v", a1)
	}
	// The empty well produced no gDNA well; the layout cell stays nil.
	if pv.Layout[1][1] != nil {
		t.Fatalf("B2 view = %+v", pv.Layout[1][1])
	}
}

func TestSearchPlatesBySampleAndNotes(t *testing.T) {
	f := newFixture(t)
	first := f.plateSamples("Test plate 1")
	second, _, err := f.svc.CreateSamplePlating(f.ctx, SamplePlatingRequest{
		OperatorID:           f.operator.ID,
		PlateConfigurationID: f.config2x2.ID,
		PlateExternalID:      "Test plate 2",
		StartingVolume:       10,
		Date:                 testDate,
	})
	if err != nil {
		t.Fatalf("create second plating: %v", err)
	}
	if _, _, _, err := f.svc.UpdatePlatedSample(f.ctx, second.Plate.ID, 1, 1, "S3"); err != nil {
		t.Fatalf("assign S3: %v", err)
	}
	if _, _, err := f.svc.UpdatePlateMetadata(f.ctx, second.Plate.ID, func(p *domain.Plate) error {
		notes := "re-run after failed seal"
		p.Notes = &notes
		return nil
	}); err != nil {
		t.Fatalf("set notes: %v", err)
	}

	matches, err := f.svc.SearchPlates(f.ctx, PlateSearchQuery{SampleIDs: []string{"S1", "S2"}})
	if err != nil {
		t.Fatalf("search by samples: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != first.Plate.ID {
		t.Fatalf("sample search matches = %v", matches)
	}

	matches, err = f.svc.SearchPlates(f.ctx, PlateSearchQuery{NotesSubstring: "FAILED SEAL"})
	if err != nil {
		t.Fatalf("search by notes: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != second.Plate.ID {
		t.Fatalf("notes search matches = %v", matches)
	}

	matches, err = f.svc.SearchPlates(f.ctx, PlateSearchQuery{SampleIDs: []string{"S1"}, NotesSubstring: "seal"})
	if err != nil {
		t.Fatalf("combined search: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("combined search matches = %v", matches)
	}
}
