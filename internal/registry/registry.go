// Package registry provides the in-memory sample-registry adapter used to
// resolve plated sample identifiers against study metadata.
package registry

import (
	"fmt"
	"sync"

	"labcore/pkg/domain"
)

// SampleRecord is one registered sample with its study-scoped metadata.
type SampleRecord struct {
	SampleID string
	StudyID  int64
	// Metadata holds the study metadata columns for this sample, keyed by
	// column name.
	Metadata map[string]string
}

// Registry is a thread-safe in-memory domain.SampleRegistry.
type Registry struct {
	mu      sync.RWMutex
	samples map[string]SampleRecord
	// specimenColumns maps study id to the configured specimen-id column.
	specimenColumns map[int64]string
}

var _ domain.SampleRegistry = (*Registry)(nil)

// New constructs an empty registry.
func New() *Registry {
	return &Registry{
		samples:         make(map[string]SampleRecord),
		specimenColumns: make(map[int64]string),
	}
}

// RegisterSample adds or replaces a sample record.
func (r *Registry) RegisterSample(rec SampleRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[rec.SampleID] = rec
}

// SetSpecimenIDColumn configures the specimen-id column for a study.
func (r *Registry) SetSpecimenIDColumn(studyID int64, column string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specimenColumns[studyID] = column
}

// SampleExists reports whether the sample id is registered.
func (r *Registry) SampleExists(sampleID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.samples[sampleID]
	return ok
}

// StudyForSample returns the study owning the sample.
func (r *Registry) StudyForSample(sampleID string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.samples[sampleID]
	if !ok {
		return 0, false
	}
	return rec.StudyID, true
}

// SpecimenIDForSample resolves the human-facing specimen alias for a sample.
// When the study has no specimen-id column configured, the sample id itself
// is the alias. A configured column whose value is shared by another sample
// in the same study is a data-integrity failure.
func (r *Registry) SpecimenIDForSample(studyID int64, sampleID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.samples[sampleID]
	if !ok || rec.StudyID != studyID {
		return "", domain.UnknownIDError{Entity: domain.EntityStudy, ID: studyID}
	}
	column, ok := r.specimenColumns[studyID]
	if !ok || column == "" {
		return sampleID, nil
	}
	specimen, ok := rec.Metadata[column]
	if !ok || specimen == "" {
		return "", domain.IntegrityError{
			Reason: fmt.Sprintf("sample %s has no value for specimen column %q", sampleID, column),
		}
	}
	for otherID, other := range r.samples {
		if otherID == sampleID || other.StudyID != studyID {
			continue
		}
		if other.Metadata[column] == specimen {
			return "", domain.IntegrityError{
				Reason: fmt.Sprintf("specimen column %q value %q is not unique in study %d", column, specimen, studyID),
			}
		}
	}
	return specimen, nil
}
