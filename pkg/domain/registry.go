package domain

// SampleRegistry is the external sample-registry adapter: the core only
// needs sample existence, the owning study, and the optional human-facing
// specimen alias. Implementations must return an IntegrityError when a
// configured specimen-id column yields multiple matches where exactly one
// is required.
type SampleRegistry interface {
	SampleExists(sampleID string) bool
	StudyForSample(sampleID string) (int64, bool)
	SpecimenIDForSample(studyID int64, sampleID string) (string, error)
}
