package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Every Process.create call runs against
// exactly one Transaction: either all of its inserts commit or none do.
type Transaction interface {
	Snapshot() TransactionView

	CreateUser(User) (User, error)
	CreateEquipment(Equipment) (Equipment, error)
	CreateStudy(Study) (Study, error)
	CreatePlateConfiguration(PlateConfiguration) (PlateConfiguration, error)

	CreatePlate(Plate) (Plate, error)
	UpdatePlate(id int64, mutator func(*Plate) error) (Plate, error)
	CreateWell(Well) (Well, error)
	UpdateWell(id int64, mutator func(*Well) error) (Well, error)
	CreateTube(Tube) (Tube, error)
	UpdateTube(id int64, mutator func(*Tube) error) (Tube, error)

	CreateSampleComposition(SampleComposition) (SampleComposition, error)
	UpdateSampleComposition(id int64, mutator func(*SampleComposition) error) (SampleComposition, error)
	CreateReagentComposition(ReagentComposition) (ReagentComposition, error)
	CreatePrimerSetComposition(PrimerSetComposition) (PrimerSetComposition, error)
	CreatePrimerComposition(PrimerComposition) (PrimerComposition, error)
	CreateGDNAComposition(GDNAComposition) (GDNAComposition, error)
	CreateCompressedGDNAComposition(CompressedGDNAComposition) (CompressedGDNAComposition, error)
	CreateNormalizedGDNAComposition(NormalizedGDNAComposition) (NormalizedGDNAComposition, error)
	CreateLibraryPrep16SComposition(LibraryPrep16SComposition) (LibraryPrep16SComposition, error)
	CreateLibraryPrepShotgunComposition(LibraryPrepShotgunComposition) (LibraryPrepShotgunComposition, error)
	CreatePoolComposition(PoolComposition) (PoolComposition, error)

	CreateSamplePlatingProcess(SamplePlatingProcess) (SamplePlatingProcess, error)
	CreateReagentCreationProcess(ReagentCreationProcess) (ReagentCreationProcess, error)
	CreatePrimerWorkingPlateCreationProcess(PrimerWorkingPlateCreationProcess) (PrimerWorkingPlateCreationProcess, error)
	CreateGDNAExtractionProcess(GDNAExtractionProcess) (GDNAExtractionProcess, error)
	CreateGDNAPlateCompressionProcess(GDNAPlateCompressionProcess) (GDNAPlateCompressionProcess, error)
	CreateLibraryPrep16SProcess(LibraryPrep16SProcess) (LibraryPrep16SProcess, error)
	CreateNormalizationProcess(NormalizationProcess) (NormalizationProcess, error)
	CreateLibraryPrepShotgunProcess(LibraryPrepShotgunProcess) (LibraryPrepShotgunProcess, error)
	CreateQuantificationProcess(QuantificationProcess) (QuantificationProcess, error)
	CreatePoolingProcess(PoolingProcess) (PoolingProcess, error)
	CreateSequencingProcess(SequencingProcess) (SequencingProcess, error)
	UpdateQuantificationProcess(id int64, mutator func(*QuantificationProcess) error) (QuantificationProcess, error)
	UpdateProcessNotes(id int64, notes *string) (Process, error)

	CreatePrimerSet(PrimerSet) (PrimerSet, error)
	CreateShotgunPrimerSet(ShotgunPrimerSet) (ShotgunPrimerSet, error)
	UpdateShotgunPrimerSet(id int64, mutator func(*ShotgunPrimerSet) error) (ShotgunPrimerSet, error)
}

// TransactionView provides read-only access to snapshot data for rules,
// process creation, and file generation.
type TransactionView interface {
	FindUser(id int64) (User, bool)
	FindEquipment(id int64) (Equipment, bool)
	FindStudy(id int64) (Study, bool)
	ListStudies() []Study
	FindPlateConfiguration(id int64) (PlateConfiguration, bool)

	FindPlate(id int64) (Plate, bool)
	ListPlates() []Plate
	PlateExternalIDExists(externalID string) bool
	FindWell(id int64) (Well, bool)
	ListWells() []Well
	WellsOnPlate(plateID int64) []Well
	WellAt(plateID int64, row, column int) (Well, bool)
	FindTube(id int64) (Tube, bool)
	ListTubes() []Tube

	CompositionByID(id int64) (Composition, error)
	ListCompositions() []Composition
	FindSampleComposition(id int64) (SampleComposition, bool)
	FindReagentComposition(id int64) (ReagentComposition, bool)
	FindPrimerSetComposition(id int64) (PrimerSetComposition, bool)
	FindPrimerComposition(id int64) (PrimerComposition, bool)
	FindGDNAComposition(id int64) (GDNAComposition, bool)
	FindCompressedGDNAComposition(id int64) (CompressedGDNAComposition, bool)
	FindNormalizedGDNAComposition(id int64) (NormalizedGDNAComposition, bool)
	FindPoolComposition(id int64) (PoolComposition, bool)

	ProcessByID(id int64) (Process, error)
	FindQuantificationProcess(id int64) (QuantificationProcess, bool)

	FindPrimerSet(id int64) (PrimerSet, bool)
	FindShotgunPrimerSet(id int64) (ShotgunPrimerSet, bool)
	ListShotgunPrimerSets() []ShotgunPrimerSet
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetPlate(id int64) (Plate, bool)
	GetWell(id int64) (Well, bool)
	GetTube(id int64) (Tube, bool)
	CompositionByID(id int64) (Composition, error)
	ProcessByID(id int64) (Process, error)
	GetShotgunPrimerSet(id int64) (ShotgunPrimerSet, bool)
	ListPlates() []Plate
}
