// Package memory provides the in-memory transactional store for the lab
// domain. Transactions run against a deep clone of the committed state and
// swap it in atomically on success, giving every process creation the
// all-or-nothing semantics the pipeline requires.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"labcore/pkg/domain"
)

type sequences struct {
	User             int64 `json:"user"`
	Equipment        int64 `json:"equipment"`
	Study            int64 `json:"study"`
	PlateConfig      int64 `json:"plate_config"`
	Plate            int64 `json:"plate"`
	Container        int64 `json:"container"`
	Composition      int64 `json:"composition"`
	Process          int64 `json:"process"`
	PrimerSet        int64 `json:"primer_set"`
	ShotgunPrimerSet int64 `json:"shotgun_primer_set"`
}

type state struct {
	seq sequences

	users        map[int64]domain.User
	equipment    map[int64]domain.Equipment
	studies      map[int64]domain.Study
	plateConfigs map[int64]domain.PlateConfiguration
	plates       map[int64]domain.Plate

	containerKinds map[int64]domain.ContainerKind
	wells          map[int64]domain.Well
	tubes          map[int64]domain.Tube

	compositionTypes map[int64]domain.CompositionType
	samples          map[int64]domain.SampleComposition
	reagents         map[int64]domain.ReagentComposition
	primerSetComps   map[int64]domain.PrimerSetComposition
	primers          map[int64]domain.PrimerComposition
	gdna             map[int64]domain.GDNAComposition
	compressedGDNA   map[int64]domain.CompressedGDNAComposition
	normalizedGDNA   map[int64]domain.NormalizedGDNAComposition
	libPrep16S       map[int64]domain.LibraryPrep16SComposition
	libPrepShotgun   map[int64]domain.LibraryPrepShotgunComposition
	pools            map[int64]domain.PoolComposition

	processTypes    map[int64]domain.ProcessType
	platings        map[int64]domain.SamplePlatingProcess
	reagentCreates  map[int64]domain.ReagentCreationProcess
	primerPlatings  map[int64]domain.PrimerWorkingPlateCreationProcess
	extractions     map[int64]domain.GDNAExtractionProcess
	compressions    map[int64]domain.GDNAPlateCompressionProcess
	libPreps16S     map[int64]domain.LibraryPrep16SProcess
	normalizations  map[int64]domain.NormalizationProcess
	libPrepsShotgun map[int64]domain.LibraryPrepShotgunProcess
	quantifications map[int64]domain.QuantificationProcess
	poolings        map[int64]domain.PoolingProcess
	sequencings     map[int64]domain.SequencingProcess

	primerSets        map[int64]domain.PrimerSet
	shotgunPrimerSets map[int64]domain.ShotgunPrimerSet
}

func newState() state {
	return state{
		users:             make(map[int64]domain.User),
		equipment:         make(map[int64]domain.Equipment),
		studies:           make(map[int64]domain.Study),
		plateConfigs:      make(map[int64]domain.PlateConfiguration),
		plates:            make(map[int64]domain.Plate),
		containerKinds:    make(map[int64]domain.ContainerKind),
		wells:             make(map[int64]domain.Well),
		tubes:             make(map[int64]domain.Tube),
		compositionTypes:  make(map[int64]domain.CompositionType),
		samples:           make(map[int64]domain.SampleComposition),
		reagents:          make(map[int64]domain.ReagentComposition),
		primerSetComps:    make(map[int64]domain.PrimerSetComposition),
		primers:           make(map[int64]domain.PrimerComposition),
		gdna:              make(map[int64]domain.GDNAComposition),
		compressedGDNA:    make(map[int64]domain.CompressedGDNAComposition),
		normalizedGDNA:    make(map[int64]domain.NormalizedGDNAComposition),
		libPrep16S:        make(map[int64]domain.LibraryPrep16SComposition),
		libPrepShotgun:    make(map[int64]domain.LibraryPrepShotgunComposition),
		pools:             make(map[int64]domain.PoolComposition),
		processTypes:      make(map[int64]domain.ProcessType),
		platings:          make(map[int64]domain.SamplePlatingProcess),
		reagentCreates:    make(map[int64]domain.ReagentCreationProcess),
		primerPlatings:    make(map[int64]domain.PrimerWorkingPlateCreationProcess),
		extractions:       make(map[int64]domain.GDNAExtractionProcess),
		compressions:      make(map[int64]domain.GDNAPlateCompressionProcess),
		libPreps16S:       make(map[int64]domain.LibraryPrep16SProcess),
		normalizations:    make(map[int64]domain.NormalizationProcess),
		libPrepsShotgun:   make(map[int64]domain.LibraryPrepShotgunProcess),
		quantifications:   make(map[int64]domain.QuantificationProcess),
		poolings:          make(map[int64]domain.PoolingProcess),
		sequencings:       make(map[int64]domain.SequencingProcess),
		primerSets:        make(map[int64]domain.PrimerSet),
		shotgunPrimerSets: make(map[int64]domain.ShotgunPrimerSet),
	}
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s...)
}

func clonePrimerSet(p domain.PrimerSet) domain.PrimerSet {
	p.TemplatePlateIDs = cloneSlice(p.TemplatePlateIDs)
	return p
}

func cloneShotgunPrimerSet(p domain.ShotgunPrimerSet) domain.ShotgunPrimerSet {
	p.Combos = cloneSlice(p.Combos)
	return p
}

func clonePool(p domain.PoolComposition) domain.PoolComposition {
	p.Components = cloneSlice(p.Components)
	return p
}

func clonePrimerPlating(p domain.PrimerWorkingPlateCreationProcess) domain.PrimerWorkingPlateCreationProcess {
	p.PlateIDs = cloneSlice(p.PlateIDs)
	return p
}

func cloneCompression(p domain.GDNAPlateCompressionProcess) domain.GDNAPlateCompressionProcess {
	p.GDNAPlateIDs = cloneSlice(p.GDNAPlateIDs)
	return p
}

func cloneQuantification(p domain.QuantificationProcess) domain.QuantificationProcess {
	p.Readings = cloneSlice(p.Readings)
	return p
}

func clonePooling(p domain.PoolingProcess) domain.PoolingProcess {
	p.FunctionParameters = cloneSlice(p.FunctionParameters)
	return p
}

func cloneSequencing(p domain.SequencingProcess) domain.SequencingProcess {
	p.ContactIDs = cloneSlice(p.ContactIDs)
	p.PoolIDs = cloneSlice(p.PoolIDs)
	return p
}

func cloneDeep[T any](m map[int64]T, clone func(T) T) map[int64]T {
	out := make(map[int64]T, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}

func (s state) clone() state {
	cloned := s
	cloned.users = maps.Clone(s.users)
	cloned.equipment = maps.Clone(s.equipment)
	cloned.studies = maps.Clone(s.studies)
	cloned.plateConfigs = maps.Clone(s.plateConfigs)
	cloned.plates = maps.Clone(s.plates)
	cloned.containerKinds = maps.Clone(s.containerKinds)
	cloned.wells = maps.Clone(s.wells)
	cloned.tubes = maps.Clone(s.tubes)
	cloned.compositionTypes = maps.Clone(s.compositionTypes)
	cloned.samples = maps.Clone(s.samples)
	cloned.reagents = maps.Clone(s.reagents)
	cloned.primerSetComps = maps.Clone(s.primerSetComps)
	cloned.primers = maps.Clone(s.primers)
	cloned.gdna = maps.Clone(s.gdna)
	cloned.compressedGDNA = maps.Clone(s.compressedGDNA)
	cloned.normalizedGDNA = maps.Clone(s.normalizedGDNA)
	cloned.libPrep16S = maps.Clone(s.libPrep16S)
	cloned.libPrepShotgun = maps.Clone(s.libPrepShotgun)
	cloned.pools = cloneDeep(s.pools, clonePool)
	cloned.processTypes = maps.Clone(s.processTypes)
	cloned.platings = maps.Clone(s.platings)
	cloned.reagentCreates = maps.Clone(s.reagentCreates)
	cloned.primerPlatings = cloneDeep(s.primerPlatings, clonePrimerPlating)
	cloned.extractions = maps.Clone(s.extractions)
	cloned.compressions = cloneDeep(s.compressions, cloneCompression)
	cloned.libPreps16S = maps.Clone(s.libPreps16S)
	cloned.normalizations = maps.Clone(s.normalizations)
	cloned.libPrepsShotgun = maps.Clone(s.libPrepsShotgun)
	cloned.quantifications = cloneDeep(s.quantifications, cloneQuantification)
	cloned.poolings = cloneDeep(s.poolings, clonePooling)
	cloned.sequencings = cloneDeep(s.sequencings, cloneSequencing)
	cloned.primerSets = cloneDeep(s.primerSets, clonePrimerSet)
	cloned.shotgunPrimerSets = cloneDeep(s.shotgunPrimerSets, cloneShotgunPrimerSet)
	return cloned
}

// Store provides an in-memory transactional store for the lab domain.
type Store struct {
	mu     sync.RWMutex
	state  state
	engine *domain.RulesEngine
	nowFn  func() time.Time
}

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the transaction clock, for tests.
func (s *Store) SetNowFunc(fn func() time.Time) { s.nowFn = fn }

// Transaction represents a mutation set applied to the store state.
type Transaction struct {
	state   *state
	changes []domain.Change
	now     time.Time
}

var _ domain.Transaction = (*Transaction)(nil)

// RunInTransaction executes fn within a transactional copy of the store
// state. The copy is swapped in only when fn succeeds and no blocking rule
// violation is present; a failed transaction leaves no partial rows.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	tx := &Transaction{state: &next, now: s.nowFn()}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		view := txView{state: &next}
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = next
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(txView{state: &snapshot})
}

func (tx *Transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes the transactional state for reads within the same scope.
func (tx *Transaction) Snapshot() domain.TransactionView {
	return txView{state: tx.state}
}

// Reference data ------------------------------------------------------------

// CreateUser stores a new operator record.
func (tx *Transaction) CreateUser(u domain.User) (domain.User, error) {
	tx.state.seq.User++
	u.ID = tx.state.seq.User
	u.CreatedAt = tx.now
	tx.state.users[u.ID] = u
	tx.recordChange(domain.Change{Entity: domain.EntityUser, Action: domain.ActionCreate, After: u})
	return u, nil
}

// CreateEquipment stores a new equipment record, enforcing external-id
// uniqueness.
func (tx *Transaction) CreateEquipment(e domain.Equipment) (domain.Equipment, error) {
	for _, existing := range tx.state.equipment {
		if existing.ExternalID == e.ExternalID {
			return domain.Equipment{}, domain.DuplicateError{Entity: domain.EntityEquipment, Attribute: "external_id", Value: e.ExternalID}
		}
	}
	tx.state.seq.Equipment++
	e.ID = tx.state.seq.Equipment
	e.CreatedAt = tx.now
	tx.state.equipment[e.ID] = e
	tx.recordChange(domain.Change{Entity: domain.EntityEquipment, Action: domain.ActionCreate, After: e})
	return e, nil
}

// CreateStudy stores a new study registration.
func (tx *Transaction) CreateStudy(st domain.Study) (domain.Study, error) {
	tx.state.seq.Study++
	st.ID = tx.state.seq.Study
	st.CreatedAt = tx.now
	tx.state.studies[st.ID] = st
	tx.recordChange(domain.Change{Entity: domain.EntityStudy, Action: domain.ActionCreate, After: st})
	return st, nil
}

// CreatePlateConfiguration stores a plate geometry definition.
func (tx *Transaction) CreatePlateConfiguration(pc domain.PlateConfiguration) (domain.PlateConfiguration, error) {
	if pc.NumRows <= 0 || pc.NumColumns <= 0 {
		return domain.PlateConfiguration{}, domain.Invalidf("plate configuration must have positive dimensions: %dx%d", pc.NumRows, pc.NumColumns)
	}
	tx.state.seq.PlateConfig++
	pc.ID = tx.state.seq.PlateConfig
	pc.CreatedAt = tx.now
	tx.state.plateConfigs[pc.ID] = pc
	tx.recordChange(domain.Change{Entity: domain.EntityPlateConfiguration, Action: domain.ActionCreate, After: pc})
	return pc, nil
}

// Containers ----------------------------------------------------------------

// CreatePlate stores a new plate, enforcing external-id uniqueness.
func (tx *Transaction) CreatePlate(p domain.Plate) (domain.Plate, error) {
	if _, ok := tx.state.plateConfigs[p.PlateConfigurationID]; !ok {
		return domain.Plate{}, domain.UnknownIDError{Entity: domain.EntityPlateConfiguration, ID: p.PlateConfigurationID}
	}
	for _, existing := range tx.state.plates {
		if existing.ExternalID == p.ExternalID {
			return domain.Plate{}, domain.DuplicateError{Entity: domain.EntityPlate, Attribute: "external_id", Value: p.ExternalID}
		}
	}
	tx.state.seq.Plate++
	p.ID = tx.state.seq.Plate
	p.CreatedAt = tx.now
	tx.state.plates[p.ID] = p
	tx.recordChange(domain.Change{Entity: domain.EntityPlate, Action: domain.ActionCreate, After: p})
	return p, nil
}

// UpdatePlate mutates a plate using the provided mutator.
func (tx *Transaction) UpdatePlate(id int64, mutator func(*domain.Plate) error) (domain.Plate, error) {
	current, ok := tx.state.plates[id]
	if !ok {
		return domain.Plate{}, domain.UnknownIDError{Entity: domain.EntityPlate, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.Plate{}, err
	}
	current.ID = id
	if current.ExternalID != before.ExternalID {
		for otherID, other := range tx.state.plates {
			if otherID != id && other.ExternalID == current.ExternalID {
				return domain.Plate{}, domain.DuplicateError{Entity: domain.EntityPlate, Attribute: "external_id", Value: current.ExternalID}
			}
		}
	}
	tx.state.plates[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityPlate, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreateWell stores a new well, enforcing one well per plate position.
func (tx *Transaction) CreateWell(w domain.Well) (domain.Well, error) {
	if _, ok := tx.state.plates[w.PlateID]; !ok {
		return domain.Well{}, domain.UnknownIDError{Entity: domain.EntityPlate, ID: w.PlateID}
	}
	for _, existing := range tx.state.wells {
		if existing.PlateID == w.PlateID && existing.Row == w.Row && existing.Column == w.Column {
			return domain.Well{}, domain.DuplicateError{
				Entity:    domain.EntityWell,
				Attribute: "position",
				Value:     fmt.Sprintf("plate %d (%d, %d)", w.PlateID, w.Row, w.Column),
			}
		}
	}
	tx.state.seq.Container++
	w.ID = tx.state.seq.Container
	w.CreatedAt = tx.now
	tx.state.containerKinds[w.ID] = domain.ContainerWell
	tx.state.wells[w.ID] = w
	if w.CompositionID != 0 {
		if err := tx.linkContainer(w.CompositionID, domain.ContainerRef{Kind: domain.ContainerWell, ID: w.ID}); err != nil {
			return domain.Well{}, err
		}
	}
	tx.recordChange(domain.Change{Entity: domain.EntityWell, Action: domain.ActionCreate, After: w})
	return w, nil
}

// linkContainer back-fills the container reference on a composition created
// moments earlier in the same transaction. Compositions are inserted before
// their container so the container row can carry the composition id; the 1:1
// link is completed here.
func (tx *Transaction) linkContainer(compositionID int64, ref domain.ContainerRef) error {
	tag, ok := tx.state.compositionTypes[compositionID]
	if !ok {
		return domain.UnknownIDError{Entity: domain.EntityComposition, ID: compositionID}
	}
	switch tag {
	case domain.CompositionSample:
		c := tx.state.samples[compositionID]
		c.Container = ref
		tx.state.samples[compositionID] = c
	case domain.CompositionReagent:
		c := tx.state.reagents[compositionID]
		c.Container = ref
		tx.state.reagents[compositionID] = c
	case domain.CompositionPrimerSet:
		c := tx.state.primerSetComps[compositionID]
		c.Container = ref
		tx.state.primerSetComps[compositionID] = c
	case domain.CompositionPrimer:
		c := tx.state.primers[compositionID]
		c.Container = ref
		tx.state.primers[compositionID] = c
	case domain.CompositionGDNA:
		c := tx.state.gdna[compositionID]
		c.Container = ref
		tx.state.gdna[compositionID] = c
	case domain.CompositionCompressedGDNA:
		c := tx.state.compressedGDNA[compositionID]
		c.Container = ref
		tx.state.compressedGDNA[compositionID] = c
	case domain.CompositionNormalizedGDNA:
		c := tx.state.normalizedGDNA[compositionID]
		c.Container = ref
		tx.state.normalizedGDNA[compositionID] = c
	case domain.CompositionLibraryPrep16S:
		c := tx.state.libPrep16S[compositionID]
		c.Container = ref
		tx.state.libPrep16S[compositionID] = c
	case domain.CompositionLibraryPrepShotgun:
		c := tx.state.libPrepShotgun[compositionID]
		c.Container = ref
		tx.state.libPrepShotgun[compositionID] = c
	case domain.CompositionPool:
		c := tx.state.pools[compositionID]
		c.Container = ref
		tx.state.pools[compositionID] = c
	default:
		return domain.UnknownCompositionTypeError{Tag: tag}
	}
	return nil
}

// UpdateWell mutates a well's mutable fields. Position and composition
// reference are fixed at creation.
func (tx *Transaction) UpdateWell(id int64, mutator func(*domain.Well) error) (domain.Well, error) {
	current, ok := tx.state.wells[id]
	if !ok {
		return domain.Well{}, domain.UnknownIDError{Entity: domain.EntityWell, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.Well{}, err
	}
	current.ID = id
	current.PlateID = before.PlateID
	current.Row = before.Row
	current.Column = before.Column
	current.CompositionID = before.CompositionID
	tx.state.wells[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityWell, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreateTube stores a new tube container.
func (tx *Transaction) CreateTube(t domain.Tube) (domain.Tube, error) {
	tx.state.seq.Container++
	t.ID = tx.state.seq.Container
	t.CreatedAt = tx.now
	tx.state.containerKinds[t.ID] = domain.ContainerTube
	tx.state.tubes[t.ID] = t
	if t.CompositionID != 0 {
		if err := tx.linkContainer(t.CompositionID, domain.ContainerRef{Kind: domain.ContainerTube, ID: t.ID}); err != nil {
			return domain.Tube{}, err
		}
	}
	tx.recordChange(domain.Change{Entity: domain.EntityTube, Action: domain.ActionCreate, After: t})
	return t, nil
}

// UpdateTube mutates a tube's mutable fields.
func (tx *Transaction) UpdateTube(id int64, mutator func(*domain.Tube) error) (domain.Tube, error) {
	current, ok := tx.state.tubes[id]
	if !ok {
		return domain.Tube{}, domain.UnknownIDError{Entity: domain.EntityTube, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.Tube{}, err
	}
	current.ID = id
	current.CompositionID = before.CompositionID
	tx.state.tubes[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityTube, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// Compositions --------------------------------------------------------------

func (tx *Transaction) nextComposition(tag domain.CompositionType) (int64, time.Time) {
	tx.state.seq.Composition++
	id := tx.state.seq.Composition
	tx.state.compositionTypes[id] = tag
	return id, tx.now
}

// CreateSampleComposition stores a sample composition.
func (tx *Transaction) CreateSampleComposition(c domain.SampleComposition) (domain.SampleComposition, error) {
	c.ID, c.CreatedAt = tx.nextComposition(domain.CompositionSample)
	tx.state.samples[c.ID] = c
	tx.recordChange(domain.Change{Entity: domain.EntityComposition, Action: domain.ActionCreate, After: c})
	return c, nil
}

// UpdateSampleComposition rewrites the mutable sample fields (content,
// sample id, sample composition type, notes). The derivation reference and
// container stay fixed.
func (tx *Transaction) UpdateSampleComposition(id int64, mutator func(*domain.SampleComposition) error) (domain.SampleComposition, error) {
	current, ok := tx.state.samples[id]
	if !ok {
		return domain.SampleComposition{}, domain.UnknownIDError{Entity: domain.EntityComposition, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.SampleComposition{}, err
	}
	current.ID = id
	current.Container = before.Container
	current.ProcessID = before.ProcessID
	tx.state.samples[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityComposition, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreateReagentComposition stores a reagent composition.
func (tx *Transaction) CreateReagentComposition(c domain.ReagentComposition) (domain.ReagentComposition, error) {
	c.ID, c.CreatedAt = tx.nextComposition(domain.CompositionReagent)
	tx.state.reagents[c.ID] = c
	tx.recordChange(domain.Change{Entity: domain.EntityComposition, Action: domain.ActionCreate, After: c})
	return c, nil
}

// CreatePrimerSetComposition stores a template primer composition.
func (tx *Transaction) CreatePrimerSetComposition(c domain.PrimerSetComposition) (domain.PrimerSetComposition, error) {
	c.ID, c.CreatedAt = tx.nextComposition(domain.CompositionPrimerSet)
	tx.state.primerSetComps[c.ID] = c
	tx.recordChange(domain.Change{Entity: domain.EntityComposition, Action: domain.ActionCreate, After: c})
	return c, nil
}

// CreatePrimerComposition stores a working primer composition.
func (tx *Transaction) CreatePrimerComposition(c domain.PrimerComposition) (domain.PrimerComposition, error) {
	if _, ok := tx.state.primerSetComps[c.PrimerSetCompositionID]; !ok {
		return domain.PrimerComposition{}, domain.UnknownIDError{Entity: domain.EntityComposition, ID: c.PrimerSetCompositionID}
	}
	c.ID, c.CreatedAt = tx.nextComposition(domain.CompositionPrimer)
	tx.state.primers[c.ID] = c
	tx.recordChange(domain.Change{Entity: domain.EntityComposition, Action: domain.ActionCreate, After: c})
	return c, nil
}

// CreateGDNAComposition stores an extracted gDNA composition.
func (tx *Transaction) CreateGDNAComposition(c domain.GDNAComposition) (domain.GDNAComposition, error) {
	if _, ok := tx.state.samples[c.SampleCompositionID]; !ok {
		return domain.GDNAComposition{}, domain.UnknownIDError{Entity: domain.EntityComposition, ID: c.SampleCompositionID}
	}
	c.ID, c.CreatedAt = tx.nextComposition(domain.CompositionGDNA)
	tx.state.gdna[c.ID] = c
	tx.recordChange(domain.Change{Entity: domain.EntityComposition, Action: domain.ActionCreate, After: c})
	return c, nil
}

// CreateCompressedGDNAComposition stores a compressed gDNA composition.
func (tx *Transaction) CreateCompressedGDNAComposition(c domain.CompressedGDNAComposition) (domain.CompressedGDNAComposition, error) {
	if _, ok := tx.state.gdna[c.GDNACompositionID]; !ok {
		return domain.CompressedGDNAComposition{}, domain.UnknownIDError{Entity: domain.EntityComposition, ID: c.GDNACompositionID}
	}
	c.ID, c.CreatedAt = tx.nextComposition(domain.CompositionCompressedGDNA)
	tx.state.compressedGDNA[c.ID] = c
	tx.recordChange(domain.Change{Entity: domain.EntityComposition, Action: domain.ActionCreate, After: c})
	return c, nil
}

// CreateNormalizedGDNAComposition stores a normalized gDNA composition.
func (tx *Transaction) CreateNormalizedGDNAComposition(c domain.NormalizedGDNAComposition) (domain.NormalizedGDNAComposition, error) {
	if _, ok := tx.state.compressedGDNA[c.CompressedGDNACompositionID]; !ok {
		return domain.NormalizedGDNAComposition{}, domain.UnknownIDError{Entity: domain.EntityComposition, ID: c.CompressedGDNACompositionID}
	}
	c.ID, c.CreatedAt = tx.nextComposition(domain.CompositionNormalizedGDNA)
	tx.state.normalizedGDNA[c.ID] = c
	tx.recordChange(domain.Change{Entity: domain.EntityComposition, Action: domain.ActionCreate, After: c})
	return c, nil
}

// CreateLibraryPrep16SComposition stores an amplicon library composition.
func (tx *Transaction) CreateLibraryPrep16SComposition(c domain.LibraryPrep16SComposition) (domain.LibraryPrep16SComposition, error) {
	if _, ok := tx.state.gdna[c.GDNACompositionID]; !ok {
		return domain.LibraryPrep16SComposition{}, domain.UnknownIDError{Entity: domain.EntityComposition, ID: c.GDNACompositionID}
	}
	if _, ok := tx.state.primers[c.PrimerCompositionID]; !ok {
		return domain.LibraryPrep16SComposition{}, domain.UnknownIDError{Entity: domain.EntityComposition, ID: c.PrimerCompositionID}
	}
	c.ID, c.CreatedAt = tx.nextComposition(domain.CompositionLibraryPrep16S)
	tx.state.libPrep16S[c.ID] = c
	tx.recordChange(domain.Change{Entity: domain.EntityComposition, Action: domain.ActionCreate, After: c})
	return c, nil
}

// CreateLibraryPrepShotgunComposition stores a shotgun library composition.
func (tx *Transaction) CreateLibraryPrepShotgunComposition(c domain.LibraryPrepShotgunComposition) (domain.LibraryPrepShotgunComposition, error) {
	if _, ok := tx.state.normalizedGDNA[c.NormalizedGDNACompositionID]; !ok {
		return domain.LibraryPrepShotgunComposition{}, domain.UnknownIDError{Entity: domain.EntityComposition, ID: c.NormalizedGDNACompositionID}
	}
	for _, primerID := range []int64{c.I5PrimerCompositionID, c.I7PrimerCompositionID} {
		if _, ok := tx.state.primers[primerID]; !ok {
			return domain.LibraryPrepShotgunComposition{}, domain.UnknownIDError{Entity: domain.EntityComposition, ID: primerID}
		}
	}
	c.ID, c.CreatedAt = tx.nextComposition(domain.CompositionLibraryPrepShotgun)
	tx.state.libPrepShotgun[c.ID] = c
	tx.recordChange(domain.Change{Entity: domain.EntityComposition, Action: domain.ActionCreate, After: c})
	return c, nil
}

// CreatePoolComposition stores a pool composition. Components must reference
// existing compositions of any variant, pools included.
func (tx *Transaction) CreatePoolComposition(c domain.PoolComposition) (domain.PoolComposition, error) {
	for _, component := range c.Components {
		if _, ok := tx.state.compositionTypes[component.CompositionID]; !ok {
			return domain.PoolComposition{}, domain.UnknownIDError{Entity: domain.EntityComposition, ID: component.CompositionID}
		}
	}
	c.ID, c.CreatedAt = tx.nextComposition(domain.CompositionPool)
	c.Components = cloneSlice(c.Components)
	tx.state.pools[c.ID] = c
	tx.recordChange(domain.Change{Entity: domain.EntityComposition, Action: domain.ActionCreate, After: clonePool(c)})
	return clonePool(c), nil
}

// Processes -----------------------------------------------------------------

func (tx *Transaction) nextProcess(tag domain.ProcessType, base *domain.ProcessBase) {
	tx.state.seq.Process++
	base.ID = tx.state.seq.Process
	if base.Date.IsZero() {
		base.Date = tx.now
	}
	tx.state.processTypes[base.ID] = tag
}

// CreateSamplePlatingProcess stores a sample plating process record.
func (tx *Transaction) CreateSamplePlatingProcess(p domain.SamplePlatingProcess) (domain.SamplePlatingProcess, error) {
	tx.nextProcess(domain.ProcessSamplePlating, &p.ProcessBase)
	tx.state.platings[p.ID] = p
	tx.recordChange(domain.Change{Entity: domain.EntityProcess, Action: domain.ActionCreate, After: p})
	return p, nil
}

// CreateReagentCreationProcess stores a reagent creation process record and
// back-fills the process reference on the composition and tube it produced.
func (tx *Transaction) CreateReagentCreationProcess(p domain.ReagentCreationProcess) (domain.ReagentCreationProcess, error) {
	tx.nextProcess(domain.ProcessReagentCreation, &p.ProcessBase)
	tx.state.reagentCreates[p.ID] = p
	if c, ok := tx.state.reagents[p.CompositionID]; ok {
		c.ProcessID = p.ID
		tx.state.reagents[p.CompositionID] = c
	}
	if t, ok := tx.state.tubes[p.TubeID]; ok {
		t.LatestProcessID = p.ID
		tx.state.tubes[p.TubeID] = t
	}
	tx.recordChange(domain.Change{Entity: domain.EntityProcess, Action: domain.ActionCreate, After: p})
	return p, nil
}

// CreatePrimerWorkingPlateCreationProcess stores a primer working plate
// creation process record.
func (tx *Transaction) CreatePrimerWorkingPlateCreationProcess(p domain.PrimerWorkingPlateCreationProcess) (domain.PrimerWorkingPlateCreationProcess, error) {
	tx.nextProcess(domain.ProcessPrimerWorkingPlateCreation, &p.ProcessBase)
	p.PlateIDs = cloneSlice(p.PlateIDs)
	tx.state.primerPlatings[p.ID] = p
	tx.recordChange(domain.Change{Entity: domain.EntityProcess, Action: domain.ActionCreate, After: clonePrimerPlating(p)})
	return clonePrimerPlating(p), nil
}

// CreateGDNAExtractionProcess stores a gDNA extraction process record.
func (tx *Transaction) CreateGDNAExtractionProcess(p domain.GDNAExtractionProcess) (domain.GDNAExtractionProcess, error) {
	tx.nextProcess(domain.ProcessGDNAExtraction, &p.ProcessBase)
	tx.state.extractions[p.ID] = p
	tx.recordChange(domain.Change{Entity: domain.EntityProcess, Action: domain.ActionCreate, After: p})
	return p, nil
}

// CreateGDNAPlateCompressionProcess stores a plate compression process record.
func (tx *Transaction) CreateGDNAPlateCompressionProcess(p domain.GDNAPlateCompressionProcess) (domain.GDNAPlateCompressionProcess, error) {
	tx.nextProcess(domain.ProcessGDNAPlateCompression, &p.ProcessBase)
	p.GDNAPlateIDs = cloneSlice(p.GDNAPlateIDs)
	tx.state.compressions[p.ID] = p
	tx.recordChange(domain.Change{Entity: domain.EntityProcess, Action: domain.ActionCreate, After: cloneCompression(p)})
	return cloneCompression(p), nil
}

// CreateLibraryPrep16SProcess stores an amplicon library prep process record.
func (tx *Transaction) CreateLibraryPrep16SProcess(p domain.LibraryPrep16SProcess) (domain.LibraryPrep16SProcess, error) {
	tx.nextProcess(domain.ProcessLibraryPrep16S, &p.ProcessBase)
	tx.state.libPreps16S[p.ID] = p
	tx.recordChange(domain.Change{Entity: domain.EntityProcess, Action: domain.ActionCreate, After: p})
	return p, nil
}

// CreateNormalizationProcess stores a normalization process record.
func (tx *Transaction) CreateNormalizationProcess(p domain.NormalizationProcess) (domain.NormalizationProcess, error) {
	tx.nextProcess(domain.ProcessNormalization, &p.ProcessBase)
	tx.state.normalizations[p.ID] = p
	tx.recordChange(domain.Change{Entity: domain.EntityProcess, Action: domain.ActionCreate, After: p})
	return p, nil
}

// CreateLibraryPrepShotgunProcess stores a shotgun library prep process record.
func (tx *Transaction) CreateLibraryPrepShotgunProcess(p domain.LibraryPrepShotgunProcess) (domain.LibraryPrepShotgunProcess, error) {
	tx.nextProcess(domain.ProcessLibraryPrepShotgun, &p.ProcessBase)
	tx.state.libPrepsShotgun[p.ID] = p
	tx.recordChange(domain.Change{Entity: domain.EntityProcess, Action: domain.ActionCreate, After: p})
	return p, nil
}

// CreateQuantificationProcess stores a quantification process record.
func (tx *Transaction) CreateQuantificationProcess(p domain.QuantificationProcess) (domain.QuantificationProcess, error) {
	if len(p.Readings) == 0 {
		return domain.QuantificationProcess{}, domain.Invalidf("quantification requires at least one concentration reading")
	}
	tx.nextProcess(domain.ProcessQuantification, &p.ProcessBase)
	p.Readings = cloneSlice(p.Readings)
	tx.state.quantifications[p.ID] = p
	tx.recordChange(domain.Change{Entity: domain.EntityProcess, Action: domain.ActionCreate, After: cloneQuantification(p)})
	return cloneQuantification(p), nil
}

// UpdateQuantificationProcess mutates a quantification process, used to
// persist derived nanomolar concentrations.
func (tx *Transaction) UpdateQuantificationProcess(id int64, mutator func(*domain.QuantificationProcess) error) (domain.QuantificationProcess, error) {
	current, ok := tx.state.quantifications[id]
	if !ok {
		return domain.QuantificationProcess{}, domain.UnknownIDError{Entity: domain.EntityProcess, ID: id}
	}
	before := cloneQuantification(current)
	current = cloneQuantification(current)
	if err := mutator(&current); err != nil {
		return domain.QuantificationProcess{}, err
	}
	current.ID = id
	tx.state.quantifications[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityProcess, Action: domain.ActionUpdate, Before: before, After: cloneQuantification(current)})
	return cloneQuantification(current), nil
}

// CreatePoolingProcess stores a pooling process record.
func (tx *Transaction) CreatePoolingProcess(p domain.PoolingProcess) (domain.PoolingProcess, error) {
	tx.nextProcess(domain.ProcessPooling, &p.ProcessBase)
	p.FunctionParameters = cloneSlice(p.FunctionParameters)
	tx.state.poolings[p.ID] = p
	if c, ok := tx.state.pools[p.PoolCompositionID]; ok {
		c.ProcessID = p.ID
		tx.state.pools[p.PoolCompositionID] = c
	}
	if t, ok := tx.state.tubes[p.DestinationTubeID]; ok {
		t.LatestProcessID = p.ID
		tx.state.tubes[p.DestinationTubeID] = t
	}
	tx.recordChange(domain.Change{Entity: domain.EntityProcess, Action: domain.ActionCreate, After: clonePooling(p)})
	return clonePooling(p), nil
}

// CreateSequencingProcess stores a sequencing process record.
func (tx *Transaction) CreateSequencingProcess(p domain.SequencingProcess) (domain.SequencingProcess, error) {
	tx.nextProcess(domain.ProcessSequencing, &p.ProcessBase)
	p.ContactIDs = cloneSlice(p.ContactIDs)
	p.PoolIDs = cloneSlice(p.PoolIDs)
	tx.state.sequencings[p.ID] = p
	tx.recordChange(domain.Change{Entity: domain.EntityProcess, Action: domain.ActionCreate, After: cloneSequencing(p)})
	return cloneSequencing(p), nil
}

// UpdateProcessNotes rewrites the notes of any process variant.
func (tx *Transaction) UpdateProcessNotes(id int64, notes *string) (domain.Process, error) {
	tag, ok := tx.state.processTypes[id]
	if !ok {
		return nil, domain.UnknownIDError{Entity: domain.EntityProcess, ID: id}
	}
	switch tag {
	case domain.ProcessSamplePlating:
		p := tx.state.platings[id]
		p.Notes = notes
		tx.state.platings[id] = p
		return p, nil
	case domain.ProcessReagentCreation:
		p := tx.state.reagentCreates[id]
		p.Notes = notes
		tx.state.reagentCreates[id] = p
		return p, nil
	case domain.ProcessPrimerWorkingPlateCreation:
		p := tx.state.primerPlatings[id]
		p.Notes = notes
		tx.state.primerPlatings[id] = p
		return clonePrimerPlating(p), nil
	case domain.ProcessGDNAExtraction:
		p := tx.state.extractions[id]
		p.Notes = notes
		tx.state.extractions[id] = p
		return p, nil
	case domain.ProcessGDNAPlateCompression:
		p := tx.state.compressions[id]
		p.Notes = notes
		tx.state.compressions[id] = p
		return cloneCompression(p), nil
	case domain.ProcessLibraryPrep16S:
		p := tx.state.libPreps16S[id]
		p.Notes = notes
		tx.state.libPreps16S[id] = p
		return p, nil
	case domain.ProcessNormalization:
		p := tx.state.normalizations[id]
		p.Notes = notes
		tx.state.normalizations[id] = p
		return p, nil
	case domain.ProcessLibraryPrepShotgun:
		p := tx.state.libPrepsShotgun[id]
		p.Notes = notes
		tx.state.libPrepsShotgun[id] = p
		return p, nil
	case domain.ProcessQuantification:
		p := tx.state.quantifications[id]
		p.Notes = notes
		tx.state.quantifications[id] = p
		return cloneQuantification(p), nil
	case domain.ProcessPooling:
		p := tx.state.poolings[id]
		p.Notes = notes
		tx.state.poolings[id] = p
		return clonePooling(p), nil
	case domain.ProcessSequencing:
		p := tx.state.sequencings[id]
		p.Notes = notes
		tx.state.sequencings[id] = p
		return cloneSequencing(p), nil
	default:
		return nil, domain.UnknownProcessTypeError{Tag: tag}
	}
}

// Primer sets ---------------------------------------------------------------

// CreatePrimerSet registers a primer template set and back-fills the set
// reference on every template composition plated on its template plates.
func (tx *Transaction) CreatePrimerSet(p domain.PrimerSet) (domain.PrimerSet, error) {
	for _, existing := range tx.state.primerSets {
		if existing.ExternalID == p.ExternalID {
			return domain.PrimerSet{}, domain.DuplicateError{Entity: domain.EntityPrimerSet, Attribute: "external_id", Value: p.ExternalID}
		}
	}
	tx.state.seq.PrimerSet++
	p.ID = tx.state.seq.PrimerSet
	p.CreatedAt = tx.now
	p.TemplatePlateIDs = cloneSlice(p.TemplatePlateIDs)
	tx.state.primerSets[p.ID] = p
	templatePlates := make(map[int64]struct{}, len(p.TemplatePlateIDs))
	for _, plateID := range p.TemplatePlateIDs {
		templatePlates[plateID] = struct{}{}
	}
	for _, w := range tx.state.wells {
		if _, ok := templatePlates[w.PlateID]; !ok {
			continue
		}
		if c, ok := tx.state.primerSetComps[w.CompositionID]; ok {
			c.PrimerSetID = p.ID
			tx.state.primerSetComps[w.CompositionID] = c
		}
	}
	tx.recordChange(domain.Change{Entity: domain.EntityPrimerSet, Action: domain.ActionCreate, After: clonePrimerSet(p)})
	return clonePrimerSet(p), nil
}

// CreateShotgunPrimerSet registers a shotgun index combo table with its
// cursor at zero.
func (tx *Transaction) CreateShotgunPrimerSet(p domain.ShotgunPrimerSet) (domain.ShotgunPrimerSet, error) {
	if len(p.Combos) == 0 {
		return domain.ShotgunPrimerSet{}, domain.Invalidf("shotgun primer set requires at least one index combo")
	}
	tx.state.seq.ShotgunPrimerSet++
	p.ID = tx.state.seq.ShotgunPrimerSet
	p.CreatedAt = tx.now
	p.Combos = cloneSlice(p.Combos)
	tx.state.shotgunPrimerSets[p.ID] = p
	tx.recordChange(domain.Change{Entity: domain.EntityShotgunPrimerSet, Action: domain.ActionCreate, After: cloneShotgunPrimerSet(p)})
	return cloneShotgunPrimerSet(p), nil
}

// UpdateShotgunPrimerSet mutates a shotgun primer set, advancing its combo
// cursor within the same atomic scope that read it.
func (tx *Transaction) UpdateShotgunPrimerSet(id int64, mutator func(*domain.ShotgunPrimerSet) error) (domain.ShotgunPrimerSet, error) {
	current, ok := tx.state.shotgunPrimerSets[id]
	if !ok {
		return domain.ShotgunPrimerSet{}, domain.UnknownIDError{Entity: domain.EntityShotgunPrimerSet, ID: id}
	}
	before := cloneShotgunPrimerSet(current)
	current = cloneShotgunPrimerSet(current)
	if err := mutator(&current); err != nil {
		return domain.ShotgunPrimerSet{}, err
	}
	current.ID = id
	tx.state.shotgunPrimerSets[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityShotgunPrimerSet, Action: domain.ActionUpdate, Before: before, After: cloneShotgunPrimerSet(current)})
	return cloneShotgunPrimerSet(current), nil
}

// Read helpers on committed state -------------------------------------------

// GetPlate retrieves a plate by id from committed state.
func (s *Store) GetPlate(id int64) (domain.Plate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.plates[id]
	return p, ok
}

// GetWell retrieves a well by id from committed state.
func (s *Store) GetWell(id int64) (domain.Well, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.state.wells[id]
	return w, ok
}

// GetTube retrieves a tube by id from committed state.
func (s *Store) GetTube(id int64) (domain.Tube, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.tubes[id]
	return t, ok
}

// CompositionByID dispatches on the stored composition tag from committed state.
func (s *Store) CompositionByID(id int64) (domain.Composition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{state: &s.state}.CompositionByID(id)
}

// ProcessByID dispatches on the stored process tag from committed state.
func (s *Store) ProcessByID(id int64) (domain.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{state: &s.state}.ProcessByID(id)
}

// GetShotgunPrimerSet retrieves a shotgun primer set from committed state.
func (s *Store) GetShotgunPrimerSet(id int64) (domain.ShotgunPrimerSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.shotgunPrimerSets[id]
	if !ok {
		return domain.ShotgunPrimerSet{}, false
	}
	return cloneShotgunPrimerSet(p), true
}

// ListPlates returns all plates from committed state sorted by id.
func (s *Store) ListPlates() []domain.Plate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{state: &s.state}.ListPlates()
}

func sortedByID[T any](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}
