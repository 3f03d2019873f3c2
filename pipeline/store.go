package pipeline

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/table"
)

// Store holds the state of one session's dataset. Anyone may read it through
// View; only a Controller writes to it.
type Store struct {
	mu sync.RWMutex

	current    compute.Snapshot
	original   compute.Snapshot
	target     string
	task       compute.TaskKind
	statistics compute.ColumnStatistics
	missing    compute.MissingReport
	changes    []string
	classes    []string
	split      *compute.SplitArtifacts
	state      State
	preSplit   State
	applied    []Kind
	stale      []Kind
	version    uint64
	cleared    bool
}

// View is a point-in-time copy of a store.
type View struct {
	Table       table.Table              `json:"-"`
	Provenance  compute.Provenance       `json:"provenance"`
	Target      string                   `json:"target,omitempty"`
	Task        compute.TaskKind         `json:"task"`
	Statistics  compute.ColumnStatistics `json:"statistics,omitempty"`
	Missing     compute.MissingReport    `json:"missing_values,omitempty"`
	Changes     []string                 `json:"changes,omitempty"`
	Classes     []string                 `json:"classes,omitempty"`
	State       State                    `json:"state"`
	Stale       []Kind                   `json:"stale,omitempty"`
	SplitReady  bool                     `json:"split_ready"`
	Rows        int                      `json:"rows"`
	Fingerprint string                   `json:"fingerprint"`
	Version     uint64                   `json:"version"`
}

// NewStore creates a store whose current and original snapshot is s. An empty
// task defaults to classification.
func NewStore(s compute.Snapshot, task compute.TaskKind) (*Store, error) {
	if err := s.Table.Validate(); err != nil {
		return nil, err
	}
	if task == "" {
		task = compute.Classification
	}
	if !task.Valid() {
		return nil, fmt.Errorf("%w: unknown task %q", ErrInvalidParameter, task)
	}
	s.Table = s.Table.Clone()

	return &Store{
		current:  s,
		original: s,
		task:     task,
		state:    Uploaded,
		version:  1,
	}, nil
}

func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return View{
		Table:       s.current.Table.Clone(),
		Provenance:  s.current.Provenance,
		Target:      s.target,
		Task:        s.task,
		Statistics:  cloneStatistics(s.statistics),
		Missing:     maps.Clone(s.missing),
		Changes:     slices.Clone(s.changes),
		Classes:     slices.Clone(s.classes),
		State:       s.state,
		Stale:       slices.Clone(s.stale),
		SplitReady:  s.split != nil,
		Rows:        s.current.Table.NumRows(),
		Fingerprint: s.current.Table.Fingerprint(),
		Version:     s.version,
	}
}

// Fingerprint identifies the current table version.
func (s *Store) Fingerprint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current.Table.Fingerprint()
}

// Task returns the learning task the dataset is prepared for.
func (s *Store) Task() compute.TaskKind {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.task
}

// Classes returns the target classes in label order, or nil when the target
// has not been label-encoded.
func (s *Store) Classes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.classes)
}

// Original returns a copy of the table the session started from.
func (s *Store) Original() table.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.original.Table.Clone()
}

// Clear drops every dataset and derived result. A cleared store rejects
// further stages.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = compute.Snapshot{}
	s.original = compute.Snapshot{}
	s.target = ""
	s.resetDerived()
	s.stale = nil
	s.applied = nil
	s.cleared = true
	s.version++
}

// input is what a stage runner sees: a private copy of the current snapshot.
type input struct {
	snapshot compute.Snapshot
	original table.Table
	target   string
	task     compute.TaskKind
}

func (s *Store) input() (input, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cleared {
		return input{}, ErrNoDataset
	}

	snap := s.current
	snap.Table = snap.Table.Clone()

	in := input{snapshot: snap, target: s.target, task: s.task}
	if !snap.Provenance.Retained() {
		in.original = s.original.Table.Clone()
	}

	return in, nil
}

func (s *Store) artifacts() (compute.SplitArtifacts, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.split == nil {
		return compute.SplitArtifacts{}, "", false
	}

	return cloneArtifacts(*s.split), s.target, true
}

// commit applies a stage outcome. Outcomes are applied in arrival order, so
// the last response to arrive wins.
func (s *Store) commit(kind Kind, out outcome) (State, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cleared {
		return 0, 0, ErrNoDataset
	}

	switch kind {
	case Statistics:
		s.statistics = out.statistics
		if s.state == Uploaded {
			s.state = StatisticsLoaded
		}
	case MissingCheck:
		s.missing = out.missing
		if s.target != "" && s.state < MissingChecked {
			s.state = MissingChecked
		}
	case MissingHandle, Encode, Scale:
		s.current.Table = out.table
		s.split = nil
		s.state = transformStates[kind]
		if kind == MissingHandle {
			s.changes = out.changes
		}
		// Re-encoding an already encoded target yields no classes; keep the
		// mapping from the first encode.
		if kind == Encode && out.classes != nil {
			s.classes = slices.Clone(out.classes)
		}
		s.markApplied(kind)
	case Split:
		s.split = out.split
		if s.state != ReadyForTraining {
			s.preSplit = s.state
		}
		s.state = ReadyForTraining
		s.unmarkStale(Split)
	case Restore:
		s.current = s.original
		s.current.Table = out.table
		s.target = ""
		s.resetDerived()
		s.applied = nil
		s.stale = nil
	}
	s.version++

	return s.state, s.version, nil
}

var transformStates = map[Kind]State{
	MissingHandle: MissingHandled,
	Encode:        Encoded,
	Scale:         Scaled,
}

// setTarget records the target column. A change of target drops the split
// and marks previously applied transformations, and the split, as stale.
func (s *Store) setTarget(name string) (State, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cleared {
		return 0, 0, ErrNoDataset
	}
	if !s.current.Table.HasColumn(name) {
		return 0, 0, fmt.Errorf("%w: column %q not in dataset", ErrInvalidParameter, name)
	}
	if name == s.target {
		return s.state, s.version, nil
	}

	prev := s.target
	s.target = name
	s.classes = nil
	if prev != "" {
		for _, k := range s.applied {
			s.markStale(k)
		}
		if s.split != nil {
			s.split = nil
			s.markStale(Split)
			s.state = s.preSplit
		}
	}
	if s.state < TargetSelected {
		s.state = TargetSelected
	}
	s.version++

	return s.state, s.version, nil
}

func (s *Store) resetDerived() {
	s.statistics = nil
	s.missing = nil
	s.changes = nil
	s.classes = nil
	s.split = nil
	s.state = Uploaded
	s.preSplit = Uploaded
}

func (s *Store) markApplied(k Kind) {
	if !slices.Contains(s.applied, k) {
		s.applied = append(s.applied, k)
	}
	s.unmarkStale(k)
}

func (s *Store) markStale(k Kind) {
	if !slices.Contains(s.stale, k) {
		s.stale = append(s.stale, k)
	}
}

func (s *Store) unmarkStale(k Kind) {
	s.stale = slices.DeleteFunc(s.stale, func(x Kind) bool { return x == k })
}

func cloneStatistics(in compute.ColumnStatistics) compute.ColumnStatistics {
	if in == nil {
		return nil
	}
	out := make(compute.ColumnStatistics, len(in))
	for col, stats := range in {
		out[col] = maps.Clone(stats)
	}

	return out
}

func cloneArtifacts(a compute.SplitArtifacts) compute.SplitArtifacts {
	return compute.SplitArtifacts{
		XTrain: a.XTrain.Clone(),
		XTest:  a.XTest.Clone(),
		YTrain: slices.Clone(a.YTrain),
		YTest:  slices.Clone(a.YTest),
	}
}
