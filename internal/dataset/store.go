package dataset

import (
	"sync"
	"sync/atomic"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"go.uber.org/zap"
)

// EventKind identifies a store state change.
type EventKind int

const (
	EventLoaded EventKind = iota + 1
	EventCleared
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after the store changes.
// Dataset is nil for EventCleared.
type Event struct {
	Kind    EventKind
	Dataset *Dataset
}

// Ticket identifies one in-flight load. Only the most recent ticket may commit.
type Ticket struct {
	gen uint64
}

// Store is a single-slot holder for the current dataset. Readers always see
// either the previous dataset in full or the new one in full.
type Store struct {
	cur atomic.Pointer[Dataset]
	gen atomic.Uint64

	mu      sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	logger *zap.Logger
}

// NewStore returns an empty store. A nil logger is replaced with a no-op logger.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{subs: make(map[int]func(Event)), logger: logger}
}

// Load builds a dataset from columns and rows and makes it current. Input
// that fails validation leaves the store and any pending load untouched.
func (s *Store) Load(columns []string, rows []Row, source string) (*Dataset, error) {
	ds, err := New(columns, rows, source)
	if err != nil {
		return nil, err
	}
	s.Commit(s.Begin(), ds)
	return ds, nil
}

// Set replaces the current dataset with an already-built one.
func (s *Store) Set(ds *Dataset) {
	s.Commit(s.Begin(), ds)
}

// Begin starts a load and supersedes every load started earlier.
func (s *Store) Begin() Ticket {
	return Ticket{gen: s.gen.Add(1)}
}

// Commit publishes ds if no newer Begin or Clear happened since t was issued.
// It reports whether ds became current; a superseded result is discarded.
func (s *Store) Commit(t Ticket, ds *Dataset) bool {
	if ds == nil {
		return false
	}
	s.mu.Lock()
	if s.gen.Load() != t.gen {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded load", zap.String("source", ds.Source), zap.Uint64("ticket", t.gen))
		return false
	}
	s.cur.Store(ds)
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.logger.Info("dataset loaded",
		zap.String("id", ds.ID),
		zap.String("source", ds.Source),
		zap.Int("rows", ds.RowCount()),
		zap.Int("columns", ds.ColumnCount()))
	notify(subs, Event{Kind: EventLoaded, Dataset: ds})
	return true
}

// Get returns the current dataset or apperrors.ErrNoData.
func (s *Store) Get() (*Dataset, error) {
	ds := s.cur.Load()
	if ds == nil {
		return nil, apperrors.ErrNoData
	}
	return ds, nil
}

// Clear drops the current dataset and invalidates in-flight loads.
func (s *Store) Clear() {
	s.mu.Lock()
	s.gen.Add(1)
	prev := s.cur.Swap(nil)
	subs := s.snapshotSubs()
	s.mu.Unlock()
	if prev == nil {
		return
	}
	s.logger.Info("dataset cleared", zap.String("id", prev.ID))
	notify(subs, Event{Kind: EventCleared})
}

// Subscribe registers fn for store events and returns a func that removes it.
// Callbacks run synchronously on the goroutine that changed the store.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// snapshotSubs must be called with s.mu held.
func (s *Store) snapshotSubs() []func(Event) {
	out := make([]func(Event), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
