package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/odyssey-erp/boutique/internal/storage"
)

// Default storage keys.
const (
	DefaultKey   = "alamadinah-data"
	DefaultUIKey = "alamadinah-ui"
)

// Sealer protects gateway credentials at rest.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// Metrics receives store instrumentation.
type Metrics interface {
	ObserveDispatch(action string, err error)
	ObservePersist(key string, err error)
}

// Change is delivered to subscribers after every successful dispatch.
type Change struct {
	Action   string `json:"action"`
	Revision int64  `json:"revision"`
}

// Options configures a Store.
type Options struct {
	Storage storage.KV
	Key     string
	UIKey   string
	Sealer  Sealer
	Logger  *slog.Logger
	Metrics Metrics
	NewID   func() ID
	Now     func() time.Time
}

// Store owns the application state. All mutations go through Dispatch.
type Store struct {
	mu         sync.RWMutex
	state      State
	reducer    Reducer
	kv         storage.KV
	key        string
	uiKey      string
	revision   int64
	uiRevision int64
	sealer     Sealer
	logger     *slog.Logger
	metrics    Metrics

	subsMu  sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// New builds a store holding the seed dataset. Call Load to rehydrate.
func New(opts Options) *Store {
	if opts.Storage == nil {
		opts.Storage = storage.NewMemory()
	}
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.UIKey == "" {
		opts.UIKey = DefaultUIKey
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		state:   Seed(),
		reducer: Reducer{NewID: opts.NewID, Now: opts.Now},
		kv:      opts.Storage,
		key:     opts.Key,
		uiKey:   opts.UIKey,
		sealer:  opts.Sealer,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		subs:    make(map[int]func(Change)),
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Revision returns the storage revision of the persisted blob.
func (s *Store) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Dispatch applies action and persists the affected slices. Reducer errors
// leave the state untouched. On a revision conflict the store reloads and
// applies the action once more. A persistence error is returned wrapped in
// ErrPersist; the in-memory change stays applied.
func (s *Store) Dispatch(ctx context.Context, action Action) error {
	s.mu.Lock()
	next, err := s.reducer.Reduce(s.state, action)
	if err != nil {
		s.mu.Unlock()
		s.observeDispatch(action, err)
		return err
	}
	s.state = next
	var perr error
	if uiOnly(action) {
		perr = s.persistUI(ctx)
		if IsConflict(perr) {
			if err := s.reapplyUI(ctx, action); err != nil {
				s.mu.Unlock()
				s.observeDispatch(action, err)
				return err
			}
			perr = s.persistUI(ctx)
		}
	} else {
		perr = s.persistData(ctx)
		if IsConflict(perr) {
			// another process wrote first: apply the action on top of its data
			if err := s.reapply(ctx, action); err != nil {
				s.mu.Unlock()
				s.observeDispatch(action, err)
				return err
			}
			perr = s.persistData(ctx)
		}
	}
	rev := s.revision
	s.mu.Unlock()

	s.observeDispatch(action, nil)
	s.notify(Change{Action: action.Type(), Revision: rev})
	if perr != nil {
		s.logger.Error("store: persist failed", slog.String("action", action.Type()), slog.Any("error", perr))
		return fmt.Errorf("%w: %w", ErrPersist, perr)
	}
	return nil
}

// reapply reloads the persisted state and runs action against it. It must be
// called with s.mu held.
func (s *Store) reapply(ctx context.Context, action Action) error {
	if err := s.load(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	next, err := s.reducer.Reduce(s.state, action)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// reapplyUI reloads the UI preferences and runs action against them. It must
// be called with s.mu held.
func (s *Store) reapplyUI(ctx context.Context, action Action) error {
	ui, err := s.loadUI(ctx, Seed().UI)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	state := s.state
	state.UI = ui
	next, err := s.reducer.Reduce(state, action)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// Persist writes the current state, used after Load to store the seed.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistData(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := s.persistUI(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn runs on the dispatching goroutine and must not block.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(c Change) {
	s.subsMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

func (s *Store) observeDispatch(action Action, err error) {
	if s.metrics != nil {
		s.metrics.ObserveDispatch(action.Type(), err)
	}
}

func (s *Store) observePersist(key string, err error) {
	if s.metrics != nil {
		s.metrics.ObservePersist(key, err)
	}
}
