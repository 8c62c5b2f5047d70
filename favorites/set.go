package favorites

import (
	"context"
	"sync"

	"github.com/robertmeta/nutriinfo-cli/model"
	"go.uber.org/zap"
)

// Observer receives set size changes and persistence failures.
type Observer interface {
	SetFavorites(n int)
	PersistenceFailed(op string)
}

// Option configures a Set.
type Option func(*Set)

// WithObserver reports set changes to o.
func WithObserver(o Observer) Option {
	return func(s *Set) { s.observer = o }
}

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Set) {
		if l != nil {
			s.logger = l
		}
	}
}

// Set is the favorites collection: insertion ordered, unique by name.
// Every mutation rewrites the whole stored list before returning.
type Set struct {
	mu       sync.Mutex
	items    []model.Recipe
	store    *Store
	logger   *zap.Logger
	observer Observer
}

// Open loads the persisted favorites into a new Set. An unreadable slot
// starts the set empty and is reported to the observer as a "load" failure.
func Open(ctx context.Context, st *Store, opts ...Option) *Set {
	s := &Set{
		store:  st,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	items, err := st.loadOrEmpty(ctx)
	if err != nil && s.observer != nil {
		s.observer.PersistenceFailed("load")
	}
	s.items = items
	s.report()
	return s
}

// Toggle removes the recipe if one with the same name is present and
// appends it otherwise. It reports whether the recipe is a favorite afterwards.
// Recipes without a name are ignored.
func (s *Set) Toggle(ctx context.Context, r model.Recipe) bool {
	if r.Validate() != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(r.Name); i >= 0 {
		s.items = append(s.items[:i:i], s.items[i+1:]...)
		s.persist(ctx)
		return false
	}
	s.items = append(s.items, r)
	s.persist(ctx)
	return true
}

// IsFavorite reports whether a recipe with the same name is saved.
func (s *Set) IsFavorite(r model.Recipe) bool {
	return s.Contains(r.Name)
}

// Contains reports whether a recipe with this name is saved.
func (s *Set) Contains(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(name) >= 0
}

// Remove deletes the recipe matching a name or a recipe ID.
func (s *Set) Remove(ctx context.Context, nameOrID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.items {
		if r.Name == nameOrID || r.ID() == nameOrID {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			s.persist(ctx)
			return true
		}
	}
	return false
}

// Merge appends recipes whose names are not saved yet and returns how many
// were added. Existing entries are left as they are.
func (s *Set) Merge(ctx context.Context, recipes []model.Recipe) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range recipes {
		if r.Validate() != nil || s.indexOf(r.Name) >= 0 {
			continue
		}
		s.items = append(s.items, r)
		added++
	}
	if added > 0 {
		s.persist(ctx)
	}
	return added
}

// List returns a copy of the favorites in insertion order.
func (s *Set) List() []model.Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Recipe{}, s.items...)
}

// Len returns the number of favorites.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Set) indexOf(name string) int {
	for i, r := range s.items {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// persist must be called with the lock held. A failed write keeps the
// in-memory change and is only reported through the logger and observer.
func (s *Set) persist(ctx context.Context) {
	if err := s.store.Save(ctx, s.items); err != nil {
		s.logger.Error("favorites not persisted",
			zap.String("slot", s.store.Slot()),
			zap.Int("count", len(s.items)),
			zap.Error(err))
		if s.observer != nil {
			s.observer.PersistenceFailed("save")
		}
	}
	s.report()
}

func (s *Set) report() {
	if s.observer != nil {
		s.observer.SetFavorites(len(s.items))
	}
}
