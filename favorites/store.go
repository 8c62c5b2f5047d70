// Package favorites keeps the user's saved recipes.
//
// Set is the in-memory ordered set, unique by recipe name. Store moves the
// whole set in and out of one storage slot as a JSON array.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/robertmeta/nutriinfo-cli/model"
	"github.com/robertmeta/nutriinfo-cli/store"
	"go.uber.org/zap"
)

// DefaultSlot is the storage slot holding the favorites array.
const DefaultSlot = "nutriGeminiFavorites"

// Slots is the storage the favorites store writes through.
// Get returns store.ErrNotFound when the slot is empty.
type Slots interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, value []byte) error
}

// Store loads and saves the favorites slot.
type Store struct {
	slots  Slots
	slot   string
	logger *zap.Logger
}

// NewStore creates a Store over the given slot. An empty slot name uses DefaultSlot.
func NewStore(slots Slots, slot string, logger *zap.Logger) *Store {
	if slot == "" {
		slot = DefaultSlot
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{slots: slots, slot: slot, logger: logger}
}

// Load returns the stored recipes. It never fails: a missing slot, an
// unreadable backend or a malformed value all yield an empty list, and the
// last two are logged.
func (s *Store) Load(ctx context.Context) []model.Recipe {
	recipes, _ := s.loadOrEmpty(ctx)
	return recipes
}

// loadOrEmpty is Load that also returns the discarded error.
func (s *Store) loadOrEmpty(ctx context.Context) ([]model.Recipe, error) {
	recipes, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("discarding stored favorites",
			zap.String("slot", s.slot),
			zap.Error(err))
		return []model.Recipe{}, err
	}
	return recipes, nil
}

func (s *Store) load(ctx context.Context) ([]model.Recipe, error) {
	data, err := s.slots.Get(ctx, s.slot)
	if errors.Is(err, store.ErrNotFound) {
		return []model.Recipe{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}

	var stored []model.Recipe
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse favorites: %w", err)
	}

	// Enforce the set invariant on data written by older or foreign clients.
	recipes := make([]model.Recipe, 0, len(stored))
	seen := make(map[string]bool, len(stored))
	for _, r := range stored {
		if r.Validate() != nil || seen[r.Name] {
			s.logger.Warn("skipping stored favorite", zap.String("name", r.Name))
			continue
		}
		seen[r.Name] = true
		recipes = append(recipes, r)
	}
	return recipes, nil
}

// Save overwrites the slot with the complete list.
func (s *Store) Save(ctx context.Context, recipes []model.Recipe) error {
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	data, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	if err := s.slots.Put(ctx, s.slot, data); err != nil {
		return fmt.Errorf("failed to write favorites: %w", err)
	}
	return nil
}

// Slot returns the slot name in use.
func (s *Store) Slot() string {
	return s.slot
}
