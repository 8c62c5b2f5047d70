// Package app wires storage, the lookup client, the state machine and the
// favorites set into one explicit context shared by the CLI and the API.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robertmeta/nutriinfo-cli/config"
	"github.com/robertmeta/nutriinfo-cli/favorites"
	"github.com/robertmeta/nutriinfo-cli/logging"
	"github.com/robertmeta/nutriinfo-cli/metrics"
	"github.com/robertmeta/nutriinfo-cli/model"
	"github.com/robertmeta/nutriinfo-cli/nutrition"
	"github.com/robertmeta/nutriinfo-cli/search"
	"github.com/robertmeta/nutriinfo-cli/store"
	"go.uber.org/zap"
)

// ErrNoLastResult means no lookup has succeeded yet.
var ErrNoLastResult = errors.New("no previous lookup result")

// Slots is the storage contract shared by the SQLite and Redis backends.
type Slots interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, value []byte) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]store.Slot, error)
	Close() error
}

// App owns every long-lived component. Nothing here is package-level state.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Slots     Slots
	Favorites *favorites.Set
	Client    *nutrition.Client
	Machine   *search.Machine
	Metrics   *metrics.Collector

	closers []func() error
}

// Option customizes New.
type Option func(*options)

type options struct {
	slots     Slots
	generator nutrition.Generator
}

// WithSlots uses an already opened storage backend.
func WithSlots(s Slots) Option {
	return func(o *options) { o.slots = s }
}

// WithGenerator replaces the AI backend chosen from the config.
func WithGenerator(g nutrition.Generator) Option {
	return func(o *options) { o.generator = g }
}

// New opens storage, loads favorites and builds the lookup pipeline.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	logger = logging.OrNop(logger)
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	if o.slots != nil {
		a.Slots = o.slots
	} else {
		slots, closers, err := OpenSlots(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		a.Slots = slots
		a.closers = closers
	}

	lang, err := model.ParseLanguage(cfg.App.Language)
	if err != nil {
		a.Close()
		return nil, err
	}
	provider, err := nutrition.ParseProvider(cfg.AI.Provider)
	if err != nil {
		a.Close()
		return nil, err
	}

	favStore := favorites.NewStore(a.Slots, cfg.Storage.FavoritesSlot, logger.Named("favorites"))
	a.Favorites = favorites.Open(ctx, favStore,
		favorites.WithLogger(logger.Named("favorites")),
		favorites.WithObserver(a.Metrics),
	)

	var clientOpts []nutrition.ClientOption
	if o.generator != nil {
		clientOpts = append(clientOpts, nutrition.WithGenerator(o.generator))
	}
	a.Client = nutrition.New(nutrition.Config{
		Provider:       provider,
		Model:          cfg.AI.Model,
		APIKey:         cfg.AI.APIKey,
		BaseURL:        cfg.AI.BaseURL,
		MaxTokens:      cfg.AI.MaxTokens,
		IncludeRecipes: cfg.AI.IncludeRecipes,
	}, logger.Named("nutrition"), clientOpts...)
	clientCfg := a.Client.Config()
	logger.Debug("lookup client ready",
		zap.String("provider", string(clientCfg.Provider)),
		zap.String("model", clientCfg.Model),
		zap.Bool("credential", clientCfg.APIKey != ""))

	a.Machine = search.NewMachine(a.Client,
		search.WithLanguage(lang),
		search.WithLogger(logger.Named("search")),
	)

	return a, nil
}

// OpenSlots opens the configured storage backend. The returned closers
// release it and must be called once the slots are no longer used.
func OpenSlots(ctx context.Context, cfg config.StorageConfig) (Slots, []func() error, error) {
	switch cfg.Driver {
	case "redis":
		client := store.NewGoRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		s := store.NewRedisStore(client)
		return s, []func() error{s.Close, client.Close}, nil
	default:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		s, err := store.New(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return s, []func() error{s.Close}, nil
	}
}

// Lookup submits a query to the state machine. A successful record is
// saved as the last result so that later commands can show its recipes.
func (a *App) Lookup(ctx context.Context, query string) (search.QueryState, error) {
	return a.record(ctx, time.Now(), func() (search.QueryState, error) {
		return a.Machine.Submit(ctx, query)
	})
}

// LookupAs is Lookup in lang. A rejected submit keeps the current language.
func (a *App) LookupAs(ctx context.Context, query string, lang model.Language) (search.QueryState, error) {
	return a.record(ctx, time.Now(), func() (search.QueryState, error) {
		return a.Machine.SubmitAs(ctx, query, lang)
	})
}

func (a *App) record(ctx context.Context, start time.Time, submit func() (search.QueryState, error)) (search.QueryState, error) {
	st, err := submit()
	if errors.Is(err, search.ErrBusy) {
		a.Metrics.BusyRejected()
		return st, err
	}
	if err != nil {
		return st, err
	}

	switch s := st.(type) {
	case search.Success:
		a.Metrics.ObserveLookup("success", time.Since(start))
		a.saveLastResult(ctx, s.Record)
	case search.Failed:
		a.Metrics.ObserveLookup(s.Kind.String(), time.Since(start))
	}
	return st, nil
}

func (a *App) saveLastResult(ctx context.Context, rec *model.NutritionRecord) {
	data, err := json.Marshal(rec)
	if err == nil {
		err = a.Slots.Put(ctx, a.Config.Storage.LastResultSlot, data)
	}
	if err != nil {
		a.Logger.Warn("failed to save last result", zap.Error(err))
		a.Metrics.PersistenceFailed("last_result")
	}
}

// LastResult returns the record of the most recent successful lookup.
func (a *App) LastResult(ctx context.Context) (*model.NutritionRecord, error) {
	data, err := a.Slots.Get(ctx, a.Config.Storage.LastResultSlot)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoLastResult
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read last result: %w", err)
	}

	var rec model.NutritionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("stored last result is corrupt: %w", err)
	}
	return &rec, nil
}

// RecipeView is a recipe annotated for display.
type RecipeView struct {
	model.Recipe
	ID         string `json:"id"`
	IsFavorite bool   `json:"isFavorite"`
}

// Annotate marks which recipes are favorites.
func (a *App) Annotate(recipes []model.Recipe) []RecipeView {
	views := make([]RecipeView, 0, len(recipes))
	for _, r := range recipes {
		views = append(views, RecipeView{
			Recipe:     r,
			ID:         r.ID(),
			IsFavorite: a.Favorites.IsFavorite(r),
		})
	}
	return views
}

// Close releases storage. It is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
