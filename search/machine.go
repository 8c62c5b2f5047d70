package search

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/robertmeta/nutriinfo-cli/model"
	"github.com/robertmeta/nutriinfo-cli/nutrition"
	"go.uber.org/zap"
)

var (
	// ErrEmptyQuery is returned for a blank submit; the state is left as is.
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrBusy is returned while a lookup is in flight.
	ErrBusy = errors.New("a search is already in progress")
)

// Looker performs one nutrition lookup.
type Looker interface {
	Lookup(ctx context.Context, query string, lang model.Language) (*model.NutritionRecord, error)
}

// Observer is called after every state transition, outside the machine lock.
type Observer func(prev, next QueryState)

// Option configures a Machine.
type Option func(*Machine)

// WithObserver adds a transition observer.
func WithObserver(o Observer) Option {
	return func(m *Machine) { m.observers = append(m.observers, o) }
}

// WithLanguage sets the initial language.
func WithLanguage(lang model.Language) Option {
	return func(m *Machine) { m.lang = lang }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// Machine moves Idle -> Loading -> Success|Failed. Only one lookup runs at a time.
type Machine struct {
	mu        sync.Mutex
	state     QueryState
	lang      model.Language
	looker    Looker
	observers []Observer
	logger    *zap.Logger
}

// NewMachine creates a Machine in the Idle state.
func NewMachine(looker Looker, opts ...Option) *Machine {
	m := &Machine{
		state:  Idle{},
		lang:   model.DefaultLanguage,
		looker: looker,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit runs one lookup and returns the resulting Success or Failed state.
// The lookup itself runs without holding the lock.
func (m *Machine) Submit(ctx context.Context, query string) (QueryState, error) {
	return m.submit(ctx, query, "")
}

// SubmitAs switches to lang and submits query. The language only changes
// when the submit is accepted, so a rejected call leaves the session as is.
func (m *Machine) SubmitAs(ctx context.Context, query string, lang model.Language) (QueryState, error) {
	return m.submit(ctx, query, lang)
}

func (m *Machine) submit(ctx context.Context, query string, switchTo model.Language) (QueryState, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return m.State(), ErrEmptyQuery
	}

	m.mu.Lock()
	if cur, busy := m.state.(Loading); busy {
		m.mu.Unlock()
		m.logger.Debug("search rejected, lookup in flight", zap.String("query", query))
		return cur, ErrBusy
	}
	if switchTo != "" {
		m.lang = switchTo
	}
	lang := m.lang
	prev := m.state
	loading := Loading{Query: query}
	m.state = loading
	m.mu.Unlock()
	m.notify(prev, loading)

	var next QueryState
	defer func() {
		if next == nil {
			// The looker panicked; leave Loading so later submits are accepted.
			m.finish(loading, func(cur model.Language) QueryState {
				return Failed{Kind: model.ErrorGeneric, Message: ErrorMessage(model.ErrorGeneric, cur)}
			})
		}
	}()

	rec, err := m.looker.Lookup(ctx, query, lang)

	next = m.finish(loading, func(cur model.Language) QueryState {
		if err != nil {
			kind := nutrition.KindOf(err)
			return Failed{Kind: kind, Message: ErrorMessage(kind, cur)}
		}
		return Success{Record: rec}
	})
	return next, nil
}

// finish stores the state built by build, which sees the language current at
// completion rather than at submit.
func (m *Machine) finish(loading Loading, build func(model.Language) QueryState) QueryState {
	m.mu.Lock()
	next := build(m.lang)
	m.state = next
	m.mu.Unlock()
	m.notify(loading, next)
	return next
}

// State returns the current state.
func (m *Machine) State() QueryState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetLanguage switches the language used for the next lookup and messages.
// A Failed state already shown is re-rendered in the new language.
func (m *Machine) SetLanguage(lang model.Language) {
	m.mu.Lock()
	m.lang = lang
	if f, ok := m.state.(Failed); ok {
		m.state = Failed{Kind: f.Kind, Message: ErrorMessage(f.Kind, lang)}
	}
	m.mu.Unlock()
}

// Language returns the active language.
func (m *Machine) Language() model.Language {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lang
}

// Reset returns to Idle. It fails with ErrBusy during a lookup.
func (m *Machine) Reset() error {
	m.mu.Lock()
	prev := m.state
	if _, busy := prev.(Loading); busy {
		m.mu.Unlock()
		return ErrBusy
	}
	m.state = Idle{}
	m.mu.Unlock()
	m.notify(prev, Idle{})
	return nil
}

func (m *Machine) notify(prev, next QueryState) {
	for _, o := range m.observers {
		o(prev, next)
	}
}
