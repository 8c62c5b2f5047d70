package search

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/robertmeta/nutriinfo-cli/model"
	"github.com/robertmeta/nutriinfo-cli/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLooker struct {
	mu    sync.Mutex
	calls int
	langs []model.Language
	rec   *model.NutritionRecord
	err   error
	block chan struct{}
}

func (s *stubLooker) Lookup(_ context.Context, _ string, lang model.Language) (*model.NutritionRecord, error) {
	s.mu.Lock()
	s.calls++
	s.langs = append(s.langs, lang)
	block := s.block
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	return s.rec, s.err
}

func (s *stubLooker) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func apple() *model.NutritionRecord {
	return &model.NutritionRecord{
		FoodName: "Fuji Apple", Calories: 95, Protein: 0.5, Carbs: 25, Fat: 0.3,
		ServingSize: "1 medium (182g)",
	}
}

func TestMachine_StartsIdle(t *testing.T) {
	m := NewMachine(&stubLooker{})
	assert.Equal(t, Idle{}, m.State())
	assert.Equal(t, model.LanguagePortuguese, m.Language())
}

func TestMachine_SubmitSuccess(t *testing.T) {
	looker := &stubLooker{rec: apple()}
	var transitions []string
	m := NewMachine(looker, WithObserver(func(prev, next QueryState) {
		transitions = append(transitions, prev.Status()+"->"+next.Status())
	}))

	st, err := m.Submit(context.Background(), "  fuji apple  ")
	require.NoError(t, err)

	success, ok := st.(Success)
	require.True(t, ok)
	assert.Equal(t, "Fuji Apple", success.Record.FoodName)
	assert.Equal(t, st, m.State())
	assert.Equal(t, 1, looker.callCount())
	assert.Equal(t, []string{"idle->loading", "loading->success"}, transitions)
}

func TestMachine_EmptyQueryLeavesStateUnchanged(t *testing.T) {
	looker := &stubLooker{rec: apple()}
	m := NewMachine(looker)

	_, err := m.Submit(context.Background(), "apple")
	require.NoError(t, err)
	before := m.State()

	st, err := m.Submit(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Equal(t, before, st)
	assert.Equal(t, before, m.State())
	assert.Equal(t, 1, looker.callCount())
}

func TestMachine_FailureMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		lang    model.Language
		kind    model.ErrorKind
		message string
	}{
		{
			name:    "missing credential pt-BR",
			err:     &nutrition.Error{Kind: model.ErrorMissingCredential},
			lang:    model.LanguagePortuguese,
			kind:    model.ErrorMissingCredential,
			message: "Chave de API não configurada. Por favor, verifique suas variáveis de ambiente.",
		},
		{
			name:    "missing credential en-US",
			err:     &nutrition.Error{Kind: model.ErrorMissingCredential},
			lang:    model.LanguageEnglish,
			kind:    model.ErrorMissingCredential,
			message: "API Key not configured. Please check your environment variables.",
		},
		{
			name:    "generic pt-BR",
			err:     &nutrition.Error{Kind: model.ErrorGeneric},
			lang:    model.LanguagePortuguese,
			kind:    model.ErrorGeneric,
			message: "Não foi possível encontrar informações para este alimento. Tente ser mais específico.",
		},
		{
			name:    "generic en-US",
			err:     &nutrition.Error{Kind: model.ErrorGeneric},
			lang:    model.LanguageEnglish,
			kind:    model.ErrorGeneric,
			message: "Could not find information for this food. Please try to be more specific.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(&stubLooker{err: tt.err}, WithLanguage(tt.lang))

			st, err := m.Submit(context.Background(), "xyzzy")
			require.NoError(t, err)

			failed, ok := st.(Failed)
			require.True(t, ok)
			assert.Equal(t, tt.kind, failed.Kind)
			assert.Equal(t, tt.message, failed.Message)
		})
	}
}

func TestMachine_BusyRejectsSecondSubmit(t *testing.T) {
	looker := &stubLooker{rec: apple(), block: make(chan struct{})}
	entered := make(chan struct{})
	m := NewMachine(looker, WithObserver(func(_, next QueryState) {
		if _, ok := next.(Loading); ok {
			close(entered)
		}
	}))

	done := make(chan QueryState)
	go func() {
		st, _ := m.Submit(context.Background(), "apple")
		done <- st
	}()
	<-entered

	st, err := m.Submit(context.Background(), "banana")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, Loading{Query: "apple"}, st)
	assert.ErrorIs(t, m.Reset(), ErrBusy)

	close(looker.block)
	final := <-done
	assert.IsType(t, Success{}, final)
	assert.Equal(t, 1, looker.callCount())
}

func TestMachine_NewSubmitClearsPreviousResult(t *testing.T) {
	looker := &stubLooker{rec: apple()}
	var seen []QueryState
	m := NewMachine(looker, WithObserver(func(_, next QueryState) { seen = append(seen, next) }))

	_, err := m.Submit(context.Background(), "apple")
	require.NoError(t, err)

	looker.err = &nutrition.Error{Kind: model.ErrorGeneric}
	st, err := m.Submit(context.Background(), "xyzzy")
	require.NoError(t, err)
	assert.IsType(t, Failed{}, st)

	require.Len(t, seen, 4)
	assert.Equal(t, Loading{Query: "xyzzy"}, seen[2])
}

func TestMachine_LanguageThreadsThrough(t *testing.T) {
	looker := &stubLooker{err: &nutrition.Error{Kind: model.ErrorGeneric}}
	m := NewMachine(looker)

	_, err := m.Submit(context.Background(), "x")
	require.NoError(t, err)
	assert.Contains(t, m.State().(Failed).Message, "Não foi possível")

	m.SetLanguage(model.LanguageEnglish)
	assert.Equal(t, model.LanguageEnglish, m.Language())
	assert.Contains(t, m.State().(Failed).Message, "Could not find")

	_, err = m.Submit(context.Background(), "y")
	require.NoError(t, err)
	assert.Equal(t, []model.Language{model.LanguagePortuguese, model.LanguageEnglish}, looker.langs)
}

func TestMachine_LanguageSwitchDuringLookup(t *testing.T) {
	looker := &stubLooker{err: &nutrition.Error{Kind: model.ErrorGeneric}, block: make(chan struct{})}
	entered := make(chan struct{})
	m := NewMachine(looker, WithObserver(func(_, next QueryState) {
		if _, ok := next.(Loading); ok {
			close(entered)
		}
	}))

	done := make(chan QueryState)
	go func() {
		st, _ := m.Submit(context.Background(), "xyzzy")
		done <- st
	}()
	<-entered

	m.SetLanguage(model.LanguageEnglish)
	close(looker.block)

	final := (<-done).(Failed)
	assert.Equal(t, "Could not find information for this food. Please try to be more specific.", final.Message)
	assert.Equal(t, final, m.State())
}

type panickingLooker struct{}

func (panickingLooker) Lookup(context.Context, string, model.Language) (*model.NutritionRecord, error) {
	panic("looker exploded")
}

func TestMachine_LookerPanicLeavesLoading(t *testing.T) {
	m := NewMachine(panickingLooker{}, WithLanguage(model.LanguageEnglish))

	assert.Panics(t, func() {
		_, _ = m.Submit(context.Background(), "apple")
	})

	failed, ok := m.State().(Failed)
	require.True(t, ok)
	assert.Equal(t, model.ErrorGeneric, failed.Kind)
	assert.NoError(t, m.Reset())
}

func TestMachine_SubmitAsSwitchesLanguage(t *testing.T) {
	looker := &stubLooker{rec: apple()}
	m := NewMachine(looker)

	_, err := m.SubmitAs(context.Background(), "apple", model.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, model.LanguageEnglish, m.Language())
	assert.Equal(t, []model.Language{model.LanguageEnglish}, looker.langs)

	_, err = m.SubmitAs(context.Background(), "  ", model.LanguagePortuguese)
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Equal(t, model.LanguageEnglish, m.Language())
}

func TestMachine_RejectedSubmitAsKeepsLanguage(t *testing.T) {
	looker := &stubLooker{rec: apple(), block: make(chan struct{})}
	entered := make(chan struct{})
	m := NewMachine(looker, WithObserver(func(_, next QueryState) {
		if _, ok := next.(Loading); ok {
			close(entered)
		}
	}))

	done := make(chan struct{})
	go func() {
		_, _ = m.Submit(context.Background(), "apple")
		close(done)
	}()
	<-entered

	_, err := m.SubmitAs(context.Background(), "banana", model.LanguageEnglish)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, model.LanguagePortuguese, m.Language())

	close(looker.block)
	<-done
}

func TestMachine_Reset(t *testing.T) {
	m := NewMachine(&stubLooker{rec: apple()})
	_, err := m.Submit(context.Background(), "apple")
	require.NoError(t, err)

	require.NoError(t, m.Reset())
	assert.Equal(t, Idle{}, m.State())
}

func TestQueryState_JSON(t *testing.T) {
	tests := []struct {
		state QueryState
		want  string
	}{
		{Idle{}, `{"status":"idle"}`},
		{Loading{Query: "apple"}, `{"status":"loading","query":"apple"}`},
		{Failed{Kind: model.ErrorMissingCredential, Message: "m"}, `{"status":"error","kind":"missing_credential","message":"m"}`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.state)
		require.NoError(t, err)
		assert.JSONEq(t, tt.want, string(data))
	}

	data, err := json.Marshal(Success{Record: apple()})
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "success", out["status"])
	assert.Len(t, out["macros"], 3)
}

func TestTranslationFor_FallsBack(t *testing.T) {
	assert.Equal(t, "NutriInfo IA", TranslationFor("fr-FR").Title)
	assert.Equal(t, "NutriInfo AI", TranslationFor(model.LanguageEnglish).Title)
}
