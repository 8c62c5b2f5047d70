package nutrition

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/robertmeta/nutriinfo-cli/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	calls atomic.Int32
	last  GenerateRequest
	text  string
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, req GenerateRequest) (string, error) {
	f.calls.Add(1)
	f.last = req
	return f.text, f.err
}

func newTestClient(gen Generator, key string) *Client {
	return New(Config{
		Provider:       ProviderGemini,
		APIKey:         key,
		IncludeRecipes: true,
	}, nil, WithGenerator(gen))
}

func TestLookup_Success(t *testing.T) {
	gen := &fakeGenerator{text: fujiApple}
	c := newTestClient(gen, "secret")

	rec, err := c.Lookup(context.Background(), "  fuji apple ", model.LanguageEnglish)
	require.NoError(t, err)

	assert.Equal(t, "Fuji Apple", rec.FoodName)
	assert.Len(t, rec.Recipes, 3)
	assert.EqualValues(t, 1, gen.calls.Load())
	assert.Equal(t, "gemini-2.5-flash", gen.last.Model)
	assert.Contains(t, gen.last.Prompt, `"fuji apple"`)
	assert.Contains(t, gen.last.Prompt, "English")
	assert.Contains(t, gen.last.Schema.Required, "recipes")
}

func TestLookup_MissingCredential(t *testing.T) {
	for _, key := range []string{"", "   "} {
		gen := &fakeGenerator{text: fujiApple}
		c := newTestClient(gen, key)

		rec, err := c.Lookup(context.Background(), "apple", model.LanguagePortuguese)
		require.Error(t, err)
		assert.Nil(t, rec)
		assert.Equal(t, model.ErrorMissingCredential, KindOf(err))
		assert.True(t, errors.Is(err, ErrMissingCredential))
		assert.Zero(t, gen.calls.Load(), "no request without a credential")
	}
}

func TestLookup_OllamaNeedsNoCredential(t *testing.T) {
	gen := &fakeGenerator{text: fujiApple}
	c := New(Config{Provider: ProviderOllama, IncludeRecipes: true}, nil, WithGenerator(gen))

	_, err := c.Lookup(context.Background(), "apple", model.LanguageEnglish)
	require.NoError(t, err)
	assert.EqualValues(t, 1, gen.calls.Load())
	assert.Equal(t, "llama3.2", gen.last.Model)
}

func TestLookup_EmptyQuery(t *testing.T) {
	gen := &fakeGenerator{text: fujiApple}
	c := newTestClient(gen, "secret")

	_, err := c.Lookup(context.Background(), " \t", model.LanguageEnglish)
	require.Error(t, err)
	assert.Equal(t, model.ErrorGeneric, KindOf(err))
	assert.Zero(t, gen.calls.Load())
}

func TestLookup_GenericFailures(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"transport error", &fakeGenerator{err: errors.New("connection refused")}},
		{"empty body", &fakeGenerator{text: ""}},
		{"malformed", &fakeGenerator{text: `{"foodName":`}},
		{"missing calories", &fakeGenerator{text: `{"foodName":"A","protein":1,"carbs":1,"fat":1,"servingSize":"1","recipes":[]}`}},
		{"missing recipes", &fakeGenerator{text: `{"foodName":"A","calories":1,"protein":1,"carbs":1,"fat":1,"servingSize":"1"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(tt.gen, "secret")

			rec, err := c.Lookup(context.Background(), "apple", model.LanguageEnglish)
			require.Error(t, err)
			assert.Nil(t, rec)
			assert.Equal(t, model.ErrorGeneric, KindOf(err))
			assert.True(t, errors.Is(err, ErrGeneric))
			assert.False(t, errors.Is(err, ErrMissingCredential))
			assert.EqualValues(t, 1, tt.gen.calls.Load(), "exactly one request, no retry")
		})
	}
}

func TestLookup_BaseVariantAllowsNoRecipes(t *testing.T) {
	gen := &fakeGenerator{text: `{"foodName":"Rice","calories":130,"protein":2.7,"carbs":28,"fat":0.3,"servingSize":"100g"}`}
	c := New(Config{Provider: ProviderOpenAI, APIKey: "k"}, nil, WithGenerator(gen))

	rec, err := c.Lookup(context.Background(), "rice", model.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, "Rice", rec.FoodName)
	assert.NotContains(t, gen.last.Schema.Required, "recipes")
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, model.ErrorGeneric, KindOf(errors.New("boom")))
	assert.Equal(t, model.ErrorGeneric, KindOf(nil))
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: model.ErrorMissingCredential}
	assert.Equal(t, "API key not configured", err.Error())

	cause := errors.New("status 500")
	wrapped := generic(cause)
	assert.Contains(t, wrapped.Error(), "status 500")
	assert.True(t, errors.Is(wrapped, cause))
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" Gemini ")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, p)

	_, err = ParseProvider("watson")
	assert.Error(t, err)

	assert.False(t, ProviderOllama.RequiresCredential())
	assert.True(t, ProviderAnthropic.RequiresCredential())
	assert.Empty(t, ProviderAnthropic.DefaultBaseURL())
}
