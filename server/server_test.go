package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/robertmeta/nutriinfo-cli/app"
	"github.com/robertmeta/nutriinfo-cli/config"
	"github.com/robertmeta/nutriinfo-cli/model"
	"github.com/robertmeta/nutriinfo-cli/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const applePayload = `{"foodName":"Fuji Apple","calories":95,"protein":0.5,"carbs":25,"fat":0.3,
"servingSize":"1 medium (182g)","emoji":"🍎","recipes":[
{"name":"Baked Apple","description":"d","calories":120,"protein":1,"carbs":30,"fat":0.5,"prepTime":"25 min"}]}`

type stubGenerator struct {
	text  string
	block chan struct{}
	ready chan struct{}
}

func (g *stubGenerator) Generate(ctx context.Context, _ nutrition.GenerateRequest) (string, error) {
	if g.block != nil {
		close(g.ready)
		<-g.block
	}
	return g.text, nil
}

func newTestServer(t *testing.T, gen nutrition.Generator) (*httptest.Server, *app.App) {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Language: "pt-BR"},
		AI:  config.AIConfig{Provider: "gemini", APIKey: "secret", IncludeRecipes: true},
		Storage: config.StorageConfig{
			Driver:         "sqlite",
			Path:           ":memory:",
			FavoritesSlot:  "nutriGeminiFavorites",
			LastResultSlot: "nutriInfoLastResult",
		},
	}
	a, err := app.New(context.Background(), cfg, nil, app.WithGenerator(gen))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	srv := httptest.NewServer(New(a, "").Handler())
	t.Cleanup(srv.Close)
	return srv, a
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{})
	code, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestState_InitiallyIdle(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{})
	code, body := do(t, http.MethodGet, srv.URL+"/api/state", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "idle", body["state"].(map[string]any)["status"])
	assert.Equal(t, "pt-BR", body["language"])
}

func TestSearch_Success(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{text: applePayload})

	code, body := do(t, http.MethodPost, srv.URL+"/api/search", `{"query":"fuji apple","language":"en-US"}`)
	require.Equal(t, http.StatusOK, code)

	state := body["state"].(map[string]any)
	assert.Equal(t, "success", state["status"])
	assert.Equal(t, "Fuji Apple", state["record"].(map[string]any)["foodName"])
	assert.Equal(t, "en-US", body["language"])

	recipes := body["recipes"].([]any)
	require.Len(t, recipes, 1)
	assert.Equal(t, false, recipes[0].(map[string]any)["isFavorite"])
}

func TestSearch_EmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{text: applePayload})
	code, _ := do(t, http.MethodPost, srv.URL+"/api/search", `{"query":"   "}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSearch_BadLanguage(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{text: applePayload})
	code, _ := do(t, http.MethodPost, srv.URL+"/api/search", `{"query":"apple","language":"fr-FR"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSearch_BusyReturnsConflict(t *testing.T) {
	gen := &stubGenerator{text: applePayload, block: make(chan struct{}), ready: make(chan struct{})}
	srv, _ := newTestServer(t, gen)

	first := make(chan int)
	go func() {
		resp, err := http.Post(srv.URL+"/api/search", "application/json", strings.NewReader(`{"query":"apple"}`))
		if err != nil {
			first <- 0
			return
		}
		resp.Body.Close()
		first <- resp.StatusCode
	}()
	<-gen.ready

	code, body := do(t, http.MethodPost, srv.URL+"/api/search", `{"query":"banana"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.NotEmpty(t, body["error"])

	close(gen.block)
	assert.Equal(t, http.StatusOK, <-first)
}

func TestSearch_BusyKeepsLanguage(t *testing.T) {
	gen := &stubGenerator{text: applePayload, block: make(chan struct{}), ready: make(chan struct{})}
	srv, a := newTestServer(t, gen)

	first := make(chan int)
	go func() {
		resp, err := http.Post(srv.URL+"/api/search", "application/json", strings.NewReader(`{"query":"apple"}`))
		if err != nil {
			first <- 0
			return
		}
		resp.Body.Close()
		first <- resp.StatusCode
	}()
	<-gen.ready

	code, _ := do(t, http.MethodPost, srv.URL+"/api/search", `{"query":"banana","language":"en-US"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, model.LanguagePortuguese, a.Machine.Language())

	close(gen.block)
	assert.Equal(t, http.StatusOK, <-first)
}

func TestLanguage(t *testing.T) {
	srv, a := newTestServer(t, &stubGenerator{})

	code, body := do(t, http.MethodPut, srv.URL+"/api/language", `{"language":"en-US"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "en-US", body["language"])
	assert.Equal(t, model.LanguageEnglish, a.Machine.Language())

	code, _ = do(t, http.MethodPut, srv.URL+"/api/language", `{"language":"de"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTranslations(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{})

	code, body := do(t, http.MethodGet, srv.URL+"/api/translations/en-US", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "NutriInfo AI", body["title"])
	assert.Equal(t, "API Key not configured. Please check your environment variables.", body["errorApiKey"])

	code, _ = do(t, http.MethodGet, srv.URL+"/api/translations/xx", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFavorites_ToggleListRemove(t *testing.T) {
	srv, a := newTestServer(t, &stubGenerator{})
	recipe := `{"recipe":{"name":"Baked Apple","description":"d","calories":120,"prepTime":"25 min"}}`

	code, body := do(t, http.MethodPost, srv.URL+"/api/favorites/toggle", recipe)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["isFavorite"])
	id := body["id"].(string)

	code, body = do(t, http.MethodGet, srv.URL+"/api/favorites", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])
	fav := body["favorites"].([]any)[0].(map[string]any)
	assert.Equal(t, "Baked Apple", fav["name"])
	assert.Equal(t, true, fav["isFavorite"])

	code, _ = do(t, http.MethodDelete, srv.URL+"/api/favorites/"+id, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, a.Favorites.Len())

	code, _ = do(t, http.MethodDelete, srv.URL+"/api/favorites/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFavorites_ToggleTwiceRemoves(t *testing.T) {
	srv, a := newTestServer(t, &stubGenerator{})
	recipe := `{"recipe":{"name":"Apple Oats"}}`

	_, body := do(t, http.MethodPost, srv.URL+"/api/favorites/toggle", recipe)
	assert.Equal(t, true, body["isFavorite"])
	_, body = do(t, http.MethodPost, srv.URL+"/api/favorites/toggle", recipe)
	assert.Equal(t, false, body["isFavorite"])
	assert.Equal(t, 0, a.Favorites.Len())
}

func TestFavorites_ToggleRejectsNameless(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{})
	code, _ := do(t, http.MethodPost, srv.URL+"/api/favorites/toggle", `{"recipe":{"description":"x"}}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{})
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "nutriinfo_favorites")
}
