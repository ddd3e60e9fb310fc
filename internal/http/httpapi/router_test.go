package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wellness/internal/auth"
	"wellness/internal/catalog"
	"wellness/internal/docstore"
	"wellness/internal/http/handlers"
	"wellness/internal/profile"
)

func newTestRouter(t *testing.T, staticDir string) (http.Handler, *auth.TokenIssuer) {
	t.Helper()
	access := profile.NewAccess(docstore.NewMemoryStore())
	tokens := auth.NewTokenIssuer("router-secret", "wellness-test", time.Hour)
	app := &handlers.App{
		Logger:   zerolog.Nop(),
		Profiles: profile.NewBuilder(profile.Options{Access: access}),
		Access:   access,
		Catalog:  catalog.NewStaticCatalog(catalog.SeedMeals()),
	}
	return NewRouter(Options{
		App:             app,
		Tokens:          tokens,
		Logger:          zerolog.Nop(),
		DefaultLocale:   "en",
		RateLimitPerMin: 0,
		StaticDir:       staticDir,
	}), tokens
}

func TestRouterHealth(t *testing.T) {
	h, _ := newTestRouter(t, "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRouterProtectsProfileRoutes(t *testing.T) {
	h, tokens := newTestRouter(t, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}

	token, _, err := tokens.Sign("acct-9", "dewi@example.com", "id")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	body := `{"gender":"Female","name":"Dewi","age":31,"country":"Indonesia","imageUrl":"https://cdn.example.com/d.png"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/onboarding/identity", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("identity status = %d body=%s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d body=%s", rec.Code, rec.Body.String())
	}
	var me struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me.Profile.Name != "Dewi" {
		t.Fatalf("name = %q", me.Profile.Name)
	}
}

func TestRouterPublicCatalog(t *testing.T) {
	h, _ := newTestRouter(t, "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/meals?category=lunch&time=60&calories=0-500", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"category":"Lunch"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRouterServesStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "profiles"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "profiles", "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	h, _ := newTestRouter(t, dir)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/profiles/a.txt", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "hello" {
		t.Fatalf("static = %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouterIdentityCountryFromRegionHeader(t *testing.T) {
	h, tokens := newTestRouter(t, "")
	token, _, err := tokens.Sign("acct-7", "budi@example.com", "id")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	body := `{"gender":"Male","name":"Budi","age":35,"imageUrl":"https://cdn.example.com/b.png"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/onboarding/identity", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("CF-IPCountry", "id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("identity status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"country":"Indonesia"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRouterProgressRequiresAuth(t *testing.T) {
	h, _ := newTestRouter(t, "")
	for _, method := range []string{http.MethodGet, http.MethodPut} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/v1/me/progress", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s /v1/me/progress = %d, want 401", method, rec.Code)
		}
	}
}
