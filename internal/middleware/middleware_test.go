package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wellness/internal/auth"
)

func TestRequestIDKeepsValidHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if seen != "abc-123" || rr.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("request id = %q / %q, want abc-123", seen, rr.Header().Get("X-Request-ID"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "bad id\nwith newline")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if seen == "" || strings.Contains(seen, " ") {
		t.Fatalf("invalid header should be replaced, got %q", seen)
	}
}

func TestLoggerWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	handler := RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/v1/things", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}
	var inner, access map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &inner); err != nil {
		t.Fatalf("decode inner line: %v", err)
	}
	if inner["request_id"] != "rid-1" {
		t.Fatalf("handler logger missing request_id: %v", inner)
	}
	if err := json.Unmarshal([]byte(lines[1]), &access); err != nil {
		t.Fatalf("decode access line: %v", err)
	}
	if access["status"] != float64(http.StatusTeapot) || access["method"] != "POST" || access["path"] != "/v1/things" || access["bytes"] != float64(2) {
		t.Fatalf("unexpected access line: %v", access)
	}
}

func TestLoggerWrapperFlushes(t *testing.T) {
	handler := Logger(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Fatalf("Flush() through wrapper: %v", err)
		}
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if !rr.Flushed {
		t.Fatalf("recorder was not flushed")
	}
}

func TestAuthJWT(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", "wellness-test", time.Hour)
	token, _, err := issuer.Sign("acct-1", "rina@example.com", "id")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	var gotUser, gotEmail, gotLocale string
	handler := AuthJWT(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotEmail = EmailFromContext(r.Context())
		gotLocale = LocaleFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{name: "missing", setup: func(r *http.Request) {}, status: http.StatusUnauthorized},
		{name: "malformed header", setup: func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }, status: http.StatusUnauthorized},
		{name: "bad token", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, status: http.StatusUnauthorized},
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, status: http.StatusOK},
		{name: "query param", setup: func(r *http.Request) { r.URL.RawQuery = "access_token=" + token }, status: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotUser, gotEmail, gotLocale = "", "", ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			if tc.status == http.StatusOK {
				if gotUser != "acct-1" || gotEmail != "rina@example.com" || gotLocale != "id" {
					t.Fatalf("context = %q %q %q", gotUser, gotEmail, gotLocale)
				}
			} else if !strings.Contains(rr.Body.String(), `"code":"unauthorized"`) {
				t.Fatalf("unexpected error body: %s", rr.Body.String())
			}
		})
	}
}
