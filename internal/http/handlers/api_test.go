package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"wellness/internal/auth"
	"wellness/internal/catalog"
	"wellness/internal/domain"
	"wellness/internal/storage"
)

func TestMealsDefaultsToBreakfast(t *testing.T) {
	app := newTestApp(t)
	rec := serve(t, app.Meals, call{method: http.MethodGet, target: "/v1/meals"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var res catalog.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Meals) == 0 || res.Best == nil {
		t.Fatalf("expected meals, got %+v", res)
	}
	for _, m := range res.Meals {
		if m.Category != "Breakfast" || m.CookMinutes > 20 || m.Kcal > 500 {
			t.Fatalf("meal %+v does not match the default filter", m)
		}
	}
	if res.Best.Title != res.Meals[0].Title {
		t.Fatalf("best meal = %q, want first %q", res.Best.Title, res.Meals[0].Title)
	}
}

func TestMealsRejectsBadFilters(t *testing.T) {
	app := newTestApp(t)
	for _, target := range []string{"/v1/meals?category=brunch", "/v1/meals?time=soon", "/v1/meals?calories=1-2"} {
		rec := serve(t, app.Meals, call{method: http.MethodGet, target: target})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestNutritionPercentage(t *testing.T) {
	app := newTestApp(t)
	cases := map[string]int{
		"/v1/nutrition/percentage?value=500&goal=2000": 25,
		"/v1/nutrition/percentage?value=900&goal=300":  100,
		"/v1/nutrition/percentage?value=10&goal=0":     0,
	}
	for target, want := range cases {
		rec := serve(t, app.NutritionPercentage, call{method: http.MethodGet, target: target})
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", target, rec.Code)
		}
		var out map[string]int
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out["percentage"] != want {
			t.Fatalf("%s: percentage = %d, want %d", target, out["percentage"], want)
		}
	}
	for _, target := range []string{
		"/v1/nutrition/percentage?value=abc&goal=1",
		"/v1/nutrition/percentage?value=NaN&goal=300",
		"/v1/nutrition/percentage?value=10&goal=NaN",
		"/v1/nutrition/percentage?value=Inf&goal=300",
		"/v1/nutrition/percentage?value=10&goal=-Inf",
	} {
		rec := serve(t, app.NutritionPercentage, call{method: http.MethodGet, target: target})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestNutritionScanUnavailableWithoutScanner(t *testing.T) {
	app := newTestApp(t)
	rec := serve(t, app.NutritionSearch, call{method: http.MethodPost, target: "/v1/nutrition/search", userID: "acct-1", body: map[string]string{"query": "rice"}})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestSimulateUnknownMetric(t *testing.T) {
	app := newTestApp(t)
	rec := serve(t, app.Simulate, call{method: http.MethodGet, target: "/v1/simulate/blood", params: map[string]string{"metric": "blood"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSimulateStreamsSamples(t *testing.T) {
	if testing.Short() {
		t.Skip("streams for a few seconds")
	}
	app := newTestApp(t)
	rec := serve(t, app.Simulate, call{method: http.MethodGet, target: "/v1/simulate/steps", params: map[string]string{"metric": "steps"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	body := rec.Body.String()
	if n := strings.Count(body, "event: sample\n"); n != 4 {
		t.Fatalf("sample events = %d, want 4\n%s", n, body)
	}
	if !strings.HasSuffix(body, "event: done\ndata: {}\n\n") {
		t.Fatalf("stream did not end with done event:\n%s", body)
	}
	if !strings.Contains(body, `"done":true`) {
		t.Fatalf("last sample not flagged done:\n%s", body)
	}
}

func TestFitnessPlanRejectsBadDuration(t *testing.T) {
	app := newTestApp(t)
	const user = "acct-1"
	serve(t, app.OnboardingIdentity, call{method: http.MethodPost, target: "/v1/onboarding/identity", body: rinaIdentity, userID: user})

	rec := serve(t, app.MeFitnessPlan, call{method: http.MethodPut, target: "/v1/me/fitness-plan", userID: user,
		body: domain.FitnessPlan{Goal: "Get fitter", Duration: "two weeks"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeError(t, rec).Error.Code; got != "invalid_duration" {
		t.Fatalf("code = %q", got)
	}

	rec = serve(t, app.MeFitnessPlan, call{method: http.MethodPut, target: "/v1/me/fitness-plan", userID: user,
		body: domain.FitnessPlan{Goal: "Get fitter", Duration: "14d"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"completesAt":"2026-03-16T09:00:00Z"`) {
		t.Fatalf("unexpected completion time: %s", rec.Body.String())
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	app := newTestApp(t)
	const user = "acct-1"
	rec := serve(t, app.SettingsGet, call{method: http.MethodGet, target: "/v1/settings", userID: user})
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var s domain.Settings
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s != domain.DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", s)
	}

	rec = serve(t, app.SettingsUpdate, call{method: http.MethodPatch, target: "/v1/settings", userID: user,
		body: map[string]any{"notifications": map[string]bool{"email": false}}})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Notifications.Email || !s.Notifications.Push {
		t.Fatalf("notifications = %+v", s.Notifications)
	}
}

func TestScanDeleteRemovesImage(t *testing.T) {
	app := newTestApp(t)
	store, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	app.Storage = store
	url, err := store.Upload(context.Background(), "scans/acct-1/plate.png", []byte("png"), "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	_ = app.Scans.Append(context.Background(), &domain.ScanHistoryEntry{ID: "scan-1", UserID: "acct-1", Type: domain.ScanTypeScan, ImageURL: url})

	rec := serve(t, app.ScanDelete, call{method: http.MethodDelete, target: "/v1/scans/scan-1", userID: "acct-1", params: map[string]string{"id": "scan-1"}})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if _, err := store.Read(context.Background(), "scans/acct-1/plate.png"); err == nil {
		t.Fatalf("image still stored after delete")
	}
	rec = serve(t, app.ScanGet, call{method: http.MethodGet, target: "/v1/scans/scan-1", userID: "acct-1", params: map[string]string{"id": "scan-1"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", rec.Code)
	}
}

func TestMeExportArchive(t *testing.T) {
	app := newTestApp(t)
	store, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	app.Storage = store
	ctx := context.Background()
	const user = "acct-1"

	avatar, err := store.Upload(ctx, "profiles/acct-1/avatar.png", []byte("avatar-bytes"), "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	identity := map[string]any{}
	for k, v := range rinaIdentity {
		identity[k] = v
	}
	identity["imageUrl"] = avatar
	if rec := serve(t, app.OnboardingIdentity, call{method: http.MethodPost, target: "/v1/onboarding/identity", body: identity, userID: user}); rec.Code != http.StatusOK {
		t.Fatalf("identity status = %d", rec.Code)
	}
	_ = app.Scans.Append(ctx, &domain.ScanHistoryEntry{ID: "scan-1", UserID: user, Type: domain.ScanTypeSearch, Query: "rice"})
	_ = app.Scans.Append(ctx, &domain.ScanHistoryEntry{ID: "scan-2", UserID: user, Type: domain.ScanTypeScan, ImageURL: "https://elsewhere.example.com/x.png"})
	if rec := serve(t, app.MeProgressUpdate, call{method: http.MethodPut, target: "/v1/me/progress", body: map[string]any{"currentWeight": 62.7}, userID: user}); rec.Code != http.StatusOK {
		t.Fatalf("progress status = %d", rec.Code)
	}

	rec := serve(t, app.MeExport, call{method: http.MethodGet, target: "/v1/me/export", userID: user})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q", ct)
	}

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	files := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		files[f.Name] = data
	}
	for _, name := range []string{"profile.json", "settings.json", "progress.json", "scans.json", "images/avatar.png"} {
		if _, ok := files[name]; !ok {
			t.Fatalf("archive missing %s", name)
		}
	}
	if len(files) != 5 {
		t.Fatalf("archive has %d files, want 5 (external image skipped)", len(files))
	}
	if !strings.Contains(string(files["progress.json"]), `"currentWeight": 62.7`) {
		t.Fatalf("progress.json = %s", files["progress.json"])
	}
	if string(files["images/avatar.png"]) != "avatar-bytes" {
		t.Fatalf("avatar bytes = %q", files["images/avatar.png"])
	}
	if !strings.Contains(string(files["profile.json"]), `"name": "Rina"`) {
		t.Fatalf("profile.json = %s", files["profile.json"])
	}
}

func TestAuthSignUpWeakPassword(t *testing.T) {
	app := newTestApp(t)
	app.Auth = auth.NewService(auth.Options{})
	rec := serve(t, app.AuthSignUp, call{method: http.MethodPost, target: "/v1/auth/signup",
		body: map[string]string{"email": "rina@example.com", "password": "short", "confirmPassword": "short"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Error.Code != "weak_password" || body.Error.Message == "" {
		t.Fatalf("error = %+v", body.Error)
	}
}

func TestAuthUnavailableWithoutService(t *testing.T) {
	app := newTestApp(t)
	rec := serve(t, app.AuthSignIn, call{method: http.MethodPost, target: "/v1/auth/signin", body: map[string]string{"email": "a@b.c", "password": "x"}})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestDecodeJSONRejectsEmptyBody(t *testing.T) {
	app := newTestApp(t)
	rec := serve(t, app.OnboardingGoal, call{method: http.MethodPost, target: "/v1/onboarding/goal", userID: "acct-1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := decodeError(t, rec).Error.Message; !strings.Contains(msg, "body") {
		t.Fatalf("message = %q", msg)
	}
}

func TestScanDeleteKeepsRemainingOrder(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_ = app.Scans.Append(ctx, &domain.ScanHistoryEntry{ID: id, UserID: "acct-1", Type: domain.ScanTypeSearch, Query: id})
	}
	rec := serve(t, app.ScanDelete, call{method: http.MethodDelete, target: "/v1/scans/b", userID: "acct-1", params: map[string]string{"id": "b"}})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = serve(t, app.ScansList, call{method: http.MethodGet, target: "/v1/scans", userID: "acct-1"})
	var out struct {
		Items []domain.ScanHistoryEntry `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 2 || out.Items[0].ID != "a" || out.Items[1].ID != "c" {
		t.Fatalf("items = %+v", out.Items)
	}
}

func TestMeProgressRoundTrip(t *testing.T) {
	app := newTestApp(t)
	const user = "acct-1"

	rec := serve(t, app.MeProgress, call{method: http.MethodGet, target: "/v1/me/progress", userID: user})
	if rec.Code != http.StatusOK {
		t.Fatalf("empty status = %d", rec.Code)
	}

	rec = serve(t, app.MeProgressUpdate, call{method: http.MethodPut, target: "/v1/me/progress", userID: user,
		body: map[string]any{"currentWeight": 65, "bodyFat": 14.2, "steps": 8450}})
	if rec.Code != http.StatusOK {
		t.Fatalf("first update status = %d body=%s", rec.Code, rec.Body.String())
	}
	rec = serve(t, app.MeProgressUpdate, call{method: http.MethodPut, target: "/v1/me/progress", userID: user,
		body: map[string]any{"currentWeight": 62.7}})
	if rec.Code != http.StatusOK {
		t.Fatalf("second update status = %d", rec.Code)
	}

	rec = serve(t, app.MeProgress, call{method: http.MethodGet, target: "/v1/me/progress?range=week", userID: user})
	var got domain.Progress
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.StartWeight != 65 || got.CurrentWeight != 62.7 || got.Percent != 3.5 || got.Steps != 8450 {
		t.Fatalf("progress = %+v", got)
	}
	if len(got.Weights) != 2 {
		t.Fatalf("weights = %+v, want 2 entries", got.Weights)
	}

	for _, c := range []call{
		{method: http.MethodGet, target: "/v1/me/progress?range=year", userID: user},
		{method: http.MethodPut, target: "/v1/me/progress", userID: user, body: map[string]any{"currentWeight": 5}},
		{method: http.MethodPut, target: "/v1/me/progress", userID: user, body: map[string]any{}},
	} {
		h := app.MeProgressUpdate
		if c.method == http.MethodGet {
			h = app.MeProgress
		}
		if rec := serve(t, h, c); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s %s status = %d, want 400", c.method, c.target, rec.Code)
		}
	}
	if rec := serve(t, app.MeProgress, call{method: http.MethodGet, target: "/v1/me/progress"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}
}

func TestMeDeleteRemovesImagesAndProgress(t *testing.T) {
	app := newTestApp(t)
	store, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	app.Storage = store
	ctx := context.Background()
	const user = "acct-1"

	keys := []string{"profiles/acct-1/a.png", "scans/acct-1/b.jpg", "uploads/acct-1/c.png", "profiles/acct-2/d.png"}
	for _, key := range keys {
		if _, err := store.Upload(ctx, key, []byte("img"), "image/png"); err != nil {
			t.Fatalf("upload %s: %v", key, err)
		}
	}
	serve(t, app.OnboardingIdentity, call{method: http.MethodPost, target: "/v1/onboarding/identity", body: rinaIdentity, userID: user})
	serve(t, app.MeProgressUpdate, call{method: http.MethodPut, target: "/v1/me/progress", body: map[string]any{"steps": 100}, userID: user})

	if rec := serve(t, app.MeDelete, call{method: http.MethodDelete, target: "/v1/me", userID: user}); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d body=%s", rec.Code, rec.Body.String())
	}
	for _, key := range keys[:3] {
		if _, err := store.Read(ctx, key); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("%s still stored: %v", key, err)
		}
	}
	if _, err := store.Read(ctx, keys[3]); err != nil {
		t.Fatalf("other user's image removed: %v", err)
	}
	p, err := app.Progress.Get(ctx, user, "")
	if err != nil || p.Steps != 0 {
		t.Fatalf("progress after delete = %+v, %v", p, err)
	}
}
