package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"wellness/internal/middleware"
)

func TestMeSubscribeStreamsChanges(t *testing.T) {
	app := newTestApp(t)
	const user = "acct-1"
	if rec := serve(t, app.OnboardingIdentity, call{method: http.MethodPost, target: "/v1/onboarding/identity", body: rinaIdentity, userID: user}); rec.Code != http.StatusOK {
		t.Fatalf("identity status = %d", rec.Code)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.MeSubscribe(w, r.WithContext(middleware.ContextWithUserID(r.Context(), user)))
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ev profileEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if ev.Op != "snapshot" || ev.Profile == nil || ev.Profile.Name != "Rina" {
		t.Fatalf("snapshot = %+v", ev)
	}

	key := app.Profiles.Resolver().KeyFor(user)
	if _, err := app.Access.Merge(context.Background(), key, map[string]any{"goal": "Get fitter"}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	ev = profileEvent{}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read change: %v", err)
	}
	if ev.Op != "update" || ev.Profile == nil || ev.Profile.Goal != "Get fitter" || ev.Version < 2 {
		t.Fatalf("change = %+v", ev)
	}

	if err := app.Access.Delete(context.Background(), key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ev = profileEvent{}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read delete: %v", err)
	}
	if ev.Op != "delete" || ev.Profile != nil {
		t.Fatalf("delete event = %+v", ev)
	}
}
