package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/gorilla/websocket"

	"wellness/internal/docstore"
	"wellness/internal/domain"
	"wellness/internal/profile"
	"wellness/internal/progress"
	"wellness/pkg/zip"
)

type profileResponse struct {
	Profile domain.Profile `json:"profile"`
	Version int64          `json:"version"`
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Profiles == nil {
		a.unavailable(w, r)
		return
	}
	p, doc, err := a.Profiles.Resolver().ResolveProfile(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, profileResponse{Profile: *p, Version: doc.Version})
}

type editRequest struct {
	Name     *string `json:"name"`
	Age      *int    `json:"age"`
	Country  *string `json:"country"`
	ImageURL *string `json:"imageUrl"`
}

func (a *App) MeEdit(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Profiles == nil {
		a.unavailable(w, r)
		return
	}
	var req editRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Profiles.Edit(r.Context(), userID, profile.EditInput{
		Name:     req.Name,
		Age:      req.Age,
		Country:  req.Country,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

func (a *App) MeDelete(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Profiles == nil {
		a.unavailable(w, r)
		return
	}
	if err := a.Profiles.DeleteAccount(r.Context(), userID); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

type profileEvent struct {
	Op      string          `json:"op"`
	Version int64           `json:"version"`
	Profile *domain.Profile `json:"profile,omitempty"`
}

// MeSubscribe streams the caller's profile over a websocket: a snapshot
// first, then one event per change until either side closes.
func (a *App) MeSubscribe(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Profiles == nil || a.Access == nil {
		a.unavailable(w, r)
		return
	}
	key := a.Profiles.Resolver().KeyFor(userID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	changes, err := a.Access.Subscribe(ctx, key)
	if err != nil {
		if errors.Is(err, docstore.ErrSubscribeUnavailable) {
			a.unavailable(w, r)
			return
		}
		a.fail(w, r, err)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: a.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log(r).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// The reader only watches for the client going away. Pongs push the
	// read deadline forward.
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(ev profileEvent) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(ev)
	}
	if err := send(a.profileEvent(ctx, key, "snapshot")); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
			return
		case ch, ok := <-changes:
			if !ok {
				return
			}
			ev := profileEvent{Op: string(ch.Op), Version: ch.Version}
			if ch.Op != docstore.OpDelete {
				ev = a.profileEvent(ctx, key, string(ch.Op))
			}
			if err := send(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// profileEvent loads the current document. A missing document is reported
// as op "missing" so clients know to restart onboarding.
func (a *App) profileEvent(ctx context.Context, key, op string) profileEvent {
	doc, err := a.Access.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			a.Logger.Warn().Err(err).Str("key", key).Msg("load profile for subscriber")
		}
		return profileEvent{Op: "missing"}
	}
	var p domain.Profile
	if err := docstore.Decode(doc.Data, &p); err != nil {
		a.Logger.Warn().Err(err).Str("key", key).Msg("decode profile for subscriber")
		return profileEvent{Op: "missing"}
	}
	return profileEvent{Op: op, Version: doc.Version, Profile: &p}
}

func (a *App) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || a.Config == nil || len(a.Config.CORSAllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range a.Config.CORSAllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// MeExport returns a zip with the profile, settings, scan history and every
// stored image that belongs to the caller.
func (a *App) MeExport(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Profiles == nil {
		a.unavailable(w, r)
		return
	}
	ctx := r.Context()
	now := a.now().UTC()

	doc, err := a.Profiles.Resolver().Resolve(ctx, userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	entries := []zip.Entry{}
	add := func(name string, v any) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		entries = append(entries, zip.Entry{Name: name, Modified: now, Data: data})
		return nil
	}
	if err := add("profile.json", doc.Data); err != nil {
		a.fail(w, r, err)
		return
	}
	images := []string{}
	if u, ok := doc.Data["imageUrl"].(string); ok && u != "" {
		images = append(images, u)
	}

	if a.Settings != nil {
		s, err := a.Settings.Get(ctx, userID)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		s.PushEndpoint = ""
		if err := add("settings.json", s); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	if a.Progress != nil {
		p, err := a.Progress.Get(ctx, userID, progress.WindowAll)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if err := add("progress.json", p); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	if a.Scans != nil {
		scans, err := a.Scans.List(ctx, userID)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if err := add("scans.json", scans); err != nil {
			a.fail(w, r, err)
			return
		}
		for _, s := range scans {
			if s.ImageURL != "" {
				images = append(images, s.ImageURL)
			}
		}
	}
	entries = append(entries, a.exportImages(r, images, now)...)

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=wellness-export-%s.zip", now.Format("20060102")))
	w.WriteHeader(http.StatusOK)
	if err := zip.Write(w, entries); err != nil {
		a.log(r).Error().Err(err).Msg("write export archive")
	}
}

// exportImages reads images hosted by the object store. External URLs are
// skipped since the archive only carries data this service holds.
func (a *App) exportImages(r *http.Request, urls []string, modified time.Time) []zip.Entry {
	if a.Storage == nil {
		return nil
	}
	var out []zip.Entry
	for _, u := range urls {
		key, ok := a.Storage.KeyFromURL(u)
		if !ok {
			continue
		}
		data, err := a.Storage.Read(r.Context(), key)
		if err != nil {
			a.log(r).Warn().Err(err).Str("key", key).Msg("skip image in export")
			continue
		}
		out = append(out, zip.Entry{Name: path.Join("images", path.Base(key)), Modified: modified, Data: data})
	}
	return out
}
