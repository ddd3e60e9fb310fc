package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"wellness/internal/simulator"
)

// Simulate streams demo readings for one metric as server-sent events. Each
// event is a simulator.Sample; the stream ends after the last sample or
// when the client disconnects.
func (a *App) Simulate(w http.ResponseWriter, r *http.Request) {
	spec, err := simulator.Lookup(chi.URLParam(r, "metric"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		a.log(r).Debug().Err(err).Msg("response does not support flushing")
	}

	sim := simulator.New(spec, nil)
	err = sim.Run(r.Context(), func(s simulator.Sample) error {
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: sample\nid: %d\ndata: %s\n\n", s.Index, data); err != nil {
			return err
		}
		return rc.Flush()
	})
	if err != nil {
		a.log(r).Debug().Err(err).Str("metric", string(spec.Kind)).Msg("simulation stream ended early")
		return
	}
	if r.Context().Err() == nil {
		_, _ = fmt.Fprint(w, "event: done\ndata: {}\n\n")
		_ = rc.Flush()
	}
}
