// Package web serves the orientd HTTP API: status, the orientation event
// stream, the lock method endpoint and the log tail.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"time"

	"orientd/internal/bridge"
)

// MethodHandler answers method-channel calls. *bridge.Plugin implements it.
type MethodHandler interface {
	HandleMethod(call bridge.Call) bridge.Result
}

type Deps struct {
	Status  *Status
	Events  *EventBroadcaster
	Methods MethodHandler
	Logs    *LogBuffer
}

const maxMethodBody = 64 << 10

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func Handler(d Deps) http.Handler {
	if d.Status == nil {
		d.Status = NewStatus()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodGet) {
			return
		}
		snap := d.Status.Snapshot(time.Now().UTC())
		snap.Subscribers = d.Events.Subscribers()
		snap.SensorAvailable = d.Events.Available()
		snap.MethodChannel = bridge.MethodChannel
		snap.EventChannel = bridge.EventChannel
		writeJSON(w, http.StatusOK, snap)
	})

	mux.HandleFunc("/api/orientation/events", func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodGet) {
			return
		}
		if d.Events == nil {
			http.Error(w, "event stream unavailable", http.StatusNotFound)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		id, ch := d.Events.Subscribe(8)
		defer d.Events.Unsubscribe(id)

		_, _ = w.Write([]byte(": ping\n\n"))
		flusher.Flush()

		keepalive := time.NewTicker(15 * time.Second)
		defer keepalive.Stop()
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := writeSSE(w, ev); err != nil {
					return
				}
				flusher.Flush()
			case <-keepalive.C:
				if _, err := w.Write([]byte(": ping\n\n")); err != nil {
					return
				}
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})

	mux.HandleFunc("/api/method", func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodPost) {
			return
		}
		if d.Methods == nil {
			http.Error(w, "method channel unavailable", http.StatusNotFound)
			return
		}
		var call bridge.Call
		dec := json.NewDecoder(io.LimitReader(r.Body, maxMethodBody))
		if err := dec.Decode(&call); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		res := d.Methods.HandleMethod(call)
		code := http.StatusOK
		switch {
		case res.NotImplemented:
			code = http.StatusNotImplemented
		case res.Error != nil && res.Error.Code == bridge.ErrorCodeBadArgs:
			code = http.StatusBadRequest
		case res.Error != nil:
			code = http.StatusConflict
		case res.Value != nil:
			d.Status.SetLock(res.Value.Constraint.String())
		case res.SystemUIFlags != nil:
			d.Status.SetSystemUI(res.SystemUIFlags.String())
		}
		writeJSON(w, code, res)
	})

	if d.Logs != nil {
		mux.Handle("/api/logs", d.Logs.Handler())
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if !allow(w, r, http.MethodGet) {
			return
		}
		snap := d.Status.Snapshot(time.Now().UTC())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>orientd</title></head><body>")
		_, _ = fmt.Fprintf(w, "<h1>orientd</h1>")
		_, _ = fmt.Fprintf(w, "<p>See <a href=\"/api/status\">/api/status</a> and <a href=\"/api/orientation/events\">/api/orientation/events</a>.</p>")
		_, _ = fmt.Fprintf(w, "<pre>platform=%s\nclassifier=%s\nsource=%s\norientation=%s\nlock=%s</pre>",
			snap.Platform, snap.Classifier, snap.Source, snap.Orientation, snap.Lock,
		)
		if last, ok := d.Events.Last(); ok && last.Kind == bridge.EventError {
			_, _ = fmt.Fprintf(w, "<p>sensor error: %s: %s</p>", html.EscapeString(last.Code), html.EscapeString(last.Message))
		}
		_, _ = fmt.Fprintf(w, "</body></html>")
	})

	return mux
}

func writeSSE(w io.Writer, ev bridge.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, b)
	return err
}

func Serve(ctx context.Context, listenAddr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// No WriteTimeout: the event stream stays open.
		IdleTimeout:    30 * time.Second,
		MaxHeaderBytes: 1 << 20,
		// Event streams end when ctx does.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
