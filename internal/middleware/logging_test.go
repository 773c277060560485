package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logged := RequestLogger(zap.New(core))

	t.Run("records status", func(t *testing.T) {
		h := logged(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/availability", nil))

		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("got %d log entries, want 1", len(entries))
		}
		if got := entries[0].ContextMap()["status"]; got != int64(http.StatusCreated) {
			t.Fatalf("logged status = %v, want 201", got)
		}
	})

	t.Run("recovers panics", func(t *testing.T) {
		h := logged(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/availability", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		if n := logs.FilterMessage("Unhandled panic").Len(); n != 1 {
			t.Fatalf("got %d panic entries, want 1", n)
		}
	})

	t.Run("panic after the response started", func(t *testing.T) {
		logs.TakeAll()
		h := logged(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, `{"partial":`)
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/availability/grid", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want the 200 already sent", rec.Code)
		}
		if got := rec.Body.String(); got != `{"partial":` {
			t.Fatalf("body = %q, want only what the handler wrote", got)
		}
		panics := logs.FilterMessage("Unhandled panic").TakeAll()
		if len(panics) != 1 || panics[0].ContextMap()["response_started"] != true {
			t.Fatalf("panic entries = %+v", panics)
		}
		requests := logs.FilterMessage("request").TakeAll()
		if len(requests) != 1 || requests[0].ContextMap()["status"] != int64(http.StatusOK) {
			t.Fatalf("request entries = %+v", requests)
		}
	})
}
