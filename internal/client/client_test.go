package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
	"golang.org/x/oauth2"

	"PEERMATCH_BACK-END/internal/availability"
	"PEERMATCH_BACK-END/internal/dto"
	"PEERMATCH_BACK-END/internal/utils"
)

// fakeBackend records the calls made against it and answers with canned
// statuses per method.
type fakeBackend struct {
	mu       sync.Mutex
	calls    []string
	auth     []string
	bodies   map[string]json.RawMessage
	status   map[string]int
	listBody dto.AvailabilityListResponse
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		bodies: map[string]json.RawMessage{},
		status: map[string]int{},
	}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, r.Method)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	if r.Method != http.MethodGet {
		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
			f.bodies[r.Method] = raw
		}
	}

	if code, ok := f.status[r.Method]; ok && code >= 400 {
		utils.WriteErrorResponse(w, code, "Database error", "Failed to "+r.Method)
		return
	}

	switch r.Method {
	case http.MethodGet:
		utils.WriteJSONResponse(w, http.StatusOK, f.listBody)
	case http.MethodPost:
		utils.WriteJSONResponse(w, http.StatusCreated, dto.CreateAvailabilityResponse{Message: "ok"})
	case http.MethodDelete:
		utils.WriteJSONResponse(w, http.StatusOK, dto.DeleteAvailabilityResponse{Message: "ok"})
	}
}

func (f *fakeBackend) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func rng(day, startIdx, endIdx int) availability.TimeRange {
	base := availability.ReferenceWeekMonday.AddDate(0, 0, day).Add(availability.GridStartHour * time.Hour)
	return availability.TimeRange{
		Start: base.Add(time.Duration(startIdx) * availability.SlotDuration),
		End:   base.Add(time.Duration(endIdx) * availability.SlotDuration),
	}
}

func newTestClient(t *testing.T, backend http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "volunteer-token"})
	return New(srv.URL+"/", ts, WithLogger(zaptest.NewLogger(t)), WithTimeout(5*time.Second))
}

func equalMethods(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestReplaceAvailabilityOrder(t *testing.T) {
	backend := newFakeBackend()
	backend.listBody = dto.AvailabilityListResponse{
		Availability: dto.NewAvailabilityItems([]availability.TimeRange{rng(0, 2, 4)}),
	}
	c := newTestClient(t, backend)
	user := uuid.New()

	plan := availability.ReplacementPlan{
		Delete: []availability.TimeRange{rng(0, 0, 2)},
		Create: []availability.TimeRange{rng(0, 2, 4)},
	}
	got, err := c.ReplaceAvailability(context.Background(), user, plan)
	if err != nil {
		t.Fatalf("ReplaceAvailability: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(rng(0, 2, 4)) {
		t.Fatalf("refetched %v", got)
	}

	want := []string{http.MethodDelete, http.MethodPost, http.MethodGet}
	if calls := backend.methods(); !equalMethods(calls, want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for _, a := range backend.auth {
		if a != "Bearer volunteer-token" {
			t.Fatalf("authorization = %q", a)
		}
	}

	var del dto.DeleteAvailabilityRequest
	if err := json.Unmarshal(backend.bodies[http.MethodDelete], &del); err != nil {
		t.Fatalf("delete body: %v", err)
	}
	if del.UserID != user.String() || len(del.Delete) != 1 || del.Delete[0].StartTime != "2000-01-03T08:00:00Z" {
		t.Fatalf("delete body = %+v", del)
	}
	var create dto.CreateAvailabilityRequest
	if err := json.Unmarshal(backend.bodies[http.MethodPost], &create); err != nil {
		t.Fatalf("create body: %v", err)
	}
	if len(create.AvailableTimes) != 1 || create.AvailableTimes[0].EndTime != "2000-01-03T10:00:00Z" {
		t.Fatalf("create body = %+v", create)
	}
}

func TestReplaceAvailabilitySkipsEmptyCalls(t *testing.T) {
	tests := []struct {
		name string
		plan availability.ReplacementPlan
		want []string
	}{
		{"first save", availability.ReplacementPlan{Create: []availability.TimeRange{rng(1, 0, 1)}}, []string{http.MethodPost, http.MethodGet}},
		{"clear all", availability.ReplacementPlan{Delete: []availability.TimeRange{rng(1, 0, 1)}}, []string{http.MethodDelete, http.MethodGet}},
		{"nothing", availability.ReplacementPlan{}, []string{http.MethodGet}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			c := newTestClient(t, backend)
			if _, err := c.ReplaceAvailability(context.Background(), uuid.Nil, tt.plan); err != nil {
				t.Fatalf("ReplaceAvailability: %v", err)
			}
			if calls := backend.methods(); !equalMethods(calls, tt.want) {
				t.Fatalf("calls = %v, want %v", calls, tt.want)
			}
		})
	}
}

func TestReplaceAvailabilityFailures(t *testing.T) {
	full := availability.ReplacementPlan{
		Delete: []availability.TimeRange{rng(2, 0, 4)},
		Create: []availability.TimeRange{rng(2, 4, 6)},
	}

	tests := []struct {
		name      string
		plan      availability.ReplacementPlan
		failing   string
		wantErr   error
		wantCalls []string
	}{
		{"delete fails, nothing created", full, http.MethodDelete, ErrDeleteFailed, []string{http.MethodDelete}},
		{"create fails after delete", full, http.MethodPost, ErrAvailabilityCleared, []string{http.MethodDelete, http.MethodPost}},
		{
			"create fails with nothing deleted",
			availability.ReplacementPlan{Create: full.Create},
			http.MethodPost, ErrCreateFailed, []string{http.MethodPost},
		},
		{"refetch fails", full, http.MethodGet, ErrRefetchFailed, []string{http.MethodDelete, http.MethodPost, http.MethodGet}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.status[tt.failing] = http.StatusInternalServerError
			c := newTestClient(t, backend)

			_, err := c.ReplaceAvailability(context.Background(), uuid.New(), tt.plan)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError || apiErr.Reason != "Database error" {
				t.Fatalf("missing API error detail in %v", err)
			}
			if calls := backend.methods(); !equalMethods(calls, tt.wantCalls) {
				t.Fatalf("calls = %v, want %v", calls, tt.wantCalls)
			}
		})
	}
}

func TestListAvailability(t *testing.T) {
	user := uuid.New()
	var gotQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("user_id")
		utils.WriteJSONResponse(w, http.StatusOK, dto.AvailabilityListResponse{
			UserID: user.String(),
			Availability: []dto.AvailabilityItem{
				{StartTime: "2000-01-04T09:00:00+02:00", EndTime: "2000-01-04T10:15:00+02:00"},
			},
		})
	}))

	got, err := c.ListAvailability(context.Background(), user)
	if err != nil {
		t.Fatalf("ListAvailability: %v", err)
	}
	if gotQuery != user.String() {
		t.Fatalf("user_id query = %q", gotQuery)
	}
	// Ranges are returned as stored, even when they are not whole slots
	if len(got) != 1 || got[0].Duration() != 75*time.Minute {
		t.Fatalf("got %v", got)
	}
}

func TestAPIErrorWithoutBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.ListAvailability(context.Background(), uuid.Nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Reason != "Bad Gateway" {
		t.Fatalf("got %+v", apiErr)
	}
}
