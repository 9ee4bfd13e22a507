package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/dailyhi/internal/delivery"
	"github.com/ignite/dailyhi/internal/domain"
	"github.com/ignite/dailyhi/internal/mailer"
	"github.com/ignite/dailyhi/internal/repository/postgres"
	"github.com/ignite/dailyhi/internal/signup"
	"github.com/ignite/dailyhi/internal/validator"
)

type memStore struct {
	byEmail map[string]*domain.Subscriber
	byCode  map[string]*domain.Subscriber
}

func newMemStore() *memStore {
	return &memStore{
		byEmail: make(map[string]*domain.Subscriber),
		byCode:  make(map[string]*domain.Subscriber),
	}
}

func (m *memStore) Create(_ context.Context, sub *domain.Subscriber) error {
	if _, dup := m.byEmail[sub.Email]; dup {
		return postgres.ErrDuplicate
	}
	sub.ID = uuid.New()
	m.byEmail[sub.Email] = sub
	m.byCode[sub.Code] = sub
	return nil
}

func (m *memStore) FindByCode(_ context.Context, code string) (*domain.Subscriber, error) {
	return m.byCode[code], nil
}

func (m *memStore) MarkVerified(_ context.Context, id uuid.UUID) error {
	for _, sub := range m.byCode {
		if sub.ID == id {
			sub.Verified = true
			return nil
		}
	}
	return postgres.ErrNotFound
}

func (m *memStore) UpdateTimezone(_ context.Context, id uuid.UUID, offset int) error {
	for _, sub := range m.byCode {
		if sub.ID == id {
			sub.Timezone = offset
			return nil
		}
	}
	return postgres.ErrNotFound
}

type mxStub struct{}

func (mxStub) LookupMX(_ context.Context, domain string) ([]*net.MX, error) {
	if domain == "example.com" {
		return []*net.MX{{Host: "mx.example.com"}}, nil
	}
	return nil, nil
}

type nullMailer struct{}

func (nullMailer) Send(context.Context, string, string, mailer.Body) error { return nil }

type stubRunner struct {
	report domain.DeliveryReport
	gotUTC time.Time
}

func (s *stubRunner) RunOnce(_ context.Context, utc time.Time) (domain.DeliveryReport, error) {
	s.gotUTC = utc
	return s.report, nil
}

func newTestServer(t *testing.T) (*Server, *memStore, *stubRunner) {
	t.Helper()
	composer, err := delivery.NewComposer("dailyhi.com")
	if err != nil {
		t.Fatal(err)
	}
	store := newMemStore()
	svc := signup.NewService(store, validator.New(mxStub{}), nullMailer{}, composer)
	runner := &stubRunner{report: domain.DeliveryReport{Offset: -8, Sent: 2, Attempted: 2}}
	return NewServer(svc, runner, nil, nil), store, runner
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestSubscribeEndpoint(t *testing.T) {
	srv, store, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/subscriptions", `{"email":"User@Example.Com","timezone":-5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["email"] != "user@example.com" {
		t.Errorf("email = %v", resp["email"])
	}
	if resp["verified"] != false {
		t.Error("new subscription should be unverified")
	}
	if _, leaked := resp["code"]; leaked {
		t.Error("verification code must not appear in the response")
	}
	if store.byEmail["user@example.com"] == nil {
		t.Error("subscriber not persisted")
	}
}

func TestSubscribeEndpointErrors(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid email", `{"email":"not-an-email"}`, http.StatusBadRequest},
		{"no mx domain", `{"email":"a@dead.example.net"}`, http.StatusBadRequest},
		{"offset too small", `{"email":"a@example.com","timezone":-13}`, http.StatusBadRequest},
		{"offset too large", `{"email":"a@example.com","timezone":15}`, http.StatusBadRequest},
		{"garbage body", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := doJSON(t, srv, http.MethodPost, "/subscriptions", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestSubscribeEndpointDuplicate(t *testing.T) {
	srv, _, _ := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/subscriptions", `{"email":"dup@example.com"}`)
	rec := doJSON(t, srv, http.MethodPost, "/subscriptions", `{"email":"DUP@example.com"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
}

func TestVerifyEndpoint(t *testing.T) {
	srv, store, _ := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/subscriptions", `{"email":"v@example.com"}`)
	sub := store.byEmail["v@example.com"]

	rec := doJSON(t, srv, http.MethodGet, "/verify/"+sub.Code, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d", rec.Code)
	}
	if !sub.Verified {
		t.Error("subscriber not verified after GET /verify")
	}

	// Idempotent re-verify.
	if rec := doJSON(t, srv, http.MethodGet, "/verify/"+sub.Code, ""); rec.Code != http.StatusOK {
		t.Errorf("second verify status = %d", rec.Code)
	}

	if rec := doJSON(t, srv, http.MethodGet, "/verify/ffffffffffffffffffffffffffffffff", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown code status = %d, want 404", rec.Code)
	}
}

func TestUpdateTimezoneEndpoint(t *testing.T) {
	srv, store, _ := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/subscriptions", `{"email":"tz@example.com"}`)
	sub := store.byEmail["tz@example.com"]

	rec := doJSON(t, srv, http.MethodPatch, "/subscriptions/"+sub.Code+"/timezone", `{"timezone":9}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if sub.Timezone != 9 {
		t.Errorf("timezone = %d, want 9", sub.Timezone)
	}

	if rec := doJSON(t, srv, http.MethodPatch, "/subscriptions/"+sub.Code+"/timezone", `{"timezone":20}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad offset status = %d, want 400", rec.Code)
	}
}

func TestDeliverEndpoint(t *testing.T) {
	srv, _, runner := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/deliver", `{"at":"2025-01-15T14:00:00Z"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	want := time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)
	if !runner.gotUTC.Equal(want) {
		t.Errorf("runner received %v, want %v", runner.gotUTC, want)
	}

	var report domain.DeliveryReport
	json.Unmarshal(rec.Body.Bytes(), &report)
	if report.Sent != 2 {
		t.Errorf("report.Sent = %d, want 2", report.Sent)
	}
}

func TestDeliverEndpointDefaultsToNow(t *testing.T) {
	srv, _, runner := newTestServer(t)

	before := time.Now().UTC()
	rec := doJSON(t, srv, http.MethodPost, "/deliver", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if runner.gotUTC.Before(before.Add(-time.Second)) || runner.gotUTC.After(time.Now().UTC().Add(time.Second)) {
		t.Errorf("runner received %v, want roughly now", runner.gotUTC)
	}
}

func TestDeliverEndpointRejectsBadInstant(t *testing.T) {
	srv, _, _ := newTestServer(t)
	if rec := doJSON(t, srv, http.MethodPost, "/deliver", `{"at":"yesterday"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
