package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
)

const electionBody = `{
	"name": "Board 2026",
	"description": "Annual board election",
	"start_date": "2026-06-01T09:00:00Z",
	"end_date": "2026-06-02T09:00:00Z",
	"candidates": [{"id": "c1", "name": "Ada", "slot": "president"}],
	"voters": [{"id": "v1", "email": "v1@example.com", "cluster": "north"}]
}`

func sampleElection() *domain.Election {
	return &domain.Election{
		ID:         "e1",
		Name:       "Board 2026",
		Status:     domain.StatusUpcoming,
		StartDate:  time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC),
		CreatedBy:  "a1",
		Candidates: []domain.Candidate{{ID: "c1", Name: "Ada", Slot: "president"}},
		Voters:     []domain.Voter{{ID: "v1", Email: "v1@example.com", Cluster: "north", IsVoted: true, VotedFor: []string{"c1"}}},
	}
}

func TestElectionHandler_Create(t *testing.T) {
	stub := &stubElectionService{
		createFn: func(ctx context.Context, cred domain.AdminCredential, cfg ports.ElectionConfig) (*domain.Election, error) {
			if cred.AdminID != "a1" {
				t.Fatalf("unexpected credential: %+v", cred)
			}
			if cfg.Name != "Board 2026" || len(cfg.Candidates) != 1 || len(cfg.Voters) != 1 || cfg.Voters[0].Cluster != "north" {
				t.Fatalf("unexpected config: %+v", cfg)
			}
			return sampleElection(), nil
		},
	}
	h := NewElectionHandler(stub, &stubNotificationService{})

	c, rec := newContext(http.MethodPost, "/v1/elections", electionBody, "admin-token", "")
	if err := asAdmin(h.Create)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/v1/elections/e1" {
		t.Fatalf("unexpected Location %q", loc)
	}
	if strings.Contains(rec.Body.String(), "voted_for") {
		t.Fatalf("individual selections must not be exposed: %s", rec.Body.String())
	}
}

func TestElectionHandler_Create_RejectsBadWindow(t *testing.T) {
	stub := &stubElectionService{
		createFn: func(context.Context, domain.AdminCredential, ports.ElectionConfig) (*domain.Election, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewElectionHandler(stub, &stubNotificationService{})

	body := strings.Replace(electionBody, "2026-06-02T09:00:00Z", "2026-05-01T09:00:00Z", 1)
	c, _ := newContext(http.MethodPost, "/v1/elections", body, "admin-token", "")
	if code := httpCode(asAdmin(h.Create)(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestElectionHandler_RequiresAdmin(t *testing.T) {
	h := NewElectionHandler(&stubElectionService{}, &stubNotificationService{})

	c, _ := newContext(http.MethodGet, "/v1/elections", "", "voter-token", "")
	if code := httpCode(asAdmin(h.List)(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestElectionHandler_List(t *testing.T) {
	stub := &stubElectionService{
		listFn: func(context.Context, domain.AdminCredential) ([]*domain.Election, error) {
			return []*domain.Election{sampleElection()}, nil
		},
	}
	h := NewElectionHandler(stub, &stubNotificationService{})

	c, rec := newContext(http.MethodGet, "/v1/elections", "", "admin-token", "")
	if err := asAdmin(h.List)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp []electionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != "e1" || !resp[0].Voters[0].IsVoted {
		t.Fatalf("unexpected list: %+v", resp)
	}
}

func TestElectionHandler_GetNotFound(t *testing.T) {
	stub := &stubElectionService{
		getFn: func(ctx context.Context, cred domain.AdminCredential, id string) (*domain.Election, error) {
			if id != "missing" {
				t.Fatalf("unexpected id %q", id)
			}
			return nil, domain.ErrElectionNotFound
		},
	}
	h := NewElectionHandler(stub, &stubNotificationService{})

	c, _ := newContext(http.MethodGet, "/v1/elections/missing", "", "admin-token", "missing")
	if err := asAdmin(h.Get)(c); !errors.Is(err, domain.ErrElectionNotFound) {
		t.Fatalf("expected ErrElectionNotFound, got %v", err)
	}
}

func TestElectionHandler_UpdateLocked(t *testing.T) {
	stub := &stubElectionService{
		updateFn: func(context.Context, domain.AdminCredential, string, ports.ElectionConfig) (*domain.Election, error) {
			return nil, domain.ErrElectionOngoing
		},
	}
	h := NewElectionHandler(stub, &stubNotificationService{})

	c, _ := newContext(http.MethodPut, "/v1/elections/e1", electionBody, "admin-token", "e1")
	if err := asAdmin(h.Update)(c); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}

func TestElectionHandler_Delete(t *testing.T) {
	stub := &stubElectionService{
		deleteFn: func(ctx context.Context, cred domain.AdminCredential, id string) error {
			if id != "e1" {
				t.Fatalf("unexpected id %q", id)
			}
			return nil
		},
	}
	h := NewElectionHandler(stub, &stubNotificationService{})

	c, rec := newContext(http.MethodDelete, "/v1/elections/e1", "", "admin-token", "e1")
	if err := asAdmin(h.Delete)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestElectionHandler_Results(t *testing.T) {
	stub := &stubElectionService{
		resultsFn: func(context.Context, domain.AdminCredential, string) (*ports.ElectionResults, error) {
			return &ports.ElectionResults{ElectionID: "e1", TotalVoters: 1, BallotsCast: 1}, nil
		},
	}
	h := NewElectionHandler(stub, &stubNotificationService{})

	c, rec := newContext(http.MethodGet, "/v1/elections/e1/results", "", "admin-token", "e1")
	if err := asAdmin(h.Results)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp ports.ElectionResults
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.BallotsCast != 1 {
		t.Fatalf("unexpected results: %s", rec.Body.String())
	}
}

func TestElectionHandler_Notify(t *testing.T) {
	notifications := &stubNotificationService{
		enqueueFn: func(ctx context.Context, cred domain.AdminCredential, electionID string) (string, error) {
			return "task-1", nil
		},
	}
	h := NewElectionHandler(&stubElectionService{}, notifications)

	c, rec := newContext(http.MethodPost, "/v1/elections/e1/notifications", "", "admin-token", "e1")
	if err := asAdmin(h.Notify)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted || !strings.Contains(rec.Body.String(), "task-1") {
		t.Fatalf("expected 202 with task id, got %d %s", rec.Code, rec.Body.String())
	}
}
