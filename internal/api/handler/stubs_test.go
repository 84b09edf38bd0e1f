package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ballotcore/election-system/internal/api/middleware"
	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
)

var testAdmin = domain.AdminCredential{AdminID: "a1", TokenID: "t1"}

var testVoter = domain.VoterCredential{
	VoterID:    "v1",
	ElectionID: "e1",
	TokenID:    "t2",
	ExpiresAt:  time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
}

type tokenParser struct{}

func (tokenParser) ParseToken(token string) (domain.AdminCredential, error) {
	if token != "admin-token" {
		return domain.AdminCredential{}, domain.ErrUnauthorized
	}
	return testAdmin, nil
}

type voterParser struct{}

func (voterParser) ParseToken(token string) (domain.VoterCredential, error) {
	if token != "voter-token" {
		return domain.VoterCredential{}, domain.ErrUnauthorized
	}
	return testVoter, nil
}

func (voterParser) IsRevoked(context.Context, domain.VoterCredential) (bool, error) {
	return false, nil
}

func asAdmin(h echo.HandlerFunc) echo.HandlerFunc {
	return middleware.AdminAuth(tokenParser{})(h)
}

func asVoter(h echo.HandlerFunc) echo.HandlerFunc {
	return middleware.VoterAuth(voterParser{})(middleware.ElectionScope("id")(h))
}

// newContext builds a request context with the validator registered and the
// :id path parameter set when id is non-empty.
func newContext(method, target, body, bearer, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

type stubAuthService struct {
	registerFn func(ctx context.Context, name, email, password string) (*domain.Admin, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.Admin, error)
	forgotFn   func(ctx context.Context, email string) error
	resetFn    func(ctx context.Context, token, newPassword string) error
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string) (*domain.Admin, error) {
	return s.registerFn(ctx, name, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.Admin, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

func (s *stubAuthService) CompleteReset(ctx context.Context, token, newPassword string) error {
	return s.resetFn(ctx, token, newPassword)
}

func (s *stubAuthService) ParseToken(token string) (domain.AdminCredential, error) {
	return tokenParser{}.ParseToken(token)
}

type stubVerificationService struct {
	issueFn  func(ctx context.Context, email string) error
	verifyFn func(ctx context.Context, token, code string) error
}

func (s *stubVerificationService) Issue(ctx context.Context, email string) error {
	return s.issueFn(ctx, email)
}

func (s *stubVerificationService) Verify(ctx context.Context, token, code string) error {
	return s.verifyFn(ctx, token, code)
}

type stubElectionService struct {
	createFn  func(ctx context.Context, cred domain.AdminCredential, cfg ports.ElectionConfig) (*domain.Election, error)
	getFn     func(ctx context.Context, cred domain.AdminCredential, id string) (*domain.Election, error)
	listFn    func(ctx context.Context, cred domain.AdminCredential) ([]*domain.Election, error)
	updateFn  func(ctx context.Context, cred domain.AdminCredential, id string, cfg ports.ElectionConfig) (*domain.Election, error)
	deleteFn  func(ctx context.Context, cred domain.AdminCredential, id string) error
	resultsFn func(ctx context.Context, cred domain.AdminCredential, id string) (*ports.ElectionResults, error)
	ballotFn  func(ctx context.Context, cred domain.VoterCredential, id string) (*ports.BallotView, error)
}

func (s *stubElectionService) Create(ctx context.Context, cred domain.AdminCredential, cfg ports.ElectionConfig) (*domain.Election, error) {
	return s.createFn(ctx, cred, cfg)
}

func (s *stubElectionService) Get(ctx context.Context, cred domain.AdminCredential, id string) (*domain.Election, error) {
	return s.getFn(ctx, cred, id)
}

func (s *stubElectionService) List(ctx context.Context, cred domain.AdminCredential) ([]*domain.Election, error) {
	return s.listFn(ctx, cred)
}

func (s *stubElectionService) UpdateConfig(ctx context.Context, cred domain.AdminCredential, id string, cfg ports.ElectionConfig) (*domain.Election, error) {
	return s.updateFn(ctx, cred, id, cfg)
}

func (s *stubElectionService) Delete(ctx context.Context, cred domain.AdminCredential, id string) error {
	return s.deleteFn(ctx, cred, id)
}

func (s *stubElectionService) Results(ctx context.Context, cred domain.AdminCredential, id string) (*ports.ElectionResults, error) {
	return s.resultsFn(ctx, cred, id)
}

func (s *stubElectionService) Ballot(ctx context.Context, cred domain.VoterCredential, id string) (*ports.BallotView, error) {
	return s.ballotFn(ctx, cred, id)
}

func (s *stubElectionService) Reconcile(context.Context, time.Time) (ports.ReconcileReport, error) {
	return ports.ReconcileReport{}, nil
}

type stubNotificationService struct {
	enqueueFn func(ctx context.Context, cred domain.AdminCredential, electionID string) (string, error)
}

func (s *stubNotificationService) EnqueueVoterCredentials(ctx context.Context, cred domain.AdminCredential, electionID string) (string, error) {
	return s.enqueueFn(ctx, cred, electionID)
}

type stubVoterAuthService struct {
	loginFn func(ctx context.Context, electionID, voterID, accessKey string) (string, domain.VoterCredential, error)
}

func (s *stubVoterAuthService) AccessKey(electionID, voterID string) string { return "" }

func (s *stubVoterAuthService) Login(ctx context.Context, electionID, voterID, accessKey string) (string, domain.VoterCredential, error) {
	return s.loginFn(ctx, electionID, voterID, accessKey)
}

func (s *stubVoterAuthService) ParseToken(token string) (domain.VoterCredential, error) {
	return voterParser{}.ParseToken(token)
}

func (s *stubVoterAuthService) Revoke(context.Context, domain.VoterCredential) error { return nil }

func (s *stubVoterAuthService) IsRevoked(context.Context, domain.VoterCredential) (bool, error) {
	return false, nil
}

type stubVoteService struct {
	recordFn func(ctx context.Context, cred domain.VoterCredential, electionID string, selections map[string]string) error
}

func (s *stubVoteService) RecordVote(ctx context.Context, cred domain.VoterCredential, electionID string, selections map[string]string) error {
	return s.recordFn(ctx, cred, electionID, selections)
}

type stubReconciler struct {
	runFn func(ctx context.Context) (ports.ReconcileReport, error)
}

func (s *stubReconciler) Run(ctx context.Context) (ports.ReconcileReport, error) {
	return s.runFn(ctx)
}
