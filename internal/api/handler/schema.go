package handler

import (
	"time"

	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Admin auth ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required,max=120"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string        `json:"token,omitempty"`
	Admin *domain.Admin `json:"admin,omitempty"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// --- Email verification ---

type verificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type confirmVerificationRequest struct {
	Token string `json:"token" validate:"required"`
	Code  string `json:"code"  validate:"required,len=6,numeric"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Elections ---

type candidateRequest struct {
	ID   string `json:"id"   validate:"required,max=64"`
	Name string `json:"name" validate:"required,max=200"`
	Slot string `json:"slot" validate:"required,max=64"`
}

type voterRequest struct {
	ID      string `json:"id"      validate:"required,max=64"`
	Email   string `json:"email"   validate:"omitempty,email"`
	Cluster string `json:"cluster" validate:"max=64"`
}

type electionRequest struct {
	Name        string             `json:"name"        validate:"required,max=200"`
	Description string             `json:"description" validate:"max=4000"`
	StartDate   time.Time          `json:"start_date"  validate:"required"`
	EndDate     time.Time          `json:"end_date"    validate:"required,gtfield=StartDate"`
	Candidates  []candidateRequest `json:"candidates"  validate:"dive"`
	Voters      []voterRequest     `json:"voters"      validate:"dive"`
}

type voterResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email,omitempty"`
	Cluster string `json:"cluster"`
	IsVoted bool   `json:"is_voted"`
}

// electionResponse is the admin view. Individual selections stay out of it.
type electionResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Status      domain.ElectionStatus `json:"status"`
	StartDate   time.Time             `json:"start_date"`
	EndDate     time.Time             `json:"end_date"`
	Candidates  []domain.Candidate    `json:"candidates"`
	Voters      []voterResponse       `json:"voters"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Links       electionLinks         `json:"_links"`
}

type electionLinks struct {
	Self    string `json:"self"`
	Results string `json:"results"`
}

type notificationResponse struct {
	TaskID string `json:"task_id"`
}

// --- Voters ---

type voterLoginRequest struct {
	VoterID   string `json:"voter_id"   validate:"required"`
	AccessKey string `json:"access_key" validate:"required"`
}

type voterLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type voteRequest struct {
	Selections map[string]string `json:"selections" validate:"required,min=1,dive,keys,required,endkeys,required"`
}

type voteResponse struct {
	Status string `json:"status"`
}

// --- Mappers ---

func (r electionRequest) toConfig() ports.ElectionConfig {
	cfg := ports.ElectionConfig{
		Name:        r.Name,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Candidates:  make([]domain.Candidate, 0, len(r.Candidates)),
		Voters:      make([]domain.Voter, 0, len(r.Voters)),
	}
	for _, c := range r.Candidates {
		cfg.Candidates = append(cfg.Candidates, domain.Candidate{ID: c.ID, Name: c.Name, Slot: c.Slot})
	}
	for _, v := range r.Voters {
		cfg.Voters = append(cfg.Voters, domain.Voter{ID: v.ID, Email: v.Email, Cluster: v.Cluster})
	}
	return cfg
}

func toElectionResponse(e *domain.Election) electionResponse {
	voters := make([]voterResponse, 0, len(e.Voters))
	for _, v := range e.Voters {
		voters = append(voters, voterResponse{ID: v.ID, Email: v.Email, Cluster: v.Cluster, IsVoted: v.IsVoted})
	}
	candidates := e.Candidates
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	return electionResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Status:      e.Status,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		Candidates:  candidates,
		Voters:      voters,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		Links: electionLinks{
			Self:    "/v1/elections/" + e.ID,
			Results: "/v1/elections/" + e.ID + "/results",
		},
	}
}
