package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/ballotcore/election-system/docs"
	"github.com/ballotcore/election-system/internal/api/handler"
	"github.com/ballotcore/election-system/internal/api/middleware"
	"github.com/ballotcore/election-system/internal/core/ports"
	"github.com/ballotcore/election-system/internal/infrastructure/http/handlers"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	AdminAuth     ports.AdminAuthService
	Verification  ports.VerificationService
	VoterAuth     ports.VoterAuthService
	Elections     ports.ElectionService
	Votes         ports.VoteService
	Notifications ports.NotificationService
	Reconciler    ports.StatusReconciler

	HealthChecks  map[string]handlers.Check
	CronSecret    string
	AdminTokenTTL time.Duration
	SecureCookies bool
	Log           zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("elections"))

	cookies := handler.Cookies{Secure: d.SecureCookies}
	authHandler := handler.NewAuthHandler(d.AdminAuth, cookies, d.AdminTokenTTL)
	verificationHandler := handler.NewVerificationHandler(d.Verification)
	electionHandler := handler.NewElectionHandler(d.Elections, d.Notifications)
	voterHandler := handler.NewVoterHandler(d.VoterAuth, d.Elections, d.Votes, cookies)
	statusHandler := handler.NewStatusHandler(d.Reconciler)

	adminAuth := middleware.AdminAuth(d.AdminAuth)
	voterAuth := middleware.VoterAuth(d.VoterAuth)
	scoped := middleware.ElectionScope("id")

	// --- Admin auth ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/password/forgot", authHandler.ForgotPassword)
	auth.POST("/password/reset", authHandler.ResetPassword)
	auth.POST("/verification", verificationHandler.Issue)
	auth.POST("/verification/confirm", verificationHandler.Confirm)

	// --- Elections ---
	v1 := e.Group("/v1")
	v1.POST("/elections/:id/voters/login", voterHandler.Login)
	v1.GET("/elections/:id/ballot", voterHandler.Ballot, voterAuth, scoped)
	v1.POST("/elections/:id/votes", voterHandler.Vote, voterAuth, scoped)

	admin := v1.Group("/elections", adminAuth)
	admin.GET("", electionHandler.List)
	admin.POST("", electionHandler.Create)
	admin.GET("/:id", electionHandler.Get)
	admin.PUT("/:id", electionHandler.Update)
	admin.DELETE("/:id", electionHandler.Delete)
	admin.GET("/:id/results", electionHandler.Results)
	admin.POST("/:id/notifications", electionHandler.Notify)

	// --- Internal ---
	e.POST("/internal/status/reconcile", statusHandler.Reconcile, middleware.CronSecret(d.CronSecret))

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.HealthChecks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
