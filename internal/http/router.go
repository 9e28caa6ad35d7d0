package http

import (
	"fmt"
	"log/slog"

	"github.com/ArnavJain-cy/sih-app/internal/http/handlers"
	"github.com/ArnavJain-cy/sih-app/internal/http/middlewares"
	"github.com/ArnavJain-cy/sih-app/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "evolvia-api"

// Deps is everything the router needs; main builds it once.
type Deps struct {
	Log     *slog.Logger
	Env     string
	Prom    *observability.Prom
	Tracing bool

	AllowedOrigins []string
	MaxBodyBytes   int64

	Tokens  middlewares.TokenVerifier
	Auth    handlers.AuthService
	Profile handlers.ProfileService
	Advisor handlers.AdvisorService

	// Ready lists dependencies checked by /readyz.
	Ready map[string]handlers.Pinger
}

func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	// unmatched methods answer like unmatched paths
	r.HandleMethodNotAllowed = false

	r.Use(middlewares.RequestID())
	if d.Tracing {
		r.Use(otelgin.Middleware(serviceName))
	}
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	// inside the logger and metrics so a recovered panic is recorded as a 500
	r.Use(middlewares.Recovery(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	health := handlers.NewHealthHandler(d.Ready)
	r.GET("/", health.Root)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if d.Prom != nil {
		r.GET("/metrics", gin.WrapH(d.Prom.Handler()))
	}

	gate := middlewares.NewAuthMiddleware(d.Tokens).RequireAuth()

	var authMetrics handlers.AuthObserver
	if d.Prom != nil {
		authMetrics = d.Prom
	}
	authHandler := handlers.NewAuthHandler(d.Auth, authMetrics)
	profileHandler, err := handlers.NewProfileHandler(d.Profile)
	if err != nil {
		return nil, fmt.Errorf("profile handler: %w", err)
	}
	quizHandler := handlers.NewQuizHandler()

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/signup", authHandler.SignUp)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/guest", authHandler.Guest)
		authGroup.GET("/verify", gate, authHandler.Verify)

		api.GET("/user/profile", gate, profileHandler.Get)
		api.PUT("/user/profile", gate, profileHandler.Update)

		api.GET("/quiz/questions", quizHandler.Questions)
		api.POST("/quiz/score", quizHandler.Score)

		if d.Advisor != nil {
			advisorHandler := handlers.NewAdvisorHandler(d.Advisor)
			api.GET("/advisor/welcome", advisorHandler.Welcome)
			api.POST("/advisor/chat", gate, advisorHandler.Chat)
			api.DELETE("/advisor/history", gate, advisorHandler.ClearHistory)
		}
	}

	r.NoRoute(handlers.NoRoute)
	r.NoMethod(handlers.NoRoute)

	return r, nil
}
