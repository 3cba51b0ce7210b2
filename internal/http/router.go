package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
)

const (
	maxJSONBodyBytes = 1 << 20
	// multipart uploads carry boundary overhead on top of the 1MB file cap
	maxUploadBodyBytes = 2 << 20
)

// Deps carries everything the router wires together. Optional fields
// (LoginLimiter, Metrics, Readiness entries) may be left nil.
type Deps struct {
	Cfg  config.Config
	Prom *observability.Prom

	Users   *handlers.Users
	Avatars *handlers.Avatars
	Tasks   *handlers.Tasks
	Uploads *handlers.Uploads

	Auth         *middlewares.AuthMiddleware
	LoginLimiter gin.HandlerFunc

	Metrics   http.Handler
	Readiness map[string]handlers.Pinger
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middlewares.RequestID())
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.SecurityHeaders())
	router.Use(middlewares.CORSMiddleware(deps.Cfg.AllowedOrigins))
	router.Use(otelgin.Middleware("taskhub"))

	if deps.Prom != nil {
		router.Use(deps.Prom.GinHandleMiddleware())
	}

	router.GET("/healthz", handlers.Healthz)
	router.GET("/readyz", handlers.Readyz(deps.Readiness))

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	// public profile images
	router.GET("/users/:id/avatar", deps.Avatars.Get)

	// public document intake; validated and discarded by the handler
	router.POST("/upload", middlewares.MaxBodyBytes(maxUploadBodyBytes), deps.Uploads.Document)

	requireAuth := deps.Auth.RequireAuth()

	// public JSON endpoints
	public := router.Group("/", middlewares.RequireJSON(), middlewares.MaxBodyBytes(maxJSONBodyBytes))
	{
		public.POST("/users", deps.Users.Register)

		login := public.Group("/")
		if deps.LoginLimiter != nil {
			login.Use(deps.LoginLimiter)
		}
		login.POST("/users/login", deps.Users.Login)
	}

	// authenticated JSON endpoints
	authed := router.Group("/", requireAuth, middlewares.RequireJSON(), middlewares.MaxBodyBytes(maxJSONBodyBytes))
	{
		authed.POST("/users/logout", deps.Users.Logout)
		authed.POST("/users/logoutAll", deps.Users.LogoutAll)

		authed.GET("/users/me", deps.Users.Me)
		authed.PATCH("/users/me", deps.Users.Update)
		authed.DELETE("/users/me", deps.Users.Delete)

		authed.POST("/tasks", deps.Tasks.Create)
		authed.GET("/tasks", deps.Tasks.List)
		authed.GET("/tasks/:id", deps.Tasks.GetByID)
		authed.PATCH("/tasks/:id", deps.Tasks.Update)
		authed.DELETE("/tasks/:id", deps.Tasks.Delete)
	}

	// authenticated multipart endpoints, no JSON content-type gate
	uploads := router.Group("/", requireAuth, middlewares.MaxBodyBytes(maxUploadBodyBytes))
	{
		uploads.POST("/users/me/avatar", deps.Avatars.Upload)
		uploads.DELETE("/users/me/avatar", deps.Avatars.Delete)
	}

	return router
}
