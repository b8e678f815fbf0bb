package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mintsurvey/survey-service/internal/config"
	"github.com/mintsurvey/survey-service/internal/services"
	"github.com/mintsurvey/survey-service/internal/utils"
)

// RouterOptions carries the settings the routes depend on.
type RouterOptions struct {
	RateLimit config.RateLimitConfig
	// Auth guards the admin routes. nil leaves them open.
	Auth TokenParser
}

type HandlerManager struct {
	submissionHandler *SubmissionHandler
	sessionHandler    *SessionHandler
	options           RouterOptions
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	options RouterOptions,
) *HandlerManager {
	return &HandlerManager{
		submissionHandler: NewSubmissionHandler(serviceManager.Submission(), serviceManager.Export(), logger),
		sessionHandler:    NewSessionHandler(serviceManager.Session(), logger),
		options:           options,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.Use(SecurityHeaders())
	router.GET("/health", HealthCheck)

	api := router.Group("/api")
	{
		submit := api.Group("/submit")
		{
			submit.POST("", RateLimit(hm.options.RateLimit), hm.submissionHandler.Submit)

			admin := submit.Group("", AdminAuth(hm.options.Auth))
			admin.GET("", hm.submissionHandler.List)
			admin.GET("/export", hm.submissionHandler.Export)
			admin.GET("/stats", hm.submissionHandler.Stats)
			admin.GET("/:id", hm.submissionHandler.Get)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.Create)
			sessions.GET("/:id", hm.sessionHandler.Get)
			sessions.POST("/:id/consent", hm.sessionHandler.Consent)
			sessions.PUT("/:id/answers", hm.sessionHandler.SetAnswer)
			sessions.POST("/:id/purchase-types", hm.sessionHandler.TogglePurchaseType)
			sessions.POST("/:id/reasons", hm.sessionHandler.ToggleReason)
			sessions.POST("/:id/next", hm.sessionHandler.Next)
			sessions.POST("/:id/submit", RateLimit(hm.options.RateLimit), hm.sessionHandler.Submit)
		}
	}
}

// NewHTTPHandler wraps the gin engine with CORS for the allowed origins and
// OpenTelemetry server spans.
func NewHTTPHandler(engine *gin.Engine, serviceName string, allowedOrigins []string) http.Handler {
	withCORS := cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	return otelhttp.NewHandler(withCORS(engine), serviceName)
}
