package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"civicfeedback/internal/config"
	"civicfeedback/internal/middleware"
	"civicfeedback/internal/observability"
	"civicfeedback/internal/serviceinterfaces"
	contextutils "civicfeedback/internal/utils"
	"civicfeedback/internal/version"
)

// ServiceName identifies the HTTP service in traces and the route listing
const ServiceName = "civicfeedback"

// When adding an endpoint, decide whether it is public, session or admin only,
// and make sure its body goes through RespondSuccess or HandleAppError.

// NewRouter creates a new router with all the necessary middleware and routes
func NewRouter(
	cfg *config.Config,
	identityService serviceinterfaces.IdentityServiceInterface,
	feedbackService serviceinterfaces.FeedbackServiceInterface,
	analyticsService serviceinterfaces.AnalyticsServiceInterface,
	logger *observability.Logger,
) *gin.Engine {
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// Health check endpoint (defined before tracing and sessions)
	router.GET("/health", func(c *gin.Context) {
		RespondSuccess(c, http.StatusOK, gin.H{"status": "ok", "service": ServiceName})
	})

	router.Use(observability.GinMiddlewareWithErrorHandling(ServiceName)...)

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	if cfg.Server.Debug {
		secureConfig.IsDevelopment = true
	}
	router.Use(secure.New(secureConfig))

	router.Use(middleware.ErrorRecoveryMiddleware(logger))

	authHandler := NewAuthHandler(identityService, cfg, logger)
	feedbackHandler := NewFeedbackHandler(feedbackService, cfg, logger)
	adminHandler := NewAdminHandler(analyticsService, logger)
	userAdminHandler := NewUserAdminHandler(identityService, logger)

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			RespondSuccess(c, http.StatusOK, version.Get(ServiceName))
		})

		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/status", authHandler.Status)
		}

		feedback := v1.Group("/feedback")
		{
			feedback.POST("", feedbackHandler.Submit)
			feedback.GET("", feedbackHandler.Search)
			feedback.GET("/mine", middleware.RequireAuth(), feedbackHandler.Mine)
			feedback.GET("/:id", feedbackHandler.Get)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAdmin(identityService))
		{
			admin.PUT("/feedback/:id/status", feedbackHandler.UpdateStatus)
			admin.DELETE("/feedback/:id", feedbackHandler.Delete)
			admin.GET("/feedback/export", feedbackHandler.Export)
			admin.GET("/analytics", adminHandler.GetAnalytics)
			admin.GET("/users", userAdminHandler.GetAllUsers)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		HandleAppError(c, contextutils.WithDetails(contextutils.ErrRecordNotFound, "no route for %s %s", c.Request.Method, c.Request.URL.Path))
	})

	// Automatic route listing at root path
	routeListing := NewRouteListingHandler(ServiceName)
	routeListing.CollectRoutes(router)
	router.GET("/", routeListing.GetRouteListing)

	return router
}

// requestLogger logs every request through the observability logger
func requestLogger(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  time.Since(start).Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}

		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		switch {
		case statusCode >= 500:
			fields["http.error_type"] = "server_error"
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			fields["http.error_type"] = "client_error"
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	}
}
