package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/makkenzo/apikey-dashboard/internal/config"
	"github.com/makkenzo/apikey-dashboard/internal/handler"
	"github.com/makkenzo/apikey-dashboard/internal/handler/dto"
	"github.com/makkenzo/apikey-dashboard/internal/handler/middleware"
	"github.com/makkenzo/apikey-dashboard/internal/ierr"
	"github.com/makkenzo/apikey-dashboard/internal/service"
	"github.com/makkenzo/apikey-dashboard/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const validateRateScope = "validate"

// Deps collects everything the router needs. StaticValidator, RateLimiter
// and Health are optional.
type Deps struct {
	Config          *config.Config
	Auth            *service.AuthService
	Keys            *service.APIKeyService
	StoreValidator  service.KeyValidator
	StaticValidator service.KeyValidator
	RateLimiter     middleware.RateLimiter
	Health          map[string]handler.Pinger
	Logger          *zap.Logger
}

func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Config == nil || d.Auth == nil || d.Keys == nil || d.StoreValidator == nil || d.Logger == nil {
		return nil, errors.New("router: config, auth, keys, store validator and logger are required")
	}
	if err := middleware.RegisterValidators(); err != nil {
		return nil, err
	}

	appLogger := d.Logger
	cookieName := d.Config.Session.CookieName

	healthHandler := handler.NewHealthHandler(d.Health, appLogger)
	authHandler := handler.NewAuthHandler(d.Auth, d.Config.Session, appLogger)
	apiKeyHandler := handler.NewAPIKeyHandler(d.Keys, appLogger)
	validateHandler := handler.NewValidateHandler(d.StoreValidator, appLogger)
	pagesHandler, err := handler.NewPagesHandler(appLogger)
	if err != nil {
		return nil, err
	}

	requireSession := middleware.RequireSession(d.Auth, cookieName, appLogger)
	loadSession := middleware.LoadSession(d.Auth, cookieName, appLogger)

	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logMsg := "Panic recovered"
		if err, ok := recovered.(string); ok {
			logMsg = fmt.Sprintf("%s: %s", logMsg, err)
		} else if err, ok := recovered.(error); ok {
			logMsg = fmt.Sprintf("%s: %v", logMsg, err)
		}
		appLogger.Error(logMsg, zap.Stack("stack"))

		// ErrorHandlerMiddleware never sees a panic, so the response is written here.
		_ = c.Error(ierr.ErrInternalServer)
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.APIErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "An unexpected error occurred.",
		})
	}))

	if len(d.Config.CORS.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     d.Config.CORS.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.ErrorHandlerMiddleware(appLogger))

	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRoutes := router.Group("/api/auth")
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", loadSession, authHandler.Logout)
		authRoutes.GET("/session", requireSession, authHandler.Session)
	}

	apiKeyRoutes := router.Group("/api/keys")
	apiKeyRoutes.Use(requireSession)
	{
		apiKeyRoutes.GET("", apiKeyHandler.List)
		apiKeyRoutes.POST("", apiKeyHandler.Create)
		apiKeyRoutes.PUT("/:id", apiKeyHandler.Rename)
		apiKeyRoutes.DELETE("/:id", apiKeyHandler.Delete)
	}

	validateRoutes := router.Group("/api/validate")
	if d.RateLimiter != nil {
		validateRoutes.Use(middleware.RateLimitMiddleware(d.RateLimiter, validateRateScope, appLogger))
	}
	{
		validateRoutes.POST("", validateHandler.Validate)
		if d.StaticValidator != nil {
			staticHandler := handler.NewValidateHandler(d.StaticValidator, appLogger)
			validateRoutes.POST("/static", staticHandler.Validate)
		}
	}

	router.StaticFS("/static", web.StaticFS())

	pages := router.Group("")
	pages.Use(loadSession)
	{
		pages.GET("/", pagesHandler.Root)
		pages.GET("/dashboard", pagesHandler.Dashboard)
		pages.GET("/login", pagesHandler.Login)
		pages.GET("/signup", pagesHandler.Signup)
	}

	return router, nil
}
