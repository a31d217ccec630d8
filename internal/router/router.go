package router

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-admissions/internal/handler"
	"github.com/noah-isme/academy-admissions/internal/middleware"
	"github.com/noah-isme/academy-admissions/internal/service"
	"github.com/noah-isme/academy-admissions/pkg/logger"
	corsmiddleware "github.com/noah-isme/academy-admissions/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academy-admissions/pkg/middleware/requestid"
)

// Dependencies are the handlers and cross-cutting pieces the router mounts.
type Dependencies struct {
	Logger  *zap.Logger
	Metrics *service.MetricsService

	Admissions  *handler.AdmissionHandler
	Dashboard   *handler.DashboardHandler
	Courses     *handler.CourseHandler
	Exports     *handler.ExportHandler
	Attachments *handler.AttachmentHandler
	Health      *handler.HealthHandler

	// AdminTokens is nil when admin auth is disabled.
	AdminTokens middleware.TokenValidator

	SubmitLimiter middleware.Limiter
	SubmitLimit   int
	SubmitWindow  time.Duration

	APIPrefix      string
	AllowedOrigins []string
	// TrustedProxies may set X-Forwarded-For; with none the rate limit keys
	// on the peer address.
	TrustedProxies []string

	// UploadsDir is served at /UploadsURLPrefix when non-empty.
	UploadsDir       string
	UploadsURLPrefix string

	EnableDocs bool
}

// New assembles the gin engine.
func New(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		deps.Logger.Error("invalid trusted proxies, trusting none", zap.Strings("proxies", deps.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.Health.Health)
	r.GET("/ready", deps.Health.Ready)
	r.GET("/metrics", deps.Health.Prometheus)

	if deps.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if deps.UploadsDir != "" {
		r.Static("/"+strings.Trim(deps.UploadsURLPrefix, "/"), deps.UploadsDir)
	}

	api := r.Group(apiPrefix(deps.APIPrefix))
	api.POST("/admissions",
		middleware.RateLimit(deps.SubmitLimiter, "admissions", deps.SubmitLimit, deps.SubmitWindow, deps.Logger),
		deps.Admissions.Submit)
	api.GET("/courses", deps.Courses.List)
	api.GET("/courses/:id", deps.Courses.Get)

	admin := api.Group("/admin", middleware.AdminAuth(deps.AdminTokens))
	admin.GET("/dashboard", deps.Dashboard.Admin)
	admin.GET("/admissions/export", middleware.AdminAudit(deps.Logger, "admissions.export"), deps.Exports.Admissions)
	admin.GET("/admissions/:id", middleware.AdminAudit(deps.Logger, "admissions.view"), deps.Dashboard.Record)

	// The signed token authorises the download; links are opened without a bearer header.
	api.GET("/admin/attachments/download", middleware.AdminAudit(deps.Logger, "attachments.download"), deps.Attachments.Download)

	return r
}

// AttachmentDownloadPath is the absolute path of the signed download route.
func AttachmentDownloadPath(prefix string) string {
	return strings.TrimSuffix(apiPrefix(prefix), "/") + "/admin/attachments/download"
}

func apiPrefix(prefix string) string {
	return "/" + strings.Trim(strings.TrimSpace(prefix), "/")
}
