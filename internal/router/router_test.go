package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-admissions/internal/handler"
	"github.com/noah-isme/academy-admissions/internal/middleware"
	"github.com/noah-isme/academy-admissions/internal/repository"
	"github.com/noah-isme/academy-admissions/internal/service"
	"github.com/noah-isme/academy-admissions/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, auth *service.AuthService, trustedProxies ...string) (*gin.Engine, string) {
	t.Helper()
	root := t.TempDir()

	catalog, err := repository.NewCourseCatalog(repository.DefaultCourses())
	require.NoError(t, err)
	files, err := storage.NewLocalStorage(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	repo, err := repository.NewAdmissionFileRepository(filepath.Join(root, "admissions.json"), time.Second, nil)
	require.NoError(t, err)

	metrics := service.NewMetricsService()
	uploads := service.NewUploadService(files, nil, service.UploadServiceConfig{})
	admissions := service.NewAdmissionService(service.NewAdmissionValidator(catalog, nil, "92", time.UTC), uploads, repo, nil, metrics, nil, nil)
	dashboard := service.NewDashboardService(admissions, time.UTC, nil)
	signer := storage.NewSignedURLSigner("secret", time.Minute)
	attachments := service.NewAttachmentService(uploads, files, signer, service.AttachmentServiceConfig{DownloadPath: AttachmentDownloadPath("/api/v1")}, nil)

	deps := Dependencies{
		Metrics:          metrics,
		Admissions:       handler.NewAdmissionHandler(admissions, uploads),
		Dashboard:        handler.NewDashboardHandler(dashboard, attachments),
		Courses:          handler.NewCourseHandler(catalog),
		Exports:          handler.NewExportHandler(service.NewExportService(dashboard, time.UTC, nil)),
		Attachments:      handler.NewAttachmentHandler(attachments),
		Health:           handler.NewHealthHandler(metrics, nil, handler.ReadinessCheck{Name: "store", Probe: repo.Ping}),
		SubmitLimiter:    middleware.NewMemoryLimiter(),
		SubmitLimit:      1,
		SubmitWindow:     time.Minute,
		APIPrefix:        "api/v1/",
		UploadsDir:       files.BaseDir(),
		UploadsURLPrefix: "uploads",
		TrustedProxies:   trustedProxies,
	}
	if auth != nil {
		deps.AdminTokens = auth
	}
	return New(deps), files.BaseDir()
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouterPublicRoutes(t *testing.T) {
	r, uploadDir := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/ready", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, httptest.NewRequest(http.MethodGet, "/docs/index.html", nil)).Code)

	require.NoError(t, os.WriteFile(filepath.Join(uploadDir, "screenshot_1_a.png"), []byte("png"), 0o600))
	static := serve(r, httptest.NewRequest(http.MethodGet, "/uploads/screenshot_1_a.png", nil))
	assert.Equal(t, http.StatusOK, static.Code)
	assert.Equal(t, "png", static.Body.String())

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterRateLimitsSubmissions(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	first := serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/admissions", strings.NewReader("")))
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/admissions", strings.NewReader("")))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func submitFrom(remoteAddr, forwardedFor string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admissions", strings.NewReader(""))
	req.RemoteAddr = remoteAddr
	req.Header.Set("X-Forwarded-For", forwardedFor)
	return req
}

func TestRouterRateLimitIgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	assert.Equal(t, http.StatusBadRequest, serve(r, submitFrom("203.0.113.7:5000", "198.51.100.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, submitFrom("203.0.113.7:5000", "198.51.100.2")).Code)
}

func TestRouterRateLimitUsesForwardedForFromTrustedProxy(t *testing.T) {
	r, _ := newTestRouter(t, nil, "10.0.0.0/8")

	assert.Equal(t, http.StatusBadRequest, serve(r, submitFrom("10.1.2.3:5000", "198.51.100.1")).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, submitFrom("10.1.2.3:5000", "198.51.100.2")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, submitFrom("10.1.2.3:5000", "198.51.100.1")).Code)
}

func TestRouterAdminAuth(t *testing.T) {
	auth := service.NewAuthService(nil, nil, service.AuthConfig{Secret: "admin-secret", Issuer: "academy-admissions"})
	r, _ := newTestRouter(t, auth)

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/admissions/export", nil)).Code)

	token, _, err := auth.IssueToken(service.AdminTokenRequest{UserID: "ops-1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/admissions/export?format=csv", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(r, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "admissions_")

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/admissions/unknown", nil)).Code)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/admissions/unknown", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNotFound, serve(r, req).Code)

	download := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/attachments/download?token=bogus", nil))
	assert.Equal(t, http.StatusForbidden, download.Code)
}

func TestAttachmentDownloadPath(t *testing.T) {
	assert.Equal(t, "/api/v1/admin/attachments/download", AttachmentDownloadPath("/api/v1/"))
	assert.Equal(t, "/admin/attachments/download", AttachmentDownloadPath(""))
}
