package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-admissions/internal/repository"
	"github.com/noah-isme/academy-admissions/internal/service"
	"github.com/noah-isme/academy-admissions/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var jpegFixture = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0x01}, 64)...)

type admissionStack struct {
	router    *gin.Engine
	uploadDir string
	repo      *repository.AdmissionFileRepository
}

func newAdmissionStack(t *testing.T, maxFileSize int64) *admissionStack {
	t.Helper()
	root := t.TempDir()

	catalog, err := repository.NewCourseCatalog(repository.DefaultCourses())
	require.NoError(t, err)
	files, err := storage.NewLocalStorage(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	repo, err := repository.NewAdmissionFileRepository(filepath.Join(root, "data", "admissions.json"), time.Second, nil)
	require.NoError(t, err)

	uploads := service.NewUploadService(files, nil, service.UploadServiceConfig{MaxFileSize: maxFileSize})
	validator := service.NewAdmissionValidator(catalog, nil, "92", time.UTC)
	admissions := service.NewAdmissionService(validator, uploads, repo, nil, nil, nil, nil)
	dashboard := service.NewDashboardService(admissions, time.UTC, nil)
	attachments := service.NewAttachmentService(uploads, files, nil, service.AttachmentServiceConfig{Public: true}, nil)

	r := gin.New()
	r.POST("/admissions", NewAdmissionHandler(admissions, uploads).Submit)
	dashboardHandler := NewDashboardHandler(dashboard, attachments)
	r.GET("/admin/dashboard", dashboardHandler.Admin)
	r.GET("/admin/admissions/:id", dashboardHandler.Record)
	return &admissionStack{router: r, uploadDir: files.BaseDir(), repo: repo}
}

func admissionFields() map[string]string {
	return map[string]string{
		"student_name":      "Ali",
		"parent_name":       "Khan",
		"phone_number":      "+92 300 1234567",
		"email":             "ali@example.com",
		"course_id":         "web_dev",
		"total_fee":         "50000",
		"amount_paid":       "20000",
		"remaining_balance": "30000",
		"next_payment_date": time.Now().UTC().AddDate(0, 0, 10).Format("2006-01-02"),
	}
}

func multipartRequest(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("payment_screenshot", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/admissions", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

type errorEnvelope struct {
	Error struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func uploadedFiles(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestAdmissionHandlerSubmitAndDashboard(t *testing.T) {
	stack := newAdmissionStack(t, 5*1024*1024)

	rec := httptest.NewRecorder()
	stack.router.ServeHTTP(rec, multipartRequest(t, admissionFields(), "receipt.jpg", jpegFixture))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			Message string                 `json:"message"`
			Record  map[string]interface{} `json:"record"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, service.MsgSubmissionAccepted, created.Data.Message)
	assert.Equal(t, "Ali", created.Data.Record["student_name"])
	assert.EqualValues(t, 30000, created.Data.Record["remaining_balance"])
	assert.Len(t, uploadedFiles(t, stack.uploadDir), 1)

	rec = httptest.NewRecorder()
	stack.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var dashboard struct {
		Data struct {
			Records []map[string]interface{} `json:"records"`
			Stats   map[string]interface{}   `json:"stats"`
		} `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dashboard))
	require.Len(t, dashboard.Data.Records, 1)
	row := dashboard.Data.Records[0]
	assert.EqualValues(t, 10, row["days_remaining"])
	assert.Equal(t, false, row["fully_paid"])
	assert.Contains(t, row["attachment_url"], "/uploads/screenshot_")
	assert.EqualValues(t, 1, dashboard.Data.Stats["total_admissions"])
	assert.EqualValues(t, 20000, dashboard.Data.Stats["total_paid"])
	assert.EqualValues(t, 30000, dashboard.Data.Stats["total_due"])
	assert.Contains(t, dashboard.Meta, "processing_time_ms")

	rec = httptest.NewRecorder()
	stack.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/admissions/"+row["id"].(string), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var detail struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, row["id"], detail.Data["id"])
	assert.EqualValues(t, 10, detail.Data["days_remaining"])
	assert.Equal(t, row["attachment_url"], detail.Data["attachment_url"])

	rec = httptest.NewRecorder()
	stack.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/admissions/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmissionHandlerFeeMismatchStoresNothing(t *testing.T) {
	stack := newAdmissionStack(t, 5*1024*1024)
	fields := admissionFields()
	fields["total_fee"] = "45000"

	rec := httptest.NewRecorder()
	stack.router.ServeHTTP(rec, multipartRequest(t, fields, "receipt.jpg", jpegFixture))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, service.MsgFormHasErrors, env.Error.Message)
	assert.Contains(t, env.Error.Details, "Total Fee mismatch. The fixed fee for the selected course is 50,000 PKR.")
	assert.Empty(t, uploadedFiles(t, stack.uploadDir))

	records, err := stack.repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAdmissionHandlerMissingFile(t *testing.T) {
	stack := newAdmissionStack(t, 5*1024*1024)

	rec := httptest.NewRecorder()
	stack.router.ServeHTTP(rec, multipartRequest(t, admissionFields(), "", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeError(t, rec)
	assert.Equal(t, "UPLOAD_ERROR", env.Error.Code)
	assert.Equal(t, service.MsgFileRequired, env.Error.Message)
}

func TestAdmissionHandlerRejectsOversizedBody(t *testing.T) {
	stack := newAdmissionStack(t, 1024)
	big := make([]byte, 2*formOverhead)
	copy(big, jpegFixture)

	rec := httptest.NewRecorder()
	stack.router.ServeHTTP(rec, multipartRequest(t, admissionFields(), "receipt.jpg", big))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	env := decodeError(t, rec)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", env.Error.Code)
	assert.Equal(t, "File size exceeds the maximum limit of 1KB.", env.Error.Message)
	assert.Empty(t, uploadedFiles(t, stack.uploadDir))
}

func TestAdmissionHandlerRejectsFileOverLimitWithinBody(t *testing.T) {
	stack := newAdmissionStack(t, 1024)
	big := make([]byte, 4096)
	copy(big, jpegFixture)

	rec := httptest.NewRecorder()
	stack.router.ServeHTTP(rec, multipartRequest(t, admissionFields(), "receipt.jpg", big))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, uploadedFiles(t, stack.uploadDir))
}
