package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cppla/seoblog/config"
	"github.com/cppla/seoblog/models"
	"github.com/cppla/seoblog/routes"
	"github.com/cppla/seoblog/utils"
)

// testBody clears the minimum body length and overflows the excerpt window so
// truncation behavior is visible.
var testBody = strings.Repeat("The quick brown fox jumps over the lazy dog. ", 12)

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

// newTestEnv boots the whole HTTP surface against an in-memory database.
// Redis stays disabled (empty RedisHost) so cache helpers are no-ops.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	config.Set(config.AppConfig{
		AppName:            "SEOBLOG",
		ClientURL:          "http://localhost:3000",
		JWTSecret:          "test-secret",
		GinMode:            "test",
		RateLimitPerMinute: 100000,
		AllowedOrigins:     []string{"*"},
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// A single connection keeps every query on the same :memory: database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Category{}, &models.Tag{}, &models.Blog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return &testEnv{t: t, db: db, router: routes.SetupRouter(db)}
}

func (e *testEnv) do(method, path string, body io.Reader, contentType, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(method, path string, payload any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		e.t.Fatalf("marshal payload: %v", err)
	}
	return e.do(method, path, bytes.NewReader(data), "application/json", token)
}

// createUser inserts an account directly, bypassing the signup route.
func (e *testEnv) createUser(name, email, password string, role models.Role) models.User {
	e.t.Helper()
	hash, err := utils.HashPassword(password)
	if err != nil {
		e.t.Fatalf("hash password: %v", err)
	}
	username := strings.SplitN(email, "@", 2)[0]
	user := models.User{
		Name:         name,
		Email:        email,
		Username:     username,
		Profile:      "http://localhost:3000/profile/" + username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := e.db.Create(&user).Error; err != nil {
		e.t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func (e *testEnv) token(user models.User) string {
	e.t.Helper()
	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		e.t.Fatalf("generate token: %v", err)
	}
	return token
}

func (e *testEnv) seedTaxonomy() ([]models.Category, []models.Tag) {
	e.t.Helper()
	categories := []models.Category{
		{Name: "Go", Slug: "go"},
		{Name: "Databases", Slug: "databases"},
	}
	tags := []models.Tag{
		{Name: "tutorial", Slug: "tutorial"},
		{Name: "performance", Slug: "performance"},
	}
	for i := range categories {
		if err := e.db.Create(&categories[i]).Error; err != nil {
			e.t.Fatalf("seed category: %v", err)
		}
	}
	for i := range tags {
		if err := e.db.Create(&tags[i]).Error; err != nil {
			e.t.Fatalf("seed tag: %v", err)
		}
	}
	return categories, tags
}

// blogForm builds a multipart blog submission. A nil photo omits the file part.
func blogForm(t *testing.T, fields map[string]string, photo []byte, photoType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, val := range fields {
		if err := w.WriteField(key, val); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if photo != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="photo"; filename="photo.png"`)
		header.Set("Content-Type", photoType)
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("create photo part: %v", err)
		}
		if _, err := part.Write(photo); err != nil {
			t.Fatalf("write photo: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	wantStatus(t, w, status)
	body := decodeBody(t, w)
	if body["error"] != message {
		t.Fatalf("error = %v, want %q", body["error"], message)
	}
}

func wantMessage(t *testing.T, w *httptest.ResponseRecorder, message string) {
	t.Helper()
	wantStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	if body["message"] != message {
		t.Fatalf("message = %v, want %q", body["message"], message)
	}
}

func (e *testEnv) countBlogs() int64 {
	e.t.Helper()
	var n int64
	if err := e.db.Model(&models.Blog{}).Count(&n).Error; err != nil {
		e.t.Fatalf("count blogs: %v", err)
	}
	return n
}

func idList(ids ...uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	return strings.Join(parts, ",")
}
