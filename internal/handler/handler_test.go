package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/handler"
)

const testPassword = "correct-horse-battery"

func setupTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	api := handler.NewAPI(gdb, t.TempDir(), "/static/uploads")

	r := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions("inkpress_session", store))

	apiGroup := r.Group("/api")
	apiGroup.POST("/auth", api.AuthActions)
	apiGroup.POST("/posts", api.PostActions)
	apiGroup.POST("/comments", api.CommentActions)
	apiGroup.POST("/profiles", api.ProfileActions)
	apiGroup.POST("/taxonomy", api.TaxonomyActions)
	apiGroup.POST("/uploads", handler.AuthRequired(), api.UploadImage)

	return r, gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, username string, roles ...db.Role) *db.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := db.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashed),
	}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	for _, role := range roles {
		if err := gdb.Create(&db.UserRole{UserID: user.ID, Role: role}).Error; err != nil {
			t.Fatalf("seed role %s: %v", role, err)
		}
	}
	return &user
}

// sessionClient 通过 cookie jar 模拟带会话的浏览器调用
type sessionClient struct {
	t       *testing.T
	handler http.Handler
	jar     http.CookieJar
	baseURL *url.URL
}

func newSessionClient(t *testing.T, h http.Handler) *sessionClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("new cookie jar: %v", err)
	}
	base, _ := url.Parse("https://inkpress.test")
	return &sessionClient{t: t, handler: h, jar: jar, baseURL: base}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *sessionClient) do(path, action string, data interface{}) (int, apiResponse) {
	c.t.Helper()

	payload, err := json.Marshal(map[string]interface{}{"action": action, "data": data})
	if err != nil {
		c.t.Fatalf("marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.URL.Scheme = c.baseURL.Scheme
	req.URL.Host = c.baseURL.Host
	for _, cookie := range c.jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	c.jar.SetCookies(req.URL, resp.Cookies())

	var decoded apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		c.t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w.Code, decoded
}

func (c *sessionClient) login(email string) {
	c.t.Helper()
	status, resp := c.do("/api/auth", "login", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	if status != http.StatusOK || !resp.Success {
		c.t.Fatalf("login %s failed: status %d, error %q", email, status, resp.Error)
	}
}
