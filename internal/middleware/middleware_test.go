package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/keyu-storefront/internal/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(l *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(l), ErrorHandler(l), Recovery(l))
	return r
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	r := newEngine(discardLogger())
	r.GET("/v1/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, rec.Header().Get(HeaderRequestID), rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Body.String())
}

func TestErrorHandlerJSON(t *testing.T) {
	r := newEngine(discardLogger())
	r.GET("/v1/products/:id", func(c *gin.Context) {
		Fail(c, apperr.NotFoundErr("Product not found"))
	})
	r.POST("/v1/admin/products", func(c *gin.Context) {
		Fail(c, apperr.InvalidErr("Invalid product", map[string]string{"name": "is required"}))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/products/x", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Product not found", body["error"])
	assert.NotEmpty(t, body["request_id"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/admin/products", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"name": "is required"}, body["fields"])
}

func TestErrorHandlerHTML(t *testing.T) {
	r := newEngine(discardLogger())
	r.GET("/terms", func(c *gin.Context) {
		Fail(c, apperr.Wrap(errors.New("template <broken>")))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/terms", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.NotContains(t, rec.Body.String(), "broken")
}

func TestRecoveryLogsPanic(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))
	r := newEngine(l)
	r.GET("/v1/boom", func(c *gin.Context) { panic("kaboom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "panic_recovered")
	assert.Contains(t, buf.String(), "kaboom")
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))
	r := newEngine(l)
	r.GET("/v1/missing", func(c *gin.Context) { Fail(c, apperr.NotFoundErr("nope")) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/missing?page=2", nil))
	assert.Contains(t, buf.String(), `"msg":"http_request"`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"path":"/v1/missing?page=2"`)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS("http://localhost:5173"))
	r.GET("/v1/products", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/products", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

type fakeTokens struct {
	valid   string
	revoked int
}

func (f *fakeTokens) Issue() (string, time.Time, error) {
	return f.valid, time.Now().Add(time.Hour), nil
}

func (f *fakeTokens) Validate(token string) error {
	if f.revoked > 0 || token != f.valid {
		return errors.New("bad token")
	}
	return nil
}

func (f *fakeTokens) Revoke() { f.revoked++ }

func sessionEngine(s *AdminSession) *gin.Engine {
	l := discardLogger()
	r := newEngine(l)
	r.Use(s.Load())
	r.GET("/v1/admin/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"admin": IsAdminSession(c)})
	})
	r.POST("/v1/admin/login", func(c *gin.Context) {
		token, err := s.SetAdminSession(c, true)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})
	r.POST("/v1/admin/logout", func(c *gin.Context) {
		_, _ = s.SetAdminSession(c, false)
		c.Status(http.StatusNoContent)
	})
	r.DELETE("/v1/admin/products/:id", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAdminSessionFromCookieAndBearer(t *testing.T) {
	s := NewAdminSession(&fakeTokens{valid: "good"}, false, discardLogger())
	r := sessionEngine(s)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/session", nil))
	assert.JSONEq(t, `{"admin":false}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/session", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: "good"})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.JSONEq(t, `{"admin":true}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/session", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.JSONEq(t, `{"admin":true}`, rec.Body.String())
}

func TestAdminSessionClearsBadCookie(t *testing.T) {
	s := NewAdminSession(&fakeTokens{valid: "good"}, false, discardLogger())
	r := sessionEngine(s)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/session", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: "expired"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.JSONEq(t, `{"admin":false}`, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, AdminCookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestSetAdminSessionLoginAndLogout(t *testing.T) {
	s := NewAdminSession(&fakeTokens{valid: "good"}, true, discardLogger())
	r := sessionEngine(s)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/admin/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "good", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Zero(t, cookies[0].MaxAge, "browser-session cookie")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/admin/logout", nil))
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestRequireAdmin(t *testing.T) {
	s := NewAdminSession(&fakeTokens{valid: "good"}, false, discardLogger())
	r := sessionEngine(s)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/admin/products/1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodDelete, "/v1/admin/products/1", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLogoutRevokesBearerToken(t *testing.T) {
	tokens := &fakeTokens{valid: "good"}
	r := sessionEngine(NewAdminSession(tokens, false, discardLogger()))

	// anonymous logout only clears the cookie
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/admin/logout", nil))
	assert.Zero(t, tokens.revoked)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/logout", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, 1, tokens.revoked)

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/session", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.JSONEq(t, `{"admin":false}`, rec.Body.String())
}
