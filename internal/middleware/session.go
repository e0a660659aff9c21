package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/keyu-storefront/internal/apperr"
)

const (
	AdminCookieName = "keyu_admin"
	ctxKeyAdmin     = "admin_session"
)

// TokenService issues and checks admin session tokens. Revoke ends every
// token issued so far.
type TokenService interface {
	Issue() (string, time.Time, error)
	Validate(token string) error
	Revoke()
}

// AdminSession is the request-scoped admin flag. It is derived from a
// verified token on every request; nothing else can set it.
type AdminSession struct {
	tokens TokenService
	secure bool
	log    *slog.Logger
}

func NewAdminSession(tokens TokenService, secureCookie bool, l *slog.Logger) *AdminSession {
	return &AdminSession{tokens: tokens, secure: secureCookie, log: l}
}

// Load marks the request as an admin session when it carries a valid token,
// either in the session cookie or as a Bearer header.
func (s *AdminSession) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		fromCookie := false
		if token == "" {
			if v, err := c.Cookie(AdminCookieName); err == nil {
				token = v
				fromCookie = true
			}
		}

		if token != "" {
			if err := s.tokens.Validate(token); err == nil {
				c.Set(ctxKeyAdmin, true)
			} else {
				s.log.Debug("admin token rejected", "op", "middleware.AdminSession.Load",
					"request_id", GetRequestID(c), "err", err)
				if fromCookie {
					s.clearCookie(c)
				}
			}
		}

		c.Next()
	}
}

// IsAdminSession reports whether the request carries a verified admin token.
func IsAdminSession(c *gin.Context) bool {
	return c.GetBool(ctxKeyAdmin)
}

// SetAdminSession starts or ends the admin session. Starting issues a new
// token, sets it as the session cookie and returns it for Bearer use.
// Ending it from an admin session revokes every issued token, Bearer copies
// included; otherwise only the cookie is cleared.
func (s *AdminSession) SetAdminSession(c *gin.Context, admin bool) (string, error) {
	if !admin {
		if IsAdminSession(c) {
			s.tokens.Revoke()
			s.log.Info("admin session ended", "op", "middleware.AdminSession.SetAdminSession",
				"request_id", GetRequestID(c))
		}
		s.clearCookie(c)
		c.Set(ctxKeyAdmin, false)
		return "", nil
	}

	token, exp, err := s.tokens.Issue()
	if err != nil {
		return "", err
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AdminCookieName,
		Value:    token,
		Path:     "/",
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(ctxKeyAdmin, true)
	s.log.Info("admin session started", "op", "middleware.AdminSession.SetAdminSession",
		"request_id", GetRequestID(c), "expires_at", exp)
	return token, nil
}

// RequireAdmin rejects requests that are not admin sessions.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdminSession(c) {
			Fail(c, apperr.UnauthorizedErr("Admin session required"))
			return
		}
		c.Next()
	}
}

func (s *AdminSession) clearCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AdminCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func bearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
