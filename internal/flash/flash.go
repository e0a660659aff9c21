// Package flash carries one-shot operator notifications in a signed cookie.
package flash

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	DefaultCookieName = "keyu_flash"
	cookieLifetime    = 2 * time.Minute
)

var ErrInvalidConfig = errors.New("flash: invalid config")

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
)

type Flash struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func Success(msg string) Flash { return Flash{Kind: KindSuccess, Message: msg} }
func Error(msg string) Flash   { return Flash{Kind: KindError, Message: msg} }

type Config struct {
	HashKey    []byte
	BlockKey   []byte
	CookieName string
	Secure     bool
}

// Codec signs (and with a block key, encrypts) flash cookies.
type Codec struct {
	name   string
	secure bool
	codec  *securecookie.SecureCookie
}

func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.HashKey) < 32 {
		return nil, fmt.Errorf("%w: hash key must be at least 32 bytes", ErrInvalidConfig)
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes", ErrInvalidConfig)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}

	sc := securecookie.New(cfg.HashKey, cfg.BlockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(int(cookieLifetime.Seconds()))

	return &Codec{name: cfg.CookieName, secure: cfg.Secure, codec: sc}, nil
}

func (c *Codec) CookieName() string { return c.name }

// Set replaces any pending flash with f.
func (c *Codec) Set(w http.ResponseWriter, f Flash) error {
	encoded, err := c.codec.Encode(c.name, f)
	if err != nil {
		return fmt.Errorf("flash.Set: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(cookieLifetime.Seconds()),
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Pop returns the pending flash, if any, and clears the cookie. A cookie
// that fails verification is cleared and reported as no flash.
func (c *Codec) Pop(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	cookie, err := r.Cookie(c.name)
	if err != nil || cookie.Value == "" {
		return Flash{}, false
	}
	c.clear(w)

	var f Flash
	if err := c.codec.Decode(c.name, cookie.Value, &f); err != nil {
		return Flash{}, false
	}
	if strings.TrimSpace(f.Message) == "" {
		return Flash{}, false
	}
	return f, true
}

func (c *Codec) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
