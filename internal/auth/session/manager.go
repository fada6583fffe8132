package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/authgate/internal/config"
)

// ServiceCookieName is the cookie used by the user-authentication service routes.
const ServiceCookieName = "session_id"

// Manager reads and writes the session cookie.
type Manager struct {
	cookieName string
	secure     bool
	ttl        time.Duration
}

// NewManager uses SESSION_NAME as the cookie name. When it is unset the
// manager never finds a token.
func NewManager(cfg config.Config) *Manager {
	return &Manager{
		cookieName: strings.TrimSpace(cfg.Auth.SessionName),
		secure:     cfg.Auth.CookieSecure,
		ttl:        cfg.Auth.SessionDuration,
	}
}

func NewNamedManager(name string, secure bool, ttl time.Duration) *Manager {
	return &Manager{cookieName: strings.TrimSpace(name), secure: secure, ttl: ttl}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// Token returns the session token carried by r.
func (m *Manager) Token(r *http.Request) (string, bool) {
	if m == nil || m.cookieName == "" || r == nil {
		return "", false
	}
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	if strings.TrimSpace(cookie.Value) == "" {
		return "", false
	}
	return cookie.Value, true
}

func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	return m.Token(c.Request)
}

// Set writes the cookie. Without a session duration the cookie lives for
// the browser session.
func (m *Manager) Set(c *gin.Context, value string) {
	if m.cookieName == "" {
		return
	}
	maxAge := 0
	if m.ttl > 0 {
		maxAge = int(m.ttl.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, value, maxAge, "/", "", m.secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	if m.cookieName == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}
