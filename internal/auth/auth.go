// Package auth implements the dashboard's mock login: any non-empty
// credentials receive the configured token, and API routes require it as a
// bearer token. It is not a security boundary.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// DefaultToken is used when auth is enabled without a configured token.
const DefaultToken = "your_mock_auth_token"

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrUnauthorized       = errors.New("missing or invalid bearer token")
)

type Config struct {
	Enabled bool
	Token   string
}

// Authenticator holds the current auth config. Reconfigure may be called
// while requests are served.
type Authenticator struct {
	cfg atomic.Pointer[Config]
}

func New(cfg Config) *Authenticator {
	a := &Authenticator{}
	a.Reconfigure(cfg)
	return a
}

func (a *Authenticator) Reconfigure(cfg Config) {
	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.Token == "" {
		cfg.Token = DefaultToken
	}
	a.cfg.Store(&cfg)
}

func (a *Authenticator) Enabled() bool { return a.cfg.Load().Enabled }

// Login returns the mock token for any non-empty email and password.
func (a *Authenticator) Login(email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", ErrMissingCredentials
	}
	return a.cfg.Load().Token, nil
}

// Check validates an Authorization header value.
func (a *Authenticator) Check(header string) error {
	cfg := a.cfg.Load()
	if !cfg.Enabled {
		return nil
	}
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(tok)), []byte(cfg.Token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Middleware aborts with 401 unless the request carries the token. Paths in
// skip pass through untouched.
func (a *Authenticator) Middleware(skip ...string) gin.HandlerFunc {
	open := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		open[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := open[c.FullPath()]; ok {
			c.Next()
			return
		}
		if err := a.Check(c.GetHeader("Authorization")); err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="taskmate"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.Next()
	}
}
