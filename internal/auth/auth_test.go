package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() { gin.SetMode(gin.TestMode) }

func TestLogin(t *testing.T) {
	t.Parallel()
	a := New(Config{Enabled: true, Token: "tok"})

	tok, err := a.Login("admin@taskmate.com", "password")
	assert.NoError(t, err)
	assert.Equal(t, "tok", tok)

	for _, c := range [][2]string{{"", "x"}, {"a@b", ""}, {"  ", "x"}} {
		_, err := a.Login(c[0], c[1])
		assert.ErrorIs(t, err, ErrMissingCredentials)
	}
}

func TestDefaultToken(t *testing.T) {
	t.Parallel()
	a := New(Config{Enabled: true})
	tok, _ := a.Login("a", "b")
	assert.Equal(t, DefaultToken, tok)
}

func TestCheck(t *testing.T) {
	t.Parallel()
	a := New(Config{Enabled: true, Token: "tok"})
	assert.NoError(t, a.Check("Bearer tok"))
	assert.NoError(t, a.Check("bearer tok"))
	assert.ErrorIs(t, a.Check(""), ErrUnauthorized)
	assert.ErrorIs(t, a.Check("Bearer nope"), ErrUnauthorized)
	assert.ErrorIs(t, a.Check("Basic tok"), ErrUnauthorized)

	a.Reconfigure(Config{Enabled: false})
	assert.NoError(t, a.Check(""))
	assert.False(t, a.Enabled())
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	a := New(Config{Enabled: true, Token: "tok"})
	r := gin.New()
	api := r.Group("/api", a.Middleware("/api/login"))
	api.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	api.GET("/employees", func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		method, path, header string
		want                 int
	}{
		{http.MethodPost, "/api/login", "", http.StatusOK},
		{http.MethodGet, "/api/employees", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/employees", "Bearer wrong", http.StatusUnauthorized},
		{http.MethodGet, "/api/employees", "Bearer tok", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "%s %s %q", tc.method, tc.path, tc.header)
	}
}
