package csrf

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho() *echo.Echo {
	cfg := DefaultConfig()
	cfg.SkipPrefixes = []string{"/health"}
	e := echo.New()
	e.Use(Middleware(cfg))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/page", ok)
	e.POST("/api", ok)
	e.POST("/health/ready", ok)
	return e
}

func issueToken(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/page", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	return token
}

func TestSafeMethodIssuesToken(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/page", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "XSRF-TOKEN", cookies[0].Name)
	assert.False(t, cookies[0].HttpOnly)
	assert.Equal(t, cookies[0].Value, rec.Header().Get("X-CSRF-Token"))
}

func TestUnsafeMethod(t *testing.T) {
	e := newEcho()
	token := issueToken(t, e)

	post := func(header, origin string) int {
		req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
		if header != "" {
			req.Header.Set("X-CSRF-Token", header)
		}
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post(token, "http://example.com"))
	assert.Equal(t, http.StatusForbidden, post("", "http://example.com"))
	assert.Equal(t, http.StatusForbidden, post("wrong", "http://example.com"))
	assert.Equal(t, http.StatusForbidden, post(token, "http://evil.test"))
	assert.Equal(t, http.StatusForbidden, post(token, ""))
}

func TestFormField(t *testing.T) {
	e := newEcho()
	token := issueToken(t, e)

	form := url.Values{"csrf_token": {token}}
	req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("Referer", "http://example.com/checkout.html")
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSkipPrefixes(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}
