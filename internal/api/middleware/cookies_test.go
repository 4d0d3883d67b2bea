package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/creamcroissant/acquisitions/internal/api/requestctx"
)

func TestCookieParser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", "token=abc; name=J%C3%BCrgen; token=second; bad=%zz")

	var cookies map[string]string
	CookieParser()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		cookies = requestctx.Cookies(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, map[string]string{
		"token": "abc",
		"name":  "Jürgen",
		"bad":   "%zz",
	}, cookies)
}

func TestCookieParserNoCookies(t *testing.T) {
	var cookies map[string]string
	CookieParser()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		cookies = requestctx.Cookies(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotNil(t, cookies)
	assert.Empty(t, cookies)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = chiMiddleware.GetReqID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", seen)
	assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))
}
