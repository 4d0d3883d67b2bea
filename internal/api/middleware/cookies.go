package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/creamcroissant/acquisitions/internal/api/requestctx"
)

// CookieParser exposes request cookies as a map through requestctx.Cookies.
// The first cookie with a given name wins; percent-encoded values are decoded.
func CookieParser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookies := make(map[string]string)
			for _, c := range r.Cookies() {
				if _, exists := cookies[c.Name]; exists {
					continue
				}
				cookies[c.Name] = decodeCookieValue(c.Value)
			}

			ctx := requestctx.WithCookies(r.Context(), cookies)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func decodeCookieValue(raw string) string {
	if !strings.Contains(raw, "%") {
		return raw
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
