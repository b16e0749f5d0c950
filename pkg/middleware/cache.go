package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl marks GET responses cacheable for maxAge seconds. Only for
// routes whose payload is identical for every caller, such as the product
// catalog; never mount it on anything session-specific.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
