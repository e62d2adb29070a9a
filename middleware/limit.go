package middleware

import "net/http"

// LimitBody caps request bodies at n bytes. Reads past the cap fail with
// *http.MaxBytesError. n <= 0 leaves bodies unlimited.
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if n <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
