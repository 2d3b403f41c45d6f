package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Timeout aborts requests that outlive the configured ceiling and answers
// with the standard error envelope. The request context is capped too, so
// downstream provider calls observe the same deadline.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	body, _ := json.Marshal(map[string]any{
		"success": false,
		"error": map[string]string{
			"code":    "TIMEOUT",
			"message": "request did not complete in time",
		},
	})

	return func(next http.Handler) http.Handler {
		bounded := http.TimeoutHandler(next, timeout, string(body))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			bounded.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
