package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"urbanyatra.in/internal/models"
)

// NewRecoveryMiddleware converts handler panics into a generic 500 so a bad
// request never takes the connection down with a stack dump on the wire.
func NewRecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("handler panicked",
						"panic", rec,
						"path", r.URL.Path,
						"request_id", RequestIDFromContext(r.Context()),
						"stack", string(debug.Stack()),
					)
					w.Header().Set("Connection", "close")
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(models.NewErrorResponse("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
