package rbac

import (
	"log/slog"
	"net/http"

	"github.com/taller-erp/taller-erp/internal/shared"
)

// Middleware wires capability checks into HTTP handlers.
type Middleware struct {
	Checker Checker
	Logger  *slog.Logger
}

// Require ensures the current actor holds the named capability before
// passing the request on. Failures surface as 403.
func (m Middleware) Require(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := shared.ActorFromContext(r.Context())
			if actor.ID <= 0 {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			granted, err := m.Checker.HasCapability(r.Context(), actor.ID, capability)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("capability check", slog.String("capability", capability), slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !granted {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
