package auth

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/ghuser/notekeeper/pkg/httpx"
	"github.com/ghuser/notekeeper/pkg/logger"
)

// SessionName is the session cookie name. API clients send it back verbatim.
const SessionName = "notekeeper_session"

const sessionOwnerIDKey = "owner_id"

// RequireAuth scopes the request to the owner stored in the session cookie
// and answers 401 when there is no usable owner. Handlers behind it can rely
// on OwnerIDFromCtx.
func RequireAuth(store sessions.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := store.Get(r, SessionName)
			if err != nil {
				log.WarnContext(r.Context(), "session lookup failed", "error", err)
				httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ownerIDStr, ok := session.Values[sessionOwnerIDKey].(string)
			if !ok || ownerIDStr == "" {
				log.DebugContext(r.Context(), "no owner in session", "new", session.IsNew)
				httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ownerID, err := uuid.Parse(ownerIDStr)
			if err != nil {
				log.WarnContext(r.Context(), "invalid owner_id in session", "owner_id", ownerIDStr, "error", err)
				httpx.JSONError(w, http.StatusUnauthorized, "invalid session data")
				return
			}

			ctx := WithOwnerID(r.Context(), ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaticOwner attributes every request to ownerID. It stands in for
// RequireAuth when AUTH_REQUIRED is false (local development, the CLI).
func StaticOwner(ownerID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), ownerID)))
		})
	}
}
