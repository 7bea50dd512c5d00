package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/civic/internal/storage"
)

const (
	// UserIDHeader carries the signed-in user's id, set by the auth proxy.
	UserIDHeader  = "X-User-ID"
	SessionCookie = "civic_session"

	sessionMaxAge = 30 * 24 * time.Hour
)

type identityKey struct{}

// Identify attaches the caller's storage.Identity to the request context.
// Callers without a session cookie are issued a new one.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id storage.Identity

		if raw := strings.TrimSpace(r.Header.Get(UserIDHeader)); raw != "" {
			uid, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || uid <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid %s header", UserIDHeader)
				return
			}
			id.UserID = &uid
		}

		if c, err := r.Cookie(SessionCookie); err == nil && validSession(c.Value) {
			id.SessionID = c.Value
		} else {
			id.SessionID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id.SessionID,
				Path:     "/",
				MaxAge:   int(sessionMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validSession(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}

// IdentityFrom returns the identity attached by Identify, or the zero identity.
func IdentityFrom(ctx context.Context) storage.Identity {
	id, _ := ctx.Value(identityKey{}).(storage.Identity)
	return id
}
