package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// UserCookieName holds the anonymous id that scopes connections and history.
const UserCookieName = "shopify_user_id"

const userCookieMaxAge = 365 * 24 * time.Hour

// Identity assigns every browser an anonymous user id.
type Identity struct {
	secure bool
}

// NewIdentity creates the middleware. secure marks the cookie Secure, which
// production deployments behind TLS want.
func NewIdentity(secure bool) *Identity {
	return &Identity{secure: secure}
}

// Identify reuses a valid id cookie or issues a new one, then stores the id
// in the request context.
func (i *Identity) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(UserCookieName); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     UserCookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(userCookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   i.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(SetUserID(r.Context(), id)))
	})
}
