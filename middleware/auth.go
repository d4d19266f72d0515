package middleware

import (
	"context"
	"net/http"
	"time"

	"coffeelink/models"
	"coffeelink/session"
	"coffeelink/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Key type for context
type contextKey string

const ClientContextKey = contextKey("client")

// ClientCookie carries the signed id of the browser.
const ClientCookie = "coffeelink_client"

// ClientFrom returns the client attached by ClientMiddleware.
func ClientFrom(ctx context.Context) (*session.Client, bool) {
	c, ok := ctx.Value(ClientContextKey).(*session.Client)
	return c, ok
}

// WithClient attaches c to ctx.
func WithClient(ctx context.Context, c *session.Client) context.Context {
	return context.WithValue(ctx, ClientContextKey, c)
}

// ClientMiddleware identifies the browser by its signed cookie, issuing a new
// one when it is missing or forged, and attaches its session.Client to the
// request context.
func ClientMiddleware(reg *session.Registry, signer *utils.ClientSigner, secure bool, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ""
			if cookie, err := r.Cookie(ClientCookie); err == nil {
				clientID, err = signer.ParseClientID(cookie.Value)
				if err != nil {
					log.Debug("rejecting client cookie", zap.Error(err))
				}
			}

			if clientID == "" {
				clientID = uuid.NewString()
				token, err := signer.GenerateJWT(clientID)
				if err != nil {
					log.Error("signing client cookie", zap.Error(err))
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     ClientCookie,
					Value:    token,
					Path:     "/",
					Expires:  time.Now().Add(utils.ClientTokenTTL),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			client, err := reg.Get(r.Context(), clientID)
			if err != nil {
				log.Error("resolving client", zap.String("client", clientID), zap.Error(err))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), client)))
		})
	}
}

// Decision is the outcome of a role check.
type Decision int

const (
	// Placeholder means the session is still being restored.
	Placeholder Decision = iota
	Allow
	Redirect
)

// Decide resolves a role check. While the session is Unknown it never
// redirects.
func Decide(state session.State, user models.UserIdentity, role string) Decision {
	switch {
	case state == session.Unknown:
		return Placeholder
	case state == session.Authenticated && user.Rol == role:
		return Allow
	default:
		return Redirect
	}
}

// RequireRole lets through only sessions whose user has role. Requests that
// arrive while the session is being restored get the placeholder handler.
func RequireRole(role string, placeholder http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, ok := ClientFrom(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			user, _ := client.Session.CurrentUser()
			switch Decide(client.Session.State(), user, role) {
			case Allow:
				next.ServeHTTP(w, r)
			case Placeholder:
				placeholder.ServeHTTP(w, r)
			default:
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			}
		})
	}
}
