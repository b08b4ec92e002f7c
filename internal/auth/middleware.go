package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/arenz/postboard/internal/models"
	"github.com/rs/zerolog/log"
)

type contextKey string

const userContextKey = contextKey("currentUser")

// UserFinder looks up the account a verified token refers to.
type UserFinder interface {
	GetByID(ctx context.Context, id int64) (models.User, error)
}

// CurrentUser returns the authenticated user stored by Middleware.
func CurrentUser(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// Middleware protects routes with bearer-token authentication. Every failure
// mode (missing header, bad signature, expired token, unknown user) gets the
// same generic 401 so the response does not reveal which check rejected it.
func Middleware(tokens *TokenService, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			userID, err := tokens.Verify(tokenStr)
			if err != nil {
				log.Warn().Err(err).Msg("Rejected bearer token")
				unauthorized(w)
				return
			}

			// The token only proves who the caller was when it was
			// issued; the account must still exist.
			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				log.Warn().Err(err).Int64("user_id", userID).Msg("Token for unknown user")
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
}
