package middleware

import (
	"errors"
	"net/http"

	"github.com/healthhive/server/internal/auth"
	"github.com/rs/zerolog"
)

// RequireUser rejects requests without a valid bearer token with 401. On
// success the claims are stored with auth.WithClaims and the user id is added
// to the request logger.
func RequireUser(tokens *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				writeUnauthorized(w, r, "a bearer token is required")
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				detail := "the bearer token is invalid or expired"
				if errors.Is(err, auth.ErrMissingToken) {
					detail = "a bearer token is required"
				}
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("token rejected")
				writeUnauthorized(w, r, detail)
				return
			}

			ctx := auth.WithClaims(r.Context(), claims)
			logger := zerolog.Ctx(ctx).With().Str("user_id", claims.UserID()).Logger()
			ctx = logger.WithContext(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
