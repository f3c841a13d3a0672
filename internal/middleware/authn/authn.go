// Package authn guards routes behind a valid access token and makes the
// token's claims available to handlers through the request context.
package authn

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	resp "github.com/dtg-lucifer/sahotsava-be/internal/lib/api/response"
	"github.com/dtg-lucifer/sahotsava-be/internal/lib/jwt"
)

type ctxKey struct{}

func New(log *slog.Logger, codec *jwt.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authn.New"

			header := r.Header.Get("Authorization")

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("missing bearer token"))

				return
			}

			claims, err := codec.ParseAccessToken(token)
			if err != nil {
				log.Info("rejected access token", slog.String("op", op))

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("invalid or expired token"))

				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Claims returns the access-token claims stored by the middleware. The bool
// is false on routes that are not guarded.
func Claims(ctx context.Context) (jwt.Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(jwt.Claims)
	return claims, ok
}
