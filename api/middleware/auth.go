package middleware

import (
	"net/http"
	"strings"

	"github.com/pontodigital/pdv-backend/api/responses"
	pkgAuth "github.com/pontodigital/pdv-backend/pkg/auth"
	"github.com/pontodigital/pdv-backend/pkg/config"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// operator claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithOperatorID(r.Context(), claims.OperatorID.String())
			ctx = WithAccountType(ctx, claims.AccountType)
			if claims.SellerID != nil {
				ctx = withSellerID(ctx, claims.SellerID.String())
			}
			if claims.TerminalID != "" {
				ctx = WithTerminalID(ctx, claims.TerminalID)
			}

			if logg != nil {
				fields := map[string]any{
					"operator_id":  claims.OperatorID.String(),
					"account_type": string(claims.AccountType),
				}
				if claims.TerminalID != "" {
					fields["terminal_id"] = claims.TerminalID
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
