package middleware

import (
	"net/http"

	"github.com/commercemesh/order-service/api/responses"
	"github.com/commercemesh/order-service/pkg/auth"
	"github.com/commercemesh/order-service/pkg/logger"
)

// Identity parses the gateway-verified identity header and seeds the request
// context with the caller identity.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := auth.Parse(r.Header.Get(auth.HeaderName))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithIdentity(r.Context(), ident)
			if logg != nil {
				ctx = logg.WithUserID(ctx, ident.ID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
