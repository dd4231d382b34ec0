package middleware

import (
	"net/http"
	"strings"

	"github.com/brandpulse/okrops/internal/ctxkeys"
	"github.com/brandpulse/okrops/internal/service"
)

// AuthMiddleware resolves the Authorization bearer token into a tenant/brand
// scope on the request context. Requests without a valid token continue
// unauthenticated; RequireScope gates the protected routes.
func AuthMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			scope, err := authService.VerifyToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithScope(r.Context(), scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope rejects requests whose context carries no tenant scope.
func RequireScope(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := ctxkeys.Scope(r.Context())
		if scope.Empty() {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
