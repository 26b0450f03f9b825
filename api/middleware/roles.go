package middleware

import (
	"net/http"

	"github.com/angelmondragon/grocer-backend/api/responses"
	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/angelmondragon/grocer-backend/pkg/logger"
)

// RequireOperator admits roles allowed to manage supermarkets. It must run
// after Auth.
func RequireOperator(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !RoleFromContext(r.Context()).CanManageSupermarkets() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "owner role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
