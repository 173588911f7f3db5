package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/mcoot/gameshop/internal/api/apierr"
)

// AdminTokenHeader carries the operator token for catalog administration
const AdminTokenHeader = "X-Admin-Token"

// AdminToken rejects requests whose admin header does not match token
func AdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdminTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				apierr.WriteError(w, r, nil, apierr.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
