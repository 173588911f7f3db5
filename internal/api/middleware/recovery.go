package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/gameshop/internal/api/apierr"
	"github.com/mcoot/gameshop/internal/middleware"
)

// Recovery creates panic recovery middleware for the API
// Returns JSON error responses on panic
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	// already logged by the recovery middleware
	apierr.WriteError(w, r, nil, apierr.NewInternalError())
}
