package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/application"
	"github.com/example/marketplace-booking/internal/logging"
)

type contextKey string

const principalContextKey contextKey = "principal"

// ContextWithPrincipal returns a derived context containing the signed-in principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the signed-in principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, if any.
func LoggerFromContext(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx)
}

// pathParam reads a route parameter stored in the request context by the router.
func pathParam(r *http.Request, name string) string {
	return strings.TrimSpace(httprouter.ParamsFromContext(r.Context()).ByName(name))
}

func listingFromPath(r *http.Request) application.ListingRef {
	return application.ListingRef{
		Type: application.ListingType(strings.ToLower(pathParam(r, "type"))),
		ID:   pathParam(r, "id"),
	}
}
