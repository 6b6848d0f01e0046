package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/tenantcache/internal/observability/logger"
	"github.com/dropDatabas3/tenantcache/internal/reqctx"
)

// TenantResolver define cómo obtener el tenant de un request.
type TenantResolver func(r *http.Request) string

// HeaderTenantResolver resuelve usando un header específico.
func HeaderTenantResolver(headerName string) TenantResolver {
	if headerName == "" {
		headerName = "X-Tenant"
	}
	return func(r *http.Request) string {
		return strings.TrimSpace(r.Header.Get(headerName))
	}
}

// RequestScope es el dueño del scope ambiental: lo crea al entrar el
// request y muere con él. Resuelve tenant y user, genera el request id y
// propaga (o genera) el correlation id; después inyecta el scope y un
// logger con esos campos en el contexto.
func RequestScope(resolve TenantResolver) func(http.Handler) http.Handler {
	if resolve == nil {
		resolve = HeaderTenantResolver("")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			scope := reqctx.Scope{
				TenantID:      resolve(r),
				UserID:        strings.TrimSpace(r.Header.Get("X-User")),
				RequestID:     uuid.NewString(),
				SessionID:     strings.TrimSpace(r.Header.Get("X-Session")),
				CorrelationID: strings.TrimSpace(r.Header.Get("X-Correlation-Id")),
			}
			if scope.CorrelationID == "" {
				scope.CorrelationID = uuid.NewString()
			}

			ctx := reqctx.With(r.Context(), scope)

			log := logger.From(ctx).With(
				logger.RequestID(scope.RequestID),
				logger.TenantID(scope.TenantID),
			)
			ctx = logger.ToContext(ctx, log)

			w.Header().Set("X-Request-Id", scope.RequestID)
			w.Header().Set("X-Correlation-Id", scope.CorrelationID)

			next.ServeHTTP(w, r.WithContext(ctx))

			log.Debug("request served",
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.Duration(time.Since(start)),
			)
		})
	}
}
