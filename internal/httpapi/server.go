// Package httpapi expone la superficie de observación y administración de
// la capa de cache: health, métricas, stats y acceso directo por key.
// No es la API de negocio — esa vive en el backend que consume esta capa.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/tenantcache/internal/cache"
)

// Deps son las dependencias del router.
type Deps struct {
	Tenant *cache.TenantCache
	Multi  *cache.MultiLevel

	// Resolver de tenant; nil usa el header X-Tenant.
	Resolver TenantResolver
}

// NewRouter arma el router chi con el middleware de scope aplicado a todo
// el árbol /v1.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealth(d.Multi))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(RequestScope(d.Resolver))

		r.Get("/cache/stats", handleStats(d.Tenant))
		r.Post("/cache/invalidate", handleInvalidate(d.Tenant))
		r.Post("/cache/warmup", handleWarmUp(d.Tenant))

		r.Get("/cache/{key}", handleGet(d.Tenant))
		r.Put("/cache/{key}", handleSet(d.Tenant))
		r.Delete("/cache/{key}", handleDelete(d.Tenant))
	})

	return r
}
