package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/tenantcache/internal/cache"
	"github.com/dropDatabas3/tenantcache/internal/observability/logger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func handleHealth(ml *cache.MultiLevel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ml.Ping(r.Context()); err != nil {
			// Tier 2 caído no es fatal: la capa degrada a memoria sola.
			writeJSON(w, http.StatusOK, map[string]string{
				"status": "degraded",
				"detail": err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleStats(tc *cache.TenantCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, tc.GetTenantStats(r.Context()))
	}
}

func handleGet(tc *cache.TenantCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		v, err := tc.Get(r.Context(), key)
		if err != nil {
			if cache.IsNotFound(err) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
				return
			}
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(v)
	}
}

func handleSet(tc *cache.TenantCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body too large"})
			return
		}

		var opts *cache.Options
		if ttl := r.URL.Query().Get("ttl"); ttl != "" {
			d, err := time.ParseDuration(ttl)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ttl"})
				return
			}
			opts = &cache.Options{TTL: d}
		}

		if err := tc.Set(r.Context(), key, body, opts); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDelete(tc *cache.TenantCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if err := tc.Delete(r.Context(), key); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleInvalidate limpia el namespace de un tenant. Por defecto el del
// request; ?tenant= permite la invalidación administrativa cross-tenant.
func handleInvalidate(tc *cache.TenantCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var n int
		if explicit := r.URL.Query().Get("tenant"); explicit != "" {
			n = tc.InvalidateTenantCache(r.Context(), explicit)
		} else {
			n = tc.InvalidateTenantCache(r.Context())
		}
		writeJSON(w, http.StatusOK, map[string]int{"invalidated": n})
	}
}

func handleWarmUp(tc *cache.TenantCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Keys []string `json:"keys"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}
		n := tc.WarmUpTenantCache(r.Context(), req.Keys)
		logger.From(r.Context()).Info("warm-up requested",
			logger.Count(len(req.Keys)), logger.Int("warmed", n))
		writeJSON(w, http.StatusOK, map[string]int{"warmed": n})
	}
}
