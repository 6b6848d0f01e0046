package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/dropDatabas3/tenantcache/internal/reqctx"
)

// ComputeFunc produce el valor real en un miss del read-through.
type ComputeFunc func(ctx context.Context) (any, error)

// TenantOptionsFunc resuelve las Options propias de un tenant (ej: TTL
// contratado). Se consulta en cada resolución pero el resultado se
// memoiza unos minutos; puede pegarle a un repo externo sin problema.
type TenantOptionsFunc func(ctx context.Context, tenantID string) (Options, error)

// TenantCacheConfig configura el wrapper por-tenant.
type TenantCacheConfig struct {
	// DefaultTTL del read-through. Default: DefaultTenantTTL (30m).
	DefaultTTL time.Duration

	// OptionsFunc opcional para TTLs por tenant.
	OptionsFunc TenantOptionsFunc

	Logger *zap.Logger
}

// TenantCache envuelve al orquestador anteponiendo a cada operación el
// namespace del tenant del request (fallback "default" si no hay scope).
//
// Invariante de aislamiento: para tenants A ≠ B, ninguna key escrita bajo
// el namespace de A es visible desde una lectura bajo el de B. El
// aislamiento es estructural (la key lleva el tenant), no best-effort:
// se sostiene incluso con el Tier 2 caído.
type TenantCache struct {
	ml   *MultiLevel
	keys *Builder

	defaultTTL time.Duration
	optsFn     TenantOptionsFunc
	optsMemo   *gocache.Cache
	log        *zap.Logger
}

// NewTenantCache crea el wrapper. keys debe ser el mismo Builder que usa
// el resto de la capa para que los formatos coincidan.
func NewTenantCache(ml *MultiLevel, keys *Builder, cfg TenantCacheConfig) *TenantCache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTenantTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &TenantCache{
		ml:         ml,
		keys:       keys,
		defaultTTL: cfg.DefaultTTL,
		optsFn:     cfg.OptionsFunc,
		optsMemo:   gocache.New(5*time.Minute, 10*time.Minute),
		log:        cfg.Logger,
	}
}

// currentTenant retorna el tenant del scope ambiental, o el fallback.
func (t *TenantCache) currentTenant(ctx context.Context) string {
	if id := reqctx.TenantID(ctx); id != "" {
		return id
	}
	return FallbackTenant
}

// scopedKey construye la key namespaced del tenant actual.
func (t *TenantCache) scopedKey(ctx context.Context, base string, opts *Options) (string, error) {
	ko := KeyOptions{Tenant: true}
	if opts != nil {
		ko.Namespace = opts.Namespace
		ko.Tags = opts.Tags
	}
	return t.keys.Generate(ctx, base, ko)
}

// GetTenantData es el read-through canónico: busca la key namespaced; en
// hit deserializa en dest; en miss invoca compute, guarda su resultado
// (best-effort) y lo retorna igual.
//
// Misses concurrentes sobre la misma key invocan compute cada uno por su
// lado: no hay single-flight.
func (t *TenantCache) GetTenantData(ctx context.Context, key string, dest any, compute ComputeFunc, opts *Options) error {
	full, err := t.scopedKey(ctx, key, opts)
	if err != nil {
		return err
	}

	if data, err := t.ml.Get(ctx, full); err == nil {
		if err := json.Unmarshal(data, dest); err == nil {
			return nil
		}
		// Entry corrupto: lo tratamos como miss y lo pisamos abajo.
		t.log.Warn("cache: corrupt tenant entry, recomputing",
			zap.String("key", full), zap.Error(err))
	}

	v, err := compute(ctx)
	if err != nil {
		// Error del cómputo real: se propaga tal cual, nada se cachea.
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: marshal computed value: %w", err)
	}

	// Compute, después intento de escritura; si falla queda en el log.
	wopts := t.effectiveOptions(ctx, opts)
	if err := t.ml.Set(ctx, full, data, &wopts); err != nil {
		t.log.Warn("cache: read-through store failed",
			zap.String("key", full), zap.Error(err))
	}

	return json.Unmarshal(data, dest)
}

// effectiveOptions resuelve el TTL efectivo: Options explícitas > TTL del
// tenant (OptionsFunc) > default del wrapper.
func (t *TenantCache) effectiveOptions(ctx context.Context, opts *Options) Options {
	out := Options{TTL: t.defaultTTL}
	if opts != nil {
		out = *opts
	}
	if out.TTL <= 0 {
		out.TTL = t.tenantTTL(ctx)
	}
	return out
}

func (t *TenantCache) tenantTTL(ctx context.Context) time.Duration {
	if t.optsFn == nil {
		return t.defaultTTL
	}
	id := t.currentTenant(ctx)
	if v, ok := t.optsMemo.Get(id); ok {
		if o, ok := v.(Options); ok && o.TTL > 0 {
			return o.TTL
		}
		return t.defaultTTL
	}
	o, err := t.optsFn(ctx, id)
	if err != nil {
		t.log.Warn("cache: tenant options lookup failed, using default ttl",
			zap.String("tenant_id", id), zap.Error(err))
		return t.defaultTTL
	}
	t.optsMemo.Set(id, o, gocache.DefaultExpiration)
	if o.TTL > 0 {
		return o.TTL
	}
	return t.defaultTTL
}

// Get lee una key bajo el namespace del tenant actual.
func (t *TenantCache) Get(ctx context.Context, key string) ([]byte, error) {
	full, err := t.scopedKey(ctx, key, nil)
	if err != nil {
		return nil, err
	}
	return t.ml.Get(ctx, full)
}

// Set escribe una key bajo el namespace del tenant actual.
func (t *TenantCache) Set(ctx context.Context, key string, value []byte, opts *Options) error {
	full, err := t.scopedKey(ctx, key, opts)
	if err != nil {
		return err
	}
	wopts := t.effectiveOptions(ctx, opts)
	return t.ml.Set(ctx, full, value, &wopts)
}

// Delete elimina una key del tenant actual en ambos niveles.
func (t *TenantCache) Delete(ctx context.Context, key string) error {
	full, err := t.scopedKey(ctx, key, nil)
	if err != nil {
		return err
	}
	return t.ml.Delete(ctx, full)
}

// Exists reporta si la key vive bajo el namespace del tenant actual.
func (t *TenantCache) Exists(ctx context.Context, key string) (bool, error) {
	full, err := t.scopedKey(ctx, key, nil)
	if err != nil {
		return false, err
	}
	return t.ml.Exists(ctx, full)
}

// InvalidateTenantCache limpia todo lo que vive bajo el namespace de un
// tenant. Sin argumento invalida el tenant del request; el parámetro
// explícito existe para invalidación administrativa cross-tenant — es el
// ÚNICO lugar donde una operación cruza legítimamente la frontera de
// tenants, y solo vía parámetro, nunca por el scope ambiental.
// Retorna cuántas keys eliminó (Tier 1 solamente, ver Clear).
func (t *TenantCache) InvalidateTenantCache(ctx context.Context, tenantID ...string) int {
	id := t.currentTenant(ctx)
	if len(tenantID) > 0 && tenantID[0] != "" {
		id = tenantID[0]
	}
	n := t.ml.InvalidateMatching(func(k string) bool {
		return t.keys.OwnedBy(k, id)
	})
	t.log.Info("cache: tenant invalidated",
		zap.String("tenant_id", id), zap.Int("count", n))
	return n
}

// WarmUpTenantCache precarga keys del tenant actual desde el Tier 2.
func (t *TenantCache) WarmUpTenantCache(ctx context.Context, keys []string) int {
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		fk, err := t.scopedKey(ctx, k, nil)
		if err != nil {
			continue
		}
		full = append(full, fk)
	}
	return t.ml.WarmUp(ctx, full)
}

// TenantStats son las estadísticas vistas desde un tenant.
type TenantStats struct {
	TenantID string `json:"tenant_id"`
	// Entries es la cantidad de keys vivas del tenant en el Tier 1.
	Entries int `json:"entries"`
	CombinedStats
}

// GetTenantStats retorna los contadores del orquestador más el conteo de
// entries del tenant actual. Los contadores son por proceso, no por
// tenant.
func (t *TenantCache) GetTenantStats(ctx context.Context) TenantStats {
	id := t.currentTenant(ctx)
	owned := t.ml.l1.KeysFunc(func(k string) bool {
		return t.keys.OwnedBy(k, id)
	})
	return TenantStats{
		TenantID:      id,
		Entries:       len(owned),
		CombinedStats: t.ml.Stats(),
	}
}

// Multi retorna el orquestador subyacente. Lo usa la capa declarativa,
// que genera keys ya namespaced por el mismo Builder.
func (t *TenantCache) Multi() *MultiLevel { return t.ml }

// Keys retorna el Builder compartido.
func (t *TenantCache) Keys() *Builder { return t.keys }
