package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Spec es la configuración declarativa que un call site adjunta a una
// operación cacheables al momento de registrarla. Reemplaza cualquier
// inspección en runtime: todo se decide con este objeto explícito.
type Spec struct {
	// Op identifica la operación. Se usa para derivar la key cuando Key
	// está vacío ("op:<Op>").
	Op string

	// Key explícita (base, sin prefijo ni segmentos de scope).
	Key string

	// TTL del resultado cacheado. 0 usa el default del orquestador.
	TTL time.Duration

	// Tags de la key.
	Tags []string

	// Skip ejecuta la operación sin tocar el cache.
	Skip bool

	// TenantScoped / UserScoped expanden la key con los segmentos del
	// scope ambiental.
	TenantScoped bool
	UserScoped   bool

	// InvalidatePattern es el patrón (base, se expande igual que la key)
	// que limpia Invalidating tras una mutación exitosa.
	InvalidatePattern string
}

// Layer aplica read-through e invalidación declarativos sobre la capa
// tenant-aware, sin repetir boilerplate en cada call site.
type Layer struct {
	tc  *TenantCache
	log *zap.Logger
}

// NewLayer crea la capa declarativa sobre un TenantCache.
func NewLayer(tc *TenantCache, log *zap.Logger) *Layer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Layer{tc: tc, log: log}
}

// resolveKey expande la key efectiva del spec por el Builder compartido.
func (l *Layer) resolveKey(ctx context.Context, spec Spec) (string, error) {
	base := spec.Key
	if base == "" {
		base = "op:" + spec.Op
	}
	return l.tc.Keys().Generate(ctx, base, KeyOptions{
		Tags:   spec.Tags,
		Tenant: spec.TenantScoped,
		User:   spec.UserScoped,
	})
}

// Cached envuelve fn con read-through según el spec.
//
// Estados por llamada: skip | hit (no se ejecuta fn) | miss (fn + cacheo
// best-effort) | error de lookup (fn, fail-open). Un error de fn se
// propaga tal cual y nunca se cachea.
func Cached[T any](l *Layer, spec Spec, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		if spec.Skip {
			return fn(ctx)
		}

		key, err := l.resolveKey(ctx, spec)
		if err != nil {
			// Key inválida ⇒ fail-open: la operación real siempre corre.
			l.log.Warn("cache: declarative key resolution failed",
				zap.String("op", spec.Op), zap.Error(err))
			return fn(ctx)
		}

		if data, err := l.tc.Multi().Get(ctx, key); err == nil {
			var out T
			if err := json.Unmarshal(data, &out); err == nil {
				return out, nil
			}
			l.log.Warn("cache: corrupt declarative entry, recomputing",
				zap.String("key", key), zap.Error(err))
		}

		out, err := fn(ctx)
		if err != nil {
			return out, err
		}

		if data, merr := json.Marshal(out); merr == nil {
			opts := Options{TTL: spec.TTL, Tags: spec.Tags}
			if serr := l.tc.Multi().Set(ctx, key, data, &opts); serr != nil {
				l.log.Warn("cache: declarative store failed",
					zap.String("key", key), zap.Error(serr))
			}
		} else {
			l.log.Warn("cache: declarative marshal failed",
				zap.String("key", key), zap.Error(merr))
		}

		return out, nil
	}
}

// Invalidating envuelve una operación mutante: solo cuando fn termina SIN
// error limpia las keys que matchean el patrón declarado. Una mutación
// fallida no invalida nada — no cambió estado.
func Invalidating[T any](l *Layer, spec Spec, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		out, err := fn(ctx)
		if err != nil {
			return out, err
		}

		if spec.InvalidatePattern == "" {
			return out, nil
		}

		pattern, perr := l.tc.Keys().Generate(ctx, spec.InvalidatePattern, KeyOptions{
			Tenant: spec.TenantScoped,
			User:   spec.UserScoped,
		})
		if perr != nil {
			l.log.Warn("cache: invalidation pattern resolution failed",
				zap.String("op", spec.Op), zap.Error(perr))
			return out, nil
		}

		n := l.tc.Multi().InvalidateByPattern(pattern)
		l.log.Debug("cache: declarative invalidation",
			zap.String("op", spec.Op), zap.String("pattern", pattern), zap.Int("count", n))
		return out, nil
	}
}
