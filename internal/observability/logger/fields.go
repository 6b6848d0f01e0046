package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// CorrelationID crea un campo para el correlation id propagado.
func CorrelationID(v string) zap.Field {
	return zap.String("correlation_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - NEGOCIO
// =================================================================================

// TenantID crea un campo para el ID del tenant.
func TenantID(v string) zap.Field {
	return zap.String("tenant_id", v)
}

// UserID crea un campo para el ID del usuario.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - CACHE
// =================================================================================

// CacheKey crea un campo para una key de cache.
func CacheKey(v string) zap.Field {
	return zap.String("cache_key", v)
}

// Tier crea un campo para el nivel de cache ("memory", "redis").
func Tier(v string) zap.Field {
	return zap.String("tier", v)
}

// Pattern crea un campo para un patrón de invalidación.
func Pattern(v string) zap.Field {
	return zap.String("pattern", v)
}

// Strategy crea un campo para la estrategia de escritura.
func Strategy(v string) zap.Field {
	return zap.String("strategy", v)
}

// TTL crea un campo para el TTL de un entry.
func TTL(v time.Duration) zap.Field {
	return zap.Duration("ttl", v)
}

// HitRate crea un campo para el hit rate de una instancia.
func HitRate(v float64) zap.Field {
	return zap.Float64("hit_rate", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Key crea un campo genérico para una clave.
func Key(v string) zap.Field {
	return zap.String("key", v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
