// Package cache implementa la capa de caching multi-nivel con aislamiento
// por tenant.
//
// Niveles:
//   - Tier 1: Memory (in-process, acotado, con janitor de limpieza)
//   - Tier 2: Redis (compartido entre instancias)
//
// Encima de los niveles:
//   - MultiLevel: orquestador con estrategias de escritura y degradación.
//   - TenantCache: namespacing automático por tenant del request.
//   - Layer (cached.go): caching declarativo por operación.
//
// Política de fallos: esta capa NUNCA es la razón por la que falla un
// request. Todo fallo interno se loguea, incrementa contadores y se
// degrada a miss / no-op.
package cache

import (
	"context"
	"strings"
	"time"
)

// TTLs y límites por defecto. Se aplican cuando la configuración o las
// Options no indican otra cosa.
const (
	DefaultTTL        = time.Hour
	DefaultTenantTTL  = 30 * time.Minute
	DefaultMaxEntries = 1000
	DefaultSweep      = 60 * time.Second
)

// Strategy define el orden de escritura entre niveles.
type Strategy string

const (
	// StrategyMemoryFirst escribe Tier 1 y después Tier 2.
	StrategyMemoryFirst Strategy = "memory-first"
	// StrategyRemoteFirst escribe Tier 2 y después Tier 1.
	StrategyRemoteFirst Strategy = "remote-first"
	// StrategyWriteThrough escribe ambos; un fallo de Tier 2 se loguea
	// pero no es fatal mientras Tier 1 haya funcionado.
	StrategyWriteThrough Strategy = "write-through"
)

// ParseStrategy normaliza un selector de estrategia. Valores desconocidos
// caen al default (memory-first); nunca retorna error.
func ParseStrategy(s string) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyRemoteFirst:
		return StrategyRemoteFirst
	case StrategyWriteThrough:
		return StrategyWriteThrough
	default:
		return StrategyMemoryFirst
	}
}

// Options modifica una operación puntual.
// El zero value significa "usar defaults".
type Options struct {
	// TTL del entry. Si es 0 se usa el default del componente.
	TTL time.Duration

	// Strategy de escritura. Vacío usa la del orquestador.
	Strategy Strategy

	// Tags se agregan como sufijo de la key (ver keys.go).
	Tags []string

	// Namespace explícito, antepuesto al segmento de tenant.
	Namespace string
}

// Store define el contrato de un nivel de almacenamiento.
//
// Contrato:
//   - Get retorna ErrNotFound si la key no existe o expiró.
//   - Las implementaciones deben ser seguras para uso concurrente.
//   - TTL 0 en Set usa el default de la implementación.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}
