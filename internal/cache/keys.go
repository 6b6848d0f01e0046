package cache

import (
	"context"
	"strings"

	"github.com/dropDatabas3/tenantcache/internal/reqctx"
)

// Fallbacks cuando el scope ambiental no trae el segmento pedido.
const (
	FallbackTenant = "default"
	FallbackUser   = "anonymous"
)

// DefaultPrefix es el prefijo fijo de toda key generada.
const DefaultPrefix = "cache"

// KeyOptions controla qué segmentos lleva la key generada.
type KeyOptions struct {
	// Namespace explícito, va justo después del prefijo.
	Namespace string

	// Tags se agregan como sufijo ":tags:<t1>:<t2>...".
	Tags []string

	// Tenant / User / Request incluyen el segmento correspondiente
	// tomado del scope ambiental del request.
	Tenant  bool
	User    bool
	Request bool
}

// Builder genera keys deterministas y conscientes del contexto.
//
// Formato (el orden es fijo; el matcheo por patrón depende de él):
//
//	cache[:namespace][:tenant:<id>][:user:<id>][:req:<id>]:<base>[:tags:<t1>:<t2>...]
//
// Builder es una función pura de sus inputs más el scope ambiental: mismos
// inputs y mismo scope producen siempre la misma key. Si el scope no está
// disponible, degrada a una key sin ese segmento — nunca propaga el error.
type Builder struct {
	prefix string
}

// NewBuilder crea un Builder con el prefijo dado ("cache" si viene vacío).
func NewBuilder(prefix string) *Builder {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Builder{prefix: prefix}
}

// Prefix retorna el prefijo fijo del builder.
func (b *Builder) Prefix() string { return b.prefix }

// Generate construye una key a partir de la base y las opciones.
// Una base vacía se rechaza antes de generar nada.
func (b *Builder) Generate(ctx context.Context, base string, opts KeyOptions) (string, error) {
	if strings.TrimSpace(base) == "" {
		return "", ErrEmptyKey
	}

	segs := make([]string, 0, 8)
	segs = append(segs, b.prefix)

	if ns := strings.TrimSpace(opts.Namespace); ns != "" {
		segs = append(segs, ns)
	}
	if opts.Tenant {
		id := reqctx.TenantID(ctx)
		if id == "" {
			id = FallbackTenant
		}
		segs = append(segs, "tenant", id)
	}
	if opts.User {
		id := reqctx.UserID(ctx)
		if id == "" {
			id = FallbackUser
		}
		segs = append(segs, "user", id)
	}
	if opts.Request {
		// Ojo: incluir el request id hace la key única por request.
		if id := reqctx.RequestID(ctx); id != "" {
			segs = append(segs, "req", id)
		}
	}

	segs = append(segs, base)

	if len(opts.Tags) > 0 {
		segs = append(segs, "tags")
		segs = append(segs, opts.Tags...)
	}

	return strings.Join(segs, ":"), nil
}

// TenantKey fuerza el segmento de tenant aunque no haya scope ambiental
// (fallback "default").
func (b *Builder) TenantKey(ctx context.Context, base string) (string, error) {
	return b.Generate(ctx, base, KeyOptions{Tenant: true})
}

// UserKey fuerza el segmento de user (fallback "anonymous").
func (b *Builder) UserKey(ctx context.Context, base string) (string, error) {
	return b.Generate(ctx, base, KeyOptions{User: true})
}

// OwnedBy reporta si la key pertenece al namespace del tenant dado. El
// segmento de tenant solo se reconoce en su posición estructural (justo
// después del prefijo, o del namespace explícito si lo hay); una base que
// contenga el literal "tenant:<id>" no cruza la frontera.
func (b *Builder) OwnedBy(key, tenantID string) bool {
	if tenantID == "" || !strings.HasPrefix(key, b.prefix+":") {
		return false
	}
	segs := strings.Split(key[len(b.prefix)+1:], ":")
	for i := 0; i < 2 && i+1 < len(segs); i++ {
		if segs[i] == "tenant" {
			return segs[i+1] == tenantID
		}
	}
	return false
}

// Valid reporta si una key generada es estructuralmente válida:
// empieza con el prefijo fijo y tiene al menos dos segmentos.
func (b *Builder) Valid(key string) bool {
	if !strings.HasPrefix(key, b.prefix+":") {
		return false
	}
	return len(strings.Split(key, ":")) >= 2
}

// Match reporta si key matchea el patrón. La sintaxis soporta únicamente
// el comodín `*` (matchea cualquier cosa, incluyendo `:`); no hay `?` ni
// clases de caracteres.
func Match(pattern, key string) bool {
	// Camino rápido: sin comodines es igualdad literal.
	if !strings.Contains(pattern, "*") {
		return pattern == key
	}

	parts := strings.Split(pattern, "*")

	// El primer fragmento debe ser prefijo.
	if !strings.HasPrefix(key, parts[0]) {
		return false
	}
	key = key[len(parts[0]):]

	// Fragmentos intermedios: búsqueda greedy por orden.
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(key, part)
		if idx < 0 {
			return false
		}
		key = key[idx+len(part):]
	}

	// El último fragmento debe ser sufijo.
	return strings.HasSuffix(key, parts[len(parts)-1])
}
