// Package reqctx define el scope ambiental de un request lógico.
//
// El scope (tenant, user, request id, session, correlation) lo crea el
// middleware HTTP al entrar el request y muere con el request. Se propaga
// como valor de context.Context — nunca como variable global — para que no
// haya fugas entre requests concurrentes. Para la capa de cache el scope
// es de solo lectura.
package reqctx

import "context"

type ctxKey struct{}

// Scope representa el estado por-request visible para la capa de cache.
type Scope struct {
	TenantID      string
	UserID        string
	RequestID     string
	SessionID     string
	CorrelationID string
}

// With inyecta un scope en el contexto.
func With(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// From extrae el scope del contexto. ok=false si el middleware no corrió
// (ej: llamadas fuera de un request).
func From(ctx context.Context) (Scope, bool) {
	if ctx == nil {
		return Scope{}, false
	}
	if v := ctx.Value(ctxKey{}); v != nil {
		if s, ok := v.(Scope); ok {
			return s, true
		}
	}
	return Scope{}, false
}

// ─── Accessors puntuales ───
//
// Retornan "" cuando no hay scope; los callers deciden su fallback
// ("default" para tenant, "anonymous" para user).

func TenantID(ctx context.Context) string {
	s, _ := From(ctx)
	return s.TenantID
}

func UserID(ctx context.Context) string {
	s, _ := From(ctx)
	return s.UserID
}

func RequestID(ctx context.Context) string {
	s, _ := From(ctx)
	return s.RequestID
}

func CorrelationID(ctx context.Context) string {
	s, _ := From(ctx)
	return s.CorrelationID
}
