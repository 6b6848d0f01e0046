package cache

import "errors"

// Errores de la capa de cache.
var (
	ErrNotFound = errNotFound{}

	// ErrEmptyKey se retorna al intentar generar una key con base vacía.
	ErrEmptyKey = errors.New("cache: empty base key")
)

type errNotFound struct{}

func (e errNotFound) Error() string { return "cache: key not found" }

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
