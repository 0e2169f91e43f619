package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrValidation     = errors.New("entrada inválida")
	ErrNotFound       = errors.New("recurso no encontrado")
	ErrUserNotFound   = errors.New("usuario no encontrado")
	ErrDuplicateKey   = errors.New("clave duplicada")
	ErrStorage        = errors.New("almacén local no disponible")
	ErrNetwork        = errors.New("error de red")
	ErrSyncInProgress = errors.New("sincronización en curso")
)

// ValidationError señala el campo concreto que falló la validación.
// errors.Is(err, ErrValidation) devuelve true para poder tratarlo genéricamente.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validación: campo %q %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError construye el error de validación de un campo.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
