package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors mapped to HTTP statuses by the handler layer.
var (
	ErrNoEncontrado      = errors.New("Recurso no encontrado")
	ErrConflicto         = errors.New("Conflicto con el estado actual")
	ErrCategoriaEnUso    = errors.New("La categoría tiene productos asociados")
	ErrCredenciales      = errors.New("Credenciales invalidas")
	ErrSesionInvalida    = errors.New("Sesion invalida o expirada")
	ErrStockInsuficiente = errors.New("Stock insuficiente")
)

// mensajeError carries a user-facing message over a sentinel.
type mensajeError struct {
	base error
	msg  string
}

func (e *mensajeError) Error() string { return e.msg }
func (e *mensajeError) Unwrap() error { return e.base }

func conMensaje(base error, format string, args ...any) error {
	return &mensajeError{base: base, msg: fmt.Sprintf(format, args...)}
}

// noEncontrado turns gorm's not-found into ErrNoEncontrado with msg and
// passes every other error through.
func noEncontrado(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return conMensaje(ErrNoEncontrado, "%s", msg)
	}
	return err
}

// restriccion maps unique and foreign-key violations to ErrConflicto with msg.
func restriccion(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return conMensaje(ErrConflicto, "%s", msg)
	}
	return err
}

// ValidationError is a set of field errors. Causa, when set, is matched by
// errors.Is (for example ErrStockInsuficiente).
type ValidationError struct {
	Fields map[string]string
	Causa  error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "Error de validacion"
	}
	campos := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		campos = append(campos, k)
	}
	return "Error de validacion: " + strings.Join(campos, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Causa }

func validacion(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
