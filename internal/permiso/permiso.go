// Package permiso maps a user's role to capability checks.
//
// The same predicates back the RequirePermiso middleware, so the HTTP boundary
// enforces what the UI uses as hints.
package permiso

import "strings"

func normalizar(rol string) string { return strings.ToLower(strings.TrimSpace(rol)) }

// EsAdmin accepts "admin" and "administrador" in any case.
func EsAdmin(rol string) bool {
	switch normalizar(rol) {
	case "admin", "administrador":
		return true
	}
	return false
}

// EsEmpleado accepts "empleado" and "employee" in any case.
func EsEmpleado(rol string) bool {
	switch normalizar(rol) {
	case "empleado", "employee":
		return true
	}
	return false
}

// Autenticado is true for any known role.
func Autenticado(rol string) bool { return EsAdmin(rol) || EsEmpleado(rol) }

func PuedeEditarProducto(rol string) bool       { return EsAdmin(rol) }
func PuedeEliminarProducto(rol string) bool     { return EsAdmin(rol) }
func PuedeGestionarProveedores(rol string) bool { return EsAdmin(rol) }
func PuedeGestionarCategorias(rol string) bool  { return EsAdmin(rol) }
func PuedeGestionarUsuarios(rol string) bool    { return EsAdmin(rol) }

// PuedeRegistrarMovimiento and PuedeVerReportes are open to both roles.
func PuedeRegistrarMovimiento(rol string) bool { return Autenticado(rol) }
func PuedeVerReportes(rol string) bool         { return Autenticado(rol) }
