package dto

import "time"

type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
	Recordar bool   `json:"recordar"`
}

type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"`
	User        UsuarioResponse `json:"user"`
}

// SesionResponse mirrors the {user, ready} pair the UI keeps in its context.
type SesionResponse struct {
	User  UsuarioResponse `json:"user"`
	Ready bool            `json:"ready"`
}

type CambiarPasswordRequest struct {
	PasswordActual string `json:"password_actual" validate:"required"`
	PasswordNuevo  string `json:"password_nuevo"  validate:"required,min=8,max=72"`
}

type SetupEstadoResponse struct {
	Completado bool `json:"completado"`
}

type SetupRequest struct {
	NombreCompleto string `json:"nombre_completo" validate:"required,max=200"`
	Email          string `json:"email"           validate:"required,email"`
	Password       string `json:"password"        validate:"required,min=8,max=72"`
}

// ─── Usuarios ────────────────────────────────────────────────────────────────

type CrearUsuarioRequest struct {
	NombreCompleto string `json:"nombre_completo" validate:"required,max=200"`
	Email          string `json:"email"           validate:"required,email"`
	Password       string `json:"password"        validate:"required,min=8,max=72"`
	Rol            string `json:"rol"             validate:"required,oneof=Administrador Empleado"`
}

type ActualizarUsuarioRequest struct {
	NombreCompleto *string `json:"nombre_completo" validate:"omitempty,max=200"`
	Email          *string `json:"email"           validate:"omitempty,email"`
	Password       *string `json:"password"        validate:"omitempty,min=8,max=72"`
	Rol            *string `json:"rol"             validate:"omitempty,oneof=Administrador Empleado"`
}

type UsuarioResponse struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	NombreCompleto string    `json:"nombre_completo"`
	Email          string    `json:"email"`
	Rol            string    `json:"rol"`
	CreatedAt      time.Time `json:"created_at"`
}
