package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Categorías ──────────────────────────────────────────────────────────────

type CategoriaRequest struct {
	Nombre      string  `json:"nombre"      validate:"required,max=120"`
	Descripcion *string `json:"descripcion" validate:"omitempty,max=500"`
}

type CategoriaResponse struct {
	ID           string    `json:"id"`
	Nombre       string    `json:"nombre"`
	Descripcion  *string   `json:"descripcion"`
	ProductCount int64     `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// ─── Proveedores ─────────────────────────────────────────────────────────────

type ProveedorRequest struct {
	Nombre    string  `json:"nombre"    validate:"required,max=200"`
	Contacto  *string `json:"contacto"  validate:"omitempty,max=200"`
	Telefono  *string `json:"telefono"  validate:"omitempty,max=50"`
	Email     *string `json:"email"     validate:"omitempty,email"`
	Direccion *string `json:"direccion"`
}

type ProveedorResponse struct {
	ID            string    `json:"id"`
	Nombre        string    `json:"nombre"`
	Contacto      *string   `json:"contacto"`
	Telefono      *string   `json:"telefono"`
	Email         *string   `json:"email"`
	Direccion     *string   `json:"direccion"`
	ProductsCount int64     `json:"products_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// ─── Clientes ────────────────────────────────────────────────────────────────

type ClienteRequest struct {
	Nombre    string  `json:"nombre"    validate:"required,max=200"`
	Contacto  *string `json:"contacto"  validate:"omitempty,max=200"`
	Telefono  *string `json:"telefono"  validate:"omitempty,max=50"`
	Email     *string `json:"email"     validate:"omitempty,email"`
	Direccion *string `json:"direccion"`
	Estado    string  `json:"estado"    validate:"omitempty,oneof=activo inactivo"`
}

type ClienteFilter struct {
	Q      string `form:"q"`
	Estado string `form:"estado" validate:"omitempty,oneof=activo inactivo"`
}

type ClienteResponse struct {
	ID           string          `json:"id"`
	Nombre       string          `json:"nombre"`
	Contacto     *string         `json:"contacto"`
	Telefono     *string         `json:"telefono"`
	Email        *string         `json:"email"`
	Direccion    *string         `json:"direccion"`
	Estado       string          `json:"estado"`
	TotalCompras decimal.Decimal `json:"total_compras"`
	CreatedAt    time.Time       `json:"created_at"`
}
