package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ProductoRequest is used for both create and full update. StockMaximo >=
// StockMinimo is a cross-field rule checked by the service.
type ProductoRequest struct {
	SKU            string          `json:"sku"             validate:"required,max=60"`
	Nombre         string          `json:"nombre"          validate:"required,max=200"`
	Descripcion    *string         `json:"descripcion"`
	CategoriaID    *string         `json:"categoria_id"    validate:"omitempty,uuid"`
	StockActual    int             `json:"stock_actual"    validate:"min=0"`
	StockMinimo    int             `json:"stock_minimo"    validate:"min=0"`
	StockMaximo    int             `json:"stock_maximo"    validate:"min=0"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"min=0"`
	ProveedorIDs   []string        `json:"proveedor_ids"   validate:"omitempty,dive,uuid"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Q           string `form:"q"`
	CategoriaID string `form:"categoria_id"`
	StockBajo   bool   `form:"stock_bajo"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID               string          `json:"id"`
	SKU              string          `json:"sku"`
	Nombre           string          `json:"nombre"`
	Descripcion      *string         `json:"descripcion"`
	CategoriaID      *string         `json:"categoria_id"`
	CategoriaNombre  string          `json:"categoria_nombre"`
	StockActual      int             `json:"stock_actual"`
	StockMinimo      int             `json:"stock_minimo"`
	StockMaximo      int             `json:"stock_maximo"`
	PrecioUnitario   decimal.Decimal `json:"precio_unitario"`
	ProveedorIDs     []string        `json:"proveedor_ids"`
	ProveedorNombres []string        `json:"proveedor_nombres"`
	EnStockBajo      bool            `json:"en_stock_bajo"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}
