package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/borrador"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// RegistrarVentaRequest carries no validator tags on purpose: the customer and
// line rules produce the same field map as the draft flow.
type RegistrarVentaRequest struct {
	ClienteID string             `json:"cliente_id"`
	Items     []ItemVentaRequest `json:"items"`
	Notas     *string            `json:"notas" validate:"omitempty,max=1000"`
}

type ItemVentaRequest struct {
	ProductoID     string           `json:"producto_id"`
	Cantidad       int              `json:"cantidad"`
	PrecioUnitario *decimal.Decimal `json:"precio_unitario"`
}

type VentaFilter struct {
	ClienteID string `form:"cliente"`
	Desde     string `form:"desde"` // YYYY-MM-DD
	Hasta     string `form:"hasta"` // YYYY-MM-DD, inclusive
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DetalleVentaResponse struct {
	ProductoID     string          `json:"producto_id"`
	ProductoNombre string          `json:"producto_nombre"`
	SKU            string          `json:"sku"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// AdvertenciaStock flags a sold product left at or below its minimum.
type AdvertenciaStock struct {
	ProductoID     string `json:"producto_id"`
	ProductoNombre string `json:"producto_nombre"`
	SKU            string `json:"sku"`
	StockActual    int    `json:"stock_actual"`
	StockMinimo    int    `json:"stock_minimo"`
	Mensaje        string `json:"mensaje"`
}

type VentaResponse struct {
	ID            string                 `json:"id"`
	ClienteID     string                 `json:"cliente_id"`
	ClienteNombre string                 `json:"cliente_nombre"`
	Total         decimal.Decimal        `json:"total"`
	Fecha         time.Time              `json:"fecha"`
	RealizadoPor  string                 `json:"realizado_por"`
	Notas         *string                `json:"notas"`
	Detalles      []DetalleVentaResponse `json:"detalles"`
	Advertencias  []AdvertenciaStock     `json:"advertencias,omitempty"`
}

type VentaListResponse struct {
	Data       []VentaResponse `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// ─── Borradores ──────────────────────────────────────────────────────────────

type SeleccionarClienteRequest struct {
	ClienteID string `json:"cliente_id" validate:"required,uuid"`
}

type AbrirSelectorRequest struct {
	// Reemplaza is the key of the row being replaced; empty adds a new line.
	Reemplaza string `json:"reemplaza"`
}

type PrepararLineaRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
}

type CambiarCantidadRequest struct {
	Cantidad int `json:"cantidad"`
}

type NotasBorradorRequest struct {
	Notas string `json:"notas" validate:"max=1000"`
}

type BorradorResponse struct {
	*borrador.Borrador
	Estado         borrador.Estado   `json:"estado"`
	Claves         []string          `json:"claves"`
	Total          decimal.Decimal   `json:"total"`
	PuedeConfirmar bool              `json:"puede_confirmar"`
	Errores        map[string]string `json:"errores,omitempty"`
}
