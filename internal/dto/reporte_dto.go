package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EstadoMetricaOK     = "ok"
	EstadoMetricaAlerta = "alerta"
)

type CategoriaResumen struct {
	CategoriaID *string `json:"categoria_id"`
	Nombre      string  `json:"nombre"`
	Productos   int64   `json:"productos"`
	Unidades    int64   `json:"unidades"`
}

type TendenciaDia struct {
	Fecha    string `json:"fecha"` // YYYY-MM-DD
	Entradas int64  `json:"entradas"`
	Salidas  int64  `json:"salidas"`
}

type RotacionProducto struct {
	ProductoID  string  `json:"producto_id"`
	Nombre      string  `json:"nombre"`
	SKU         string  `json:"sku"`
	Salidas30d  int64   `json:"salidas_30d"`
	StockActual int     `json:"stock_actual"`
	Porcentaje  float64 `json:"porcentaje"`
}

type ProductoVendido struct {
	ProductoID string          `json:"producto_id"`
	Nombre     string          `json:"nombre"`
	SKU        string          `json:"sku"`
	Unidades   int64           `json:"unidades"`
	Ingresos   decimal.Decimal `json:"ingresos"`
}

// MetricaCalidad is one data-quality indicator, expressed as a percentage.
type MetricaCalidad struct {
	Clave    string  `json:"clave"`
	Nombre   string  `json:"nombre"`
	Valor    float64 `json:"valor"`
	Objetivo float64 `json:"objetivo"`
	Estado   string  `json:"estado"`
}

type DashboardResponse struct {
	Conteos     map[string]int64   `json:"conteos"`
	Categorias  []CategoriaResumen `json:"categorias"`
	Tendencia   []TendenciaDia     `json:"tendencia_7d"`
	Rotacion    []RotacionProducto `json:"rotacion_30d"`
	TopVendidos []ProductoVendido  `json:"top_vendidos"`
	StockBajo   []ProductoResponse `json:"stock_bajo"`
	Calidad     []MetricaCalidad   `json:"calidad"`
	GeneradoEn  time.Time          `json:"generado_en"`
}

// ─── Búsqueda avanzada ───────────────────────────────────────────────────────

type BusquedaFilter struct {
	Q           string `form:"q"`
	Entidad     string `form:"entidad"      validate:"omitempty,oneof=productos clientes proveedores ventas"`
	CategoriaID string `form:"categoria_id" validate:"omitempty,uuid"`
	EstadoStock string `form:"estado_stock" validate:"omitempty,oneof=bajo normal exceso"`
	PrecioMin   string `form:"precio_min"   validate:"omitempty,numeric"`
	PrecioMax   string `form:"precio_max"   validate:"omitempty,numeric"`
	Desde       string `form:"desde"`
	Hasta       string `form:"hasta"`
}

type BusquedaResponse struct {
	Productos   []ProductoResponse  `json:"productos"`
	Clientes    []ClienteResponse   `json:"clientes"`
	Proveedores []ProveedorResponse `json:"proveedores"`
	Ventas      []VentaResponse     `json:"ventas"`
}
