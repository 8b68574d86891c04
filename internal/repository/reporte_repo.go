package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tablas lists the tables reported by Conteos, in display order.
var Tablas = []string{
	"usuarios", "categorias", "proveedores", "productos", "productos_proveedores",
	"clientes", "ventas", "detalles_venta", "movimientos_inventario", "auditoria",
}

type CategoriaAgregada struct {
	CategoriaID *uuid.UUID
	Nombre      string
	Productos   int64
	Unidades    int64
}

type MovimientoDiario struct {
	Dia   time.Time
	Tipo  string
	Total int64
}

type VentaPorProducto struct {
	ProductoID uuid.UUID
	Nombre     string
	SKU        string
	Unidades   int64
	Ingresos   decimal.Decimal
}

// ConteosCalidad holds the numerators and denominators of the data-quality
// indicators.
type ConteosCalidad struct {
	Productos             int64
	ProductosConProveedor int64
	ProductosEnRango      int64
	Clientes              int64
	ClientesConEmail      int64
	Ventas                int64
	VentasConNotas        int64
}

// ReporteRepository computes the dashboard aggregates in SQL.
type ReporteRepository interface {
	Conteos(ctx context.Context) (map[string]int64, error)
	Categorias(ctx context.Context) ([]CategoriaAgregada, error)
	MovimientosPorDia(ctx context.Context, desde time.Time) ([]MovimientoDiario, error)
	SalidasPorProducto(ctx context.Context, desde time.Time) (map[uuid.UUID]int64, error)
	TopVendidos(ctx context.Context, limite int) ([]VentaPorProducto, error)
	Calidad(ctx context.Context) (*ConteosCalidad, error)
}

type reporteRepo struct{ db *gorm.DB }

func NewReporteRepository(db *gorm.DB) ReporteRepository { return &reporteRepo{db: db} }

func (r *reporteRepo) Conteos(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(Tablas))
	for _, t := range Tablas {
		var n int64
		if err := r.db.WithContext(ctx).Table(t).Count(&n).Error; err != nil {
			return nil, err
		}
		out[t] = n
	}
	return out, nil
}

func (r *reporteRepo) Categorias(ctx context.Context) ([]CategoriaAgregada, error) {
	var out []CategoriaAgregada
	err := r.db.WithContext(ctx).Raw(`
SELECT c.id AS categoria_id, COALESCE(c.nombre, 'Sin categoría') AS nombre,
       COUNT(p.id) AS productos, COALESCE(SUM(p.stock_actual), 0) AS unidades
FROM productos p
LEFT JOIN categorias c ON c.id = p.categoria_id
GROUP BY c.id, c.nombre
ORDER BY productos DESC, nombre ASC`).Scan(&out).Error
	return out, err
}

func (r *reporteRepo) MovimientosPorDia(ctx context.Context, desde time.Time) ([]MovimientoDiario, error) {
	var out []MovimientoDiario
	err := r.db.WithContext(ctx).Raw(`
SELECT date_trunc('day', fecha) AS dia, tipo, COALESCE(SUM(cantidad), 0) AS total
FROM movimientos_inventario
WHERE fecha >= ?
GROUP BY dia, tipo
ORDER BY dia ASC`, desde).Scan(&out).Error
	return out, err
}

func (r *reporteRepo) SalidasPorProducto(ctx context.Context, desde time.Time) (map[uuid.UUID]int64, error) {
	var rows []struct {
		ProductoID uuid.UUID
		Total      int64
	}
	err := r.db.WithContext(ctx).Raw(`
SELECT producto_id, COALESCE(SUM(cantidad), 0) AS total
FROM movimientos_inventario
WHERE tipo = 'salida' AND fecha >= ? AND producto_id IS NOT NULL
GROUP BY producto_id`, desde).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.ProductoID] = row.Total
	}
	return out, nil
}

func (r *reporteRepo) TopVendidos(ctx context.Context, limite int) ([]VentaPorProducto, error) {
	var out []VentaPorProducto
	err := r.db.WithContext(ctx).Raw(`
SELECT d.producto_id, MAX(d.producto_nombre) AS nombre, MAX(d.sku) AS sku,
       SUM(d.cantidad) AS unidades, SUM(d.subtotal) AS ingresos
FROM detalles_venta d
GROUP BY d.producto_id
ORDER BY unidades DESC, ingresos DESC
LIMIT ?`, limite).Scan(&out).Error
	return out, err
}

func (r *reporteRepo) Calidad(ctx context.Context) (*ConteosCalidad, error) {
	var c ConteosCalidad
	err := r.db.WithContext(ctx).Raw(`
SELECT
  (SELECT COUNT(*) FROM productos) AS productos,
  (SELECT COUNT(DISTINCT producto_id) FROM productos_proveedores) AS productos_con_proveedor,
  (SELECT COUNT(*) FROM productos WHERE stock_actual BETWEEN stock_minimo AND stock_maximo) AS productos_en_rango,
  (SELECT COUNT(*) FROM clientes) AS clientes,
  (SELECT COUNT(*) FROM clientes WHERE COALESCE(TRIM(email), '') <> '') AS clientes_con_email,
  (SELECT COUNT(*) FROM ventas) AS ventas,
  (SELECT COUNT(*) FROM ventas WHERE COALESCE(TRIM(notas), '') <> '') AS ventas_con_notas`).Scan(&c).Error
	return &c, err
}
