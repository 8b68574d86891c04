package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
)

const limiteBusqueda = 100

// BusquedaRepository runs the advanced-search queries, one per entity.
type BusquedaRepository interface {
	Productos(ctx context.Context, f dto.BusquedaFilter) ([]model.Producto, error)
	Clientes(ctx context.Context, f dto.BusquedaFilter) ([]model.Cliente, error)
	Proveedores(ctx context.Context, f dto.BusquedaFilter) ([]model.Proveedor, error)
	Ventas(ctx context.Context, f dto.BusquedaFilter) ([]model.Venta, error)
}

type busquedaRepo struct{ db *gorm.DB }

func NewBusquedaRepository(db *gorm.DB) BusquedaRepository { return &busquedaRepo{db: db} }

func (r *busquedaRepo) Productos(ctx context.Context, f dto.BusquedaFilter) ([]model.Producto, error) {
	q := r.db.WithContext(ctx).Model(&model.Producto{}).
		Preload("Categoria").
		Preload("Proveedores", func(db *gorm.DB) *gorm.DB { return db.Order("orden ASC") }).
		Preload("Proveedores.Proveedor")
	if f.Q != "" {
		like := "%" + f.Q + "%"
		q = q.Where("nombre ILIKE ? OR sku ILIKE ? OR descripcion ILIKE ?", like, like, like)
	}
	if f.CategoriaID != "" {
		q = q.Where("categoria_id = ?", f.CategoriaID)
	}
	switch f.EstadoStock {
	case "bajo":
		q = q.Where("stock_actual <= stock_minimo")
	case "normal":
		q = q.Where("stock_actual > stock_minimo AND stock_actual <= stock_maximo")
	case "exceso":
		q = q.Where("stock_actual > stock_maximo")
	}
	if d, err := decimal.NewFromString(f.PrecioMin); err == nil {
		q = q.Where("precio_unitario >= ?", d)
	}
	if d, err := decimal.NewFromString(f.PrecioMax); err == nil {
		q = q.Where("precio_unitario <= ?", d)
	}
	var out []model.Producto
	err := q.Order("nombre ASC").Limit(limiteBusqueda).Find(&out).Error
	return out, err
}

func (r *busquedaRepo) Clientes(ctx context.Context, f dto.BusquedaFilter) ([]model.Cliente, error) {
	q := r.db.WithContext(ctx).Model(&model.Cliente{})
	if f.Q != "" {
		like := "%" + f.Q + "%"
		q = q.Where("nombre ILIKE ? OR contacto ILIKE ? OR email ILIKE ? OR telefono ILIKE ?", like, like, like, like)
	}
	var out []model.Cliente
	err := q.Order("nombre ASC").Limit(limiteBusqueda).Find(&out).Error
	return out, err
}

func (r *busquedaRepo) Proveedores(ctx context.Context, f dto.BusquedaFilter) ([]model.Proveedor, error) {
	q := r.db.WithContext(ctx).Model(&model.Proveedor{})
	if f.Q != "" {
		like := "%" + f.Q + "%"
		q = q.Where("nombre ILIKE ? OR contacto ILIKE ? OR email ILIKE ?", like, like, like)
	}
	var out []model.Proveedor
	err := q.Order("nombre ASC").Limit(limiteBusqueda).Find(&out).Error
	return out, err
}

func (r *busquedaRepo) Ventas(ctx context.Context, f dto.BusquedaFilter) ([]model.Venta, error) {
	q := r.db.WithContext(ctx).Model(&model.Venta{}).Preload("Detalles")
	if f.Q != "" {
		like := "%" + f.Q + "%"
		q = q.Where("cliente_nombre ILIKE ? OR notas ILIKE ? OR realizado_por ILIKE ?", like, like, like)
	}
	if d, err := decimal.NewFromString(f.PrecioMin); err == nil {
		q = q.Where("total >= ?", d)
	}
	if d, err := decimal.NewFromString(f.PrecioMax); err == nil {
		q = q.Where("total <= ?", d)
	}
	q = rangoFechas(q, "fecha", f.Desde, f.Hasta)
	var out []model.Venta
	err := q.Order("fecha DESC").Limit(limiteBusqueda).Find(&out).Error
	return out, err
}
