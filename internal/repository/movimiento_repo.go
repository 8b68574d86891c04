package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
)

// MovimientoRepository reads movements as raw rows so the normalization layer
// sees the same shapes older clients did: a flattened join, or the nested
// payload kept in datos_originales for imported rows.
type MovimientoRepository interface {
	CreateTx(tx *gorm.DB, m *model.MovimientoInventario) error
	CreateBatch(ctx context.Context, ms []model.MovimientoInventario) error
	ListCrudo(ctx context.Context, filter dto.MovimientoFilter) ([]map[string]interface{}, error)
}

type movimientoRepo struct{ db *gorm.DB }

func NewMovimientoRepository(db *gorm.DB) MovimientoRepository { return &movimientoRepo{db: db} }

func (r *movimientoRepo) CreateTx(tx *gorm.DB, m *model.MovimientoInventario) error {
	return tx.Create(m).Error
}

func (r *movimientoRepo) CreateBatch(ctx context.Context, ms []model.MovimientoInventario) error {
	if len(ms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(ms, 200).Error
}

const selectMovimientosPlanos = `
m.id, m.producto_id, p.nombre AS producto_nombre, p.sku AS producto_sku,
c.nombre AS categoria_nombre, p.precio_unitario AS producto_precio,
p.stock_actual, p.stock_minimo, p.stock_maximo,
m.tipo, m.cantidad, m.motivo, m.usuario_id,
u.nombre_completo AS usuario_nombre_completo, u.username AS usuario_username,
m.realizado_por, m.fecha, m.notas, m.venta_id, v.notas AS venta_notas,
v.cliente_id, cl.nombre AS cliente_nombre, cl.contacto AS cliente_contacto,
cl.telefono AS cliente_telefono, cl.email AS cliente_email, cl.direccion AS cliente_direccion,
m.datos_originales`

func (r *movimientoRepo) ListCrudo(ctx context.Context, filter dto.MovimientoFilter) ([]map[string]interface{}, error) {
	q := r.db.WithContext(ctx).
		Table("movimientos_inventario m").
		Select(selectMovimientosPlanos).
		Joins("LEFT JOIN productos p ON p.id = m.producto_id").
		Joins("LEFT JOIN categorias c ON c.id = p.categoria_id").
		Joins("LEFT JOIN usuarios u ON u.id = m.usuario_id").
		Joins("LEFT JOIN ventas v ON v.id = m.venta_id").
		Joins("LEFT JOIN clientes cl ON cl.id = v.cliente_id")
	if filter.Tipo != "" {
		q = q.Where("m.tipo = ?", filter.Tipo)
	}
	if filter.ProductoID != "" {
		q = q.Where("m.producto_id = ?", filter.ProductoID)
	}
	q = rangoFechas(q, "m.fecha", filter.Desde, filter.Hasta)

	var rows []map[string]interface{}
	err := q.Order("m.fecha DESC").Limit(filter.Limit).Find(&rows).Error
	return rows, err
}
