package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
)

type VentaRepository interface {
	// CreateTx inserts the header and its detail rows in the caller's tx.
	CreateTx(tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Venta, error)
	List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error)
	DB() *gorm.DB
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) CreateTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Omit("Cliente").Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Detalles").First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Venta, error) {
	var out []model.Venta
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Preload("Detalles").Preload("Cliente").
		Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *ventaRepo) List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Venta{})
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	q = rangoFechas(q, "fecha", filter.Desde, filter.Hasta)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Detalles").Order("fecha DESC").Limit(filter.Limit).Offset(offset).Find(&ventas).Error
	return ventas, total, err
}

func (r *ventaRepo) DB() *gorm.DB { return r.db }
