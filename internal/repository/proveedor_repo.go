package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
)

type ProveedorRepository interface {
	Create(ctx context.Context, p *model.Proveedor) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Proveedor, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Proveedor, error)
	List(ctx context.Context) ([]model.Proveedor, error)
	// ContarProductos returns product counts keyed by supplier id, from the
	// productos_proveedores junction.
	ContarProductos(ctx context.Context) (map[uuid.UUID]int64, error)
	Update(ctx context.Context, p *model.Proveedor) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type proveedorRepo struct{ db *gorm.DB }

func NewProveedorRepository(db *gorm.DB) ProveedorRepository { return &proveedorRepo{db: db} }

func (r *proveedorRepo) Create(ctx context.Context, p *model.Proveedor) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *proveedorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Proveedor, error) {
	var p model.Proveedor
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *proveedorRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Proveedor, error) {
	var out []model.Proveedor
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *proveedorRepo) List(ctx context.Context) ([]model.Proveedor, error) {
	var out []model.Proveedor
	err := r.db.WithContext(ctx).Order("nombre ASC").Find(&out).Error
	return out, err
}

func (r *proveedorRepo) ContarProductos(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		ProveedorID uuid.UUID
		Total       int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.ProductoProveedor{}).
		Select("proveedor_id, COUNT(*) AS total").
		Group("proveedor_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.ProveedorID] = row.Total
	}
	return out, nil
}

func (r *proveedorRepo) Update(ctx context.Context, p *model.Proveedor) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *proveedorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Proveedor{}, "id = ?", id).Error
}
