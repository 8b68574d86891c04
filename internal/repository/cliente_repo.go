package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
)

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	List(ctx context.Context, filter dto.ClienteFilter) ([]model.Cliente, error)
	// Update writes every column except total_compras.
	Update(ctx context.Context, c *model.Cliente) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountVentas(ctx context.Context, id uuid.UUID) (int64, error)
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) List(ctx context.Context, filter dto.ClienteFilter) ([]model.Cliente, error) {
	var out []model.Cliente
	q := r.db.WithContext(ctx).Model(&model.Cliente{})
	if filter.Q != "" {
		like := "%" + filter.Q + "%"
		q = q.Where("nombre ILIKE ? OR contacto ILIKE ? OR email ILIKE ?", like, like, like)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	err := q.Order("nombre ASC").Find(&out).Error
	return out, err
}

func (r *clienteRepo) Update(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Model(c).
		Select("nombre", "contacto", "telefono", "email", "direccion", "estado").
		Updates(c).Error
}

func (r *clienteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Cliente{}, "id = ?", id).Error
}

func (r *clienteRepo) CountVentas(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Venta{}).Where("cliente_id = ?", id).Count(&n).Error
	return n, err
}
