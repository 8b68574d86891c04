package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
)

// AuditoriaRepository is append-only: there is no update or delete.
type AuditoriaRepository interface {
	Create(ctx context.Context, a *model.Auditoria) error
	List(ctx context.Context, filter dto.AuditoriaFilter) ([]model.Auditoria, int64, error)
	CountByAccion(ctx context.Context, accion, entidadID string) (int64, error)
}

type auditoriaRepo struct{ db *gorm.DB }

func NewAuditoriaRepository(db *gorm.DB) AuditoriaRepository { return &auditoriaRepo{db: db} }

func (r *auditoriaRepo) Create(ctx context.Context, a *model.Auditoria) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *auditoriaRepo) List(ctx context.Context, filter dto.AuditoriaFilter) ([]model.Auditoria, int64, error) {
	var out []model.Auditoria
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Auditoria{})
	if filter.Accion != "" {
		q = q.Where("accion = ?", filter.Accion)
	}
	if filter.Entidad != "" {
		q = q.Where("entidad = ?", filter.Entidad)
	}
	if filter.Usuario != "" {
		q = q.Where("usuario_nombre ILIKE ?", "%"+filter.Usuario+"%")
	}
	q = rangoFechas(q, "created_at", filter.Desde, filter.Hasta)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("created_at DESC").Limit(filter.Limit).Offset(offset).Find(&out).Error
	return out, total, err
}

func (r *auditoriaRepo) CountByAccion(ctx context.Context, accion, entidadID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Auditoria{}).
		Where("accion = ? AND entidad_id = ?", accion, entidadID).Count(&n).Error
	return n, err
}
