package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
)

// CategoriaConConteo is a category plus the number of products that
// reference it, computed at read time.
type CategoriaConConteo struct {
	model.Categoria
	ProductCount int64
}

// CategoriaRepository defines CRUD operations for Categoria.
type CategoriaRepository interface {
	Create(ctx context.Context, c *model.Categoria) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Categoria, error)
	List(ctx context.Context) ([]CategoriaConConteo, error)
	CountProductos(ctx context.Context, id uuid.UUID) (int64, error)
	Update(ctx context.Context, c *model.Categoria) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoriaRepo struct{ db *gorm.DB }

func NewCategoriaRepository(db *gorm.DB) CategoriaRepository { return &categoriaRepo{db: db} }

func (r *categoriaRepo) Create(ctx context.Context, c *model.Categoria) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoriaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Categoria, error) {
	var c model.Categoria
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *categoriaRepo) List(ctx context.Context) ([]CategoriaConConteo, error) {
	var out []CategoriaConConteo
	err := r.db.WithContext(ctx).
		Table("categorias c").
		Select("c.*, COUNT(p.id) AS product_count").
		Joins("LEFT JOIN productos p ON p.categoria_id = c.id").
		Group("c.id").
		Order("c.nombre ASC").
		Scan(&out).Error
	return out, err
}

func (r *categoriaRepo) CountProductos(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Producto{}).Where("categoria_id = ?", id).Count(&n).Error
	return n, err
}

func (r *categoriaRepo) Update(ctx context.Context, c *model.Categoria) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *categoriaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Categoria{}, "id = ?", id).Error
}
