package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// so unit tests can swap in an in-memory stub.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindBySKU(ctx context.Context, sku string) (*model.Producto, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Producto, error)
	List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	ListAll(ctx context.Context) ([]model.Producto, error)
	StockBajo(ctx context.Context) ([]model.Producto, error)
	Update(ctx context.Context, p *model.Producto) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ReemplazarProveedores rewrites the junction rows; ids[0] gets orden 0.
	ReemplazarProveedores(ctx context.Context, productoID uuid.UUID, ids []uuid.UUID) error

	// Used inside transactions; callers must pass the tx instance.
	// DescontarStockTx only applies when stock_actual >= cantidad and reports
	// whether a row was updated.
	DescontarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) (bool, error)
	IncrementarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) conRelaciones(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Categoria").
		Preload("Proveedores", func(db *gorm.DB) *gorm.DB { return db.Order("orden ASC") }).
		Preload("Proveedores.Proveedor")
}

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Omit("Categoria", "Proveedores").Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.conRelaciones(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productoRepo) FindBySKU(ctx context.Context, sku string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Where("LOWER(sku) = LOWER(?)", sku).First(&p).Error
	return &p, err
}

func (r *productoRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Producto, error) {
	var out []model.Producto
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Preload("Categoria").Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *productoRepo) List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{})
	if filter.Q != "" {
		like := "%" + filter.Q + "%"
		q = q.Where("nombre ILIKE ? OR sku ILIKE ?", like, like)
	}
	if filter.CategoriaID != "" {
		q = q.Where("categoria_id = ?", filter.CategoriaID)
	}
	if filter.StockBajo {
		q = q.Where("stock_actual <= stock_minimo")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Categoria").
		Preload("Proveedores", func(db *gorm.DB) *gorm.DB { return db.Order("orden ASC") }).
		Preload("Proveedores.Proveedor").
		Order("nombre ASC").Limit(filter.Limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) ListAll(ctx context.Context) ([]model.Producto, error) {
	var out []model.Producto
	err := r.db.WithContext(ctx).Preload("Categoria").Order("nombre ASC").Find(&out).Error
	return out, err
}

func (r *productoRepo) StockBajo(ctx context.Context) ([]model.Producto, error) {
	var out []model.Producto
	err := r.db.WithContext(ctx).Preload("Categoria").
		Where("stock_actual <= stock_minimo").
		Order("stock_actual ASC, nombre ASC").Find(&out).Error
	return out, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Omit("Categoria", "Proveedores").Save(p).Error
}

func (r *productoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Producto{}, "id = ?", id).Error
}

func (r *productoRepo) ReemplazarProveedores(ctx context.Context, productoID uuid.UUID, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("producto_id = ?", productoID).Delete(&model.ProductoProveedor{}).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		rows := make([]model.ProductoProveedor, len(ids))
		for i, id := range ids {
			rows[i] = model.ProductoProveedor{ProductoID: productoID, ProveedorID: id, Orden: i}
		}
		return tx.Omit("Proveedor").Create(&rows).Error
	})
}

func (r *productoRepo) DescontarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) (bool, error) {
	res := tx.Model(&model.Producto{}).
		Where("id = ? AND stock_actual >= ?", id, cantidad).
		Updates(map[string]interface{}{
			"stock_actual": gorm.Expr("stock_actual - ?", cantidad),
			"updated_at":   gorm.Expr("now()"),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *productoRepo) IncrementarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) error {
	res := tx.Model(&model.Producto{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock_actual": gorm.Expr("stock_actual + ?", cantidad),
			"updated_at":   gorm.Expr("now()"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productoRepo) DB() *gorm.DB { return r.db }
