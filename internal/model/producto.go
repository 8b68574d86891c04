package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a stocked item. StockMinimo <= StockMaximo is enforced by the
// service layer, not by the schema.
type Producto struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU            string    `gorm:"column:sku;uniqueIndex;not null"`
	Nombre         string    `gorm:"index;not null"`
	Descripcion    *string
	CategoriaID    *uuid.UUID      `gorm:"type:uuid;index"`
	StockActual    int             `gorm:"not null;default:0"`
	StockMinimo    int             `gorm:"not null;default:0"`
	StockMaximo    int             `gorm:"not null;default:0"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Categoria   *Categoria          `gorm:"foreignKey:CategoriaID"`
	Proveedores []ProductoProveedor `gorm:"foreignKey:ProductoID"`
}

func (Producto) TableName() string { return "productos" }

// EnStockBajo reports whether the product is at or below its minimum.
func (p Producto) EnStockBajo() bool { return p.StockActual <= p.StockMinimo }

// ProductoProveedor is the junction between products and suppliers.
// Orden 0 is the principal supplier by convention.
type ProductoProveedor struct {
	ProductoID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProveedorID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Orden       int       `gorm:"not null;default:0"`

	Proveedor *Proveedor `gorm:"foreignKey:ProveedorID"`
}

func (ProductoProveedor) TableName() string { return "productos_proveedores" }
