package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Venta is a sale header. ClienteNombre and the detail snapshots keep the
// values as they were when the sale was registered.
type Venta struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	ClienteNombre string          `gorm:"not null"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Fecha         time.Time       `gorm:"not null"`
	UsuarioID     *uuid.UUID      `gorm:"type:uuid"`
	RealizadoPor  string
	Notas         *string
	CreatedAt     time.Time

	Detalles []DetalleVenta `gorm:"foreignKey:VentaID"`
	Cliente  *Cliente       `gorm:"foreignKey:ClienteID"`
}

func (Venta) TableName() string { return "ventas" }

// DetalleVenta is one line of a sale. Subtotal = Cantidad × PrecioUnitario.
type DetalleVenta struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoNombre string          `gorm:"not null"`
	SKU            string          `gorm:"column:sku"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (DetalleVenta) TableName() string { return "detalles_venta" }
