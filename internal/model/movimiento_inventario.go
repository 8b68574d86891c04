package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	MovimientoEntrada = "entrada"
	MovimientoSalida  = "salida"
)

// MovimientoInventario records a stock change. Entradas are created directly;
// salidas are written by the sale transaction with VentaID set.
// DatosOriginales keeps the raw payload of rows imported from older exports.
// ProductoID is nil for imported rows whose product no longer exists.
type MovimientoInventario struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID      *uuid.UUID `gorm:"type:uuid;index"`
	Tipo            string     `gorm:"type:varchar(10);not null"`
	Cantidad        int        `gorm:"not null"`
	Motivo          string
	UsuarioID       *uuid.UUID `gorm:"type:uuid"`
	RealizadoPor    string
	Fecha           time.Time `gorm:"not null"`
	Notas           *string
	VentaID         *uuid.UUID     `gorm:"type:uuid;index"`
	DatosOriginales datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt       time.Time
}

// TableName keeps the historical table name.
func (MovimientoInventario) TableName() string { return "movimientos_inventario" }
