package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ClienteActivo   = "activo"
	ClienteInactivo = "inactivo"
)

// Cliente is a customer. TotalCompras is informational only and is never
// recomputed from sales.
type Cliente struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre       string    `gorm:"not null"`
	Contacto     *string
	Telefono     *string
	Email        *string
	Direccion    *string
	Estado       string          `gorm:"type:varchar(10);not null;default:'activo'"`
	TotalCompras decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt    time.Time
}

func (Cliente) TableName() string { return "clientes" }
