package model

import (
	"time"

	"github.com/google/uuid"
)

// Categoria groups products. Its product count is derived at read time and
// never stored.
type Categoria struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string    `gorm:"not null"`
	Descripcion *string
	CreatedAt   time.Time
}

func (Categoria) TableName() string { return "categorias" }
