package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RolAdministrador = "Administrador"
	RolEmpleado      = "Empleado"
)

// Usuario stores system users with role-based access.
// Username is derived from the local part of Email.
type Usuario struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username       string    `gorm:"uniqueIndex;not null"`
	NombreCompleto string    `gorm:"not null"`
	Email          string    `gorm:"uniqueIndex;not null"`
	PasswordHash   string    `gorm:"not null"`
	Rol            string    `gorm:"type:varchar(20);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Usuario) TableName() string { return "usuarios" }
