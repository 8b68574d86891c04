package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions.
const (
	AccionCrear           = "create"
	AccionEditar          = "edit"
	AccionEliminar        = "delete"
	AccionVenta           = "sale"
	AccionMovimiento      = "movement"
	AccionLogin           = "login"
	AccionLoginFallido    = "login_failed"
	AccionSolicitudAcceso = "access_request"
	AccionCambioPassword  = "password_change"
)

// Auditoria is an append-only log entry. Detalles is free text and may carry a
// JSON before/after delta after the "--- cambios ---" sentinel line.
type Auditoria struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID     *uuid.UUID `gorm:"type:uuid;index"`
	UsuarioNombre string
	Accion        string `gorm:"type:varchar(20);index;not null"`
	Entidad       string `gorm:"index"`
	EntidadID     string
	Detalles      string
	CreatedAt     time.Time `gorm:"index"`
}

func (Auditoria) TableName() string { return "auditoria" }
