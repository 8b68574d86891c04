package dto

import (
	"encoding/json"
	"time"
)

type AuditoriaFilter struct {
	Accion  string `form:"accion"`
	Entidad string `form:"entidad"`
	Usuario string `form:"usuario"`
	Desde   string `form:"desde"`
	Hasta   string `form:"hasta"`
	Page    int    `form:"page,default=1"   validate:"min=1"`
	Limit   int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// AuditoriaResponse splits the stored details into the human text and the
// before/after delta, when one was recorded.
type AuditoriaResponse struct {
	ID            string          `json:"id"`
	UsuarioID     *string         `json:"usuario_id"`
	UsuarioNombre string          `json:"usuario_nombre"`
	Accion        string          `json:"accion"`
	Entidad       string          `json:"entidad"`
	EntidadID     string          `json:"entidad_id"`
	Detalles      string          `json:"detalles"`
	Cambios       json.RawMessage `json:"cambios,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type AuditoriaListResponse struct {
	Data       []AuditoriaResponse `json:"data"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	TotalPages int                 `json:"total_pages"`
}
