package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
)

// AuditoriaPayload is the queued form of an audit entry. CreatedAt is the
// time of the action, not of the insert.
type AuditoriaPayload struct {
	UsuarioID     *uuid.UUID `json:"usuario_id,omitempty"`
	UsuarioNombre string     `json:"usuario_nombre"`
	Accion        string     `json:"accion"`
	Entidad       string     `json:"entidad"`
	EntidadID     string     `json:"entidad_id"`
	Detalles      string     `json:"detalles"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Modelo converts the payload into the row written to auditoria.
func (p AuditoriaPayload) Modelo() *model.Auditoria {
	return &model.Auditoria{
		UsuarioID:     p.UsuarioID,
		UsuarioNombre: p.UsuarioNombre,
		Accion:        p.Accion,
		Entidad:       p.Entidad,
		EntidadID:     p.EntidadID,
		Detalles:      p.Detalles,
		CreatedAt:     p.CreatedAt,
	}
}

// AuditoriaWorker persists queued audit entries.
type AuditoriaWorker struct {
	repo repository.AuditoriaRepository
}

func NewAuditoriaWorker(repo repository.AuditoriaRepository) *AuditoriaWorker {
	return &AuditoriaWorker{repo: repo}
}

func (w *AuditoriaWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p AuditoriaPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("auditoria_worker: invalid payload: %w", err)
	}
	return w.repo.Create(ctx, p.Modelo())
}
