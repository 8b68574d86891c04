package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/worker"
)

// SeparadorCambios separates the free-text details of an audit entry from the
// JSON before/after delta.
const SeparadorCambios = "\n--- cambios ---\n"

type AuditoriaService interface {
	// Registrar never fails: the entry is queued, written directly when the
	// queue is down, or logged when both fail.
	Registrar(ctx context.Context, actor Actor, accion, entidad, entidadID, detalles string)
	Listar(ctx context.Context, filter dto.AuditoriaFilter) (*dto.AuditoriaListResponse, error)
}

type auditoriaService struct {
	repo  repository.AuditoriaRepository
	queue Encolador
	now   func() time.Time
}

func NewAuditoriaService(repo repository.AuditoriaRepository, queue Encolador) AuditoriaService {
	return &auditoriaService{repo: repo, queue: queue, now: time.Now}
}

func (s *auditoriaService) Registrar(ctx context.Context, actor Actor, accion, entidad, entidadID, detalles string) {
	entry := worker.AuditoriaPayload{
		UsuarioID:     actor.idPtr(),
		UsuarioNombre: actor.Nombre(),
		Accion:        accion,
		Entidad:       entidad,
		EntidadID:     entidadID,
		Detalles:      detalles,
		CreatedAt:     s.now().UTC(),
	}
	if s.queue != nil {
		err := s.queue.EnqueueAuditoria(ctx, entry)
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("accion", accion).Msg("auditoria: enqueue failed, writing directly")
	}
	if s.repo == nil {
		return
	}
	if err := s.repo.Create(ctx, entry.Modelo()); err != nil {
		log.Warn().Err(err).Str("accion", accion).Str("entidad", entidad).Msg("auditoria: entry lost")
	}
}

func (s *auditoriaService) Listar(ctx context.Context, filter dto.AuditoriaFilter) (*dto.AuditoriaListResponse, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.AuditoriaResponse, len(rows))
	for i, a := range rows {
		texto, cambios := SepararCambios(a.Detalles)
		data[i] = dto.AuditoriaResponse{
			ID:            a.ID.String(),
			UsuarioID:     uuidPtrString(a.UsuarioID),
			UsuarioNombre: a.UsuarioNombre,
			Accion:        a.Accion,
			Entidad:       a.Entidad,
			EntidadID:     a.EntidadID,
			Detalles:      texto,
			Cambios:       cambios,
			CreatedAt:     a.CreatedAt,
		}
	}
	return &dto.AuditoriaListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPaginas(total, filter.Limit),
	}, nil
}

// ConCambios appends the before/after delta to details. A delta that cannot
// be encoded is dropped.
func ConCambios(detalles string, antes, despues any) string {
	delta, err := json.Marshal(map[string]any{"antes": antes, "despues": despues})
	if err != nil {
		return detalles
	}
	return detalles + SeparadorCambios + string(delta)
}

// SepararCambios is the inverse of ConCambios. Invalid JSON after the
// separator is kept as text.
func SepararCambios(detalles string) (string, json.RawMessage) {
	texto, delta, ok := strings.Cut(detalles, SeparadorCambios)
	if !ok || !json.Valid([]byte(delta)) {
		return detalles, nil
	}
	return texto, json.RawMessage(delta)
}

// auditar is nil-safe sugar for services that may run without an auditor.
func auditar(ctx context.Context, a AuditoriaService, actor Actor, accion, entidad, entidadID, detalles string) {
	if a == nil {
		return
	}
	a.Registrar(ctx, actor, accion, entidad, entidadID, detalles)
}
