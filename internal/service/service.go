package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/worker"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// Actor is the authenticated user a request runs as. The zero value is the
// anonymous actor used by login and setup.
type Actor struct {
	ID             uuid.UUID
	Username       string
	NombreCompleto string
	Rol            string
}

// Nombre is the display name recorded in audit entries and movements.
func (a Actor) Nombre() string {
	if n := strings.TrimSpace(a.NombreCompleto); n != "" {
		return n
	}
	if a.Username != "" {
		return a.Username
	}
	return "Sistema"
}

func (a Actor) idPtr() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}

// Encolador is satisfied by *worker.Dispatcher.
type Encolador interface {
	EnqueueAuditoria(ctx context.Context, entry worker.AuditoriaPayload) error
	EnqueueAlertaStock(ctx context.Context, alerta worker.AlertaStockPayload) error
}

// Publicador is satisfied by *infra.Broker.
type Publicador interface {
	Publicar(ctx context.Context, cola string, evento any) error
}

func totalPaginas(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func parseUUIDs(ids []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
