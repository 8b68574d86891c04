package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	prefijoSesion = "sesion:"
	claveSetup    = "setup:completado"
)

// Sesion is the server-side record behind a JWT; its key is the token jti.
type Sesion struct {
	ID        string    `json:"id"`
	UsuarioID string    `json:"usuario_id"`
	Recordar  bool      `json:"recordar"`
	CreadaEn  time.Time `json:"creada_en"`
}

// SesionStore keeps sessions and the one-shot setup flag.
type SesionStore interface {
	Guardar(ctx context.Context, s Sesion, ttl time.Duration) error
	// Obtener returns ErrSesionInvalida when the session does not exist.
	Obtener(ctx context.Context, id string) (*Sesion, error)
	Eliminar(ctx context.Context, id string) error
	SetupCompletado(ctx context.Context) (bool, error)
	MarcarSetup(ctx context.Context) error
}

type redisSesionStore struct{ rdb *redis.Client }

func NewSesionStore(rdb *redis.Client) SesionStore { return &redisSesionStore{rdb: rdb} }

func (s *redisSesionStore) Guardar(ctx context.Context, ses Sesion, ttl time.Duration) error {
	data, err := json.Marshal(ses)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, prefijoSesion+ses.ID, data, ttl).Err()
}

func (s *redisSesionStore) Obtener(ctx context.Context, id string) (*Sesion, error) {
	data, err := s.rdb.Get(ctx, prefijoSesion+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSesionInvalida
	}
	if err != nil {
		return nil, err
	}
	var ses Sesion
	if err := json.Unmarshal(data, &ses); err != nil {
		return nil, err
	}
	return &ses, nil
}

func (s *redisSesionStore) Eliminar(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, prefijoSesion+id).Err()
}

func (s *redisSesionStore) SetupCompletado(ctx context.Context) (bool, error) {
	n, err := s.rdb.Exists(ctx, claveSetup).Result()
	return n > 0, err
}

func (s *redisSesionStore) MarcarSetup(ctx context.Context) error {
	return s.rdb.Set(ctx, claveSetup, time.Now().UTC().Format(time.RFC3339), 0).Err()
}
