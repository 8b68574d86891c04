package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/borrador"
)

const prefijoBorrador = "borrador:"

// BorradorStore persists sale drafts between requests.
type BorradorStore interface {
	Obtener(ctx context.Context, id string) (*borrador.Borrador, error)
	Guardar(ctx context.Context, b *borrador.Borrador) error
	Eliminar(ctx context.Context, id string) error
}

type redisBorradorStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBorradorStore(rdb *redis.Client, ttl time.Duration) BorradorStore {
	return &redisBorradorStore{rdb: rdb, ttl: ttl}
}

func (s *redisBorradorStore) Obtener(ctx context.Context, id string) (*borrador.Borrador, error) {
	data, err := s.rdb.Get(ctx, prefijoBorrador+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, conMensaje(ErrNoEncontrado, "Borrador no encontrado o expirado")
	}
	if err != nil {
		return nil, err
	}
	var b borrador.Borrador
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Guardar refreshes the TTL on every write.
func (s *redisBorradorStore) Guardar(ctx context.Context, b *borrador.Borrador) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, prefijoBorrador+b.ID, data, s.ttl).Err()
}

func (s *redisBorradorStore) Eliminar(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, prefijoBorrador+id).Err()
}
