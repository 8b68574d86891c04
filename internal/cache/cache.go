// Package cache keeps read-mostly collections in redis under versioned
// namespaces. A write bumps the version of every collection it touches, which
// orphans the old entries and notifies live clients over SSE.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/sse"
)

// Collection names shared by services, the invalidation feed and the UI.
const (
	ColProductos   = "productos"
	ColCategorias  = "categorias"
	ColProveedores = "proveedores"
	ColClientes    = "clientes"
	ColVentas      = "ventas"
	ColMovimientos = "movimientos"
	ColUsuarios    = "usuarios"
	ColAuditoria   = "auditoria"
	ColDashboard   = "dashboard"
)

const EventoInvalidacion = "invalidacion"

// Clave is an entry key resolved against the collection version current at
// lookup time. The zero value is never stored.
type Clave string

// Store is the collection cache. Get and Set never fail from the caller's
// point of view: redis errors are logged and treated as a miss.
//
// Set takes the Clave returned by the Get that missed, so a value loaded
// before an invalidation lands under the old version and is never served.
type Store interface {
	Get(ctx context.Context, col, key string, dst any) (Clave, bool)
	Set(ctx context.Context, k Clave, v any)
	Invalidar(ctx context.Context, cols ...string)
}

// Leer is a read-through helper: cached value when present, otherwise
// cargar's result, stored for the next caller.
func Leer[T any](ctx context.Context, s Store, col, key string, cargar func() (T, error)) (T, error) {
	var v T
	k, ok := s.Get(ctx, col, key, &v)
	if ok {
		return v, nil
	}
	v, err := cargar()
	if err != nil {
		return v, err
	}
	s.Set(ctx, k, v)
	return v, nil
}

type invalidacion struct {
	Colecciones []string `json:"colecciones"`
}

func notificar(hub *sse.Hub, cols []string) {
	if hub == nil || len(cols) == 0 {
		return
	}
	data, _ := json.Marshal(invalidacion{Colecciones: cols})
	hub.Broadcast(sse.Event{EventType: EventoInvalidacion, Data: string(data)})
}

// ── Redis store ──────────────────────────────────────────────────────────────

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
	hub *sse.Hub
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, hub *sse.Hub) Store {
	return &redisStore{rdb: rdb, ttl: ttl, hub: hub}
}

func claveVersion(col string) string { return "cache:ver:" + col }

func (s *redisStore) clave(ctx context.Context, col, key string) (Clave, error) {
	ver, err := s.rdb.Get(ctx, claveVersion(col)).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return Clave(fmt.Sprintf("cache:%s:v%d:%s", col, ver, key)), nil
}

func (s *redisStore) Get(ctx context.Context, col, key string, dst any) (Clave, bool) {
	k, err := s.clave(ctx, col, key)
	if err != nil {
		log.Warn().Err(err).Str("col", col).Msg("cache: version lookup failed")
		return "", false
	}
	raw, err := s.rdb.Get(ctx, string(k)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", string(k)).Msg("cache: get failed")
		}
		return k, false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Warn().Err(err).Str("key", string(k)).Msg("cache: corrupt entry")
		return k, false
	}
	return k, true
}

func (s *redisStore) Set(ctx context.Context, k Clave, v any) {
	if k == "" {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", string(k)).Msg("cache: marshal failed")
		return
	}
	if err := s.rdb.Set(ctx, string(k), raw, s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", string(k)).Msg("cache: set failed")
	}
}

func (s *redisStore) Invalidar(ctx context.Context, cols ...string) {
	if len(cols) == 0 {
		return
	}
	pipe := s.rdb.TxPipeline()
	for _, col := range cols {
		pipe.Incr(ctx, claveVersion(col))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Strs("cols", cols).Msg("cache: invalidation failed")
	}
	notificar(s.hub, cols)
}

// ── No-op store ──────────────────────────────────────────────────────────────

type nopStore struct{ hub *sse.Hub }

// NewNopStore never caches but still pushes invalidation events, so clients
// refresh the same way with CACHE_ENABLED=false.
func NewNopStore(hub *sse.Hub) Store { return nopStore{hub: hub} }

func (nopStore) Get(context.Context, string, string, any) (Clave, bool) { return "", false }
func (nopStore) Set(context.Context, Clave, any)                        {}
func (s nopStore) Invalidar(_ context.Context, cols ...string)          { notificar(s.hub, cols) }
