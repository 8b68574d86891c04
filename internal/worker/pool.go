package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAuditoria   = "jobs:auditoria"
	QueueAlertaStock = "jobs:alerta_stock"

	JobAuditoria   = "auditoria"
	JobAlertaStock = "alerta_stock"

	// MaxAttempts is the number of tries before a job is dead-lettered.
	MaxAttempts = 3

	// pausaTrasError is how long a worker waits after BRPOP fails for a
	// reason other than an empty queue, e.g. redis being unreachable.
	pausaTrasError = time.Second
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueAuditoria pushes an audit entry to be persisted by the pool.
func (d *Dispatcher) EnqueueAuditoria(ctx context.Context, entry AuditoriaPayload) error {
	return d.enqueue(ctx, QueueAuditoria, JobAuditoria, entry)
}

// EnqueueAlertaStock pushes a low-stock notification job.
func (d *Dispatcher) EnqueueAlertaStock(ctx context.Context, alerta AlertaStockPayload) error {
	return d.enqueue(ctx, QueueAlertaStock, JobAlertaStock, alerta)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes both queues and routes each job to its handler by type.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	pausa    time.Duration
}

func NewPool(rdb *redis.Client, handlers map[string]Handler) *Pool {
	return &Pool{rdb: rdb, handlers: handlers, pausa: pausaTrasError}
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, so idle
// workers cost nothing; they exit when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	queues := []string{QueueAuditoria, QueueAlertaStock}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("worker: brpop failed")
					p.esperar(ctx)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.apply(ctx, result[0], p.handle(ctx, result[0], result[1]))
		}
	}
}

func (p *Pool) esperar(ctx context.Context) {
	t := time.NewTimer(p.pausa)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// outcome is what should happen to a job after one processing attempt.
type outcome struct {
	retry  *Job
	dlq    *Job
	reason string
}

// handle runs one attempt and decides between done, retry and dead-letter.
func (p *Pool) handle(ctx context.Context, queue, raw string) outcome {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return outcome{dlq: &Job{Type: "desconocido", Payload: json.RawMessage(fmt.Sprintf("%q", raw))}, reason: "payload ilegible"}
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		return outcome{dlq: &job, reason: "sin handler para " + job.Type}
	}

	err := h.Process(ctx, job.Payload)
	if err == nil {
		return outcome{}
	}
	job.Attempts++
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed")
	if job.Attempts >= MaxAttempts {
		return outcome{dlq: &job, reason: err.Error()}
	}
	return outcome{retry: &job}
}

func (p *Pool) apply(ctx context.Context, queue string, o outcome) {
	switch {
	case o.retry != nil:
		encoded, err := json.Marshal(o.retry)
		if err == nil {
			err = p.rdb.LPush(ctx, queue, encoded).Err()
		}
		if err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("failed to requeue job")
		}
	case o.dlq != nil:
		SendToDLQ(ctx, p.rdb, queue, o.dlq.Type, o.dlq.Payload, o.reason, o.dlq.Attempts)
	}
}
