// Package audit fans structured audit events out to independent sinks.
// Recording never fails the caller: sink errors are logged and counted.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/metrics"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/repository"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/sanitize"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Recorder accepts audit events from mutating operations
type Recorder interface {
	Record(ctx context.Context, event models.AuditEvent)
}

// Sink is one destination for audit events
type Sink interface {
	Name() string
	Write(ctx context.Context, event *models.AuditEvent) error
}

type recorder struct {
	sinks   []Sink
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewRecorder returns a Recorder writing to every sink in order
func NewRecorder(log zerolog.Logger, m *metrics.Metrics, sinks ...Sink) Recorder {
	return &recorder{
		sinks:   sinks,
		log:     log.With().Str("component", "audit").Logger(),
		metrics: m,
	}
}

// Record fills the id and timestamp, redacts metadata and hands a copy to
// each sink.
func (r *recorder) Record(ctx context.Context, event models.AuditEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	event.Metadata = sanitize.Map(event.Metadata)

	for _, sink := range r.sinks {
		ev := event
		if err := r.write(ctx, sink, &ev); err != nil {
			r.metrics.AuditSinkFailure(sink.Name())
			r.log.Warn().Err(err).
				Str("sink", sink.Name()).
				Str("action", event.Action).
				Str("event_id", event.ID).
				Msg("Failed to write audit event")
		}
	}
}

func (r *recorder) write(ctx context.Context, sink Sink, event *models.AuditEvent) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sink panic: %v", p)
		}
	}()
	return sink.Write(ctx, event)
}

type nopRecorder struct{}

// Nop discards every event
func Nop() Recorder { return nopRecorder{} }

func (nopRecorder) Record(context.Context, models.AuditEvent) {}

// LogSink writes events as structured log lines
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "audit").Logger()}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Write(_ context.Context, event *models.AuditEvent) error {
	ev := s.log.Info()
	if event.Outcome == models.OutcomeFailure {
		ev = s.log.Warn()
	}
	ev.Str("event_id", event.ID).
		Int64("actor_id", event.ActorID).
		Str("action", event.Action).
		Str("entity_type", event.EntityType).
		Int64("entity_id", event.EntityID).
		Str("outcome", string(event.Outcome))
	if len(event.Metadata) > 0 {
		ev.Interface("metadata", event.Metadata)
	}
	ev.Msg("audit")
	return nil
}

// StoreSink persists events to the audit_logs table
type StoreSink struct {
	repo repository.AuditRepository
}

func NewStoreSink(repo repository.AuditRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Write(ctx context.Context, event *models.AuditEvent) error {
	return s.repo.Insert(ctx, event)
}

// NATSSink publishes each event as JSON on a subject
type NATSSink struct {
	nc      *nats.Conn
	subject string
}

func NewNATSSink(nc *nats.Conn, subject string) *NATSSink {
	return &NATSSink{nc: nc, subject: subject}
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Write(_ context.Context, event *models.AuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := s.nc.Publish(s.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", s.subject, err)
	}
	return nil
}
