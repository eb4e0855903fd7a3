package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/metrics"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/mocks"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/sanitize"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

type failingSink struct {
	err   error
	panic bool
	calls int
}

func (s *failingSink) Name() string { return "failing" }

func (s *failingSink) Write(context.Context, *models.AuditEvent) error {
	s.calls++
	if s.panic {
		panic("sink exploded")
	}
	return s.err
}

func sampleEvent() models.AuditEvent {
	return models.AuditEvent{
		ActorID:    7,
		Action:     "article.update",
		EntityType: "article",
		EntityID:   42,
		Outcome:    models.OutcomeSuccess,
		Metadata: map[string]any{
			"title":    "Hello",
			"password": "hunter2",
		},
	}
}

func TestRecorder_FillsIDAndRedacts(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	rec := NewRecorder(zerolog.Nop(), nil, NewStoreSink(repo))

	rec.Record(context.Background(), sampleEvent())

	events := repo.Snapshot()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].CreatedAt.IsZero())
	assert.Equal(t, "Hello", events[0].Metadata["title"])
	assert.Equal(t, sanitize.Redacted, events[0].Metadata["password"])
}

func TestRecorder_SinkFailureIsSwallowed(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	repo := mocks.NewMockAuditRepository()
	broken := &failingSink{err: errors.New("disk full")}
	panicky := &failingSink{panic: true}

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	rec := NewRecorder(log, m, broken, panicky, NewStoreSink(repo))

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), sampleEvent())
	})

	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, panicky.calls)
	assert.Len(t, repo.Snapshot(), 1, "later sinks still run")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuditSinkFailures.WithLabelValues("failing")))
	assert.Contains(t, buf.String(), "Failed to write audit event")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestRecorder_StoreErrorDoesNotPropagate(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	repo.Err = errors.New("connection refused")
	rec := NewRecorder(zerolog.Nop(), nil, NewStoreSink(repo))

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), sampleEvent())
	})
	assert.Empty(t, repo.Snapshot())
}

func TestLogSink_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))
	ev := sampleEvent()
	ev.ID = "evt-1"

	require.NoError(t, sink.Write(context.Background(), &ev))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["message"])
	assert.Equal(t, "article.update", line["action"])
	assert.Equal(t, float64(42), line["entity_id"])
	assert.Equal(t, "success", line["outcome"])
}

func TestNATSSink_Publishes(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("cms.audit", ch)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	rec := NewRecorder(zerolog.Nop(), nil, NewNATSSink(nc, "cms.audit"))
	rec.Record(context.Background(), sampleEvent())

	select {
	case msg := <-ch:
		var ev models.AuditEvent
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.Equal(t, "article.update", ev.Action)
		assert.Equal(t, int64(42), ev.EntityID)
		assert.Equal(t, sanitize.Redacted, ev.Metadata["password"])
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for audit event")
	}
}

func TestNATSSink_ClosedConnectionIsCounted(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	nc.Close()

	m := metrics.New(prometheus.NewRegistry())
	rec := NewRecorder(zerolog.Nop(), m, NewNATSSink(nc, "cms.audit"))
	rec.Record(context.Background(), sampleEvent())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditSinkFailures.WithLabelValues("nats")))
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Record(context.Background(), sampleEvent())
	})
}
