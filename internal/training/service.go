package training

import (
	"context"
	"log/slog"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/claude/liftlog/internal/training"

// Service binds the recorder, evaluator, advisor and tracker to a store.
// Every method takes the owner id explicitly.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Manager
	tracer  trace.Tracer
	newID   func() string
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records engine counters on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a Service.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		tracer: otel.Tracer(tracerName),
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...trace.SpanStartOption) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "training."+name, attrs...)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// GetDataStats returns aggregate counts for the user's stored data.
func (s *Service) GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error) {
	return s.store.GetDataStats(ctx, userID)
}
