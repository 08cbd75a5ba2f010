package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/newsrag/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ErrInvalidInput is returned when the query or session id is empty.
var ErrInvalidInput = errors.New("query and session id are required")

// Pipeline stages reported by StageError.
const (
	StageEmbed    = "embed"
	StageRetrieve = "retrieve"
	StageGenerate = "generate"
	StageHistory  = "history"
)

// StageError reports which upstream call failed during a turn.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("chat %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Searcher interface {
	Search(ctx context.Context, vector []float32) (string, error)
}

type Generator interface {
	Answer(ctx context.Context, query, context string) (string, error)
}

// History is the session store as seen by the chat service.
type History interface {
	Append(ctx context.Context, sessionID string, turn models.Turn) error
	Read(ctx context.Context, sessionID string) ([]models.Turn, error)
	Clear(ctx context.Context, sessionID string) error
}

// Options tunes a Service.
type Options struct {
	// HistoryBestEffort returns the answer even when recording the turn fails.
	HistoryBestEffort bool
	Meter             otelmetric.Meter
	Tracer            trace.Tracer
}

// Service answers chat turns from retrieved news context.
type Service struct {
	embedder  Embedder
	searcher  Searcher
	generator Generator
	history   History
	opts      Options
	tracer    trace.Tracer

	turnCounter  otelmetric.Int64Counter
	stageLatency otelmetric.Float64Histogram
}

func NewService(embedder Embedder, searcher Searcher, generator Generator, history History, opts Options) *Service {
	s := &Service{
		embedder:  embedder,
		searcher:  searcher,
		generator: generator,
		history:   history,
		opts:      opts,
		tracer:    opts.Tracer,
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("chat")
	}
	if opts.Meter != nil {
		var err error
		s.turnCounter, err = opts.Meter.Int64Counter("chat_turns_total")
		if err != nil {
			slog.Warn("chat_metric_init_failed", slog.String("metric", "chat_turns_total"), slog.Any("error", err))
		}
		s.stageLatency, err = opts.Meter.Float64Histogram("chat_stage_seconds")
		if err != nil {
			slog.Warn("chat_metric_init_failed", slog.String("metric", "chat_stage_seconds"), slog.Any("error", err))
		}
	}
	return s
}

// NewSession returns a fresh session id. Nothing is stored until the first turn.
func (s *Service) NewSession() string {
	return uuid.NewString()
}

// Turn answers query for sessionID and records the exchange in the session history.
func (s *Service) Turn(ctx context.Context, sessionID, query string) (answer string, err error) {
	if strings.TrimSpace(query) == "" || strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidInput
	}

	ctx, span := s.tracer.Start(ctx, "chat.turn")
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			var se *StageError
			if errors.As(err, &se) {
				outcome = se.Stage
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		if s.turnCounter != nil {
			s.turnCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("outcome", outcome)))
		}
		span.End()
	}()

	var vectors [][]float32
	err = s.stage(ctx, StageEmbed, func(ctx context.Context) error {
		var err error
		vectors, err = s.embedder.Embed(ctx, []string{query})
		if err == nil && len(vectors) != 1 {
			err = fmt.Errorf("expected 1 vector, got %d", len(vectors))
		}
		return err
	})
	if err != nil {
		return "", err
	}

	var articles string
	err = s.stage(ctx, StageRetrieve, func(ctx context.Context) error {
		var err error
		articles, err = s.searcher.Search(ctx, vectors[0])
		return err
	})
	if err != nil {
		return "", err
	}

	err = s.stage(ctx, StageGenerate, func(ctx context.Context) error {
		var err error
		answer, err = s.generator.Answer(ctx, query, articles)
		return err
	})
	if err != nil {
		return "", err
	}

	err = s.stage(ctx, StageHistory, func(ctx context.Context) error {
		return s.history.Append(ctx, sessionID, models.Turn{User: query, Bot: answer})
	})
	if err != nil {
		if !s.opts.HistoryBestEffort {
			return "", err
		}
		slog.Error("chat_history_append_failed",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
		err = nil
	}
	return answer, nil
}

func (s *Service) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "chat."+name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	if s.stageLatency != nil {
		s.stageLatency.Record(ctx, time.Since(start).Seconds(), otelmetric.WithAttributes(attribute.String("stage", name)))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name)
		return &StageError{Stage: name, Err: err}
	}
	return nil
}

// History returns the session's turns oldest-first.
func (s *Service) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidInput
	}
	return s.history.Read(ctx, sessionID)
}

// Clear deletes the session's history.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidInput
	}
	return s.history.Clear(ctx, sessionID)
}
