package gateway

import (
	"context"
	"log/slog"
	"time"

	"example.com/inventory-assistant/backend/internal/assistant"
)

const (
	EventDenied   = "ai_assistant.denied"
	EventRemote   = "ai_assistant.remote"
	EventFallback = "ai_assistant.fallback"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event описывает исход одного вызова. Текст вопроса и цитаты сюда не попадают.
type Event struct {
	Name         string              `json:"event"`
	Timestamp    time.Time           `json:"timestamp"`
	Outcome      Outcome             `json:"outcome"`
	HouseholdID  string              `json:"household_id"`
	ErrorCode    assistant.ErrorCode `json:"error_code,omitempty"`
	Reason       string              `json:"reason,omitempty"`
	EstimatedUSD float64             `json:"estimated_usd"`
}

type EventSink interface {
	Record(ctx context.Context, event Event)
}

// LogSink пишет события в структурированный лог.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink создает sink поверх slog.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(ctx context.Context, event Event) {
	attrs := []slog.Attr{
		slog.String("event", event.Name),
		slog.Time("timestamp", event.Timestamp),
		slog.String("outcome", string(event.Outcome)),
		slog.String("household_id", event.HouseholdID),
	}

	if event.ErrorCode != "" {
		attrs = append(attrs, slog.String("error_code", string(event.ErrorCode)))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}

	level := slog.LevelInfo
	if event.Outcome == OutcomeFailure {
		level = slog.LevelWarn
	}

	s.logger.LogAttrs(ctx, level, "ai assistant outcome", attrs...)
}

// MultiSink рассылает событие всем вложенным sink'ам по очереди.
type MultiSink []EventSink

func (m MultiSink) Record(ctx context.Context, event Event) {
	for _, sink := range m {
		if sink != nil {
			sink.Record(ctx, event)
		}
	}
}
