package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"example.com/inventory-assistant/backend/internal/models"
	"example.com/inventory-assistant/backend/internal/notifications"
)

const auditTimeout = 3 * time.Second

// EventStore сохраняет события в журнал.
type EventStore interface {
	Save(ctx context.Context, event models.AssistantEvent) error
}

// AuditSink пишет события в журнал assistant_events.
// Ошибка записи логируется и не влияет на ответ вызывающему.
type AuditSink struct {
	store  EventStore
	logger *slog.Logger
}

// NewAuditSink создает sink поверх хранилища событий.
func NewAuditSink(store EventStore, logger *slog.Logger) *AuditSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditSink{store: store, logger: logger}
}

func (s *AuditSink) Record(ctx context.Context, event Event) {
	// Запрос мог быть уже отменен клиентом, а запись в журнал нужна все равно.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := s.store.Save(saveCtx, toAssistantEvent(event)); err != nil {
		s.logger.Warn("failed to save assistant event",
			slog.String("event", event.Name),
			slog.String("household_id", event.HouseholdID),
			slog.String("error", err.Error()),
		)
	}
}

func toAssistantEvent(event Event) models.AssistantEvent {
	record := models.AssistantEvent{
		Event:        event.Name,
		Outcome:      string(event.Outcome),
		HouseholdID:  event.HouseholdID,
		EstimatedUSD: event.EstimatedUSD,
		CreatedAt:    event.Timestamp,
	}
	if event.ErrorCode != "" {
		code := string(event.ErrorCode)
		record.ErrorCode = &code
	}
	if event.Reason != "" {
		reason := event.Reason
		record.Reason = &reason
	}
	return record
}

// Publisher раздает события подписчикам топика.
type Publisher interface {
	Publish(topic string, event notifications.Event)
}

// BroadcastSink публикует события в топик домохозяйства для SSE-подписчиков.
// Топиком служит канонический id домохозяйства. Reason в топик не попадает:
// в нем бывают адреса и тексты ошибок инфраструктуры, он остается в логе и журнале.
type BroadcastSink struct {
	publisher Publisher
}

// NewBroadcastSink создает sink поверх хаба уведомлений.
func NewBroadcastSink(publisher Publisher) *BroadcastSink {
	return &BroadcastSink{publisher: publisher}
}

func (s *BroadcastSink) Record(_ context.Context, event Event) {
	if s.publisher == nil || event.HouseholdID == "" {
		return
	}
	topic := event.HouseholdID
	if id, err := uuid.Parse(topic); err == nil {
		topic = id.String()
	}
	event.Reason = ""
	s.publisher.Publish(topic, notifications.Event{
		Type:      event.Name,
		Timestamp: event.Timestamp,
		Data:      event,
	})
}
