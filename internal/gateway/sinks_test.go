package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"example.com/inventory-assistant/backend/internal/assistant"
	"example.com/inventory-assistant/backend/internal/models"
	"example.com/inventory-assistant/backend/internal/notifications"
)

type fakeEventStore struct {
	saved  []models.AssistantEvent
	ctxErr error
	err    error
}

func (s *fakeEventStore) Save(ctx context.Context, event models.AssistantEvent) error {
	s.ctxErr = ctx.Err()
	s.saved = append(s.saved, event)
	return s.err
}

// TestAuditSinkMapsEvent проверяет преобразование события в запись журнала.
func TestAuditSinkMapsEvent(t *testing.T) {
	store := &fakeEventStore{}
	sink := NewAuditSink(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	sink.Record(ctx, Event{
		Name:         EventFallback,
		Timestamp:    at,
		Outcome:      OutcomeFailure,
		HouseholdID:  "h1",
		ErrorCode:    assistant.CodeForbiddenHousehold,
		EstimatedUSD: 0.001,
	})

	if len(store.saved) != 1 {
		t.Fatalf("expected 1 saved event, got %d", len(store.saved))
	}
	if store.ctxErr != nil {
		t.Fatalf("expected detached context, got %v", store.ctxErr)
	}

	saved := store.saved[0]
	if saved.Event != EventFallback || saved.Outcome != "failure" || saved.HouseholdID != "h1" || !saved.CreatedAt.Equal(at) {
		t.Fatalf("unexpected record %+v", saved)
	}
	if saved.ErrorCode == nil || *saved.ErrorCode != "forbidden_household" {
		t.Fatalf("unexpected error code %v", saved.ErrorCode)
	}
	if saved.Reason != nil {
		t.Fatalf("expected nil reason, got %q", *saved.Reason)
	}
	if saved.EstimatedUSD != 0.001 {
		t.Fatalf("unexpected estimate %v", saved.EstimatedUSD)
	}
}

// TestAuditSinkLogsFailure проверяет, что ошибка записи только логируется.
func TestAuditSinkLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	store := &fakeEventStore{err: errors.New("insert failed")}
	sink := NewAuditSink(store, slog.New(slog.NewJSONHandler(&buf, nil)))

	sink.Record(context.Background(), Event{Name: EventRemote, Outcome: OutcomeSuccess, HouseholdID: "h1"})

	if !strings.Contains(buf.String(), "insert failed") {
		t.Fatalf("expected warning in log, got %q", buf.String())
	}
}

// TestBroadcastSinkPublishesToHousehold проверяет публикацию в топик домохозяйства.
func TestBroadcastSinkPublishesToHousehold(t *testing.T) {
	hub := notifications.NewHub()
	ch, unsubscribe := hub.Subscribe("h1")
	defer unsubscribe()

	sink := NewBroadcastSink(hub)
	sink.Record(context.Background(), Event{Name: EventRemote, Outcome: OutcomeSuccess, HouseholdID: "h1"})
	sink.Record(context.Background(), Event{Name: EventRemote, Outcome: OutcomeSuccess})

	select {
	case published := <-ch:
		if published.Type != EventRemote {
			t.Fatalf("unexpected type %s", published.Type)
		}
		data, ok := published.Data.(Event)
		if !ok || data.HouseholdID != "h1" {
			t.Fatalf("unexpected data %+v", published.Data)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event to be published")
	}

	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra event %+v", extra)
	default:
	}
}

// TestBroadcastSinkOmitsReason проверяет, что причина отказа не уходит подписчикам, а журнал ее сохраняет.
func TestBroadcastSinkOmitsReason(t *testing.T) {
	hub := notifications.NewHub()
	ch, unsubscribe := hub.Subscribe("h1")
	defer unsubscribe()

	store := &fakeEventStore{}
	event := Event{
		Name:        EventRemote,
		Outcome:     OutcomeFailure,
		HouseholdID: "h1",
		Reason:      `request failed: Post "http://10.0.0.5:54321/functions/v1/ai_assistant": dial tcp: connection refused`,
	}
	MultiSink{NewBroadcastSink(hub), NewAuditSink(store, nil)}.Record(context.Background(), event)

	select {
	case published := <-ch:
		data, ok := published.Data.(Event)
		if !ok {
			t.Fatalf("unexpected data %+v", published.Data)
		}
		if data.Reason != "" {
			t.Fatalf("expected reason to be dropped, got %q", data.Reason)
		}
		if data.Outcome != OutcomeFailure || data.HouseholdID != "h1" {
			t.Fatalf("unexpected data %+v", data)
		}
		raw, err := json.Marshal(published)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if strings.Contains(string(raw), "10.0.0.5") {
			t.Fatalf("published payload leaks infrastructure details: %s", raw)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event to be published")
	}

	if len(store.saved) != 1 || store.saved[0].Reason == nil || *store.saved[0].Reason != event.Reason {
		t.Fatalf("expected audit record to keep reason, got %+v", store.saved)
	}
}
