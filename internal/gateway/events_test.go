package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"example.com/inventory-assistant/backend/internal/assistant"
)

// TestLogSinkFields проверяет набор полей структурированной записи.
func TestLogSinkFields(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	sink.Record(context.Background(), Event{
		Name:        EventFallback,
		Timestamp:   time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
		Outcome:     OutcomeFailure,
		HouseholdID: "h1",
		ErrorCode:   assistant.CodeFetchFailed,
	})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line, got %q", buf.String())
	}

	if line["event"] != EventFallback || line["outcome"] != "failure" || line["household_id"] != "h1" || line["error_code"] != "fetch_failed" {
		t.Fatalf("unexpected log line %v", line)
	}
	if line["level"] != "WARN" {
		t.Fatalf("expected WARN for failure, got %v", line["level"])
	}
	if _, ok := line["reason"]; ok {
		t.Fatal("empty reason must be omitted")
	}
}

// TestMultiSink проверяет рассылку события во все sink'и.
func TestMultiSink(t *testing.T) {
	first, second := &recordingSink{}, &recordingSink{}
	MultiSink{first, nil, second}.Record(context.Background(), Event{Name: EventRemote})

	if len(first.events) != 1 || len(second.events) != 1 {
		t.Fatalf("expected both sinks to receive the event, got %d and %d", len(first.events), len(second.events))
	}
}
