package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type EntityKind string

type Confidence string

type SuggestionKind string

type ErrorCode string

const (
	EntityKindItem    EntityKind = "item"
	EntityKindProduct EntityKind = "product"

	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceRefuse Confidence = "refuse"

	SuggestionReminder SuggestionKind = "reminder"
	SuggestionRestock  SuggestionKind = "restock"

	CodeInvalidInput        ErrorCode = "invalid_input"
	CodeUnauthenticated     ErrorCode = "unauthenticated"
	CodeForbiddenHousehold  ErrorCode = "forbidden_household"
	CodeFetchFailed         ErrorCode = "fetch_failed"
	CodeProviderUnavailable ErrorCode = "provider_unavailable"
	CodeBudgetExceeded      ErrorCode = "budget_exceeded"
	CodeDisabled            ErrorCode = "disabled"
)

// Answerer отвечает на вопрос об инвентаре домохозяйства.
// Реализуют локальный движок ответов и сам шлюз.
type Answerer interface {
	Ask(ctx context.Context, householdID string, input Input) Result
}

type Input struct {
	Question string `json:"question"`
}

type Citation struct {
	EntityKind  EntityKind `json:"entityKind"`
	EntityID    string     `json:"entityId"`
	DisplayName string     `json:"displayName"`
	Quantity    float64    `json:"quantity"`
	Unit        *string    `json:"unit"`
	LocationID  *string    `json:"locationId"`
	ExpiryDate  *Date      `json:"expiryDate"`
}

type Suggestion struct {
	Kind   SuggestionKind `json:"kind"`
	ItemID string         `json:"itemId"`
	Reason string         `json:"reason"`
}

// Date хранит календарную дату без времени (формат YYYY-MM-DD).
type Date struct {
	time.Time
}

// NewDate обрезает время до календарного дня в UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// String возвращает дату в формате YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}

	value = strings.TrimSpace(value)
	if parsed, err := time.Parse(dateLayout, value); err == nil {
		*d = Date{Time: parsed}
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fmt.Errorf("invalid date %q", value)
	}

	*d = NewDate(parsed)
	return nil
}

// Valid сообщает, входит ли код в закрытую таксономию ошибок.
func (c ErrorCode) Valid() bool {
	switch c {
	case CodeInvalidInput, CodeUnauthenticated, CodeForbiddenHousehold, CodeFetchFailed,
		CodeProviderUnavailable, CodeBudgetExceeded, CodeDisabled:
		return true
	default:
		return false
	}
}

func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceRefuse:
		return true
	default:
		return false
	}
}

func (k EntityKind) Valid() bool {
	return k == EntityKindItem || k == EntityKindProduct
}

func (k SuggestionKind) Valid() bool {
	return k == SuggestionReminder || k == SuggestionRestock
}
