package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"example.com/inventory-assistant/backend/internal/assistant"
	"example.com/inventory-assistant/backend/internal/auth"
	"example.com/inventory-assistant/backend/internal/models"
)

type fakeStore struct {
	member      bool
	memberErr   error
	items       []models.InventoryItem
	products    []models.Product
	searchErr   error
	searchTerms []string
	searches    int
}

func (s *fakeStore) IsMember(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return s.member, s.memberErr
}

func (s *fakeStore) SearchItems(_ context.Context, _ uuid.UUID, terms []string, _ int) ([]models.InventoryItem, error) {
	s.searches++
	s.searchTerms = terms
	return s.items, s.searchErr
}

func (s *fakeStore) SearchProducts(context.Context, uuid.UUID, []string, int) ([]models.Product, error) {
	return s.products, nil
}

var (
	testHousehold = uuid.MustParse("6f1c1a52-3f59-4b7a-9c55-5b1f0f1f3a01")
	testNow       = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
)

func newTestEngine(store Store) *Engine {
	e := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.now = func() time.Time { return testNow }
	return e
}

func signedIn() context.Context {
	return auth.WithSession(context.Background(), auth.Session{UserID: uuid.New(), AccessToken: "token"})
}

func strPtr(value string) *string { return &value }

// TestEngineValidation проверяет коды ошибок до обращения к данным.
func TestEngineValidation(t *testing.T) {
	store := &fakeStore{member: true}
	e := newTestEngine(store)

	cases := []struct {
		name      string
		ctx       context.Context
		household string
		question  string
		want      assistant.ErrorCode
	}{
		{name: "empty question", ctx: signedIn(), household: testHousehold.String(), question: "   ", want: assistant.CodeInvalidInput},
		{name: "long question", ctx: signedIn(), household: testHousehold.String(), question: strings.Repeat("a", 501), want: assistant.CodeInvalidInput},
		{name: "bad household", ctx: signedIn(), household: "h1", question: "milk?", want: assistant.CodeInvalidInput},
		{name: "anonymous", ctx: context.Background(), household: testHousehold.String(), question: "milk?", want: assistant.CodeUnauthenticated},
	}

	for _, tc := range cases {
		result := e.Ask(tc.ctx, tc.household, assistant.Input{Question: tc.question})
		if result.ErrorCode() != tc.want {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.want, result.ErrorCode())
		}
	}
	if store.searches != 0 {
		t.Fatalf("expected no searches, got %d", store.searches)
	}
}

// TestEngineMembership проверяет запрет и ошибку чтения членства.
func TestEngineMembership(t *testing.T) {
	result := newTestEngine(&fakeStore{member: false}).Ask(signedIn(), testHousehold.String(), assistant.Input{Question: "milk?"})
	if result.ErrorCode() != assistant.CodeForbiddenHousehold {
		t.Fatalf("expected forbidden_household, got %v", result.ErrorCode())
	}

	result = newTestEngine(&fakeStore{memberErr: errors.New("db down")}).Ask(signedIn(), testHousehold.String(), assistant.Input{Question: "milk?"})
	if result.ErrorCode() != assistant.CodeFetchFailed {
		t.Fatalf("expected fetch_failed, got %v", result.ErrorCode())
	}
}

// TestEngineSearchFailure проверяет ошибку поиска.
func TestEngineSearchFailure(t *testing.T) {
	store := &fakeStore{member: true, searchErr: context.DeadlineExceeded}
	result := newTestEngine(store).Ask(signedIn(), testHousehold.String(), assistant.Input{Question: "Do I have milk?"})
	if result.ErrorCode() != assistant.CodeFetchFailed {
		t.Fatalf("expected fetch_failed, got %v", result.ErrorCode())
	}
}

// TestEngineAnswerWithCitations проверяет цитаты и подсказки по найденным позициям.
func TestEngineAnswerWithCitations(t *testing.T) {
	itemID := uuid.New()
	productID := uuid.New()
	locationID := uuid.New()
	expiry := testNow.Add(3 * 24 * time.Hour)
	minimum := 2.0

	store := &fakeStore{
		member: true,
		items: []models.InventoryItem{{
			ID:          itemID,
			Name:        "Whole milk",
			Quantity:    1,
			Unit:        strPtr("l"),
			MinQuantity: &minimum,
			LocationID:  &locationID,
			ExpiryDate:  &expiry,
		}},
		products: []models.Product{{ID: productID, Name: "Milk", TotalQuantity: 1, Unit: strPtr("l")}},
	}

	result := newTestEngine(store).Ask(signedIn(), testHousehold.String(), assistant.Input{Question: "Do I have milk?"})

	answer, ok := result.Answer()
	if !ok {
		t.Fatalf("expected success, got %v", result.ErrorCode())
	}
	if !reflect.DeepEqual(store.searchTerms, []string{"milk"}) {
		t.Fatalf("unexpected search terms %v", store.searchTerms)
	}
	if answer.Confidence != assistant.ConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", answer.Confidence)
	}
	if len(answer.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(answer.Citations))
	}

	item := answer.Citations[0]
	if item.EntityKind != assistant.EntityKindItem || item.EntityID != itemID.String() {
		t.Fatalf("unexpected item citation %+v", item)
	}
	if item.LocationID == nil || *item.LocationID != locationID.String() {
		t.Fatalf("unexpected location %v", item.LocationID)
	}
	if item.ExpiryDate == nil || item.ExpiryDate.String() != "2026-10-20" {
		t.Fatalf("unexpected expiry %v", item.ExpiryDate)
	}
	if answer.Citations[1].EntityKind != assistant.EntityKindProduct {
		t.Fatalf("expected product citation, got %+v", answer.Citations[1])
	}

	kinds := make([]assistant.SuggestionKind, 0, len(answer.Suggestions))
	for _, suggestion := range answer.Suggestions {
		if suggestion.ItemID != itemID.String() {
			t.Fatalf("unexpected suggestion item %s", suggestion.ItemID)
		}
		kinds = append(kinds, suggestion.Kind)
	}
	if !reflect.DeepEqual(kinds, []assistant.SuggestionKind{assistant.SuggestionRestock, assistant.SuggestionReminder}) {
		t.Fatalf("unexpected suggestions %v", kinds)
	}
	if !strings.Contains(answer.Answer, "Whole milk (1 l)") {
		t.Fatalf("unexpected answer %q", answer.Answer)
	}
}

// TestEngineNothingFound проверяет уточняющий вопрос при пустом результате.
func TestEngineNothingFound(t *testing.T) {
	result := newTestEngine(&fakeStore{member: true}).Ask(signedIn(), testHousehold.String(), assistant.Input{Question: "Any saffron?"})

	answer, ok := result.Answer()
	if !ok {
		t.Fatal("expected success")
	}
	if answer.Confidence != assistant.ConfidenceLow || answer.ClarifyingQuestion == nil {
		t.Fatalf("expected low confidence with clarifying question, got %+v", answer)
	}
	if len(answer.Citations) != 0 || answer.Citations == nil {
		t.Fatalf("expected empty citations, got %v", answer.Citations)
	}
}

// TestExtractTerms проверяет выделение ключевых слов.
func TestExtractTerms(t *testing.T) {
	got := extractTerms("Do I have AA batteries, or any batteries left in the garage?")
	want := []string{"batteries", "garage"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if terms := extractTerms("is it ok?"); len(terms) != 0 {
		t.Fatalf("expected no terms, got %v", terms)
	}
}
