package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"example.com/inventory-assistant/backend/internal/assistant"
	"example.com/inventory-assistant/backend/internal/auth"
	"example.com/inventory-assistant/backend/internal/models"
)

const (
	maxQuestionRunes = 500
	maxTerms         = 8
	searchLimit      = 10
	expiryWindow     = 7 * 24 * time.Hour
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "any": {}, "have": {}, "has": {}, "how": {}, "many": {}, "much": {},
	"what": {}, "where": {}, "which": {}, "when": {}, "left": {}, "are": {}, "there": {},
	"some": {}, "our": {}, "your": {}, "for": {}, "with": {}, "still": {}, "does": {}, "did": {},
	"can": {}, "you": {}, "need": {}, "buy": {}, "home": {}, "house": {}, "stock": {},
}

// Store читает инвентарь домохозяйства.
type Store interface {
	IsMember(ctx context.Context, householdID, userID uuid.UUID) (bool, error)
	SearchItems(ctx context.Context, householdID uuid.UUID, terms []string, limit int) ([]models.InventoryItem, error)
	SearchProducts(ctx context.Context, householdID uuid.UUID, terms []string, limit int) ([]models.Product, error)
}

// Engine отвечает на вопросы по данным инвентаря без внешних AI-вызовов.
type Engine struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New создает локальный движок ответов.
func New(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger, now: time.Now}
}

// Ask проверяет вопрос, доступ к домохозяйству и собирает ответ с цитатами и подсказками.
func (e *Engine) Ask(ctx context.Context, householdID string, input assistant.Input) assistant.Result {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return assistant.Failed(assistant.CodeInvalidInput, "question is required")
	}
	if utf8.RuneCountInString(question) > maxQuestionRunes {
		return assistant.Failed(assistant.CodeInvalidInput, fmt.Sprintf("question must be at most %d characters", maxQuestionRunes))
	}

	household, err := uuid.Parse(strings.TrimSpace(householdID))
	if err != nil {
		return assistant.Failed(assistant.CodeInvalidInput, "invalid household id")
	}

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return assistant.Failed(assistant.CodeUnauthenticated, "sign in to use the assistant")
	}

	member, err := e.store.IsMember(ctx, household, userID)
	if err != nil {
		e.logger.Error("household membership check failed", slog.String("household_id", household.String()), slog.String("error", err.Error()))
		return assistant.Failed(assistant.CodeFetchFailed, "could not load household")
	}
	if !member {
		return assistant.Failed(assistant.CodeForbiddenHousehold, "you do not have access to this household")
	}

	terms := extractTerms(question)
	if len(terms) == 0 {
		clarify := "Which item or product are you asking about?"
		return assistant.Answered(assistant.Answer{
			Answer:             "I need a bit more detail to search your inventory.",
			Confidence:         assistant.ConfidenceLow,
			ClarifyingQuestion: &clarify,
		})
	}

	items, err := e.store.SearchItems(ctx, household, terms, searchLimit)
	if err != nil {
		e.logger.Error("inventory item search failed", slog.String("household_id", household.String()), slog.String("error", err.Error()))
		return assistant.Failed(assistant.CodeFetchFailed, "could not load inventory")
	}

	products, err := e.store.SearchProducts(ctx, household, terms, searchLimit)
	if err != nil {
		e.logger.Error("inventory product search failed", slog.String("household_id", household.String()), slog.String("error", err.Error()))
		return assistant.Failed(assistant.CodeFetchFailed, "could not load inventory")
	}

	return assistant.Answered(e.buildAnswer(terms, items, products))
}

func (e *Engine) buildAnswer(terms []string, items []models.InventoryItem, products []models.Product) assistant.Answer {
	if len(items) == 0 && len(products) == 0 {
		clarify := "Could you describe the item differently, for example by brand or category?"
		return assistant.Answer{
			Answer:             fmt.Sprintf("Nothing matching %q was found in this household's inventory.", strings.Join(terms, " ")),
			Confidence:         assistant.ConfidenceLow,
			ClarifyingQuestion: &clarify,
		}
	}

	citations := make([]assistant.Citation, 0, len(items)+len(products))
	parts := make([]string, 0, len(items)+len(products))

	for _, item := range items {
		citations = append(citations, itemCitation(item))
		parts = append(parts, describe(item.Name, item.Quantity, item.Unit))
	}
	for _, product := range products {
		citations = append(citations, productCitation(product))
		if len(items) == 0 {
			parts = append(parts, describe(product.Name, product.TotalQuantity, product.Unit))
		}
	}

	confidence := assistant.ConfidenceHigh
	if len(items) == 0 {
		confidence = assistant.ConfidenceMedium
	}

	return assistant.Answer{
		Answer:      "Found in your inventory: " + strings.Join(parts, "; ") + ".",
		Confidence:  confidence,
		Citations:   citations,
		Suggestions: e.suggestions(items),
	}
}

func (e *Engine) suggestions(items []models.InventoryItem) []assistant.Suggestion {
	now := e.now().UTC()
	out := make([]assistant.Suggestion, 0)

	for _, item := range items {
		if needsRestock(item) {
			out = append(out, assistant.Suggestion{
				Kind:   assistant.SuggestionRestock,
				ItemID: item.ID.String(),
				Reason: fmt.Sprintf("%s is running low", item.Name),
			})
		}

		if item.ExpiryDate == nil {
			continue
		}

		expiry := item.ExpiryDate.UTC()
		switch {
		case expiry.Before(now):
			out = append(out, assistant.Suggestion{
				Kind:   assistant.SuggestionReminder,
				ItemID: item.ID.String(),
				Reason: fmt.Sprintf("%s expired on %s", item.Name, expiry.Format("2006-01-02")),
			})
		case expiry.Sub(now) <= expiryWindow:
			out = append(out, assistant.Suggestion{
				Kind:   assistant.SuggestionReminder,
				ItemID: item.ID.String(),
				Reason: fmt.Sprintf("%s expires on %s", item.Name, expiry.Format("2006-01-02")),
			})
		}
	}

	return out
}

func needsRestock(item models.InventoryItem) bool {
	if item.Quantity <= 0 {
		return true
	}
	return item.MinQuantity != nil && item.Quantity <= *item.MinQuantity
}

func itemCitation(item models.InventoryItem) assistant.Citation {
	citation := assistant.Citation{
		EntityKind:  assistant.EntityKindItem,
		EntityID:    item.ID.String(),
		DisplayName: item.Name,
		Quantity:    item.Quantity,
		Unit:        item.Unit,
	}
	if item.LocationID != nil {
		location := item.LocationID.String()
		citation.LocationID = &location
	}
	if item.ExpiryDate != nil {
		date := assistant.NewDate(*item.ExpiryDate)
		citation.ExpiryDate = &date
	}
	return citation
}

func productCitation(product models.Product) assistant.Citation {
	return assistant.Citation{
		EntityKind:  assistant.EntityKindProduct,
		EntityID:    product.ID.String(),
		DisplayName: product.Name,
		Quantity:    product.TotalQuantity,
		Unit:        product.Unit,
	}
}

func describe(name string, quantity float64, unit *string) string {
	amount := fmt.Sprintf("%g", quantity)
	if unit != nil && strings.TrimSpace(*unit) != "" {
		amount += " " + strings.TrimSpace(*unit)
	}
	return fmt.Sprintf("%s (%s)", name, amount)
}

// extractTerms выделяет ключевые слова: нижний регистр, без стоп-слов и коротких токенов.
func extractTerms(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		if utf8.RuneCountInString(field) < 3 {
			continue
		}
		if _, skip := stopWords[field]; skip {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		terms = append(terms, field)
		if len(terms) == maxTerms {
			break
		}
	}
	return terms
}
