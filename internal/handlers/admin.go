package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/inventory-assistant/backend/internal/gateway"
	"example.com/inventory-assistant/backend/internal/models"
	"example.com/inventory-assistant/backend/internal/repository"
)

// EventReader читает журнал событий ассистента.
type EventReader interface {
	List(ctx context.Context, filter repository.AssistantEventFilter, limit, offset int) ([]models.AssistantEvent, error)
	Count(ctx context.Context, filter repository.AssistantEventFilter) (int, error)
	Usage(ctx context.Context, days int) (repository.AssistantUsage, error)
}

// BudgetView описывает действующую политику расходов для админки.
type BudgetView struct {
	Enabled     bool
	Environment gateway.Environment
	Costs       gateway.CostPolicy
	Spend       gateway.SpendSource
}

type AdminHandler struct {
	Events EventReader
	Budget BudgetView
}

// NewAdminHandler создает обработчик админских эндпоинтов.
func NewAdminHandler(events EventReader, budget BudgetView) *AdminHandler {
	return &AdminHandler{Events: events, Budget: budget}
}

// AdminEventsQuery фильтры журнала событий. Имена событий и исходы совпадают с gateway.
type AdminEventsQuery struct {
	HouseholdID string `query:"household_id" json:"household_id" validate:"omitempty,max=128"`
	Event       string `query:"event" json:"event" validate:"omitempty,oneof=ai_assistant.denied ai_assistant.remote ai_assistant.fallback"`
	Outcome     string `query:"outcome" json:"outcome" validate:"omitempty,oneof=success failure"`
	Since       string `query:"since" json:"since"`
}

type AdminEventResponse struct {
	ID           uuid.UUID `json:"id"`
	Event        string    `json:"event"`
	Outcome      string    `json:"outcome"`
	HouseholdID  string    `json:"household_id"`
	ErrorCode    *string   `json:"error_code,omitempty"`
	Reason       *string   `json:"reason,omitempty"`
	EstimatedUSD float64   `json:"estimated_usd"`
	CreatedAt    string    `json:"created_at"`
}

type AdminEventsResponse struct {
	Total  int                  `json:"total"`
	Events []AdminEventResponse `json:"events"`
}

type AdminUsageDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AdminBudgetResponse struct {
	Enabled             bool    `json:"enabled"`
	Environment         string  `json:"environment"`
	MaxRequestUSD       float64 `json:"max_request_usd"`
	MonthlyLimitUSD     float64 `json:"monthly_limit_usd"`
	EstimatedRequestUSD float64 `json:"estimated_request_usd"`
	ProjectedMonthlyUSD float64 `json:"projected_monthly_usd"`
	Allowed             bool    `json:"allowed"`
}

type AdminUsageResponse struct {
	Days         int                 `json:"days"`
	Total        int                 `json:"total"`
	Success      int                 `json:"success"`
	Failure      int                 `json:"failure"`
	Denied       int                 `json:"denied"`
	Fallback     int                 `json:"fallback"`
	EstimatedUSD float64             `json:"estimated_usd"`
	ByDay        []AdminUsageDay     `json:"by_day"`
	Budget       AdminBudgetResponse `json:"budget"`
}

// ListEvents возвращает журнал исходов вызовов с фильтрами.
func (h *AdminHandler) ListEvents(c echo.Context) error {
	limit, offset, err := parsePagination(c, 50, 200)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var query AdminEventsQuery
	if err := c.Bind(&query); err != nil {
		return badRequest(c, "invalid query")
	}
	query.HouseholdID = strings.TrimSpace(query.HouseholdID)
	query.Event = strings.TrimSpace(query.Event)
	query.Outcome = strings.TrimSpace(query.Outcome)
	query.Since = strings.TrimSpace(query.Since)
	if err := c.Validate(&query); err != nil {
		return badRequest(c, "invalid filter")
	}

	filter := repository.AssistantEventFilter{}
	if query.HouseholdID != "" {
		filter.HouseholdID = &query.HouseholdID
	}
	if query.Event != "" {
		filter.Event = &query.Event
	}
	if query.Outcome != "" {
		filter.Outcome = &query.Outcome
	}
	if query.Since != "" {
		parsed, err := time.Parse(time.RFC3339, query.Since)
		if err != nil {
			return badRequest(c, "invalid since")
		}
		filter.Since = &parsed
	}

	events, err := h.Events.List(c.Request().Context(), filter, limit, offset)
	if err != nil {
		return serverError(c)
	}

	total, err := h.Events.Count(c.Request().Context(), filter)
	if err != nil {
		return serverError(c)
	}

	response := make([]AdminEventResponse, 0, len(events))
	for _, event := range events {
		response = append(response, AdminEventResponse{
			ID:           event.ID,
			Event:        event.Event,
			Outcome:      event.Outcome,
			HouseholdID:  event.HouseholdID,
			ErrorCode:    event.ErrorCode,
			Reason:       event.Reason,
			EstimatedUSD: event.EstimatedUSD,
			CreatedAt:    event.CreatedAt.Format(timeLayout),
		})
	}

	return c.JSON(http.StatusOK, AdminEventsResponse{
		Total:  total,
		Events: response,
	})
}

// Usage возвращает агрегаты по журналу и текущее состояние бюджета.
func (h *AdminHandler) Usage(c echo.Context) error {
	days := 30
	if raw := strings.TrimSpace(c.QueryParam("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return badRequest(c, "invalid days")
		}
		if parsed > 90 {
			parsed = 90
		}
		days = parsed
	}

	usage, err := h.Events.Usage(c.Request().Context(), days)
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid days")
		}
		return serverError(c)
	}

	byDay := make([]AdminUsageDay, 0, len(usage.ByDay))
	for _, day := range usage.ByDay {
		byDay = append(byDay, AdminUsageDay{
			Date:  day.Day.Format("2006-01-02"),
			Count: day.Count,
		})
	}

	return c.JSON(http.StatusOK, AdminUsageResponse{
		Days:         days,
		Total:        usage.Total,
		Success:      usage.Success,
		Failure:      usage.Failure,
		Denied:       usage.Denied,
		Fallback:     usage.Fallback,
		EstimatedUSD: usage.EstimatedUSD,
		ByDay:        byDay,
		Budget:       h.budget(c.Request().Context()),
	})
}

func (h *AdminHandler) budget(ctx context.Context) AdminBudgetResponse {
	view := h.Budget
	limits := view.Costs.Limits[view.Environment]
	response := AdminBudgetResponse{
		Enabled:         view.Enabled,
		Environment:     string(view.Environment),
		MaxRequestUSD:   limits.MaxRequestUSD,
		MonthlyLimitUSD: limits.MonthlyLimitUSD,
	}

	if view.Spend == nil {
		return response
	}

	spend := view.Spend.Spend(ctx)
	response.EstimatedRequestUSD = spend.EstimatedRequestUSD
	response.ProjectedMonthlyUSD = spend.ProjectedMonthlyUSD
	response.Allowed = view.Enabled && view.Costs.Evaluate(view.Environment, spend.EstimatedRequestUSD, spend.ProjectedMonthlyUSD).Allowed
	return response
}

func parsePagination(c echo.Context, defaultLimit, maxLimit int) (int, int, error) {
	limit := defaultLimit
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if parsed > maxLimit {
			parsed = maxLimit
		}
		limit = parsed
	}

	offset := 0
	if raw := strings.TrimSpace(c.QueryParam("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = parsed
	}

	return limit, offset, nil
}
