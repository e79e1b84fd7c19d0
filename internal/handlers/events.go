package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/inventory-assistant/backend/internal/assistant"
	"example.com/inventory-assistant/backend/internal/auth"
	"example.com/inventory-assistant/backend/internal/notifications"
)

const defaultHeartbeat = 25 * time.Second

// MembershipChecker проверяет членство пользователя в домохозяйстве.
type MembershipChecker interface {
	IsMember(ctx context.Context, householdID, userID uuid.UUID) (bool, error)
}

type EventStreamHandler struct {
	Hub       *notifications.Hub
	Members   MembershipChecker
	Heartbeat time.Duration
	Logger    *slog.Logger
}

// NewEventStreamHandler создает SSE-обработчик событий ассистента.
func NewEventStreamHandler(hub *notifications.Hub, members MembershipChecker, logger *slog.Logger) *EventStreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventStreamHandler{Hub: hub, Members: members, Heartbeat: defaultHeartbeat, Logger: logger}
}

// Stream открывает SSE-поток исходов вызовов ассистента для домохозяйства.
func (h *EventStreamHandler) Stream(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return respondFailure(c, assistant.CodeUnauthenticated, "sign in to follow assistant events")
	}

	householdID, err := uuid.Parse(c.Param("householdId"))
	if err != nil {
		return respondFailure(c, assistant.CodeInvalidInput, "invalid household id")
	}

	member, err := h.Members.IsMember(ctx, householdID, userID)
	if err != nil {
		h.Logger.Error("household membership check failed", slog.String("household_id", householdID.String()), slog.String("error", err.Error()))
		return respondFailure(c, assistant.CodeFetchFailed, "could not load household")
	}
	if !member {
		return respondFailure(c, assistant.CodeForbiddenHousehold, "you do not have access to this household")
	}

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return serverError(c)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	ch, unsubscribe := h.Hub.Subscribe(householdID.String())
	defer unsubscribe()

	_ = writeSSE(c, notifications.Event{Type: "connected", Timestamp: time.Now().UTC(), Data: map[string]string{"household_id": householdID.String()}})
	flusher.Flush()

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := c.Response().Write([]byte(": ping\n\n")); err != nil {
				return nil
			}
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeSSE(c, event); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

func writeSSE(c echo.Context, event notifications.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := c.Response().Write([]byte("event: " + event.Type + "\n")); err != nil {
		return err
	}
	if _, err := c.Response().Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		return err
	}

	return nil
}
