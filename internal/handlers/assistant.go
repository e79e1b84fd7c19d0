package handlers

import (
	"github.com/labstack/echo/v4"

	"example.com/inventory-assistant/backend/internal/assistant"
)

type AskRequest struct {
	Question string `json:"question"`
}

type AssistantHandler struct {
	Assistant assistant.Answerer
}

// NewAssistantHandler создает обработчик вопросов к ассистенту.
func NewAssistantHandler(answerer assistant.Answerer) *AssistantHandler {
	return &AssistantHandler{Assistant: answerer}
}

// Ask принимает вопрос по инвентарю домохозяйства и возвращает ответ или ошибку таксономии.
func (h *AssistantHandler) Ask(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return respondFailure(c, assistant.CodeInvalidInput, "invalid request body")
	}

	result := h.Assistant.Ask(c.Request().Context(), c.Param("householdId"), assistant.Input{Question: req.Question})
	return respondResult(c, result)
}
