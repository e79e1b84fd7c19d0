package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/inventory-assistant/backend/internal/assistant"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// respondResult отдает результат ассистента: 200 для ответа, статус по коду для ошибки.
func respondResult(c echo.Context, result assistant.Result) error {
	status := http.StatusOK
	if failure, ok := result.Failure(); ok {
		status = assistant.StatusForCode(failure.ErrorCode)
	}
	return c.JSON(status, result)
}

func respondFailure(c echo.Context, code assistant.ErrorCode, message string) error {
	return respondResult(c, assistant.Failed(code, message))
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": message})
}

func serverError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
