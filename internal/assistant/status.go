package assistant

import "net/http"

// StatusForCode переводит код ошибки в HTTP-статус.
// Используется только на транспортной границе; неизвестные коды дают 500.
func StatusForCode(code ErrorCode) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbiddenHousehold:
		return http.StatusForbidden
	case CodeBudgetExceeded:
		return http.StatusTooManyRequests
	case CodeDisabled, CodeProviderUnavailable:
		return http.StatusServiceUnavailable
	case CodeFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
