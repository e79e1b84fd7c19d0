package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"example.com/inventory-assistant/backend/internal/assistant"
)

const (
	remoteFunctionPath   = "/functions/v1/ai_assistant"
	maxRemoteBodyBytes   = 1 << 20
	defaultRemoteTimeout = 8 * time.Second
)

// RemoteOutcome описывает итог удаленного вызова: результат или причину отказа.
type RemoteOutcome struct {
	OK     bool
	Result assistant.Result
	Reason string
}

type Dispatcher interface {
	Dispatch(ctx context.Context, target RemoteTarget, householdID, question string) RemoteOutcome
}

// HTTPDispatcher вызывает удаленную функцию ассистента ровно одним запросом, без ретраев.
type HTTPDispatcher struct {
	httpClient *http.Client
}

type remoteRequest struct {
	HouseholdID string `json:"householdId"`
	Question    string `json:"question"`
}

// NewHTTPDispatcher создает диспетчер с ограничением времени на вызов.
func NewHTTPDispatcher(timeout time.Duration) *HTTPDispatcher {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return &HTTPDispatcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Dispatch отправляет вопрос в удаленную функцию. Ошибка транспорта,
// не-2xx статус и некорректное тело одинаково дают OK=false.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, target RemoteTarget, householdID, question string) RemoteOutcome {
	payload, err := json.Marshal(remoteRequest{HouseholdID: householdID, Question: question})
	if err != nil {
		return failedOutcome("encode request: %v", err)
	}

	endpoint := target.BaseURL + remoteFunctionPath
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return failedOutcome("build request: %v", err)
	}

	request.Header.Set("Authorization", "Bearer "+target.AccessToken)
	request.Header.Set("apikey", target.Key)
	request.Header.Set("Content-Type", "application/json")

	response, err := d.client().Do(request)
	if err != nil {
		return failedOutcome("request failed: %v", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxRemoteBodyBytes+1))
	if err != nil {
		return failedOutcome("read response: %v", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return failedOutcome("remote status %d", response.StatusCode)
	}

	if len(body) > maxRemoteBodyBytes {
		return failedOutcome("response exceeds %d bytes", maxRemoteBodyBytes)
	}

	var result assistant.Result
	if err := json.Unmarshal(body, &result); err != nil {
		return failedOutcome("malformed response: %v", err)
	}

	return RemoteOutcome{OK: true, Result: result}
}

func (d *HTTPDispatcher) client() *http.Client {
	if d.httpClient == nil {
		return &http.Client{Timeout: defaultRemoteTimeout}
	}
	return d.httpClient
}

func failedOutcome(format string, args ...any) RemoteOutcome {
	return RemoteOutcome{OK: false, Reason: fmt.Sprintf(format, args...)}
}
