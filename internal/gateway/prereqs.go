package gateway

import (
	"context"
	"strings"

	"example.com/inventory-assistant/backend/internal/auth"
)

// RemoteTarget содержит все, что нужно для вызова удаленной функции.
type RemoteTarget struct {
	AccessToken string
	BaseURL     string
	Key         string
}

// Prerequisites содержит сырые данные для удаленного вызова. Пустое поле означает отсутствие.
type Prerequisites struct {
	AccessToken     string
	EndpointBaseURL string
	EndpointKey     string
}

// Target возвращает цель вызова только если заданы все три поля.
func (p Prerequisites) Target() (RemoteTarget, bool) {
	if p.AccessToken == "" || p.EndpointBaseURL == "" || p.EndpointKey == "" {
		return RemoteTarget{}, false
	}

	return RemoteTarget{
		AccessToken: p.AccessToken,
		BaseURL:     p.EndpointBaseURL,
		Key:         p.EndpointKey,
	}, true
}

type PrerequisiteResolver interface {
	Resolve(ctx context.Context) Prerequisites
}

// SessionResolver читает токен сессии из контекста запроса и адрес функции из конфигурации.
type SessionResolver struct {
	BaseURL string
	AnonKey string
}

// NewSessionResolver создает резолвер удаленных предпосылок.
func NewSessionResolver(baseURL, anonKey string) SessionResolver {
	return SessionResolver{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		AnonKey: strings.TrimSpace(anonKey),
	}
}

func (r SessionResolver) Resolve(ctx context.Context) Prerequisites {
	token, _ := auth.AccessTokenFromContext(ctx)

	return Prerequisites{
		AccessToken:     strings.TrimSpace(token),
		EndpointBaseURL: r.BaseURL,
		EndpointKey:     r.AnonKey,
	}
}
