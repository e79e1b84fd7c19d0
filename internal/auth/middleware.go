package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const ContextUserIDKey = "user_id"

type sessionContextKey struct{}

// SessionMiddleware проверяет Bearer-токен и кладет сессию в контекст запроса.
// Запрос без токена или с неверным токеном продолжается анонимно:
// решение об отказе принимает обработчик или движок ответов.
func SessionMiddleware(verifier *SessionVerifier, logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok := bearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				return next(c)
			}

			session, err := verifier.Verify(tokenString)
			if err != nil {
				logger.Debug("session token rejected", slog.String("error", err.Error()))
				return next(c)
			}

			c.Set(ContextUserIDKey, session.UserID)
			c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), session)))
			return next(c)
		}
	}
}

// WithSession возвращает контекст с сессией вызывающего.
func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext извлекает сессию из контекста.
func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(Session)
	return session, ok
}

// UserIDFromContext извлекает идентификатор пользователя из контекста.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	session, ok := SessionFromContext(ctx)
	if !ok || session.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return session.UserID, true
}

// AccessTokenFromContext возвращает исходный access-токен сессии.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	session, ok := SessionFromContext(ctx)
	if !ok || session.AccessToken == "" {
		return "", false
	}
	return session.AccessToken, true
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
