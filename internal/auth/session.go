package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Session описывает проверенную сессию вызывающего.
type Session struct {
	UserID      uuid.UUID
	Email       string
	AccessToken string
}

type SessionVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewSessionVerifier создает проверку access-токенов сессии (HS256).
// Пустые issuer и audience не проверяются.
func NewSessionVerifier(secret, issuer, audience string) *SessionVerifier {
	return &SessionVerifier{
		secret:   []byte(secret),
		issuer:   strings.TrimSpace(issuer),
		audience: strings.TrimSpace(audience),
	}
}

// Verify валидирует access-токен и возвращает сессию.
func (v *SessionVerifier) Verify(tokenString string) (Session, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return Session{}, err
	}

	if !token.Valid {
		return Session{}, errors.New("token is invalid")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Session{}, errors.New("token subject is not a user id")
	}

	return Session{
		UserID:      userID,
		Email:       claims.Email,
		AccessToken: tokenString,
	}, nil
}
