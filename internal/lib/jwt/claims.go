package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrWrongTokenType — токен валиден, но имеет другой тип.
var ErrWrongTokenType = errors.New("wrong token type")

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// GenerateToken создает подписанный токен заданного типа.
func (j *MakerImpl) GenerateToken(userID int64, email, role string, typ TokenType) (string, error) {
	const op = "jwt.GenerateToken"
	now := time.Now()
	claims := CustomClaims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl(typ))),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// GeneratePair выпускает access и refresh токены для пользователя.
func (j *MakerImpl) GeneratePair(userID int64, email, role string) (string, string, error) {
	access, err := j.GenerateToken(userID, email, role, Access)
	if err != nil {
		return "", "", err
	}
	refresh, err := j.GenerateToken(userID, email, role, Refresh)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// ParseToken проверяет подпись, срок действия и тип токена.
func (j *MakerImpl) ParseToken(tokenStr string, typ TokenType) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.TokenType != typ {
		return nil, fmt.Errorf("%s: %w", op, ErrWrongTokenType)
	}
	return claims, nil
}
