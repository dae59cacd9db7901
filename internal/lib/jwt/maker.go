// Package jwt реализует выпуск и проверку пар access/refresh JWT токенов.
package jwt

import (
	"time"
)

// TokenType различает access и refresh токены.
type TokenType string

const (
	// Access — короткоживущий токен для запросов к API.
	Access TokenType = "access"
	// Refresh — долгоживущий токен для получения нового access.
	Refresh TokenType = "refresh"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	GenerateToken(userID int64, email, role string, typ TokenType) (string, error)
	GeneratePair(userID int64, email, role string) (access, refresh string, err error)
	ParseToken(tokenStr string, typ TokenType) (*CustomClaims, error)
}

// MakerImpl подписывает токены секретным ключом по HS256.
type MakerImpl struct {
	secretKey  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTMaker создаёт MakerImpl с временем жизни access и refresh токенов.
func NewJWTMaker(secretKey string, accessTTL, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (j *MakerImpl) ttl(typ TokenType) time.Duration {
	if typ == Refresh {
		return j.refreshTTL
	}
	return j.accessTTL
}
