// Package password реализует хеширование паролей и генерацию цифровых кодов.
//
// GetHash создает bcrypt-хеш пароля, CompareHash проверяет пароль по хешу,
// Digits генерирует случайную строку из цифр для паролей и OTP.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// ErrNoPassword — у пользователя не задан пароль.
var ErrNoPassword = errors.New("password is not set")

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хэшу, иначе — ошибку.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if originalHash == "" {
		return fmt.Errorf("%s: %w", op, ErrNoPassword)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Digits возвращает криптографически случайную строку из n цифр.
func Digits(n int) (string, error) {
	const op = "password.Digits"
	buf := make([]byte, n)
	for i := range buf {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
