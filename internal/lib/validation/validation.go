// Package validation собирает валидатор структур с правилами домена
// (тег phone) и проверку телефонного номера.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

// PhonePrefix — обязательный код страны.
const PhonePrefix = "+996"

// PhoneLength — полная длина номера вместе с префиксом.
const PhoneLength = 13

// Ошибки проверки телефона в порядке их проверки.
var (
	ErrPhoneNotNumeric = errors.New("Phone must be numeric symbols")
	ErrPhonePrefix     = errors.New("Phone number should start with +996")
	ErrPhoneLength     = errors.New("Phone number must be 13 characters long")
)

// Phone проверяет номер: после первого символа только цифры 0-9, префикс +996,
// длина 13 символов. Цифры только ASCII, поэтому длина в байтах равна длине
// в символах.
func Phone(value string) error {
	if len(value) < 2 || !isDigits(value[1:]) {
		return ErrPhoneNotNumeric
	}
	if !strings.HasPrefix(value, PhonePrefix) {
		return ErrPhonePrefix
	}
	if len(value) != PhoneLength {
		return ErrPhoneLength
	}
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// New возвращает валидатор с тегом phone. В сообщениях об ошибках
// используются имена полей из json‑тегов.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return Phone(fl.Field().String()) == nil
	})
	return v
}
