package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: NotFound("Application not found"), want: http.StatusNotFound},
		{name: "validation", err: Validation("This user is already archived!"), want: http.StatusBadRequest},
		{name: "not acceptable", err: NotAcceptable("Password fields didn't match."), want: http.StatusNotAcceptable},
		{name: "authentication", err: AuthenticationFailed("Incorrect password!"), want: http.StatusUnauthorized},
		{name: "forbidden", err: Forbidden("superuser required"), want: http.StatusForbidden},
		{name: "wrapped with fmt", err: fmt.Errorf("services.Get: %w", NotFound("missing")), want: http.StatusNotFound},
		{name: "plain error", err: errors.New("db is down"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Invalid OTP.", Message(fmt.Errorf("op: %w", Validation("Invalid OTP.")), "internal error"))
	assert.Equal(t, "internal error", Message(errors.New("boom"), "internal error"))
}

func TestWrap(t *testing.T) {
	cause := errors.New("unique violation")
	err := Wrap(KindValidation, "user with this phone already exists", cause)

	assert.True(t, Is(err, KindValidation))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "user with this phone already exists: unique violation", err.Error())
	assert.False(t, Is(nil, KindValidation))
}
