// Package smtp предоставляет транспорт SMTP со STARTTLS и интерфейсы,
// позволяющие подменять клиента в тестах.
package smtp

import (
	"errors"
	"io"
)

// Client интерфейс для SMTP клиента.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

var errNoStartTLS = errors.New("STARTTLS extension is not advertised")
