// Package storage содержит общие ошибки слоя хранения и их разбор
// из ошибок драйвера PostgreSQL.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists — нарушено ограничение уникальности.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrReferenceMissing — ссылка на несуществующую запись.
	ErrReferenceMissing = errors.New("referenced record does not exist")
	// ErrNoChange возвращается из функции изменения, чтобы завершить
	// транзакцию без записи.
	ErrNoChange = errors.New("no change")
)

// ConstraintError — нарушение ограничения с его именем.
type ConstraintError struct {
	Constraint string
	Kind       error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Kind, e.Constraint)
}

// Is сравнивает ошибку с её видом.
func (e *ConstraintError) Is(target error) bool {
	return target == e.Kind
}

// MapError переводит ошибки драйвера в ошибки пакета storage.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return &ConstraintError{Constraint: pgErr.ConstraintName, Kind: ErrAlreadyExists}
		case pgerrcode.ForeignKeyViolation:
			return &ConstraintError{Constraint: pgErr.ConstraintName, Kind: ErrReferenceMissing}
		}
	}
	return err
}

// Constraint возвращает имя нарушенного ограничения или пустую строку.
func Constraint(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}
