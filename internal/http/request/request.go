// Package request разбирает параметры HTTP‑запросов: ID из URL, JSON‑тело
// и параметры пагинации.
package request

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

// maxBodySize ограничивает размер JSON‑тела.
const maxBodySize = 1 << 20

// ID возвращает положительный целый параметр пути name.
func ID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound("Not found.")
	}
	return id, nil
}

// DecodeJSON читает тело запроса в v. Пустое тело и неизвестный JSON
// возвращают ошибку валидации.
func DecodeJSON(r *http.Request, v any) error {
	if err := render.DecodeJSON(io.LimitReader(r.Body, maxBodySize), v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is empty")
		}
		return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
	}
	return nil
}

// Page читает limit и offset из строки запроса.
func Page(r *http.Request) (models.Page, error) {
	var p models.Page
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, apperr.Validation(fmt.Sprintf("invalid limit %q", v))
		}
		p.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, apperr.Validation(fmt.Sprintf("invalid offset %q", v))
		}
		p.Offset = n
	}
	return p.Normalize(), nil
}
