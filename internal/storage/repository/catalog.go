package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/school-crm/internal/models"
)

// Catalog — таблица справочника с простым CRUD.
type Catalog[T any] struct {
	s       *Storage
	table   string
	columns []string
	args    func(*T) []any
	dest    func(*T) []any
}

// Table возвращает имя таблицы справочника.
func (c *Catalog[T]) Table() string {
	return c.table
}

func (c *Catalog[T]) selectList() string {
	return "id, " + strings.Join(c.columns, ", ")
}

func (c *Catalog[T]) op(name string) string {
	return "storage." + c.table + "." + name
}

// List возвращает все записи в порядке ID.
func (c *Catalog[T]) List(ctx context.Context) ([]T, error) {
	op := c.op("List")
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := c.s.q.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, c.selectList(), c.table))
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]T, 0)
	for rows.Next() {
		var item T
		if err = rows.Scan(c.dest(&item)...); err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// Get возвращает запись по ID.
func (c *Catalog[T]) Get(ctx context.Context, id int64) (*T, error) {
	op := c.op("Get")
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var item T
	err := c.s.q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, c.selectList(), c.table), id,
	).Scan(c.dest(&item)...)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &item, nil
}

// Create вставляет запись и возвращает её в сохранённом виде.
func (c *Catalog[T]) Create(ctx context.Context, item *T) (*T, error) {
	op := c.op("Create")
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	placeholders := make([]string, len(c.columns))
	for i := range c.columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		c.table, strings.Join(c.columns, ", "), strings.Join(placeholders, ", "), c.selectList())

	var created T
	if err := c.s.q.QueryRowContext(ctx, query, c.args(item)...).Scan(c.dest(&created)...); err != nil {
		return nil, wrap(op, err)
	}
	return &created, nil
}

// Update перезаписывает запись с ID id.
func (c *Catalog[T]) Update(ctx context.Context, id int64, item *T) (*T, error) {
	op := c.op("Update")
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	sets := make([]string, len(c.columns))
	for i, col := range c.columns {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+2)
	}
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1 RETURNING %s`,
		c.table, strings.Join(sets, ", "), c.selectList())

	var updated T
	args := append([]any{id}, c.args(item)...)
	if err := c.s.q.QueryRowContext(ctx, query, args...).Scan(c.dest(&updated)...); err != nil {
		return nil, wrap(op, err)
	}
	return &updated, nil
}

// Delete удаляет запись по ID.
func (c *Catalog[T]) Delete(ctx context.Context, id int64) error {
	op := c.op("Delete")
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := c.s.q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, c.table), id)
	if err != nil {
		return wrap(op, err)
	}
	if err = affected(res); err != nil {
		return wrap(op, err)
	}
	return nil
}

// Directions — справочник направлений.
func (s *Storage) Directions() *Catalog[models.Direction] {
	return &Catalog[models.Direction]{
		s:       s,
		table:   "directions",
		columns: []string{"name", "duration", "color"},
		args:    func(d *models.Direction) []any { return []any{d.Name, d.Duration, d.Color} },
		dest:    func(d *models.Direction) []any { return []any{&d.ID, &d.Name, &d.Duration, &d.Color} },
	}
}

// Times — справочник окон расписания.
func (s *Storage) Times() *Catalog[models.Times] {
	return &Catalog[models.Times]{
		s:       s,
		table:   "times",
		columns: []string{"start_date", "end_date"},
		args:    func(t *models.Times) []any { return []any{t.StartDate, t.EndDate} },
		dest:    func(t *models.Times) []any { return []any{&t.ID, &t.StartDate, &t.EndDate} },
	}
}

// GroupStatuses — справочник статусов групп.
func (s *Storage) GroupStatuses() *Catalog[models.GroupStatus] {
	return &Catalog[models.GroupStatus]{
		s:       s,
		table:   "group_statuses",
		columns: []string{"name"},
		args:    func(g *models.GroupStatus) []any { return []any{g.Name} },
		dest:    func(g *models.GroupStatus) []any { return []any{&g.ID, &g.Name} },
	}
}

// Sources — справочник источников заявок.
func (s *Storage) Sources() *Catalog[models.Source] {
	return &Catalog[models.Source]{
		s:       s,
		table:   "sources",
		columns: []string{"name", "color"},
		args:    func(src *models.Source) []any { return []any{src.Name, src.Color} },
		dest:    func(src *models.Source) []any { return []any{&src.ID, &src.Name, &src.Color} },
	}
}

// RejectionReasons — справочник причин отказа.
func (s *Storage) RejectionReasons() *Catalog[models.RejectionReason] {
	return &Catalog[models.RejectionReason]{
		s:       s,
		table:   "rejection_reasons",
		columns: []string{"title", "color"},
		args:    func(r *models.RejectionReason) []any { return []any{r.Title, r.Color} },
		dest:    func(r *models.RejectionReason) []any { return []any{&r.ID, &r.Title, &r.Color} },
	}
}
