package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/school-crm/internal/models"
)

const groupColumns = `g.id, g.name, g.teacher_id, g.direction_id, g.audience, g.number_of_students,
	g.start_date, g.end_date, g.times_id, g.timetable, g.status_id`

func scanGroup(row scanner) (*models.Group, error) {
	var (
		g          models.Group
		start, end sql.NullTime
	)
	if err := row.Scan(&g.ID, &g.Name, &g.TeacherID, &g.DirectionID, &g.Audience, &g.NumberOfStudents,
		&start, &end, &g.TimesID, &g.Timetable, &g.StatusID); err != nil {
		return nil, err
	}
	g.StartDate = dateOrNil(start)
	g.EndDate = dateOrNil(end)
	return &g, nil
}

func dateOrNil(t sql.NullTime) *models.Date {
	if !t.Valid {
		return nil
	}
	d := models.NewDate(t.Time.Year(), t.Time.Month(), t.Time.Day())
	return &d
}

func groupArgs(g *models.Group) []any {
	var start, end any
	if g.StartDate != nil {
		start = g.StartDate.Time
	}
	if g.EndDate != nil {
		end = g.EndDate.Time
	}
	return []any{g.Name, g.TeacherID, g.DirectionID, g.Audience, g.NumberOfStudents,
		start, end, g.TimesID, g.Timetable, g.StatusID}
}

// CreateGroup сохраняет группу и возвращает её ID.
func (s *Storage) CreateGroup(ctx context.Context, g *models.Group) (int64, error) {
	const op = "storage.CreateGroup"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO groups (name, teacher_id, direction_id, audience, number_of_students,
		                    start_date, end_date, times_id, timetable, status_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`, groupArgs(g)...).Scan(&id)
	if err != nil {
		return 0, wrap(op, err)
	}
	return id, nil
}

// GetGroup возвращает группу по ID.
func (s *Storage) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	const op = "storage.GetGroup"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	g, err := scanGroup(s.q.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups g WHERE g.id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return g, nil
}

// ListGroups возвращает группы с поиском по названию.
func (s *Storage) ListGroups(ctx context.Context, f models.GroupFilter) ([]models.Group, error) {
	const op = "storage.ListGroups"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + groupColumns + ` FROM groups g`
	var args []any
	if f.Search != "" {
		args = append(args, likePattern(f.Search))
		query += ` WHERE g.name ILIKE $1`
	}
	page := f.Page.Normalize()
	query += fmt.Sprintf(` ORDER BY g.id LIMIT %d OFFSET %d`, page.Limit, page.Offset)

	return s.queryGroups(ctx, op, query, args...)
}

func (s *Storage) queryGroups(ctx context.Context, op, query string, args ...any) ([]models.Group, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, *g)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// UpdateGroup перезаписывает группу.
func (s *Storage) UpdateGroup(ctx context.Context, g *models.Group) error {
	const op = "storage.UpdateGroup"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	args := append([]any{g.ID}, groupArgs(g)...)
	res, err := s.q.ExecContext(ctx, `
		UPDATE groups
		SET name = $2, teacher_id = $3, direction_id = $4, audience = $5, number_of_students = $6,
		    start_date = $7, end_date = $8, times_id = $9, timetable = $10, status_id = $11
		WHERE id = $1`, args...)
	if err != nil {
		return wrap(op, err)
	}
	if err = affected(res); err != nil {
		return wrap(op, err)
	}
	return nil
}

// DeleteGroup удаляет группу.
func (s *Storage) DeleteGroup(ctx context.Context, id int64) error {
	const op = "storage.DeleteGroup"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	if err = affected(res); err != nil {
		return wrap(op, err)
	}
	return nil
}
