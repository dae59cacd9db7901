package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/magabrotheeeer/school-crm/internal/models"
)

const userSelect = `
	SELECT u.id, u.first_name, u.last_name, u.email, u.phone, COALESCE(u.password_hash, ''),
	       u.role, u.is_staff, u.is_superuser, u.is_archive, u.work_days::text,
	       u.start_work_time, u.end_work_time, u.created_at,
	       t.patent_number, t.patent_term, s.is_blacklist, s.status, s.payment,
	       (SELECT d.name FROM groups g JOIN directions d ON d.id = g.direction_id
	         WHERE g.teacher_id = u.id ORDER BY g.id LIMIT 1)
	FROM users u
	LEFT JOIN teachers t ON t.user_id = u.id
	LEFT JOIN students s ON s.user_id = u.id`

var userOrdering = map[string]string{
	"id":         "u.id",
	"first_name": "u.first_name",
	"last_name":  "u.last_name",
	"email":      "u.email",
	"created_at": "u.created_at",
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u            models.User
		role         string
		workDays     []string
		start, end   sql.NullTime
		patentNumber sql.NullString
		patentTerm   sql.NullTime
		blacklist    sql.NullBool
		status       sql.NullInt16
		payment      sql.NullString
		direction    sql.NullString
	)
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash,
		&role, &u.IsStaff, &u.IsSuperuser, &u.IsArchive, pq.Array(&workDays),
		&start, &end, &u.CreatedAt,
		&patentNumber, &patentTerm, &blacklist, &status, &payment, &direction); err != nil {
		return nil, err
	}

	u.Role = models.Role(role)
	u.WorkDays = workDays
	if start.Valid {
		u.StartWorkTime = &start.Time
	}
	if end.Valid {
		u.EndWorkTime = &end.Time
	}

	switch u.Role {
	case models.RoleTeacher:
		p := &models.TeacherProfile{PatentNumber: patentNumber.String}
		if err := p.PatentTerm.Scan(patentTerm.Time); err != nil {
			return nil, err
		}
		if direction.Valid {
			p.Direction = &direction.String
		}
		u.Teacher = p
	case models.RoleStudent:
		p := &models.StudentProfile{IsBlacklist: blacklist.Bool}
		if status.Valid {
			st := models.StudentStatus(status.Int16)
			p.Status = &st
		}
		if payment.Valid {
			p.Payment = &payment.String
		}
		u.Student = p
	}
	return &u, nil
}

func nullableStatus(s *models.StudentStatus) any {
	if s == nil {
		return nil
	}
	return int16(*s)
}

// CreateUser сохраняет пользователя вместе с профилем его роли и
// возвращает ID.
func (s *Storage) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var id int64
	err := s.inTx(ctx, func(tx *Storage) error {
		var err error
		id, err = tx.insertUser(ctx, u)
		return err
	})
	if err != nil {
		return 0, wrap(op, err)
	}
	return id, nil
}

func (s *Storage) insertUser(ctx context.Context, u *models.User) (int64, error) {
	var hash any
	if u.PasswordHash != "" {
		hash = u.PasswordHash
	}
	workDays := u.WorkDays
	if workDays == nil {
		workDays = []string{}
	}

	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, email, phone, password_hash, role,
		                   is_staff, is_superuser, work_days, start_work_time, end_work_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		u.FirstName, u.LastName, u.Email, u.Phone, hash, string(u.Role),
		u.IsStaff, u.IsSuperuser, pq.Array(workDays), u.StartWorkTime, u.EndWorkTime,
	).Scan(&id, &u.CreatedAt)
	if err != nil {
		return 0, err
	}

	switch {
	case u.Role == models.RoleTeacher && u.Teacher != nil:
		_, err = s.q.ExecContext(ctx,
			`INSERT INTO teachers (user_id, patent_number, patent_term) VALUES ($1, $2, $3)`,
			id, u.Teacher.PatentNumber, u.Teacher.PatentTerm)
	case u.Role == models.RoleStudent:
		p := u.Student
		if p == nil {
			p = &models.StudentProfile{}
		}
		_, err = s.q.ExecContext(ctx,
			`INSERT INTO students (user_id, is_blacklist, status, payment) VALUES ($1, $2, $3, $4)`,
			id, p.IsBlacklist, nullableStatus(p.Status), p.Payment)
	}
	if err != nil {
		return 0, err
	}
	u.ID = id
	return id, nil
}

// GetUser возвращает пользователя с профилем по ID.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.q.QueryRowContext(ctx, userSelect+` WHERE u.id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.q.QueryRowContext(ctx, userSelect+` WHERE lower(u.email) = lower($1)`, email))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// ListUsers возвращает пользователей роли role с поиском и сортировкой.
func (s *Storage) ListUsers(ctx context.Context, role models.Role, f models.UserFilter) ([]models.User, error) {
	const op = "storage.ListUsers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := userSelect + ` WHERE u.role = $1`
	args := []any{string(role)}
	if f.Search != "" {
		args = append(args, likePattern(f.Search))
		query += ` AND (u.first_name ILIKE $2 OR u.last_name ILIKE $2 OR u.phone ILIKE $2
			OR u.email ILIKE $2 OR COALESCE(t.patent_number, '') ILIKE $2)`
	}
	page := f.Page.Normalize()
	query += orderBy(f.Ordering, userOrdering, "u.id")
	query += fmt.Sprintf(` LIMIT %d OFFSET %d`, page.Limit, page.Offset)

	return s.queryUsers(ctx, op, query, args...)
}

// ListStaff возвращает офис‑менеджеров и преподавателей.
func (s *Storage) ListStaff(ctx context.Context, search string) ([]models.User, error) {
	const op = "storage.ListStaff"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := userSelect + ` WHERE (u.is_staff OR u.role = 'teacher')`
	var args []any
	if search != "" {
		args = append(args, likePattern(search))
		query += ` AND (u.first_name ILIKE $1 OR u.last_name ILIKE $1 OR u.email ILIKE $1 OR u.phone ILIKE $1)`
	}
	query += ` ORDER BY u.id`

	return s.queryUsers(ctx, op, query, args...)
}

func (s *Storage) queryUsers(ctx context.Context, op, query string, args ...any) ([]models.User, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// UpdateUser сохраняет базовые поля пользователя и поля профиля его роли.
func (s *Storage) UpdateUser(ctx context.Context, u *models.User) error {
	const op = "storage.UpdateUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	err := s.inTx(ctx, func(tx *Storage) error {
		return tx.updateUser(ctx, u)
	})
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

func (s *Storage) updateUser(ctx context.Context, u *models.User) error {
	workDays := u.WorkDays
	if workDays == nil {
		workDays = []string{}
	}
	res, err := s.q.ExecContext(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, phone = $5,
		    work_days = $6, start_work_time = $7, end_work_time = $8
		WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone,
		pq.Array(workDays), u.StartWorkTime, u.EndWorkTime)
	if err != nil {
		return err
	}
	if err = affected(res); err != nil {
		return err
	}

	switch {
	case u.Teacher != nil:
		_, err = s.q.ExecContext(ctx,
			`UPDATE teachers SET patent_number = $2, patent_term = $3 WHERE user_id = $1`,
			u.ID, u.Teacher.PatentNumber, u.Teacher.PatentTerm)
	case u.Student != nil:
		_, err = s.q.ExecContext(ctx,
			`UPDATE students SET is_blacklist = $2, status = $3, payment = $4 WHERE user_id = $1`,
			u.ID, u.Student.IsBlacklist, nullableStatus(u.Student.Status), u.Student.Payment)
	}
	return err
}

// DeleteUser удаляет пользователя роли role.
func (s *Storage) DeleteUser(ctx context.Context, id int64, role models.Role) error {
	const op = "storage.DeleteUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1 AND role = $2`, id, string(role))
	if err != nil {
		return wrap(op, err)
	}
	if err = affected(res); err != nil {
		return wrap(op, err)
	}
	return nil
}

// SetArchive переводит флаг архива в archive. Возвращает false, если
// пользователь уже был в этом состоянии.
func (s *Storage) SetArchive(ctx context.Context, id int64, archive bool) (bool, error) {
	const op = "storage.SetArchive"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var current bool
	err := s.q.QueryRowContext(ctx, `
		WITH target AS (SELECT id, is_archive FROM users WHERE id = $1 FOR UPDATE),
		     upd AS (UPDATE users u SET is_archive = $2
		             FROM target WHERE u.id = target.id AND target.is_archive <> $2)
		SELECT is_archive FROM target`, id, archive).Scan(&current)
	if err != nil {
		return false, wrap(op, err)
	}
	return current != archive, nil
}

// SetPassword сохраняет новый хэш пароля.
func (s *Storage) SetPassword(ctx context.Context, id int64, hash string) error {
	const op = "storage.SetPassword"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return wrap(op, err)
	}
	if err = affected(res); err != nil {
		return wrap(op, err)
	}
	return nil
}
