package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/school-crm/internal/models"
	"github.com/magabrotheeeer/school-crm/internal/storage"
)

const applicationColumns = `id, student_id, group_id, direction_id, laptop, source_id, status,
	transaction, rejection_reason_id, reason_description, created_at, updated_at`

const applicationDetailSelect = `
	SELECT a.id, u.id, u.first_name, u.last_name, u.phone, u.email, s.payment,
	       d.id, COALESCE(d.name, ''), d.color, g.id, g.name, src.id, src.name, src.color,
	       a.status, a.laptop, a.transaction, r.id, r.title, r.color, a.reason_description,
	       a.created_at, a.updated_at
	FROM applications a
	JOIN users u ON u.id = a.student_id
	JOIN students s ON s.user_id = a.student_id
	JOIN directions d ON d.id = a.direction_id
	JOIN sources src ON src.id = a.source_id
	LEFT JOIN groups g ON g.id = a.group_id
	LEFT JOIN rejection_reasons r ON r.id = a.rejection_reason_id`

var applicationOrdering = map[string]string{
	"id":         "a.id",
	"created_at": "a.created_at",
	"updated_at": "a.updated_at",
	"status":     "a.status",
}

func scanApplication(row scanner) (*models.Application, error) {
	var (
		a      models.Application
		status sql.NullInt16
	)
	if err := row.Scan(&a.ID, &a.StudentID, &a.GroupID, &a.DirectionID, &a.Laptop, &a.SourceID, &status,
		&a.Transaction, &a.RejectionReasonID, &a.ReasonDescription, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = appStatus(status)
	return &a, nil
}

func appStatus(v sql.NullInt16) *models.ApplicationStatus {
	if !v.Valid {
		return nil
	}
	st := models.ApplicationStatus(v.Int16)
	return &st
}

func nullableAppStatus(s *models.ApplicationStatus) any {
	if s == nil {
		return nil
	}
	return int16(*s)
}

func scanApplicationDetail(row scanner) (*models.ApplicationDetail, error) {
	var (
		a                        models.ApplicationDetail
		groupID, reasonID        sql.NullInt64
		groupName, reasonTitle   sql.NullString
		status                   sql.NullInt16
		directionColor, srcColor sql.NullString
		reasonColor              sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Student.ID, &a.Student.FirstName, &a.Student.LastName, &a.Student.Phone,
		&a.Student.Email, &a.Student.Payment,
		&a.Direction.ID, &a.Direction.Name, &directionColor, &groupID, &groupName,
		&a.Source.ID, &a.Source.Name, &srcColor,
		&status, &a.Laptop, &a.Transaction, &reasonID, &reasonTitle, &reasonColor, &a.ReasonDescription,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = appStatus(status)
	if directionColor.Valid {
		a.Direction.Color = &directionColor.String
	}
	if srcColor.Valid {
		a.Source.Color = &srcColor.String
	}
	if groupID.Valid {
		a.Group = &models.Ref{ID: groupID.Int64, Name: groupName.String}
	}
	if reasonID.Valid {
		a.RejectionReason = &models.Ref{ID: reasonID.Int64, Name: reasonTitle.String}
		if reasonColor.Valid {
			a.RejectionReason.Color = &reasonColor.String
		}
	}
	return &a, nil
}

func (s *Storage) insertHistory(ctx context.Context, app *models.Application,
	action models.HistoryAction, actor *models.Actor,
) error {
	snapshot, err := json.Marshal(app)
	if err != nil {
		return err
	}
	var actorID, actorEmail any
	if actor != nil {
		actorID, actorEmail = actor.ID, actor.Email
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO application_history (application_id, action, snapshot, actor_id, actor_email)
		VALUES ($1, $2, $3, $4, $5)`,
		app.ID, string(action), string(snapshot), actorID, actorEmail)
	return err
}

// CreateApplication в одной транзакции находит или создаёт студента по
// имени, фамилии, телефону и email, создаёт заявку и пишет снимок "+".
func (s *Storage) CreateApplication(ctx context.Context, in models.ApplicationInput,
	actor *models.Actor,
) (*models.Application, error) {
	const op = "storage.CreateApplication"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	status := in.Status
	if status == nil {
		st := models.StatusAwaitingCall
		status = &st
	}

	var app *models.Application
	err := s.inTx(ctx, func(tx *Storage) error {
		if _, err := tx.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, in.Student.Phone); err != nil {
			return err
		}

		studentID, err := tx.findOrCreateStudent(ctx, in.Student)
		if err != nil {
			return err
		}

		app, err = scanApplication(tx.q.QueryRowContext(ctx, `
			INSERT INTO applications (student_id, group_id, direction_id, laptop, source_id, status, transaction)
			VALUES ($1, $2, $3, $4, $5, $6, FALSE)
			RETURNING `+applicationColumns,
			studentID, in.GroupID, in.DirectionID, in.Laptop, in.SourceID, nullableAppStatus(status)))
		if err != nil {
			return err
		}
		return tx.insertHistory(ctx, app, models.HistoryCreated, actor)
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return app, nil
}

func (s *Storage) findOrCreateStudent(ctx context.Context, in models.StudentInput) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `
		SELECT u.id FROM users u
		JOIN students s ON s.user_id = u.id
		WHERE u.first_name = $1 AND u.last_name = $2 AND u.phone = $3 AND u.email = $4`,
		in.FirstName, in.LastName, in.Phone, in.Email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	return s.insertUser(ctx, &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Email:     in.Email,
		Role:      models.RoleStudent,
		Student:   &models.StudentProfile{},
	})
}

// GetApplication возвращает заявку со связанными сущностями, без истории.
func (s *Storage) GetApplication(ctx context.Context, id int64) (*models.ApplicationDetail, error) {
	const op = "storage.GetApplication"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	a, err := scanApplicationDetail(s.q.QueryRowContext(ctx, applicationDetailSelect+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return a, nil
}

func applicationWhere(f models.ApplicationFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, int16(*f.Status))
		conds = append(conds, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, likePattern(f.Search))
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(u.first_name ILIKE $%d OR u.last_name ILIKE $%d OR COALESCE(g.name, '') ILIKE $%d)", n, n, n))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListApplications возвращает страницу заявок и общее число подходящих.
func (s *Storage) ListApplications(ctx context.Context, f models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	const op = "storage.ListApplications"
	if err := checkCtx(ctx, op); err != nil {
		return nil, 0, err
	}

	where, args := applicationWhere(f)

	var total int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM applications a
		JOIN users u ON u.id = a.student_id
		LEFT JOIN groups g ON g.id = a.group_id`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, wrap(op, err)
	}

	page := f.Page.Normalize()
	query := applicationDetailSelect + where + orderBy(f.Ordering, applicationOrdering, "a.id DESC") +
		fmt.Sprintf(` LIMIT %d OFFSET %d`, page.Limit, page.Offset)

	items, err := s.queryApplicationDetails(ctx, query, args...)
	if err != nil {
		return nil, 0, wrap(op, err)
	}
	return items, total, nil
}

// ExportApplications возвращает все заявки, подходящие под фильтр, без пагинации.
func (s *Storage) ExportApplications(ctx context.Context, f models.ApplicationFilter) ([]models.ApplicationDetail, error) {
	const op = "storage.ExportApplications"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	where, args := applicationWhere(f)
	query := applicationDetailSelect + where + orderBy(f.Ordering, applicationOrdering, "a.id DESC")

	items, err := s.queryApplicationDetails(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	return items, nil
}

func (s *Storage) queryApplicationDetails(ctx context.Context, query string, args ...any) ([]models.ApplicationDetail, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.ApplicationDetail, 0)
	for rows.Next() {
		a, err := scanApplicationDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

// UpdateApplication блокирует заявку и её студента, применяет mutate,
// сохраняет обе записи и пишет снимок "~". Если mutate вернул
// storage.ErrNoChange, запись не выполняется и возвращается текущая заявка.
func (s *Storage) UpdateApplication(ctx context.Context, id int64, actor *models.Actor,
	mutate func(app *models.Application, student *models.User) error,
) (*models.Application, error) {
	const op = "storage.UpdateApplication"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var app *models.Application
	err := s.inTx(ctx, func(tx *Storage) error {
		current, err := scanApplication(tx.q.QueryRowContext(ctx,
			`SELECT `+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if _, err = tx.q.ExecContext(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, current.StudentID); err != nil {
			return err
		}
		student, err := scanUser(tx.q.QueryRowContext(ctx, userSelect+` WHERE u.id = $1`, current.StudentID))
		if err != nil {
			return err
		}

		if err = mutate(current, student); err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				app = current
				return nil
			}
			return err
		}

		app, err = scanApplication(tx.q.QueryRowContext(ctx, `
			UPDATE applications
			SET group_id = $2, direction_id = $3, laptop = $4, source_id = $5, status = $6,
			    transaction = $7, rejection_reason_id = $8, reason_description = $9, updated_at = NOW()
			WHERE id = $1
			RETURNING `+applicationColumns,
			id, current.GroupID, current.DirectionID, current.Laptop, current.SourceID,
			nullableAppStatus(current.Status), current.Transaction, current.RejectionReasonID,
			current.ReasonDescription))
		if err != nil {
			return err
		}
		if err = tx.updateUser(ctx, student); err != nil {
			return err
		}
		return tx.insertHistory(ctx, app, models.HistoryUpdated, actor)
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return app, nil
}

// DeleteApplication пишет снимок "-" и удаляет заявку. Возвращает
// удалённую строку.
func (s *Storage) DeleteApplication(ctx context.Context, id int64, actor *models.Actor) (*models.Application, error) {
	const op = "storage.DeleteApplication"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var app *models.Application
	err := s.inTx(ctx, func(tx *Storage) error {
		var err error
		app, err = scanApplication(tx.q.QueryRowContext(ctx,
			`SELECT `+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if err = tx.insertHistory(ctx, app, models.HistoryDeleted, actor); err != nil {
			return err
		}
		res, err := tx.q.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
		if err != nil {
			return err
		}
		return affected(res)
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return app, nil
}

// ListHistory возвращает снимки заявки в порядке записи.
func (s *Storage) ListHistory(ctx context.Context, applicationID int64) ([]models.HistoryRecord, error) {
	const op = "storage.ListHistory"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, application_id, action, snapshot, actor_id, actor_email, created_at
		FROM application_history
		WHERE application_id = $1
		ORDER BY created_at, id`, applicationID)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.HistoryRecord, 0)
	for rows.Next() {
		var (
			r      models.HistoryRecord
			action string
			raw    []byte
		)
		if err = rows.Scan(&r.ID, &r.ApplicationID, &action, &raw, &r.ActorID, &r.ActorEmail, &r.CreatedAt); err != nil {
			return nil, wrap(op, err)
		}
		r.Action = models.HistoryAction(action)
		if err = json.Unmarshal(raw, &r.Snapshot); err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// ApplicationExists сообщает, существует ли заявка.
func (s *Storage) ApplicationExists(ctx context.Context, id int64) (bool, error) {
	const op = "storage.ApplicationExists"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	if err := s.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, wrap(op, err)
	}
	return exists, nil
}
