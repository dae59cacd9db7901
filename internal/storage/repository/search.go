package repository

import (
	"context"

	"github.com/magabrotheeeer/school-crm/internal/models"
)

const searchLimit = 50

// SearchGroups ищет группы по названию, имени преподавателя и направлению.
func (s *Storage) SearchGroups(ctx context.Context, q string) ([]models.Group, error) {
	const op = "storage.SearchGroups"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	return s.queryGroups(ctx, op, `
		SELECT `+groupColumns+`
		FROM groups g
		LEFT JOIN users tu ON tu.id = g.teacher_id
		LEFT JOIN directions d ON d.id = g.direction_id
		WHERE g.name ILIKE $1 OR COALESCE(tu.first_name, '') ILIKE $1 OR COALESCE(d.name, '') ILIKE $1
		ORDER BY g.id
		LIMIT $2`, likePattern(q), searchLimit)
}

// SearchApplications ищет заявки по имени студента, группе и направлению.
func (s *Storage) SearchApplications(ctx context.Context, q string) ([]models.ApplicationDetail, error) {
	const op = "storage.SearchApplications"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	items, err := s.queryApplicationDetails(ctx, applicationDetailSelect+`
		WHERE u.first_name ILIKE $1 OR u.last_name ILIKE $1
		   OR COALESCE(g.name, '') ILIKE $1 OR COALESCE(d.name, '') ILIKE $1
		ORDER BY a.id DESC
		LIMIT $2`, likePattern(q), searchLimit)
	if err != nil {
		return nil, wrap(op, err)
	}
	return items, nil
}

// SearchTeachers ищет преподавателей по имени, фамилии и номеру патента.
func (s *Storage) SearchTeachers(ctx context.Context, q string) ([]models.User, error) {
	const op = "storage.SearchTeachers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	return s.queryUsers(ctx, op, userSelect+`
		WHERE u.role = 'teacher'
		  AND (u.first_name ILIKE $1 OR u.last_name ILIKE $1 OR COALESCE(t.patent_number, '') ILIKE $1)
		ORDER BY u.id
		LIMIT $2`, likePattern(q), searchLimit)
}

// SearchStudents ищет студентов по имени и фамилии.
func (s *Storage) SearchStudents(ctx context.Context, q string) ([]models.User, error) {
	const op = "storage.SearchStudents"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	return s.queryUsers(ctx, op, userSelect+`
		WHERE u.role = 'student' AND (u.first_name ILIKE $1 OR u.last_name ILIKE $1)
		ORDER BY u.id
		LIMIT $2`, likePattern(q), searchLimit)
}
