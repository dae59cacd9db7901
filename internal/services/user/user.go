// Package services реализует справочник пользователей: регистрацию
// сотрудников, преподавателей и студентов, профиль и архив.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/lib/password"
	"github.com/magabrotheeeer/school-crm/internal/lib/sl"
	"github.com/magabrotheeeer/school-crm/internal/models"
	"github.com/magabrotheeeer/school-crm/internal/storage"
)

// Сообщения архивации.
const (
	AlreadyArchived   = "This user is already archived!"
	AlreadyUnarchived = "This user is already unarchived!"
	Archived          = "User successfully archived!"
	Unarchived        = "User successfully unarchived!"
)

// generatedPasswordLength — длина пароля нового офис‑менеджера.
const generatedPasswordLength = 6

// Repository описывает хранилище пользователей.
type Repository interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context, role models.Role, f models.UserFilter) ([]models.User, error)
	ListStaff(ctx context.Context, search string) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64, role models.Role) error
	SetArchive(ctx context.Context, id int64, archive bool) (bool, error)
}

// Notifier ставит сообщение в очередь доставки.
type Notifier interface {
	Queue(ctx context.Context, msg models.Message) error
}

// Service управляет пользователями.
type Service struct {
	repo     Repository
	notifier Notifier
	log      *slog.Logger
}

// New создаёт сервис пользователей.
func New(repo Repository, notifier Notifier, log *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, log: log}
}

// RegisterOfficeManager создаёт сотрудника со случайным паролем и
// отправляет пароль на почту.
func (s *Service) RegisterOfficeManager(ctx context.Context, in models.OfficeManagerInput) (*models.User, error) {
	const op = "services.user.RegisterOfficeManager"
	log := s.log.With(slog.String("op", op))

	raw, err := password.Digits(generatedPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hash, err := password.GetHash(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u := &models.User{
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		Phone:         in.Phone,
		PasswordHash:  hash,
		Role:          models.RoleOfficeManager,
		IsStaff:       true,
		WorkDays:      in.WorkDays,
		StartWorkTime: in.StartWorkTime,
		EndWorkTime:   in.EndWorkTime,
	}
	if _, err = s.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	err = s.notifier.Queue(ctx, models.Message{
		Channel: models.ChannelEmail,
		To:      u.Email,
		Subject: "Your account",
		Body:    fmt.Sprintf("Your password is: %s", raw),
	})
	if err != nil {
		log.Error("failed to queue password email", slog.Int64("user_id", u.ID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("office manager registered", slog.Int64("user_id", u.ID))
	return u, nil
}

// RegisterTeacher создаёт преподавателя.
func (s *Service) RegisterTeacher(ctx context.Context, in models.TeacherInput) (*models.User, error) {
	const op = "services.user.RegisterTeacher"
	u := &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Role:      models.RoleTeacher,
		Teacher:   &models.TeacherProfile{PatentNumber: in.PatentNumber, PatentTerm: in.PatentTerm},
	}
	if _, err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// RegisterStudent создаёт студента со статусом «ожидает».
func (s *Service) RegisterStudent(ctx context.Context, in models.StudentInput) (*models.User, error) {
	const op = "services.user.RegisterStudent"
	u := &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Role:      models.RoleStudent,
		Student:   &models.StudentProfile{},
	}
	if _, err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// List возвращает пользователей роли role.
func (s *Service) List(ctx context.Context, role models.Role, f models.UserFilter) ([]models.User, error) {
	const op = "services.user.List"
	f.Page = f.Page.Normalize()
	users, err := s.repo.ListUsers(ctx, role, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// Staff возвращает офис‑менеджеров и преподавателей.
func (s *Service) Staff(ctx context.Context, search string) ([]models.Profile, error) {
	const op = "services.user.Staff"
	users, err := s.repo.ListStaff(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result := make([]models.Profile, 0, len(users))
	for i := range users {
		result = append(result, users[i].ToProfile())
	}
	return result, nil
}

// Get возвращает пользователя роли role. Пользователь другой роли не найден.
func (s *Service) Get(ctx context.Context, role models.Role, id int64) (*models.User, error) {
	const op = "services.user.Get"
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	if u.Role != role {
		return nil, apperr.NotFound("Not found.")
	}
	return u, nil
}

// Update применяет частичное обновление к пользователю роли role.
func (s *Service) Update(ctx context.Context, role models.Role, id int64, patch models.UserPatch) (*models.User, error) {
	const op = "services.user.Update"
	u, err := s.Get(ctx, role, id)
	if err != nil {
		return nil, err
	}
	ApplyPatch(u, patch)
	if err = s.repo.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// Delete удаляет пользователя роли role.
func (s *Service) Delete(ctx context.Context, role models.Role, id int64) error {
	const op = "services.user.Delete"
	if err := s.repo.DeleteUser(ctx, id, role); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// Profile возвращает профиль текущего пользователя.
func (s *Service) Profile(ctx context.Context, id int64) (*models.Profile, error) {
	const op = "services.user.Profile"
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	p := u.ToProfile()
	return &p, nil
}

// UpdateProfile меняет имя, фамилию, телефон и email текущего пользователя.
func (s *Service) UpdateProfile(ctx context.Context, id int64, patch models.UserPatch) (*models.Profile, error) {
	const op = "services.user.UpdateProfile"
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	ApplyPatch(u, models.UserPatch{
		FirstName: patch.FirstName,
		LastName:  patch.LastName,
		Phone:     patch.Phone,
		Email:     patch.Email,
	})
	if err = s.repo.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	p := u.ToProfile()
	return &p, nil
}

// SetArchive переводит пользователя в архив или возвращает из него.
func (s *Service) SetArchive(ctx context.Context, id int64, archive bool) error {
	const op = "services.user.SetArchive"
	changed, err := s.repo.SetArchive(ctx, id, archive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if !changed {
		if archive {
			return apperr.Validation(AlreadyArchived)
		}
		return apperr.Validation(AlreadyUnarchived)
	}
	s.log.Info("user archive flag changed", slog.Int64("user_id", id), slog.Bool("archive", archive))
	return nil
}

// ApplyPatch переносит заданные поля патча в пользователя. Поля профиля
// применяются только к пользователю соответствующей роли.
func ApplyPatch(u *models.User, p models.UserPatch) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.WorkDays != nil {
		u.WorkDays = p.WorkDays
	}
	if t := u.Teacher; t != nil {
		if p.PatentNumber != nil {
			t.PatentNumber = *p.PatentNumber
		}
		if p.PatentTerm != nil {
			t.PatentTerm = *p.PatentTerm
		}
	}
	if st := u.Student; st != nil {
		if p.IsBlacklist != nil {
			st.IsBlacklist = *p.IsBlacklist
		}
		if p.Status.Set {
			st.Status = p.Status.Ptr()
		}
	}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, "Not found.", err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperr.Wrap(apperr.KindNotAcceptable, uniqueMessage(storage.Constraint(err)), err)
	}
	return err
}

func uniqueMessage(constraint string) string {
	switch constraint {
	case "users_email_key":
		return "User with this email already exists."
	case "users_phone_key":
		return "User with this phone already exists."
	case "teachers_patent_number_key":
		return "Teacher with this patent number already exists."
	}
	return "Object already exists."
}
