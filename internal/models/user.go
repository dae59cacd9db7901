// Package models содержит доменные типы CRM: пользователей и их профили,
// справочники, группы, заявки с историей изменений, аналитику и уведомления.
// Типы используются в бизнес‑логике, хранилище и HTTP‑слое.
package models

import (
	"strings"
	"time"
)

// Role — тег варианта пользователя.
type Role string

const (
	// RoleOfficeManager — сотрудник офиса (is_staff).
	RoleOfficeManager Role = "office_manager"
	// RoleTeacher — преподаватель, у пользователя заполнен TeacherProfile.
	RoleTeacher Role = "teacher"
	// RoleStudent — студент, у пользователя заполнен StudentProfile.
	RoleStudent Role = "student"
)

// DisplaySuperAdmin — отображаемая роль суперпользователя.
const DisplaySuperAdmin = "superadmin"

// StudentStatus — статус обучения студента. nil означает «ожидает».
type StudentStatus int

const (
	StudentStudying    StudentStatus = 1
	StudentFinished    StudentStatus = 2
	StudentInterrupted StudentStatus = 3
)

// User — базовая учётная запись. Для преподавателей и студентов
// дополнительно заполнен ровно один из профилей, выбранный по Role.
type User struct {
	ID            int64           `json:"id"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	PasswordHash  string          `json:"-"`
	Role          Role            `json:"-"`
	IsStaff       bool            `json:"-"`
	IsSuperuser   bool            `json:"-"`
	IsArchive     bool            `json:"is_archive"`
	WorkDays      []string        `json:"work_days,omitempty"`
	StartWorkTime *time.Time      `json:"start_work_time,omitempty"`
	EndWorkTime   *time.Time      `json:"end_work_time,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Teacher       *TeacherProfile `json:"teacher,omitempty"`
	Student       *StudentProfile `json:"student,omitempty"`
}

// TeacherProfile — данные, специфичные для преподавателя.
type TeacherProfile struct {
	PatentNumber string `json:"patent_number"`
	PatentTerm   Date   `json:"patent_term"`
	// Direction — направление первой группы преподавателя, только для чтения.
	Direction *string `json:"direction,omitempty"`
}

// StudentProfile — данные, специфичные для студента.
type StudentProfile struct {
	IsBlacklist bool           `json:"is_blacklist"`
	Status      *StudentStatus `json:"status"`
	// Payment хранится строкой с целым числом.
	Payment *string `json:"payment"`
}

// DisplayRole возвращает роль в том виде, в котором её видит клиент.
func (u *User) DisplayRole() string {
	switch {
	case u.IsSuperuser:
		return DisplaySuperAdmin
	case u.IsStaff:
		return string(RoleOfficeManager)
	default:
		return string(u.Role)
	}
}

// FullName возвращает имя и фамилию через пробел.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Profile — представление пользователя для профиля и списков сотрудников.
type Profile struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	FullName  string  `json:"full_name"`
	Phone     string  `json:"phone"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	Direction *string `json:"direction,omitempty"`
}

// ToProfile строит Profile из пользователя.
func (u *User) ToProfile() Profile {
	p := Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Phone:     u.Phone,
		Email:     u.Email,
		Role:      u.DisplayRole(),
	}
	if u.Teacher != nil {
		p.Direction = u.Teacher.Direction
	}
	return p
}

// OfficeManagerInput — тело запроса регистрации офис‑менеджера.
type OfficeManagerInput struct {
	FirstName     string     `json:"first_name" validate:"required,max=255"`
	LastName      string     `json:"last_name" validate:"required,max=255"`
	Phone         string     `json:"phone" validate:"required,phone"`
	Email         string     `json:"email" validate:"required,email"`
	WorkDays      []string   `json:"work_days" validate:"max=7,dive,oneof=1 2 3 4 5 6 7"`
	StartWorkTime *time.Time `json:"start_work_time"`
	EndWorkTime   *time.Time `json:"end_work_time"`
}

// TeacherInput — тело запроса регистрации преподавателя.
type TeacherInput struct {
	FirstName    string `json:"first_name" validate:"required,max=255"`
	LastName     string `json:"last_name" validate:"required,max=255"`
	Phone        string `json:"phone" validate:"required,phone"`
	Email        string `json:"email" validate:"required,email"`
	PatentNumber string `json:"patent_number" validate:"required,max=255"`
	PatentTerm   Date   `json:"patent_term"`
}

// StudentInput — тело запроса регистрации студента, также используется
// при создании заявки.
type StudentInput struct {
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
	Phone     string `json:"phone" validate:"required,phone"`
	Email     string `json:"email" validate:"required,email"`
}

// UserPatch — частичное обновление пользователя (профиль, преподаватель, студент).
type UserPatch struct {
	FirstName    *string                `json:"first_name" validate:"omitempty,max=255"`
	LastName     *string                `json:"last_name" validate:"omitempty,max=255"`
	Phone        *string                `json:"phone" validate:"omitempty,phone"`
	Email        *string                `json:"email" validate:"omitempty,email"`
	WorkDays     []string               `json:"work_days" validate:"omitempty,max=7,dive,oneof=1 2 3 4 5 6 7"`
	PatentNumber *string                `json:"patent_number" validate:"omitempty,max=255"`
	PatentTerm   *Date                  `json:"patent_term"`
	IsBlacklist  *bool                  `json:"is_blacklist"`
	Status       Optional[StudentStatus] `json:"status"`
}

// UserFilter — параметры выборки списков пользователей.
type UserFilter struct {
	Search   string
	Ordering string
	Page
}
