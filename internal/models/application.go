package models

import (
	"encoding/json"
	"errors"
	"time"
)

// ApplicationStatus — этап воронки заявки.
type ApplicationStatus int

const (
	StatusAwaitingCall  ApplicationStatus = 1
	StatusBookedTrial   ApplicationStatus = 2
	StatusAttendedTrial ApplicationStatus = 3
	StatusRejected      ApplicationStatus = 4
)

// Valid сообщает, входит ли статус в допустимый набор.
func (s ApplicationStatus) Valid() bool {
	return s >= StatusAwaitingCall && s <= StatusRejected
}

// Application — строка заявки. JSON‑теги совпадают с ключами снимков истории.
type Application struct {
	ID                int64              `json:"id"`
	StudentID         int64              `json:"student"`
	GroupID           *int64             `json:"groups"`
	DirectionID       int64              `json:"direction"`
	Laptop            bool               `json:"laptop"`
	SourceID          int64              `json:"source"`
	Status            *ApplicationStatus `json:"status"`
	Transaction       bool               `json:"transaction"`
	RejectionReasonID *int64             `json:"rejection_reason"`
	ReasonDescription *string            `json:"reason_description"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// ApplicationStudent — студент внутри представления заявки.
type ApplicationStudent struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     string  `json:"phone"`
	Email     string  `json:"email,omitempty"`
	Payment   *string `json:"payment"`
}

// ApplicationDetail — заявка с вложенными связями и историей.
type ApplicationDetail struct {
	ID                int64              `json:"id"`
	Student           ApplicationStudent `json:"student"`
	Direction         Ref                `json:"direction"`
	Group             *Ref               `json:"groups"`
	Source            Ref                `json:"source"`
	Status            *ApplicationStatus `json:"status"`
	Laptop            bool               `json:"laptop"`
	Transaction       bool               `json:"transaction"`
	RejectionReason   *Ref               `json:"rejection_reason"`
	ReasonDescription *string            `json:"reason_description"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	History           []HistoryEntry     `json:"history,omitempty"`
}

// ApplicationListItem — элемент списка заявок.
type ApplicationListItem struct {
	ID        int64              `json:"id"`
	Student   ApplicationStudent `json:"student"`
	Direction Ref                `json:"direction"`
	Status    *ApplicationStatus `json:"status"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ApplicationInput — тело запроса создания заявки.
type ApplicationInput struct {
	Student     StudentInput       `json:"student"`
	DirectionID int64              `json:"direction" validate:"required"`
	SourceID    int64              `json:"source" validate:"required"`
	GroupID     *int64             `json:"groups"`
	Laptop      bool               `json:"laptop"`
	Status      *ApplicationStatus `json:"status" validate:"omitempty,min=1,max=4"`
}

// ApplicationPatch — частичное обновление заявки.
type ApplicationPatch struct {
	Student           *StudentPatch               `json:"student"`
	DirectionID       *int64                      `json:"direction"`
	SourceID          *int64                      `json:"source"`
	GroupID           Optional[int64]             `json:"groups"`
	Status            Optional[ApplicationStatus] `json:"status"`
	Laptop            *bool                       `json:"laptop"`
	RejectionReasonID Optional[int64]             `json:"rejection_reason"`
	ReasonDescription Optional[string]            `json:"reason_description"`
}

// StudentPatch — вложенное обновление студента заявки.
type StudentPatch struct {
	FirstName *string       `json:"first_name" validate:"omitempty,max=255"`
	LastName  *string       `json:"last_name" validate:"omitempty,max=255"`
	Phone     *string       `json:"phone" validate:"omitempty,phone"`
	Payment   *PaymentValue `json:"payment"`
}

// PaymentValue — сумма оплаты, принимается строкой или числом.
type PaymentValue string

// UnmarshalJSON реализует json.Unmarshaler.
func (p *PaymentValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = PaymentValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("payment must be a string or a number")
	}
	*p = PaymentValue(n.String())
	return nil
}

// ApplicationFilter — параметры выборки списка заявок.
type ApplicationFilter struct {
	Status   *ApplicationStatus
	Search   string
	Ordering string
	Page
}

// Actor — пользователь, выполняющий изменение.
type Actor struct {
	ID    int64
	Email string
}

// ListItem возвращает краткое представление заявки для списков.
func (d ApplicationDetail) ListItem() ApplicationListItem {
	return ApplicationListItem{
		ID:        d.ID,
		Student:   d.Student,
		Direction: d.Direction,
		Status:    d.Status,
		UpdatedAt: d.UpdatedAt,
	}
}
