package models

import "time"

// Direction — направление обучения (курс).
type Direction struct {
	ID   int64   `json:"id"`
	Name *string `json:"name" validate:"omitempty,max=255"`
	// Duration — длительность в месяцах, может быть дробной.
	Duration *float64 `json:"duration" validate:"omitempty,gte=0"`
	Color    *string  `json:"color" validate:"omitempty,max=50"`
}

// Times — окно расписания.
type Times struct {
	ID        int64     `json:"id"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// GroupStatus — статус группы.
type GroupStatus struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required,max=100"`
}

// Source — источник заявки.
type Source struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name" validate:"required,max=50"`
	Color *string `json:"color" validate:"omitempty,max=50"`
}

// RejectionReason — причина отказа.
type RejectionReason struct {
	ID    int64   `json:"id"`
	Title string  `json:"title" validate:"required,max=255"`
	Color *string `json:"color" validate:"omitempty,max=50"`
}

// Ref — краткая ссылка на связанную сущность во вложенных представлениях.
type Ref struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color,omitempty"`
}
