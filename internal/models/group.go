package models

// Group — набор курса с вычисляемой датой окончания.
type Group struct {
	ID               int64  `json:"id"`
	Name             string `json:"name" validate:"required,max=100"`
	TeacherID        *int64 `json:"teacher"`
	DirectionID      *int64 `json:"direction"`
	Audience         int    `json:"audience" validate:"min=1,max=3"`
	NumberOfStudents int    `json:"number_of_students" validate:"min=0"`
	StartDate        *Date  `json:"start_date"`
	EndDate          *Date  `json:"end_date"`
	TimesID          *int64 `json:"times"`
	Timetable        int    `json:"timetable" validate:"min=1,max=2"`
	StatusID         *int64 `json:"status"`
}

// Audience sizes.
const (
	AudienceSmall  = 1
	AudienceMedium = 2
	AudienceLarge  = 3
)

// Timetables.
const (
	TimetableMonWedFri = 1
	TimetableTueThuSat = 2
)

// GroupFilter — параметры выборки групп.
type GroupFilter struct {
	Search string
	Page
}
