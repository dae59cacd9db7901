package models

import "time"

// HistoryAction — тип записи истории.
type HistoryAction string

const (
	HistoryCreated HistoryAction = "+"
	HistoryUpdated HistoryAction = "~"
	HistoryDeleted HistoryAction = "-"
)

// HistoryRecord — неизменяемый снимок строки заявки.
type HistoryRecord struct {
	ID            int64
	ApplicationID int64
	Action        HistoryAction
	Snapshot      map[string]any
	ActorID       *int64
	ActorEmail    *string
	CreatedAt     time.Time
}

// FieldChange — старое и новое значение поля.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// HistoryEntry — запись истории в ответе API.
type HistoryEntry struct {
	ID        int64                  `json:"id"`
	Action    HistoryAction          `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	User      *string                `json:"user"`
	Changes   map[string]FieldChange `json:"changes"`
}
