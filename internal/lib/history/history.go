// Package history восстанавливает журнал изменений по упорядоченным снимкам строки.
package history

import (
	"reflect"
	"sort"

	"github.com/magabrotheeeer/school-crm/internal/models"
)

// IgnoredFields не участвуют в сравнении снимков.
var IgnoredFields = []string{"updated_at"}

// Diff возвращает поля, значения которых различаются между prev и next.
// Поле, присутствующее только в одном снимке, тоже считается изменённым.
func Diff(prev, next map[string]any, ignore ...string) map[string]models.FieldChange {
	skip := make(map[string]struct{}, len(ignore))
	for _, f := range ignore {
		skip[f] = struct{}{}
	}

	changes := make(map[string]models.FieldChange)
	for field, newValue := range next {
		if _, ok := skip[field]; ok {
			continue
		}
		oldValue, ok := prev[field]
		if !ok || !reflect.DeepEqual(oldValue, newValue) {
			changes[field] = models.FieldChange{Old: oldValue, New: newValue}
		}
	}
	for field, oldValue := range prev {
		if _, ok := skip[field]; ok {
			continue
		}
		if _, ok := next[field]; !ok {
			changes[field] = models.FieldChange{Old: oldValue, New: nil}
		}
	}
	return changes
}

// Replay сортирует снимки по времени, сравнивает соседние и возвращает
// записи от новых к старым. У самого старого снимка изменений нет.
func Replay(records []models.HistoryRecord) []models.HistoryEntry {
	sorted := make([]models.HistoryRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	entries := make([]models.HistoryEntry, 0, len(sorted))
	var prev map[string]any
	for i, rec := range sorted {
		changes := map[string]models.FieldChange{}
		if i > 0 {
			changes = Diff(prev, rec.Snapshot, IgnoredFields...)
		}
		entries = append(entries, models.HistoryEntry{
			ID:        rec.ID,
			Action:    rec.Action,
			Timestamp: rec.CreatedAt,
			User:      rec.ActorEmail,
			Changes:   changes,
		})
		prev = rec.Snapshot
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}
