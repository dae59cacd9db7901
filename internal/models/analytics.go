package models

import "fmt"

// AnalyticsKind — вид отчёта.
type AnalyticsKind string

const (
	AnalyticsRejectionReason AnalyticsKind = "rejection-reason"
	AnalyticsSource          AnalyticsKind = "source"
	AnalyticsGroups          AnalyticsKind = "groups"
)

// AnalyticsItem — количество заявок в одном значении измерения.
// Для заявок без значения измерения ID и Name равны nil.
type AnalyticsItem struct {
	ID    *int64  `json:"id"`
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Count int     `json:"count"`
}

// AnalyticsReport — отчёт за год.
type AnalyticsReport struct {
	Kind        AnalyticsKind   `json:"kind"`
	Year        int             `json:"year"`
	TotalAmount int             `json:"total_amount"`
	Items       []AnalyticsItem `json:"items"`
}

// AnalyticsKinds — все виды отчётов.
var AnalyticsKinds = []AnalyticsKind{AnalyticsRejectionReason, AnalyticsSource, AnalyticsGroups}

// Valid сообщает, известен ли вид отчёта.
func (k AnalyticsKind) Valid() bool {
	for _, known := range AnalyticsKinds {
		if k == known {
			return true
		}
	}
	return false
}

// AnalyticsCachePrefix — общий префикс ключей кэша отчётов.
const AnalyticsCachePrefix = "analytics:"

// AnalyticsCacheKey — ключ кэша отчёта.
func AnalyticsCacheKey(kind AnalyticsKind, year int) string {
	return fmt.Sprintf("%s%s:%d", AnalyticsCachePrefix, kind, year)
}

// AnalyticsCacheKeys — ключи всех отчётов года.
func AnalyticsCacheKeys(year int) []string {
	keys := make([]string, 0, len(AnalyticsKinds))
	for _, k := range AnalyticsKinds {
		keys = append(keys, AnalyticsCacheKey(k, year))
	}
	return keys
}
