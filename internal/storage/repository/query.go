package repository

import (
	"strings"
)

// orderBy строит ORDER BY из параметра ordering вида "field" или "-field".
// Неизвестные поля заменяются значением по умолчанию.
func orderBy(ordering string, allowed map[string]string, def string) string {
	desc := strings.HasPrefix(ordering, "-")
	column, ok := allowed[strings.TrimPrefix(ordering, "-")]
	if !ok {
		return " ORDER BY " + def
	}
	if desc {
		return " ORDER BY " + column + " DESC NULLS LAST, 1 DESC"
	}
	return " ORDER BY " + column + " ASC NULLS LAST, 1 ASC"
}

// likePattern экранирует спецсимволы LIKE и оборачивает строку в %.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}
