package models

// SearchScope — раздел глобального поиска.
type SearchScope string

const (
	ScopeGroups       SearchScope = "groups"
	ScopeApplications SearchScope = "applications"
	ScopeTeachers     SearchScope = "teachers"
	ScopeStudents     SearchScope = "students"
)

// Valid сообщает, известен ли раздел.
func (s SearchScope) Valid() bool {
	switch s {
	case ScopeGroups, ScopeApplications, ScopeTeachers, ScopeStudents:
		return true
	}
	return false
}

// SearchResult — результат глобального поиска. Пустые разделы опускаются,
// если поиск ограничен одним разделом.
type SearchResult struct {
	Groups       []Group               `json:"groups,omitempty"`
	Applications []ApplicationListItem `json:"applications,omitempty"`
	Teachers     []User                `json:"teachers,omitempty"`
	Students     []User                `json:"students,omitempty"`
}
