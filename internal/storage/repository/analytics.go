package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/school-crm/internal/models"
)

type analyticsQuery struct {
	transaction bool
	join        string
	dimension   string
}

var analyticsQueries = map[models.AnalyticsKind]analyticsQuery{
	models.AnalyticsRejectionReason: {
		transaction: false,
		join:        `LEFT JOIN rejection_reasons dim ON dim.id = a.rejection_reason_id`,
		dimension:   `dim.id, dim.title, dim.color`,
	},
	models.AnalyticsSource: {
		transaction: true,
		join:        `LEFT JOIN sources dim ON dim.id = a.source_id`,
		dimension:   `dim.id, dim.name, dim.color`,
	},
	models.AnalyticsGroups: {
		transaction: true,
		join: `LEFT JOIN groups g ON g.id = a.group_id
		       LEFT JOIN directions dim ON dim.id = g.direction_id`,
		dimension: `dim.id, dim.name, dim.color`,
	},
}

// Analytics считает заявки года year, сгруппированные по измерению kind.
// Заявки без значения измерения попадают в последнюю группу с ID nil.
func (s *Storage) Analytics(ctx context.Context, kind models.AnalyticsKind, year int) (*models.AnalyticsReport, error) {
	const op = "storage.Analytics"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	q, ok := analyticsQueries[kind]
	if !ok {
		return nil, fmt.Errorf("%s: unknown analytics kind %q", op, kind)
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	query := fmt.Sprintf(`
		SELECT %[1]s, COUNT(*)
		FROM applications a
		%[2]s
		WHERE a.transaction = $1 AND a.created_at >= $2 AND a.created_at < $3
		GROUP BY %[1]s
		ORDER BY (dim.id IS NULL), 2 NULLS LAST, 1`, q.dimension, q.join)

	rows, err := s.q.QueryContext(ctx, query, q.transaction, from, to)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	report := &models.AnalyticsReport{Kind: kind, Year: year, Items: make([]models.AnalyticsItem, 0)}
	for rows.Next() {
		var item models.AnalyticsItem
		if err = rows.Scan(&item.ID, &item.Name, &item.Color, &item.Count); err != nil {
			return nil, wrap(op, err)
		}
		report.TotalAmount += item.Count
		report.Items = append(report.Items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return report, nil
}
