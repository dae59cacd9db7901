// Package export строит XLSX‑выгрузки.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/magabrotheeeer/school-crm/internal/models"
)

const applicationsSheet = "Applications"

var applicationsHeader = []any{
	"ID", "Student", "Phone", "Direction", "Group", "Source", "Status", "Transaction", "Created at",
}

var statusNames = map[models.ApplicationStatus]string{
	models.StatusAwaitingCall:  "Awaiting call",
	models.StatusBookedTrial:   "Booked trial lesson",
	models.StatusAttendedTrial: "Attended trial lesson",
	models.StatusRejected:      "Rejected",
}

// StatusName возвращает название статуса заявки.
func StatusName(s *models.ApplicationStatus) string {
	if s == nil {
		return ""
	}
	return statusNames[*s]
}

// Applications строит книгу с одной строкой на заявку.
func Applications(items []models.ApplicationDetail) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", applicationsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(applicationsSheet, "A1", &applicationsHeader); err != nil {
		return nil, fmt.Errorf("set header: %w", err)
	}

	end, err := excelize.CoordinatesToCellName(len(applicationsHeader), 1)
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("new style: %w", err)
	}
	_ = f.SetCellStyle(applicationsSheet, "A1", end, bold)
	_ = f.AutoFilter(applicationsSheet, "A1:"+end, nil)

	for i, a := range items {
		group := ""
		if a.Group != nil {
			group = a.Group.Name
		}
		row := []any{
			a.ID,
			a.Student.FirstName + " " + a.Student.LastName,
			a.Student.Phone,
			a.Direction.Name,
			group,
			a.Source.Name,
			StatusName(a.Status),
			yesNo(a.Transaction),
			a.CreatedAt.Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err = f.SetSheetRow(applicationsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("set row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(applicationsSheet, "B", "F", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
