package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"trialdash/domain/views"
	apperrors "trialdash/internal/errors"
)

// WriteTrajectories writes a subject trajectory table to an xlsx workbook,
// one row per subject, one column per scheduled visit. Missing visits stay
// blank so the sparse structure survives the export.
func WriteTrajectories(table views.TrajectoryTable, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := string(table.Field)
	if sheet == "" {
		sheet = "trajectories"
	}
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return apperrors.WorkbookError("failed to create sheet", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// Header row: subject columns then the visit schedule.
	f.SetCellValue(sheet, "A1", "subject_id")
	f.SetCellValue(sheet, "B1", "treatment_arm")
	for v, visit := range table.Visits {
		cell, _ := excelize.CoordinatesToCellName(v+3, 1)
		f.SetCellValue(sheet, cell, visit)
	}

	for i, row := range table.Rows {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), row.SubjectID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), string(row.Arm))
		for v, visit := range table.Visits {
			value, ok := row.Values[visit]
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(v+3, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.WorkbookError(fmt.Sprintf("failed to save export to %s", path), err)
	}
	return nil
}
