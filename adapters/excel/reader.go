package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"trialdash/domain/trial"
	"trialdash/internal"
	apperrors "trialdash/internal/errors"
)

// DataReader handles reading vitals workbooks in Excel and CSV format
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	log      *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath, sheet string, logger *internal.Logger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if sheet == "" {
		sheet = "vitals"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		sheet:    sheet,
		log:      logger.WithComponent("DataReader"),
	}
}

// ReadRecords reads the workbook and maps its rows to vitals records.
// Rows with a blank subject or visit are skipped with a warning; cell-level
// parse failures degrade to missing measurements, never errors.
func (r *DataReader) ReadRecords() ([]trial.VitalsRecord, error) {
	r.log.Info("reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, apperrors.WorkbookError(fmt.Sprintf("workbook not found: %s", r.filePath), err)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, apperrors.WorkbookError("workbook must have a header row and at least one data row", nil)
	}

	return r.processRows(rows)
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, apperrors.WorkbookError("failed to open workbook", err)
	}
	defer f.Close()

	sheet := r.sheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		// Fall back to the first sheet when the configured one is absent.
		sheet = f.GetSheetName(0)
		r.log.Warn("sheet %q not found, using %q", r.sheet, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.WorkbookError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, apperrors.WorkbookError("failed to open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.WorkbookError("failed to read CSV file", err)
	}
	return rows, nil
}

// columnAliases maps accepted header spellings to canonical column names.
var columnAliases = map[string]string{
	"subject_id":    "subject_id",
	"subject":       "subject_id",
	"usubjid":       "subject_id",
	"treatment_arm": "treatment_arm",
	"arm":           "treatment_arm",
	"group":         "treatment_arm",
	"visit_name":    "visit_name",
	"visit":         "visit_name",
	"systolic_bp":   "systolic_bp",
	"sbp":           "systolic_bp",
	"diastolic_bp":  "diastolic_bp",
	"dbp":           "diastolic_bp",
	"heart_rate":    "heart_rate",
	"hr":            "heart_rate",
	"pulse":         "heart_rate",
	"temperature":   "temperature",
	"temp":          "temperature",
}

func (r *DataReader) processRows(rows [][]string) ([]trial.VitalsRecord, error) {
	// Resolve header positions, tolerating alias spellings and any order.
	columns := map[string]int{}
	for i, header := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(header))
		if canonical, ok := columnAliases[key]; ok {
			columns[canonical] = i
		}
	}
	for _, required := range []string{"subject_id", "treatment_arm", "visit_name"} {
		if _, ok := columns[required]; !ok {
			return nil, apperrors.WorkbookError(fmt.Sprintf("missing required column %q", required), nil)
		}
	}

	cell := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []trial.VitalsRecord
	skipped := 0
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		subjectID := cell(row, "subject_id")
		visit := cell(row, "visit_name")
		if subjectID == "" || visit == "" {
			skipped++
			continue
		}
		records = append(records, trial.VitalsRecord{
			SubjectID:    subjectID,
			TreatmentArm: trial.Arm(cell(row, "treatment_arm")),
			VisitName:    visit,
			SystolicBP:   parseMeasurement(cell(row, "systolic_bp")),
			DiastolicBP:  parseMeasurement(cell(row, "diastolic_bp")),
			HeartRate:    parseMeasurement(cell(row, "heart_rate")),
			Temperature:  parseMeasurement(cell(row, "temperature")),
		})
	}

	if skipped > 0 {
		r.log.Warn("skipped %d rows without subject or visit", skipped)
	}
	r.log.Info("workbook processed (%d records, %d rows skipped)", len(records), skipped)
	return records, nil
}

// parseMeasurement converts a cell to an optional measurement. Blank cells
// and sentinel strings like "NA" map to a missing value.
func parseMeasurement(cell string) *float64 {
	if cell == "" {
		return nil
	}
	switch strings.ToUpper(cell) {
	case "NA", "N/A", "NULL", ".", "-":
		return nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil
	}
	return &v
}
