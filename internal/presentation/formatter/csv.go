package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/penwyp/go-meegle-timesheet/internal/core/model"
	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

// Timesheet template header block. The target spreadsheet template leads
// with a blank row, an English header row, a Chinese header row, and an
// example row; data starts on row five. Column one and the three trailing
// columns stay empty throughout.

var csvHeadersEN = []string{
	"", "Project code", "Project type", "Project status", "Project name",
	"Activity code", "Market /region", "Category / function", "Entity",
	"Member email", "Date", "Work load / hours charged", "Description / comments",
	"Submission date", "Manager's sign-off", "Remark", "", "", "",
}

var csvHeadersCN = []string{
	"", "项目代码", "项目类型", "项目状态", "项目描述",
	"活动代码", "市场", "产品线", "事业部",
	"员工邮箱", "日期", "耗时", "工作内容具体描述",
	"提交日期", "审批记录", "备注", "", "", "",
}

var csvExampleRow = []string{
	"", "e.g. PRD-PH-ADVI-ICS-001-V3", "Project / Product",
	"[Project status]", "[Project description]",
	"Development / Maintenance", "Region", "Function",
	"Entity", "[Email]", "[Date]", "[Hours]", "[Description]",
	"[Submit date]", "[Manager signoff]", "[Remark]", "", "", "",
}

// CSVFormatter writes timeline data in the timesheet template layout.
type CSVFormatter struct {
	OutputDir string
}

// NewCSVFormatter creates a CSV formatter writing into outputDir.
func NewCSVFormatter(outputDir string) *CSVFormatter {
	return &CSVFormatter{OutputDir: outputDir}
}

// Write renders the template header block and all valid entries. Invalid
// entries are skipped with a warning rather than failing the export.
func (f *CSVFormatter) Write(w io.Writer, data *model.TimelineData) error {
	writer := csv.NewWriter(w)

	headerRows := [][]string{
		make([]string, len(csvHeadersEN)),
		csvHeadersEN,
		csvHeadersCN,
		csvExampleRow,
	}
	for _, row := range headerRows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	valid := 0
	for _, entry := range data.Entries {
		if !entry.IsValid() {
			util.LogWarnf("Skipping invalid entry: date=%q email=%q hours=%g",
				entry.Date, entry.MemberEmail, entry.WorkLoadHours)
			continue
		}
		if err := writer.Write(entryRow(entry)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
		valid++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	util.LogInfof("Wrote %d valid entries of %d", valid, len(data.Entries))
	return nil
}

// ExportToFile writes the CSV into OutputDir under a timestamped name and
// returns the created path.
func (f *CSVFormatter) ExportToFile(baseName string, data *model.TimelineData) (string, error) {
	if err := os.MkdirAll(f.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", f.OutputDir, err)
	}

	timestamp := util.GetTimeProvider().FormatNow("20060102_150405")
	path := filepath.Join(f.OutputDir, fmt.Sprintf("%s_%s.csv", baseName, timestamp))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := f.Write(file, data); err != nil {
		return "", err
	}
	util.LogInfof("Exported timeline to %s", path)
	return path, nil
}

// entryRow maps one entry onto the template's column layout.
func entryRow(e model.TimelineEntry) []string {
	return []string{
		"",
		e.ProjectCode,
		e.ProjectType,
		e.ProjectStatus,
		e.ProjectName,
		e.ActivityCode,
		e.MarketRegion,
		e.CategoryFunction,
		e.Entity,
		e.MemberEmail,
		e.Date,
		strconv.FormatFloat(e.WorkLoadHours, 'g', -1, 64),
		e.Description,
		e.SubmissionDate,
		e.ManagerSignoff,
		e.Remark,
		"", "", "",
	}
}
