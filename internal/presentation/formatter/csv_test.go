package formatter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-meegle-timesheet/internal/core/model"
)

func sampleEntry() model.TimelineEntry {
	return model.TimelineEntry{
		Date:             "2024-01-08",
		ProjectCode:      "PRD-PH-ADVI-ICS-001-V3",
		ProjectType:      "Product",
		ProjectStatus:    "Open",
		ProjectName:      "Advisory ICS",
		ActivityCode:     "Feature",
		MarketRegion:     "PH",
		CategoryFunction: "ICS",
		Entity:           "ADVI",
		MemberEmail:      "alice@company.com",
		MemberName:       "Alice",
		WorkLoadHours:    2.5,
		Description:      "Development - Backend",
		SubmissionDate:   "2024-01-15",
		Remark:           "Work item: 1001, Node: node1",
	}
}

func TestCSVWriteTemplateLayout(t *testing.T) {
	data := model.NewTimelineData([]model.TimelineEntry{sampleEntry()}, "")

	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter("").Write(&buf, &data))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)

	// Blank row, English header, Chinese header, example row, then data.
	for _, cell := range rows[0] {
		assert.Empty(t, cell)
	}
	assert.Equal(t, "Project code", rows[1][1])
	assert.Equal(t, "Member email", rows[1][9])
	assert.Equal(t, "项目代码", rows[2][1])
	assert.Contains(t, rows[3][1], "PRD-PH-ADVI-ICS-001-V3")

	dataRow := rows[4]
	assert.Equal(t, "", dataRow[0])
	assert.Equal(t, "PRD-PH-ADVI-ICS-001-V3", dataRow[1])
	assert.Equal(t, "alice@company.com", dataRow[9])
	assert.Equal(t, "2024-01-08", dataRow[10])
	assert.Equal(t, "2.5", dataRow[11])
	assert.Equal(t, "Development - Backend", dataRow[12])
	assert.Equal(t, "Work item: 1001, Node: node1", dataRow[15])
}

func TestCSVWriteSkipsInvalidEntries(t *testing.T) {
	invalid := sampleEntry()
	invalid.MemberEmail = ""
	data := model.NewTimelineData([]model.TimelineEntry{sampleEntry(), invalid}, "")

	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter("").Write(&buf, &data))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 5) // headers + one valid row
}

func TestCSVWriteEmptyTimeline(t *testing.T) {
	data := model.NewTimelineData(nil, "")

	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter("").Write(&buf, &data))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4) // template header block only
}

func TestCSVExportToFile(t *testing.T) {
	dir := t.TempDir()
	data := model.NewTimelineData([]model.TimelineEntry{sampleEntry()}, "")

	path, err := NewCSVFormatter(dir).ExportToFile("timesheet", &data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "timesheet_"))
	assert.True(t, strings.HasSuffix(path, ".csv"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "alice@company.com")
}

func TestJSONWrite(t *testing.T) {
	data := model.NewTimelineData([]model.TimelineEntry{sampleEntry()}, "view X")

	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter("").Write(&buf, &data))

	out := buf.String()
	assert.Contains(t, out, `"alice@company.com"`)
	assert.Contains(t, out, `"view X"`)
	assert.Contains(t, out, `"total_hours"`)
}

func TestSummaryFormat(t *testing.T) {
	data := model.NewTimelineData([]model.TimelineEntry{sampleEntry()}, "")
	assert.NoError(t, NewSummaryFormatter().Format(&data))

	empty := model.NewTimelineData(nil, "")
	assert.NoError(t, NewSummaryFormatter().Format(&empty))
}
