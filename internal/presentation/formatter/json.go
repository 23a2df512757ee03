package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-meegle-timesheet/internal/core/model"
	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

// JSONFormatter renders timeline data as indented JSON.
type JSONFormatter struct {
	OutputDir string
}

// NewJSONFormatter creates a JSON formatter writing into outputDir.
func NewJSONFormatter(outputDir string) *JSONFormatter {
	return &JSONFormatter{OutputDir: outputDir}
}

// Write renders the timeline as JSON.
func (f *JSONFormatter) Write(w io.Writer, data *model.TimelineData) error {
	raw, err := sonic.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode timeline: %w", err)
	}
	raw = append(raw, '\n')
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// ExportToFile writes the JSON into OutputDir under a timestamped name
// and returns the created path.
func (f *JSONFormatter) ExportToFile(baseName string, data *model.TimelineData) (string, error) {
	if err := os.MkdirAll(f.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", f.OutputDir, err)
	}

	timestamp := util.GetTimeProvider().FormatNow("20060102_150405")
	path := filepath.Join(f.OutputDir, fmt.Sprintf("%s_%s.json", baseName, timestamp))

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
