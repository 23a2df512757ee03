package exporter

import (
	"fmt"
	"time"

	"github.com/penwyp/go-meegle-timesheet/internal/config"
	"github.com/penwyp/go-meegle-timesheet/internal/core/project"
	"github.com/penwyp/go-meegle-timesheet/internal/core/timeline"
	"github.com/penwyp/go-meegle-timesheet/internal/data/meegle"
	"github.com/penwyp/go-meegle-timesheet/internal/presentation/formatter"
	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

// Options selects what one export run covers and how it is written out.
type Options struct {
	ViewID    string
	TypeKey   string
	RangeName string
	StartDate string
	EndDate   string
	LastNDays int
	MaxItems  int
	BaseName  string
	Format    string
	Summary   bool
}

// Exporter runs the full pipeline: view extraction, aggregation, and
// file export.
type Exporter struct {
	cfg config.Config
}

// New creates an exporter for one configuration.
func New(cfg config.Config) *Exporter {
	return &Exporter{cfg: cfg}
}

// Run performs one export and returns the created file path.
func (e *Exporter) Run(opts Options) (string, error) {
	viewID := opts.ViewID
	if viewID == "" {
		viewID = e.cfg.ViewID
	}
	if viewID == "" {
		return "", fmt.Errorf("no view id given (set --view or view_id in config)")
	}

	typeKey := opts.TypeKey
	if typeKey == "" {
		typeKey = e.cfg.WorkItemTypeKey
	}

	startDate, endDate, err := resolveDates(opts)
	if err != nil {
		return "", err
	}

	tokens := meegle.NewTokenManager(
		e.cfg.PluginID, e.cfg.PluginSecret, e.cfg.UserKey,
		e.cfg.BaseURL, e.cfg.TokenCacheFile)
	client := meegle.NewClient(tokens, meegle.Options{
		BaseURL:       e.cfg.BaseURL,
		ProjectKey:    e.cfg.ProjectKey,
		MaxRetries:    e.cfg.MaxRetries,
		Timeout:       time.Duration(e.cfg.RequestTimeoutSeconds) * time.Second,
		UserCacheFile: e.cfg.UserCacheFile,
	})

	extractor := timeline.NewExtractor(client, project.Config{
		ProjectTypeKey:     e.cfg.ProjectTypeKey,
		ProjectNameField:   e.cfg.ProjectNameField,
		ProjectLinkFields:  e.cfg.ProjectLinkFields,
		TemplateActivities: e.cfg.TemplateActivities,
	})

	data, err := extractor.ExtractFromView(viewID, typeKey, timeline.Options{
		MaxItems:  opts.MaxItems,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		return "", err
	}

	stats := extractor.Stats()
	if stats.ItemsSkipped > 0 || stats.FailedProjects > 0 {
		util.LogWarnf("Export ran with gaps: %d items skipped, %d failed project lookups",
			stats.ItemsSkipped, stats.FailedProjects)
	}

	baseName := opts.BaseName
	if baseName == "" {
		baseName = "timesheet"
	}

	var path string
	switch opts.Format {
	case "", "csv":
		path, err = formatter.NewCSVFormatter(e.cfg.OutputDir).ExportToFile(baseName, data)
	case "json":
		path, err = formatter.NewJSONFormatter(e.cfg.OutputDir).ExportToFile(baseName, data)
	default:
		return "", fmt.Errorf("unknown output format %q", opts.Format)
	}
	if err != nil {
		return "", err
	}

	if opts.Summary {
		if err := formatter.NewSummaryFormatter().Format(data); err != nil {
			return "", err
		}
	}
	return path, nil
}

// resolveDates turns the range selection into concrete date bounds.
// Explicit --start/--end win over a named range, which wins over
// --last-days.
func resolveDates(opts Options) (string, string, error) {
	if opts.StartDate != "" || opts.EndDate != "" {
		if opts.RangeName != "" || opts.LastNDays > 0 {
			return "", "", fmt.Errorf("--start/--end cannot be combined with --range or --last-days")
		}
		return opts.StartDate, opts.EndDate, nil
	}
	if opts.RangeName != "" {
		if opts.LastNDays > 0 {
			return "", "", fmt.Errorf("--range cannot be combined with --last-days")
		}
		return timeline.RangeForName(opts.RangeName, util.GetTimeProvider().Now())
	}
	if opts.LastNDays > 0 {
		start, end := util.LastNDaysRange(util.GetTimeProvider().Now(), opts.LastNDays)
		return start, end, nil
	}
	return "", "", nil
}
