package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-meegle-timesheet/internal/config"
	"github.com/penwyp/go-meegle-timesheet/internal/exporter"
	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

var (
	// Logging related
	debug bool

	// Configuration
	configPath string

	// Extraction scope
	viewID    string
	typeKey   string
	rangeName string
	startDate string
	endDate   string
	lastDays  int
	maxItems  int

	// Output related
	outputFormat string
	outputDir    string
	baseName     string
	showSummary  bool
	timezone     string

	rootCmd = &cobra.Command{
		Use:   "go-meegle-timesheet [flags]",
		Short: "Meegle view timesheet export tool",
		Long: `go-meegle-timesheet extracts workload timelines from a Meegle view and
exports them as timesheet files.

For every work item in the view it reads the workflow schedules, spreads
each schedule's effort evenly across its owners and estimated days, and
aggregates the result into one row per member per day.

Examples:
  go-meegle-timesheet --view MlQvBlVWg                  # Export a whole view
  go-meegle-timesheet --view MlQvBlVWg --range last-week
  go-meegle-timesheet --view MlQvBlVWg --last-days 30
  go-meegle-timesheet --view MlQvBlVWg --start 2026-08-01 --end 2026-08-15
  go-meegle-timesheet --view MlQvBlVWg --format json --summary`,
		RunE: runExport,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file path (default config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "",
		"Timezone setting (e.g., Asia/Shanghai, UTC)")

	rootCmd.Flags().StringVarP(&viewID, "view", "v", "",
		"View ID to extract work items from")
	rootCmd.Flags().StringVarP(&typeKey, "type", "t", "",
		"Work item type key (default from config, usually story)")
	rootCmd.Flags().StringVarP(&rangeName, "range", "r", "",
		"Named date range (this-week, last-week, this-month, last-month, this-quarter, last-quarter)")
	rootCmd.Flags().StringVar(&startDate, "start", "",
		"Start date filter (YYYY-MM-DD, inclusive)")
	rootCmd.Flags().StringVar(&endDate, "end", "",
		"End date filter (YYYY-MM-DD, inclusive)")
	rootCmd.Flags().IntVar(&lastDays, "last-days", 0,
		"Export the last N days including today")
	rootCmd.Flags().IntVar(&maxItems, "max-items", 0,
		"Limit processed work items (0 = unlimited)")

	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "csv",
		"Output format (csv, json)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "",
		"Output directory (default from config)")
	rootCmd.Flags().StringVar(&baseName, "name", "timesheet",
		"Base name for the output file")
	rootCmd.Flags().BoolVarP(&showSummary, "summary", "s", false,
		"Print a per-member summary after the export")
}

const defaultLogFile = "~/.go-meegle-timesheet/logs/app.log"

// loadRuntime loads configuration and initializes logging and the time
// provider. Shared by all commands.
func loadRuntime() (config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, err
	}

	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if timezone != "" {
		cfg.Timezone = timezone
	}

	logLevel := cfg.LogLevel
	if debug {
		logLevel = "debug"
	}
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = expandPath(defaultLogFile)
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return config.Config{}, fmt.Errorf("failed to create log directory: %w", err)
	}
	util.InitLogger(logLevel, logFile, debug)
	if err := util.InitializeTimeProvider(cfg.Timezone); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadRuntime()
	if err != nil {
		return err
	}

	path, err := exporter.New(cfg).Run(exporter.Options{
		ViewID:    viewID,
		TypeKey:   typeKey,
		RangeName: rangeName,
		StartDate: startDate,
		EndDate:   endDate,
		LastNDays: lastDays,
		MaxItems:  maxItems,
		BaseName:  baseName,
		Format:    outputFormat,
		Summary:   showSummary,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Exported: %s\n", path)
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
