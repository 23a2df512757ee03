package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-meegle-timesheet/internal/core/timeline"
	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

var rangesCmd = &cobra.Command{
	Use:   "ranges",
	Short: "Print the canonical date ranges",
	Long: `Print the date bounds of every named range, evaluated in the
configured timezone. Useful for checking what --range would select.`,
	RunE: runRanges,
}

func init() {
	rootCmd.AddCommand(rangesCmd)
}

func runRanges(cmd *cobra.Command, args []string) error {
	if timezone == "" {
		timezone = "Local"
	}
	if err := util.InitializeTimeProvider(timezone); err != nil {
		return err
	}
	now := util.GetTimeProvider().Now()

	names := []string{
		"this-week", "last-week",
		"this-month", "last-month",
		"this-quarter", "last-quarter",
	}
	for _, name := range names {
		start, end, err := timeline.RangeForName(name, now)
		if err != nil {
			return err
		}
		fmt.Printf("%-14s %s to %s\n", name, start, end)
	}

	start, end := util.LastNDaysRange(now, 30)
	fmt.Printf("%-14s %s to %s\n", "last-30-days", start, end)
	return nil
}
