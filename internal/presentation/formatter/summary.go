package formatter

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/penwyp/go-meegle-timesheet/internal/core/model"
)

// SummaryFormatter prints a per-member workload summary to stdout.
type SummaryFormatter struct{}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

// memberStat accumulates one member's share of the timeline.
type memberStat struct {
	Email string
	Name  string
	Days  map[string]struct{}
	Hours float64
}

// Format writes the summary report.
func (f *SummaryFormatter) Format(data *model.TimelineData) error {
	width := terminalWidth()

	fmt.Println(strings.Repeat("=", width))
	fmt.Println("Timesheet Summary Report")
	fmt.Println(strings.Repeat("=", width))
	fmt.Println()

	if data.DateRange != "" {
		fmt.Printf("Date Range: %s\n\n", data.DateRange)
	}

	if len(data.Entries) == 0 {
		fmt.Println("No entries to summarize")
		fmt.Println()
		fmt.Println(strings.Repeat("=", width))
		return nil
	}

	fmt.Printf("Entries: %d\n", len(data.Entries))
	fmt.Printf("Members: %d\n", data.UniqueUsers)
	fmt.Printf("Total Hours: %.1f\n\n", data.TotalHours)

	stats := collectMemberStats(data.Entries)

	fmt.Println("Member Breakdown:")
	fmt.Println(strings.Repeat("-", width))

	nameWidth := runewidth.StringWidth("Member")
	emailWidth := len("Email")
	for _, stat := range stats {
		if w := runewidth.StringWidth(stat.Name); w > nameWidth {
			nameWidth = w
		}
		if len(stat.Email) > emailWidth {
			emailWidth = len(stat.Email)
		}
	}

	fmt.Printf("%s  %s  %5s  %8s\n",
		runewidth.FillRight("Member", nameWidth),
		padRight("Email", emailWidth),
		"Days", "Hours")
	for _, stat := range stats {
		fmt.Printf("%s  %s  %5d  %8.1f\n",
			runewidth.FillRight(stat.Name, nameWidth),
			padRight(stat.Email, emailWidth),
			len(stat.Days), stat.Hours)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", width))
	return nil
}

// collectMemberStats groups entries per member, highest hours first.
func collectMemberStats(entries []model.TimelineEntry) []*memberStat {
	byEmail := make(map[string]*memberStat)
	for _, entry := range entries {
		stat, ok := byEmail[entry.MemberEmail]
		if !ok {
			stat = &memberStat{
				Email: entry.MemberEmail,
				Name:  entry.MemberName,
				Days:  make(map[string]struct{}),
			}
			byEmail[entry.MemberEmail] = stat
		}
		stat.Days[entry.Date] = struct{}{}
		stat.Hours += entry.WorkLoadHours
	}

	stats := make([]*memberStat, 0, len(byEmail))
	for _, stat := range byEmail {
		stats = append(stats, stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Hours != stats[j].Hours {
			return stats[i].Hours > stats[j].Hours
		}
		return stats[i].Email < stats[j].Email
	})
	return stats
}

// terminalWidth returns the separator width, capped so reports stay
// readable on wide terminals and usable when stdout is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 60
	}
	if width > 100 {
		return 100
	}
	return width
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
