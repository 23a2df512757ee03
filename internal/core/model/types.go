package model

// Schedule provenance values. Sub-task schedules carry the task they came
// from; node-level schedules leave TaskID/TaskName empty.
const (
	ScheduleSubTask        = "sub_task"
	ScheduleNodeIndividual = "node_individual"
	ScheduleNode           = "node"
)

// Schedule is a normalized allocation extracted from a workflow node: who
// works on it, how much effort in hours, and over which estimated window.
// Start/end are raw timestamps as delivered by the API (unix seconds,
// unix milliseconds, or a date string) and are parsed at distribution time.
type Schedule struct {
	Provenance        string
	NodeID            string
	NodeName          string
	TaskID            string
	TaskName          string
	Owners            []string
	Points            float64
	EstimateStartDate interface{}
	EstimateEndDate   interface{}
}

// ProjectInfo is the resolved metadata of a linked project work item.
type ProjectInfo struct {
	ProjectCode   string
	ProjectType   string
	ProjectStatus string
	ProjectName   string
}

// TimelineEntry is one reportable row of work: one person, one calendar
// day, one work item.
type TimelineEntry struct {
	Date             string  `json:"date"`
	ProjectCode      string  `json:"project_code"`
	ProjectType      string  `json:"project_type"`
	ProjectStatus    string  `json:"project_status"`
	ProjectName      string  `json:"project_name"`
	ActivityCode     string  `json:"activity_code"`
	MarketRegion     string  `json:"market_region"`
	CategoryFunction string  `json:"category_function"`
	Entity           string  `json:"entity"`
	MemberEmail      string  `json:"member_email"`
	MemberName       string  `json:"member_name"`
	WorkLoadHours    float64 `json:"work_load_hours"`
	Description      string  `json:"description"`
	SubmissionDate   string  `json:"submission_date"`
	ManagerSignoff   string  `json:"manager_signoff"`
	Remark           string  `json:"remark"`
}

// IsValid reports whether the entry carries enough data to be exported.
func (e TimelineEntry) IsValid() bool {
	if e.Date == "" || e.MemberEmail == "" {
		return false
	}
	return e.WorkLoadHours > 0
}

// TimelineData is an ordered collection of timeline entries with derived
// statistics. Statistics are computed at construction and never patched,
// so filtering always goes through NewTimelineData.
type TimelineData struct {
	Entries     []TimelineEntry `json:"entries"`
	TotalHours  float64         `json:"total_hours"`
	UniqueUsers int             `json:"unique_users"`
	DateRange   string          `json:"date_range"`
}

// NewTimelineData builds TimelineData from entries, computing total hours
// and the distinct non-empty email count. When label is empty the date
// range is derived from the entries: a single date, "min to max", or ""
// for an empty set.
func NewTimelineData(entries []TimelineEntry, label string) TimelineData {
	total := 0.0
	emails := make(map[string]struct{})
	for _, entry := range entries {
		total += entry.WorkLoadHours
		if entry.MemberEmail != "" {
			emails[entry.MemberEmail] = struct{}{}
		}
	}

	dateRange := label
	if dateRange == "" {
		dateRange = calculateDateRange(entries)
	}

	return TimelineData{
		Entries:     entries,
		TotalHours:  total,
		UniqueUsers: len(emails),
		DateRange:   dateRange,
	}
}

// calculateDateRange summarizes the dates present in entries.
func calculateDateRange(entries []TimelineEntry) string {
	minDate, maxDate := "", ""
	for _, entry := range entries {
		if entry.Date == "" {
			continue
		}
		if minDate == "" || entry.Date < minDate {
			minDate = entry.Date
		}
		if maxDate == "" || entry.Date > maxDate {
			maxDate = entry.Date
		}
	}

	if minDate == "" {
		return ""
	}
	if minDate == maxDate {
		return minDate
	}
	return minDate + " to " + maxDate
}
