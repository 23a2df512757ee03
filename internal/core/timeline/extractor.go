package timeline

import (
	"fmt"
	"time"

	"github.com/penwyp/go-meegle-timesheet/internal/core/model"
	"github.com/penwyp/go-meegle-timesheet/internal/core/project"
	"github.com/penwyp/go-meegle-timesheet/internal/core/schedule"
	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

// batchSize is the largest work item batch the detail endpoint accepts.
const batchSize = 50

// Source is the data plane the extractor runs against.
type Source interface {
	// ListWorkItemIDsInView returns the ids of all work items in a view.
	ListWorkItemIDsInView(viewID string) ([]int64, error)
	// GetWorkItemDetails fetches full details for a batch of work items.
	GetWorkItemDetails(typeKey string, ids []int64) ([]model.WorkItem, error)
	// GetWorkflowNodes fetches the workflow nodes of one work item.
	GetWorkflowNodes(typeKey string, id int64) ([]model.WorkflowNode, error)
	// GetWorkItemByID fetches a single work item, usually a linked project.
	GetWorkItemByID(id string, typeKey string) (*model.WorkItem, error)
	// ResolveUser maps an owner key to an email address and display name.
	ResolveUser(userKey string) (email, name string)
}

// Options narrows one extraction run. StartDate and EndDate filter entries
// by date (inclusive, "2006-01-02"); either may be empty for an open end.
// MaxItems caps how many view items are processed, zero meaning all.
type Options struct {
	MaxItems  int
	StartDate string
	EndDate   string
}

// Stats counts everything an extraction run skipped or failed. The run
// itself never aborts on a single bad item; these counters are how callers
// observe the damage.
type Stats struct {
	ItemsInView      int
	ItemsProcessed   int
	ItemsSkipped     int
	BatchesFailed    int
	WorkflowsFailed  int
	EntriesExtracted int
	EntriesFiltered  int
	FailedProjects   int
}

// Extractor turns a Meegle view into aggregated timeline entries.
type Extractor struct {
	source   Source
	resolver *project.Resolver
	stats    Stats
}

// NewExtractor creates an extractor with a fresh per-run project resolver.
func NewExtractor(source Source, resolverConfig project.Config) *Extractor {
	return &Extractor{
		source:   source,
		resolver: project.NewResolver(source, resolverConfig),
	}
}

// Stats returns the counters of the last extraction run.
func (e *Extractor) Stats() Stats {
	return e.stats
}

// ExtractFromView extracts timeline entries for every work item in a view.
//
// The run is best effort throughout: a failed detail batch or workflow
// query skips the affected items and continues, counted in Stats. Only a
// failure to list the view itself is fatal.
func (e *Extractor) ExtractFromView(viewID, typeKey string, opts Options) (*model.TimelineData, error) {
	e.stats = Stats{}
	startDate, endDate := normalizeDateFilter(opts.StartDate, opts.EndDate)

	ids, err := e.source.ListWorkItemIDsInView(viewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work items in view %s: %w", viewID, err)
	}
	e.stats.ItemsInView = len(ids)

	if opts.MaxItems > 0 && len(ids) > opts.MaxItems {
		util.LogInfof("Limiting extraction to first %d of %d work items", opts.MaxItems, len(ids))
		ids = ids[:opts.MaxItems]
	}
	util.LogInfof("Extracting timeline from view %s: %d work items", viewID, len(ids))

	var entries []model.TimelineEntry
	for offset := 0; offset < len(ids); offset += batchSize {
		end := offset + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[offset:end]

		items, err := e.source.GetWorkItemDetails(typeKey, batch)
		if err != nil {
			util.LogWarnf("Failed to fetch details for batch of %d items: %v", len(batch), err)
			e.stats.BatchesFailed++
			e.stats.ItemsSkipped += len(batch)
			continue
		}

		for _, item := range items {
			itemEntries, ok := e.extractItem(typeKey, item)
			if !ok {
				e.stats.ItemsSkipped++
				continue
			}
			e.stats.ItemsProcessed++
			entries = append(entries, itemEntries...)
		}
	}

	e.stats.EntriesExtracted = len(entries)
	if startDate != "" || endDate != "" {
		entries = filterByDate(entries, startDate, endDate)
		e.stats.EntriesFiltered = e.stats.EntriesExtracted - len(entries)
	}
	e.stats.FailedProjects = e.resolver.FailedLookupCount()

	label := viewLabel(viewID, startDate, endDate)
	data := model.NewTimelineData(entries, label)
	util.LogInfof("Extraction complete: %d entries, %.1f hours, %d users (%d items skipped)",
		len(data.Entries), data.TotalHours, data.UniqueUsers, e.stats.ItemsSkipped)
	return &data, nil
}

// extractItem processes one work item's workflow into aggregated entries.
// Returns ok=false when the item had to be skipped.
func (e *Extractor) extractItem(typeKey string, item model.WorkItem) ([]model.TimelineEntry, bool) {
	nodes, err := e.source.GetWorkflowNodes(typeKey, item.ID)
	if err != nil {
		util.LogWarnf("Failed to fetch workflow for work item %d: %v", item.ID, err)
		e.stats.WorkflowsFailed++
		return nil, false
	}

	meta := e.metaForItem(item)

	var entries []model.TimelineEntry
	for _, node := range nodes {
		for _, sched := range schedule.ExtractNodeSchedules(node) {
			entries = append(entries, schedule.Distribute(sched, item, meta, e.source.ResolveUser)...)
		}
	}
	return schedule.AggregateEntries(entries), true
}

// metaForItem resolves the project and activity metadata stamped onto
// every entry of one work item.
func (e *Extractor) metaForItem(item model.WorkItem) schedule.EntryMeta {
	info := e.resolver.ProjectInfoForItem(item)
	market, entity, category := project.ParseProjectCode(info.ProjectCode)
	return schedule.EntryMeta{
		Project:          info,
		ActivityCode:     e.resolver.ActivityCode(item),
		MarketRegion:     market,
		Entity:           entity,
		CategoryFunction: category,
		SubmissionDate:   util.GetTimeProvider().FormatNow(util.DateLayout),
	}
}

// normalizeDateFilter swaps a reversed filter rather than silently
// producing an empty result.
func normalizeDateFilter(start, end string) (string, string) {
	if start != "" && end != "" && start > end {
		util.LogWarnf("Date filter reversed (start %s after end %s), swapping", start, end)
		return end, start
	}
	return start, end
}

// filterByDate keeps entries whose date falls inside the inclusive range.
// Dates are "2006-01-02" strings, so lexicographic comparison is correct.
func filterByDate(entries []model.TimelineEntry, start, end string) []model.TimelineEntry {
	filtered := make([]model.TimelineEntry, 0, len(entries))
	for _, entry := range entries {
		if start != "" && entry.Date < start {
			continue
		}
		if end != "" && entry.Date > end {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

func viewLabel(viewID, start, end string) string {
	if start != "" || end != "" {
		return fmt.Sprintf("view %s (%s to %s)", viewID, orOpen(start), orOpen(end))
	}
	return fmt.Sprintf("view %s", viewID)
}

func orOpen(date string) string {
	if date == "" {
		return "open"
	}
	return date
}

// The convenience wrappers below run ExtractFromView over a canonical
// calendar range, evaluated against the configured timezone.

// ExtractThisWeek extracts entries dated in the current Monday-to-Sunday week.
func (e *Extractor) ExtractThisWeek(viewID, typeKey string, maxItems int) (*model.TimelineData, error) {
	start, end := util.ThisWeekRange(util.GetTimeProvider().Now())
	return e.ExtractFromView(viewID, typeKey, Options{MaxItems: maxItems, StartDate: start, EndDate: end})
}

// ExtractLastWeek extracts entries dated in the previous week.
func (e *Extractor) ExtractLastWeek(viewID, typeKey string, maxItems int) (*model.TimelineData, error) {
	start, end := util.LastWeekRange(util.GetTimeProvider().Now())
	return e.ExtractFromView(viewID, typeKey, Options{MaxItems: maxItems, StartDate: start, EndDate: end})
}

// ExtractThisMonth extracts entries dated in the current calendar month.
func (e *Extractor) ExtractThisMonth(viewID, typeKey string, maxItems int) (*model.TimelineData, error) {
	start, end := util.ThisMonthRange(util.GetTimeProvider().Now())
	return e.ExtractFromView(viewID, typeKey, Options{MaxItems: maxItems, StartDate: start, EndDate: end})
}

// ExtractLastMonth extracts entries dated in the previous calendar month.
func (e *Extractor) ExtractLastMonth(viewID, typeKey string, maxItems int) (*model.TimelineData, error) {
	start, end := util.LastMonthRange(util.GetTimeProvider().Now())
	return e.ExtractFromView(viewID, typeKey, Options{MaxItems: maxItems, StartDate: start, EndDate: end})
}

// ExtractThisQuarter extracts entries dated in the current calendar quarter.
func (e *Extractor) ExtractThisQuarter(viewID, typeKey string, maxItems int) (*model.TimelineData, error) {
	start, end := util.ThisQuarterRange(util.GetTimeProvider().Now())
	return e.ExtractFromView(viewID, typeKey, Options{MaxItems: maxItems, StartDate: start, EndDate: end})
}

// ExtractLastQuarter extracts entries dated in the previous calendar quarter.
func (e *Extractor) ExtractLastQuarter(viewID, typeKey string, maxItems int) (*model.TimelineData, error) {
	start, end := util.LastQuarterRange(util.GetTimeProvider().Now())
	return e.ExtractFromView(viewID, typeKey, Options{MaxItems: maxItems, StartDate: start, EndDate: end})
}

// ExtractLastNDays extracts entries dated in the last n days, today included.
func (e *Extractor) ExtractLastNDays(viewID, typeKey string, n, maxItems int) (*model.TimelineData, error) {
	start, end := util.LastNDaysRange(util.GetTimeProvider().Now(), n)
	return e.ExtractFromView(viewID, typeKey, Options{MaxItems: maxItems, StartDate: start, EndDate: end})
}

// RangeForName maps a named range to its date bounds, evaluated now.
// Recognized names: this-week, last-week, this-month, last-month,
// this-quarter, last-quarter.
func RangeForName(name string, now time.Time) (string, string, error) {
	switch name {
	case "this-week":
		start, end := util.ThisWeekRange(now)
		return start, end, nil
	case "last-week":
		start, end := util.LastWeekRange(now)
		return start, end, nil
	case "this-month":
		start, end := util.ThisMonthRange(now)
		return start, end, nil
	case "last-month":
		start, end := util.LastMonthRange(now)
		return start, end, nil
	case "this-quarter":
		start, end := util.ThisQuarterRange(now)
		return start, end, nil
	case "last-quarter":
		start, end := util.LastQuarterRange(now)
		return start, end, nil
	default:
		return "", "", fmt.Errorf("unknown range %q", name)
	}
}
