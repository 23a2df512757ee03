package schedule

import (
	"strings"

	"github.com/penwyp/go-meegle-timesheet/internal/core/model"
)

// AggregateEntries collapses the entries generated for one work item so
// that each (date, member email) pair yields a single row. Hours are
// summed; descriptions and remarks are concatenated unless the text is
// already present, since overlapping schedule fragments repeat themselves.
//
// Buckets whose hours end up non-positive are dropped. Output preserves
// the order in which keys were first seen.
func AggregateEntries(entries []model.TimelineEntry) []model.TimelineEntry {
	type key struct {
		date  string
		email string
	}

	buckets := make(map[key]*model.TimelineEntry)
	var order []key

	for _, entry := range entries {
		k := key{date: entry.Date, email: entry.MemberEmail}
		bucket, ok := buckets[k]
		if !ok {
			seed := entry
			buckets[k] = &seed
			order = append(order, k)
			continue
		}

		bucket.WorkLoadHours += entry.WorkLoadHours
		bucket.Description = appendUnique(bucket.Description, entry.Description)
		bucket.Remark = appendUnique(bucket.Remark, entry.Remark)
	}

	result := make([]model.TimelineEntry, 0, len(order))
	for _, k := range order {
		bucket := buckets[k]
		if bucket.WorkLoadHours <= 0 {
			continue
		}
		result = append(result, *bucket)
	}
	return result
}

// appendUnique appends addition to text unless it is empty or already a
// substring of text.
func appendUnique(text, addition string) string {
	if addition == "" {
		return text
	}
	if text == "" {
		return addition
	}
	if strings.Contains(text, addition) {
		return text
	}
	return text + " | " + addition
}
