package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimelineEntryIsValid(t *testing.T) {
	tests := []struct {
		name  string
		entry TimelineEntry
		want  bool
	}{
		{name: "valid", entry: TimelineEntry{Date: "2024-01-10", MemberEmail: "a@company.com", WorkLoadHours: 2}, want: true},
		{name: "missing date", entry: TimelineEntry{MemberEmail: "a@company.com", WorkLoadHours: 2}, want: false},
		{name: "missing email", entry: TimelineEntry{Date: "2024-01-10", WorkLoadHours: 2}, want: false},
		{name: "zero hours", entry: TimelineEntry{Date: "2024-01-10", MemberEmail: "a@company.com"}, want: false},
		{name: "negative hours", entry: TimelineEntry{Date: "2024-01-10", MemberEmail: "a@company.com", WorkLoadHours: -1}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.IsValid())
		})
	}
}

func TestNewTimelineData(t *testing.T) {
	entries := []TimelineEntry{
		{Date: "2024-01-10", MemberEmail: "a@company.com", WorkLoadHours: 2},
		{Date: "2024-01-11", MemberEmail: "b@company.com", WorkLoadHours: 3},
		{Date: "2024-01-09", MemberEmail: "a@company.com", WorkLoadHours: 1.5},
	}

	data := NewTimelineData(entries, "")
	assert.InDelta(t, 6.5, data.TotalHours, 1e-9)
	assert.Equal(t, 2, data.UniqueUsers)
	assert.Equal(t, "2024-01-09 to 2024-01-11", data.DateRange)
}

func TestNewTimelineDataLabelWins(t *testing.T) {
	data := NewTimelineData([]TimelineEntry{{Date: "2024-01-10", MemberEmail: "a@company.com", WorkLoadHours: 1}}, "view X")
	assert.Equal(t, "view X", data.DateRange)
}

func TestNewTimelineDataEdgeCases(t *testing.T) {
	empty := NewTimelineData(nil, "")
	assert.Equal(t, 0.0, empty.TotalHours)
	assert.Equal(t, 0, empty.UniqueUsers)
	assert.Equal(t, "", empty.DateRange)

	single := NewTimelineData([]TimelineEntry{
		{Date: "2024-01-10", MemberEmail: "a@company.com", WorkLoadHours: 4},
		{Date: "2024-01-10", MemberEmail: "b@company.com", WorkLoadHours: 4},
	}, "")
	assert.Equal(t, "2024-01-10", single.DateRange)
}
