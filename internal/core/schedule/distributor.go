package schedule

import (
	"fmt"
	"time"

	"github.com/penwyp/go-meegle-timesheet/internal/core/model"
	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

// UserResolver maps an owner key to an email address and display name.
type UserResolver func(userKey string) (email, name string)

// EntryMeta carries the resolved project and activity metadata copied onto
// every entry generated for one work item.
type EntryMeta struct {
	Project          model.ProjectInfo
	ActivityCode     string
	MarketRegion     string
	Entity           string
	CategoryFunction string
	SubmissionDate   string
}

// Distribute spreads one schedule's effort evenly across its owners and
// the inclusive day span of its estimate window, emitting one entry per
// (owner, day). Effort is spread over the full calendar span on purpose;
// weekends and holidays are not excluded here.
//
// A schedule whose window fails to parse contributes nothing.
func Distribute(sched model.Schedule, item model.WorkItem, meta EntryMeta, resolve UserResolver) []model.TimelineEntry {
	if len(sched.Owners) == 0 || sched.Points <= 0 {
		return nil
	}

	startDay, endDay, ok := parseScheduleWindow(sched.EstimateStartDate, sched.EstimateEndDate)
	if !ok {
		util.LogDebugf("Invalid schedule dates on node %s: start=%v, end=%v",
			sched.NodeID, sched.EstimateStartDate, sched.EstimateEndDate)
		return nil
	}

	var days []string
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		days = append(days, day.Format(util.DateLayout))
	}

	perOwnerPerDay := sched.Points / float64(len(sched.Owners)) / float64(len(days))
	if perOwnerPerDay <= 0 {
		return nil
	}

	taskName := sched.TaskName
	if taskName == "" {
		taskName = "Node work"
	}
	description := fmt.Sprintf("%s - %s", sched.NodeName, taskName)
	remark := fmt.Sprintf("Work item: %d, Node: %s", item.ID, sched.NodeID)

	entries := make([]model.TimelineEntry, 0, len(days)*len(sched.Owners))
	for _, day := range days {
		for _, owner := range sched.Owners {
			email, name := resolve(owner)
			entries = append(entries, model.TimelineEntry{
				Date:             day,
				ProjectCode:      meta.Project.ProjectCode,
				ProjectType:      meta.Project.ProjectType,
				ProjectStatus:    meta.Project.ProjectStatus,
				ProjectName:      meta.Project.ProjectName,
				ActivityCode:     meta.ActivityCode,
				MarketRegion:     meta.MarketRegion,
				CategoryFunction: meta.CategoryFunction,
				Entity:           meta.Entity,
				MemberEmail:      email,
				MemberName:       name,
				WorkLoadHours:    perOwnerPerDay,
				Description:      description,
				SubmissionDate:   meta.SubmissionDate,
				Remark:           remark,
			})
		}
	}
	return entries
}

// parseScheduleWindow parses both ends of an estimate window and truncates
// them to calendar days. Windows that run backwards are rejected.
func parseScheduleWindow(start, end interface{}) (time.Time, time.Time, bool) {
	startTime, ok := ParseTimestamp(start)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	endTime, ok := ParseTimestamp(end)
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	startDay := truncateToDay(startTime)
	endDay := truncateToDay(endTime)
	if startDay.After(endDay) {
		return time.Time{}, time.Time{}, false
	}
	return startDay, endDay, true
}

// ParseTimestamp converts a schedule timestamp into a time. The API is not
// consistent about the representation: unix seconds, unix milliseconds,
// and a handful of date string layouts all occur.
func ParseTimestamp(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case float64:
		return fromUnix(v)
	case int64:
		return fromUnix(float64(v))
	case int:
		return fromUnix(float64(v))
	case string:
		for _, layout := range []string{util.DateLayout, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
			if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func fromUnix(v float64) (time.Time, bool) {
	if v <= 0 {
		return time.Time{}, false
	}
	if v > 1e10 {
		v = v / 1000 // milliseconds
	}
	return time.Unix(int64(v), 0), true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
