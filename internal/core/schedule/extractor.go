package schedule

import (
	"fmt"

	"github.com/penwyp/go-meegle-timesheet/internal/core/model"
	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

// ExtractNodeSchedules normalizes the scheduling information of one
// workflow node into a flat schedule list.
//
// Precedence between the three possible sources:
//   - Sub-task schedules and node-level schedules both present: arbitrate
//     per owner (see arbitrateOwners). No owner is counted from both sides.
//   - Only sub-tasks: sub-task schedules verbatim.
//   - No sub-tasks: the per-owner "schedules" list when present, otherwise
//     the singular node_schedule.
//
// Schedules with no owners or non-positive points are excluded entirely.
func ExtractNodeSchedules(node model.WorkflowNode) []model.Schedule {
	subSchedules := collectSubTaskSchedules(node)
	nodeSchedules := collectNodeSchedules(node)

	hasSubTasks := len(node.SubTasks) > 0
	hasNodeLevel := len(node.Schedules) > 0 || node.NodeSchedule != nil

	switch {
	case hasSubTasks && hasNodeLevel:
		return arbitrateOwners(subSchedules, nodeSchedules)
	case hasSubTasks:
		return subSchedules
	default:
		return nodeSchedules
	}
}

// collectSubTaskSchedules flattens all usable sub-task schedules.
func collectSubTaskSchedules(node model.WorkflowNode) []model.Schedule {
	var schedules []model.Schedule
	for _, task := range node.SubTasks {
		for _, raw := range task.Schedules {
			if !usable(raw) {
				continue
			}
			schedules = append(schedules, model.Schedule{
				Provenance:        model.ScheduleSubTask,
				NodeID:            node.ID,
				NodeName:          node.Name,
				TaskID:            task.ID,
				TaskName:          task.Name,
				Owners:            raw.Owners,
				Points:            raw.Points,
				EstimateStartDate: raw.EstimateStartDate,
				EstimateEndDate:   raw.EstimateEndDate,
			})
		}
	}
	return schedules
}

// collectNodeSchedules returns node-level schedules, preferring the
// per-owner list over the singular fallback.
func collectNodeSchedules(node model.WorkflowNode) []model.Schedule {
	var schedules []model.Schedule

	if len(node.Schedules) > 0 {
		for _, raw := range node.Schedules {
			if !usable(raw) {
				continue
			}
			schedules = append(schedules, model.Schedule{
				Provenance:        model.ScheduleNodeIndividual,
				NodeID:            node.ID,
				NodeName:          node.Name,
				Owners:            raw.Owners,
				Points:            raw.Points,
				EstimateStartDate: raw.EstimateStartDate,
				EstimateEndDate:   raw.EstimateEndDate,
			})
		}
		return schedules
	}

	if node.NodeSchedule != nil && usable(*node.NodeSchedule) {
		raw := *node.NodeSchedule
		schedules = append(schedules, model.Schedule{
			Provenance:        model.ScheduleNode,
			NodeID:            node.ID,
			NodeName:          node.Name,
			Owners:            raw.Owners,
			Points:            raw.Points,
			EstimateStartDate: raw.EstimateStartDate,
			EstimateEndDate:   raw.EstimateEndDate,
		})
	}
	return schedules
}

// usable reports whether a raw schedule can contribute workload at all.
func usable(raw model.RawSchedule) bool {
	return len(raw.Owners) > 0 && raw.Points > 0
}

// arbitrateOwners resolves the conflict between sub-task and node-level
// allocations. Per owner, whichever side carries the greater aggregate
// workload wins; the sub-task side wins ties. The business rule is the
// greater-or-equal comparison as operated in production; it is kept
// verbatim even though no written rationale for it exists.
func arbitrateOwners(subSchedules, nodeSchedules []model.Schedule) []model.Schedule {
	subTotals := ownerTotals(subSchedules)
	nodeTotals := ownerTotals(nodeSchedules)

	// Union of owners in first-seen order keeps output deterministic.
	var owners []string
	seen := make(map[string]struct{})
	for _, sched := range subSchedules {
		for _, owner := range sched.Owners {
			if _, ok := seen[owner]; !ok {
				seen[owner] = struct{}{}
				owners = append(owners, owner)
			}
		}
	}
	for _, sched := range nodeSchedules {
		for _, owner := range sched.Owners {
			if _, ok := seen[owner]; !ok {
				seen[owner] = struct{}{}
				owners = append(owners, owner)
			}
		}
	}

	var result []model.Schedule
	for _, owner := range owners {
		source := subSchedules
		if subTotals[owner] < nodeTotals[owner] {
			source = nodeSchedules
		}
		result = append(result, ownerShare(source, owner)...)
	}

	if len(result) > 0 {
		util.LogDebug(fmt.Sprintf("Arbitrated %d owners between %d sub-task and %d node-level schedules",
			len(owners), len(subSchedules), len(nodeSchedules)))
	}
	return result
}

// ownerTotals sums each owner's share of every schedule, splitting points
// evenly among a schedule's owners.
func ownerTotals(schedules []model.Schedule) map[string]float64 {
	totals := make(map[string]float64)
	for _, sched := range schedules {
		share := sched.Points / float64(len(sched.Owners))
		for _, owner := range sched.Owners {
			totals[owner] += share
		}
	}
	return totals
}

// ownerShare extracts one owner's slice of every schedule that includes
// them: same window, points reduced to the owner's even share.
func ownerShare(schedules []model.Schedule, owner string) []model.Schedule {
	var result []model.Schedule
	for _, sched := range schedules {
		for _, candidate := range sched.Owners {
			if candidate != owner {
				continue
			}
			single := sched
			single.Owners = []string{owner}
			single.Points = sched.Points / float64(len(sched.Owners))
			result = append(result, single)
			break
		}
	}
	return result
}
