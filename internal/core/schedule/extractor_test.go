package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-meegle-timesheet/internal/core/model"
)

func rawSchedule(owners []string, points float64) model.RawSchedule {
	return model.RawSchedule{
		Owners:            owners,
		Points:            points,
		EstimateStartDate: "2024-01-08",
		EstimateEndDate:   "2024-01-09",
	}
}

func TestExtractNodeSchedulesSubTasksOnly(t *testing.T) {
	node := model.WorkflowNode{
		ID:   "node1",
		Name: "Development",
		SubTasks: []model.SubTask{
			{ID: "t1", Name: "Backend", Schedules: []model.RawSchedule{rawSchedule([]string{"alice"}, 8)}},
			{ID: "t2", Name: "Frontend", Schedules: []model.RawSchedule{rawSchedule([]string{"bob"}, 4)}},
		},
	}

	schedules := ExtractNodeSchedules(node)
	require.Len(t, schedules, 2)
	assert.Equal(t, model.ScheduleSubTask, schedules[0].Provenance)
	assert.Equal(t, "Backend", schedules[0].TaskName)
	assert.Equal(t, []string{"alice"}, schedules[0].Owners)
	assert.Equal(t, 8.0, schedules[0].Points)
	assert.Equal(t, "Frontend", schedules[1].TaskName)
}

func TestExtractNodeSchedulesNodeLevelList(t *testing.T) {
	node := model.WorkflowNode{
		ID:        "node1",
		Name:      "Testing",
		Schedules: []model.RawSchedule{rawSchedule([]string{"carol"}, 6)},
		// The singular schedule is ignored when the list is present.
		NodeSchedule: ptrSchedule(rawSchedule([]string{"dave"}, 99)),
	}

	schedules := ExtractNodeSchedules(node)
	require.Len(t, schedules, 1)
	assert.Equal(t, model.ScheduleNodeIndividual, schedules[0].Provenance)
	assert.Equal(t, []string{"carol"}, schedules[0].Owners)
	assert.Empty(t, schedules[0].TaskID)
}

func TestExtractNodeSchedulesSingularFallback(t *testing.T) {
	node := model.WorkflowNode{
		ID:           "node1",
		Name:         "Review",
		NodeSchedule: ptrSchedule(rawSchedule([]string{"erin"}, 2)),
	}

	schedules := ExtractNodeSchedules(node)
	require.Len(t, schedules, 1)
	assert.Equal(t, model.ScheduleNode, schedules[0].Provenance)
	assert.Equal(t, 2.0, schedules[0].Points)
}

func TestExtractNodeSchedulesFiltersUnusable(t *testing.T) {
	node := model.WorkflowNode{
		ID: "node1",
		SubTasks: []model.SubTask{
			{ID: "t1", Schedules: []model.RawSchedule{
				rawSchedule(nil, 8),               // no owners
				rawSchedule([]string{"alice"}, 0), // no points
				rawSchedule([]string{"bob"}, 3),
			}},
		},
	}

	schedules := ExtractNodeSchedules(node)
	require.Len(t, schedules, 1)
	assert.Equal(t, []string{"bob"}, schedules[0].Owners)
}

func TestExtractNodeSchedulesEmptyNode(t *testing.T) {
	assert.Empty(t, ExtractNodeSchedules(model.WorkflowNode{ID: "node1"}))
}

func TestArbitrationPerOwner(t *testing.T) {
	node := model.WorkflowNode{
		ID:   "node1",
		Name: "Development",
		SubTasks: []model.SubTask{
			{ID: "t1", Name: "Task A", Schedules: []model.RawSchedule{
				rawSchedule([]string{"alice"}, 5),
				rawSchedule([]string{"bob"}, 2),
			}},
		},
		Schedules: []model.RawSchedule{
			rawSchedule([]string{"alice"}, 3),
			rawSchedule([]string{"bob"}, 4),
		},
	}

	schedules := ExtractNodeSchedules(node)
	require.Len(t, schedules, 2)

	byOwner := map[string]model.Schedule{}
	for _, sched := range schedules {
		require.Len(t, sched.Owners, 1)
		byOwner[sched.Owners[0]] = sched
	}

	// Alice has more on the sub-task side, Bob more on the node side.
	assert.Equal(t, model.ScheduleSubTask, byOwner["alice"].Provenance)
	assert.Equal(t, 5.0, byOwner["alice"].Points)
	assert.Equal(t, model.ScheduleNodeIndividual, byOwner["bob"].Provenance)
	assert.Equal(t, 4.0, byOwner["bob"].Points)
}

func TestArbitrationSubTaskWinsTies(t *testing.T) {
	node := model.WorkflowNode{
		ID: "node1",
		SubTasks: []model.SubTask{
			{ID: "t1", Schedules: []model.RawSchedule{rawSchedule([]string{"alice"}, 3)}},
		},
		Schedules: []model.RawSchedule{rawSchedule([]string{"alice"}, 3)},
	}

	schedules := ExtractNodeSchedules(node)
	require.Len(t, schedules, 1)
	assert.Equal(t, model.ScheduleSubTask, schedules[0].Provenance)
}

func TestArbitrationOwnerOnlyOnOneSide(t *testing.T) {
	node := model.WorkflowNode{
		ID: "node1",
		SubTasks: []model.SubTask{
			{ID: "t1", Schedules: []model.RawSchedule{rawSchedule([]string{"alice"}, 5)}},
		},
		Schedules: []model.RawSchedule{rawSchedule([]string{"bob"}, 2)},
	}

	schedules := ExtractNodeSchedules(node)
	require.Len(t, schedules, 2)

	owners := []string{schedules[0].Owners[0], schedules[1].Owners[0]}
	assert.ElementsMatch(t, []string{"alice", "bob"}, owners)
}

func TestArbitrationSplitsSharedSchedules(t *testing.T) {
	node := model.WorkflowNode{
		ID: "node1",
		SubTasks: []model.SubTask{
			{ID: "t1", Schedules: []model.RawSchedule{rawSchedule([]string{"alice", "bob"}, 6)}},
		},
		Schedules: []model.RawSchedule{rawSchedule([]string{"alice"}, 1)},
	}

	schedules := ExtractNodeSchedules(node)
	require.Len(t, schedules, 2)
	for _, sched := range schedules {
		require.Len(t, sched.Owners, 1)
		// Each owner gets half of the shared six points.
		assert.Equal(t, 3.0, sched.Points)
		assert.Equal(t, model.ScheduleSubTask, sched.Provenance)
	}
}

func ptrSchedule(raw model.RawSchedule) *model.RawSchedule {
	return &raw
}
