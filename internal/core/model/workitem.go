package model

// FieldValue is one entry of a work item's custom field list.
type FieldValue struct {
	FieldKey   string      `json:"field_key"`
	FieldValue interface{} `json:"field_value"`
}

// StatusInfo is the lifecycle state of a work item.
type StatusInfo struct {
	StateKey string `json:"state_key"`
	Name     string `json:"name"`
}

// WorkItem is a Meegle work item as returned by the query endpoints. Only
// the fields the timeline pipeline reads are modeled; everything else rides
// in the Fields list.
type WorkItem struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	WorkItemTypeKey string       `json:"work_item_type_key"`
	TemplateID      int64        `json:"template_id"`
	SimpleName      string       `json:"simple_name"`
	Description     string       `json:"description"`
	Status          StatusInfo   `json:"work_item_status"`
	CreatedAt       int64        `json:"created_at"`
	Fields          []FieldValue `json:"fields"`
}

// RawSchedule is a scheduling block as it appears on nodes and sub-tasks.
type RawSchedule struct {
	Owners            []string    `json:"owners"`
	Points            float64     `json:"points"`
	ActualWorkTime    float64     `json:"actual_work_time"`
	EstimateStartDate interface{} `json:"estimate_start_date"`
	EstimateEndDate   interface{} `json:"estimate_end_date"`
}

// SubTask is a task nested under a workflow node.
type SubTask struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Schedules []RawSchedule `json:"schedules"`
}

// WorkflowNode is one node of a work item's node flow. A node can carry
// sub-tasks with their own schedules, a per-owner "schedules" list, and a
// singular node-level schedule; the schedule extractor arbitrates between
// them.
type WorkflowNode struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	SubTasks     []SubTask     `json:"sub_tasks"`
	Schedules    []RawSchedule `json:"schedules"`
	NodeSchedule *RawSchedule  `json:"node_schedule"`
}
