package meegle

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-meegle-timesheet/internal/core/model"
	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

// flowTypeNode selects the node flow; state flow (1) carries no schedules.
const flowTypeNode = 0

type workflowQuery struct {
	FlowType int `json:"flow_type"`
}

// GetWorkflowNodes fetches the node flow of one work item.
func (c *Client) GetWorkflowNodes(typeKey string, id int64) ([]model.WorkflowNode, error) {
	endpoint := fmt.Sprintf("%s/work_item/%s/%d/workflow/query", c.projectKey, typeKey, id)
	envelope, err := c.post(endpoint, workflowQuery{FlowType: flowTypeNode})
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow of work item %d: %w", id, err)
	}

	var data struct {
		WorkflowNodes []model.WorkflowNode `json:"workflow_nodes"`
	}
	if len(envelope.Data) > 0 {
		if err := sonic.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode workflow of work item %d: %w", id, err)
		}
	}

	util.LogDebugf("Work item %d has %d workflow nodes", id, len(data.WorkflowNodes))
	return data.WorkflowNodes, nil
}
