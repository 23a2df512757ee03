package meegle

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-meegle-timesheet/internal/core/model"
	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

const (
	// viewPageSize is the largest page the fix_view endpoint serves.
	viewPageSize = 200
	// maxViewPages bounds pagination against a server that never reports
	// an accurate total.
	maxViewPages = 100
)

// expandFlags asks the query endpoint for the extras the timeline
// pipeline needs, chiefly relation field details for project links.
type expandFlags struct {
	NeedWorkflow         bool `json:"need_workflow"`
	NeedMultiText        bool `json:"need_multi_text"`
	RelationFieldsDetail bool `json:"relation_fields_detail"`
	NeedUserDetail       bool `json:"need_user_detail"`
}

type workItemQuery struct {
	WorkItemIDs []string    `json:"work_item_ids"`
	Expand      expandFlags `json:"expand"`
}

func defaultExpand() expandFlags {
	return expandFlags{NeedWorkflow: true, RelationFieldsDetail: true}
}

// ListWorkItemIDsInView returns all work item ids in a fixed view,
// following pagination until the reported total is reached.
func (c *Client) ListWorkItemIDsInView(viewID string) ([]int64, error) {
	var allIDs []int64

	for page := 1; page <= maxViewPages; page++ {
		query := url.Values{}
		query.Set("page_size", strconv.Itoa(viewPageSize))
		query.Set("page_num", strconv.Itoa(page))

		envelope, err := c.get(fmt.Sprintf("%s/fix_view/%s", c.projectKey, viewID), query)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch view %s page %d: %w", viewID, page, err)
		}

		var data struct {
			WorkItemIDList []int64 `json:"work_item_id_list"`
		}
		if len(envelope.Data) > 0 {
			if err := sonic.Unmarshal(envelope.Data, &data); err != nil {
				return nil, fmt.Errorf("failed to decode view %s page %d: %w", viewID, page, err)
			}
		}
		if len(data.WorkItemIDList) == 0 {
			break
		}

		allIDs = append(allIDs, data.WorkItemIDList...)
		util.LogDebugf("View %s page %d: %d work item ids", viewID, page, len(data.WorkItemIDList))

		if page*viewPageSize >= envelope.Pagination.Total {
			break
		}
	}

	util.LogInfof("View %s contains %d work items", viewID, len(allIDs))
	return allIDs, nil
}

// GetWorkItemDetails fetches full details for a batch of work items. The
// query endpoint accepts at most 50 ids per call; callers batch above
// this layer.
func (c *Client) GetWorkItemDetails(typeKey string, ids []int64) ([]model.WorkItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = strconv.FormatInt(id, 10)
	}

	envelope, err := c.post(fmt.Sprintf("%s/work_item/%s/query", c.projectKey, typeKey), workItemQuery{
		WorkItemIDs: idStrings,
		Expand:      defaultExpand(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %d work items: %w", len(ids), err)
	}

	var items []model.WorkItem
	if len(envelope.Data) > 0 {
		if err := sonic.Unmarshal(envelope.Data, &items); err != nil {
			return nil, fmt.Errorf("failed to decode work item batch: %w", err)
		}
	}
	return items, nil
}

// GetWorkItemByID fetches a single work item by id. Returns (nil, nil)
// when the item does not exist.
func (c *Client) GetWorkItemByID(id string, typeKey string) (*model.WorkItem, error) {
	envelope, err := c.post(fmt.Sprintf("%s/work_item/%s/query", c.projectKey, typeKey), workItemQuery{
		WorkItemIDs: []string{id},
		Expand:      defaultExpand(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query work item %s: %w", id, err)
	}

	var items []model.WorkItem
	if len(envelope.Data) > 0 {
		if err := sonic.Unmarshal(envelope.Data, &items); err != nil {
			return nil, fmt.Errorf("failed to decode work item %s: %w", id, err)
		}
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}
