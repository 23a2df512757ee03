package project

import (
	"fmt"
	"strings"

	"github.com/penwyp/go-meegle-timesheet/internal/core/model"
	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

// WorkItemLookup fetches a single work item, typically a linked project.
// Implementations return (nil, nil) for a clean "not found".
type WorkItemLookup interface {
	GetWorkItemByID(id string, typeKey string) (*model.WorkItem, error)
}

// Config carries the vendor-schema knobs of the resolver: which custom
// fields link a story to its project, which field holds the project's
// display name, and the template-id to activity-code table.
type Config struct {
	ProjectTypeKey     string
	ProjectNameField   string
	ProjectLinkFields  []string
	TemplateActivities map[string]string
}

// Resolver resolves a work item's linked project and activity metadata.
// Both caches live for one extraction run: project lookups are cached
// positively by id, and ids that failed once are remembered so they are
// never retried within the run.
type Resolver struct {
	lookup WorkItemLookup
	config Config

	projectCache map[string]model.ProjectInfo
	failedIDs    map[string]struct{}
}

// NewResolver creates a resolver with empty caches.
func NewResolver(lookup WorkItemLookup, config Config) *Resolver {
	return &Resolver{
		lookup:       lookup,
		config:       config,
		projectCache: make(map[string]model.ProjectInfo),
		failedIDs:    make(map[string]struct{}),
	}
}

// fallbackProjectInfo is returned whenever a project cannot be resolved.
func fallbackProjectInfo() model.ProjectInfo {
	return model.ProjectInfo{}
}

// ProjectInfoForItem finds the item's linked project reference and
// resolves it, falling back to empty metadata when the item has no link.
func (r *Resolver) ProjectInfoForItem(item model.WorkItem) model.ProjectInfo {
	projectID := model.FieldString(item, r.config.ProjectLinkFields, "")
	if projectID == "" || projectID == "N/A" {
		return fallbackProjectInfo()
	}
	return r.ProjectInfoByID(projectID)
}

// ProjectInfoByID resolves a project work item by id. Results are cached;
// a failed lookup is cached negatively and never retried within this
// resolver's lifetime.
func (r *Resolver) ProjectInfoByID(projectID string) model.ProjectInfo {
	if info, ok := r.projectCache[projectID]; ok {
		return info
	}
	if _, failed := r.failedIDs[projectID]; failed {
		util.LogDebugf("Skipping previously failed project lookup: %s", projectID)
		return fallbackProjectInfo()
	}

	item, err := r.lookup.GetWorkItemByID(projectID, r.config.ProjectTypeKey)
	if err != nil || item == nil {
		if err != nil {
			util.LogDebugf("Project lookup failed for %s: %v", projectID, err)
		} else {
			util.LogDebugf("Project %s not found", projectID)
		}
		r.failedIDs[projectID] = struct{}{}
		return fallbackProjectInfo()
	}

	info := model.ProjectInfo{
		ProjectCode:   model.FieldString(*item, []string{"name"}, projectID),
		ProjectType:   model.FieldString(*item, []string{"template"}, "Product"),
		ProjectStatus: model.FieldString(*item, []string{"work_item_status"}, "Open"),
		ProjectName:   model.FieldString(*item, []string{r.config.ProjectNameField}, "Unknown Project"),
	}
	r.projectCache[projectID] = info
	return info
}

// FailedLookupCount reports how many distinct project ids failed to
// resolve during this run.
func (r *Resolver) FailedLookupCount() int {
	return len(r.failedIDs)
}

// CachedProjectCount reports how many projects resolved successfully.
func (r *Resolver) CachedProjectCount() int {
	return len(r.projectCache)
}

// ParseProjectCode derives the structured sub-codes from a project code of
// the form [Type]-[Market]-[Entity]-[Category]-[Identifier][-Version],
// e.g. "PRD-PH-ADVI-ICS-001-V3". The split is purely positional; codes
// with fewer than four segments yield empty strings.
func ParseProjectCode(code string) (marketRegion, entity, categoryFunction string) {
	segments := strings.Split(code, "-")
	if len(segments) < 4 {
		return "", "", ""
	}
	return segments[1], segments[2], segments[3]
}

// ActivityCode classifies the work item's activity. The template id is
// authoritative when it maps to a known activity; otherwise the item's
// text decides.
func (r *Resolver) ActivityCode(item model.WorkItem) string {
	templateID, ok := model.FieldNestedID(item, "template")
	if !ok && item.TemplateID != 0 {
		templateID = fmt.Sprintf("%d", item.TemplateID)
		ok = true
	}

	if ok {
		if activity, known := r.config.TemplateActivities[templateID]; known {
			return activity
		}
		util.LogDebugf("Unknown activity template id %s on work item %d, inferring from content", templateID, item.ID)
	}

	return inferActivityFromContent(item.Name + " " + item.Description)
}

// activityKeywords maps content vocabulary to activity codes, checked in
// order. "Feature" is the default when nothing matches.
var activityKeywords = []struct {
	words    []string
	activity string
}{
	{words: []string{"bug", "defect", "hotfix", "fix"}, activity: "Maintenance"},
	{words: []string{"research", "investigat", "spike", "poc"}, activity: "Research"},
	{words: []string{"enhance", "improv", "optimiz", "refactor"}, activity: "Enhancement"},
	{words: []string{"operat", "deploy", "release", "monitor"}, activity: "Operation"},
}

func inferActivityFromContent(content string) string {
	lowered := strings.ToLower(content)
	for _, group := range activityKeywords {
		for _, word := range group.words {
			if strings.Contains(lowered, word) {
				return group.activity
			}
		}
	}
	return "Feature"
}
