package model

import (
	"fmt"
	"strings"
)

// Field lookup works through a fixed sequence of strategies: well-known
// top-level fields first, then the custom field list by exact key, then
// the "System.<Name>" spelling some templates use. The first strategy that
// produces a non-empty value wins.

// fieldStrategy resolves one candidate field name against a work item.
type fieldStrategy func(item WorkItem, name string) (string, bool)

var fieldStrategies = []fieldStrategy{
	lookupTopLevel,
	lookupFieldList,
	lookupSystemVariant,
}

// FieldString extracts a string value from a work item, trying each
// candidate name against each strategy in order. Returns def when nothing
// matches.
func FieldString(item WorkItem, names []string, def string) string {
	for _, strategy := range fieldStrategies {
		for _, name := range names {
			if value, ok := strategy(item, name); ok {
				return value
			}
		}
	}
	return def
}

// FieldNestedID extracts the "id" member of a dict-valued custom field,
// such as the template reference {"id": ..., "name": ...}.
func FieldNestedID(item WorkItem, key string) (string, bool) {
	for _, field := range item.Fields {
		if field.FieldKey != key {
			continue
		}
		nested, ok := field.FieldValue.(map[string]interface{})
		if !ok {
			return "", false
		}
		if id, ok := nested["id"]; ok {
			return stringifyField(id), true
		}
		return "", false
	}
	return "", false
}

// lookupTopLevel maps the handful of promoted struct fields.
func lookupTopLevel(item WorkItem, name string) (string, bool) {
	switch name {
	case "name":
		if item.Name != "" {
			return item.Name, true
		}
	case "description":
		if item.Description != "" {
			return item.Description, true
		}
	case "simple_name":
		if item.SimpleName != "" {
			return item.SimpleName, true
		}
	case "work_item_status":
		if item.Status.Name != "" {
			return item.Status.Name, true
		}
		if item.Status.StateKey != "" {
			return item.Status.StateKey, true
		}
	case "template":
		if item.TemplateID != 0 {
			return fmt.Sprintf("%d", item.TemplateID), true
		}
	}
	return "", false
}

// lookupFieldList scans the custom field list for an exact key match.
func lookupFieldList(item WorkItem, name string) (string, bool) {
	for _, field := range item.Fields {
		if field.FieldKey != name {
			continue
		}
		value := stringifyField(field.FieldValue)
		if value != "" {
			return value, true
		}
	}
	return "", false
}

// lookupSystemVariant retries the field list with the "System.Name" key
// spelling.
func lookupSystemVariant(item WorkItem, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	systemKey := "System." + strings.ToUpper(name[:1]) + name[1:]
	return lookupFieldList(item, systemKey)
}

// stringifyField converts a field value to its display string. Dict values
// prefer their "name" member (label references), then "id".
func stringifyField(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]interface{}:
		if name, ok := v["name"].(string); ok {
			return name
		}
		if id, ok := v["id"]; ok {
			return stringifyField(id)
		}
		return ""
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
