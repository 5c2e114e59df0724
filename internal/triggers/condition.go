package triggers

import (
	"strconv"

	"github.com/growth-engine/growth-engine/internal/engagement"
)

// Comparison operators understood by conditions.
const (
	OpGT       = "gt"
	OpLT       = "lt"
	OpEQ       = "eq"
	OpGTE      = "gte"
	OpLTE      = "lte"
	OpIncludes = "includes"
	OpExcludes = "excludes"
)

// ValidOp reports whether op is a known comparison operator.
func ValidOp(op string) bool {
	switch op {
	case OpGT, OpLT, OpEQ, OpGTE, OpLTE, OpIncludes, OpExcludes:
		return true
	}
	return false
}

// Condition compares one behavior or engagement field against a literal.
// Conditions within a trigger combine via AND.
type Condition struct {
	Field string `yaml:"field" json:"field"`
	Op    string `yaml:"op" json:"op"`
	Value any    `yaml:"value" json:"value"`
}

// Fields is the flattened evaluation context a condition runs against,
// derived from the current snapshot and classification.
type Fields map[string]any

// FieldsFor flattens a snapshot and its classification into named fields.
func FieldsFor(b engagement.BehaviorSnapshot, level engagement.EngagementLevel) Fields {
	return Fields{
		"time_on_page":      b.SessionDurationSeconds,
		"scroll_depth":      b.ScrollDepthPercent,
		"sections_viewed":   b.SectionsViewed,
		"tools_used":        b.ToolsUsed,
		"content_consumed":  b.ContentConsumed,
		"ctas_clicked":      b.CTAsClicked,
		"section_count":     len(b.SectionsViewed),
		"interaction_count": b.InteractionCount,
		"device_type":       string(b.DeviceType),
		"time_of_day":       string(b.TimeOfDay),
		"return_visitor":    b.ReturnVisitor,
		"engagement_score":  level.Score,
		"engagement_level":  string(level.Level),
		"tier":              string(level.Tier),
		"pattern":           string(level.Pattern),
		"readiness":         level.Readiness,
	}
}

// Match evaluates the condition against fields. A condition referencing an
// unknown field never matches.
func (c Condition) Match(fields Fields) bool {
	actual, ok := fields[c.Field]
	if !ok {
		return false
	}

	switch c.Op {
	case OpGT, OpLT, OpGTE, OpLTE:
		a, aok := asFloat(actual)
		w, wok := asFloat(c.Value)
		if !aok || !wok {
			return false
		}
		switch c.Op {
		case OpGT:
			return a > w
		case OpLT:
			return a < w
		case OpGTE:
			return a >= w
		default:
			return a <= w
		}
	case OpEQ:
		if a, aok := asFloat(actual); aok {
			if w, wok := asFloat(c.Value); wok {
				return a == w
			}
			return false
		}
		return asString(actual) == asString(c.Value)
	case OpIncludes, OpExcludes:
		list, ok := asStrings(actual)
		if !ok {
			return false
		}
		want := asString(c.Value)
		found := false
		for _, v := range list {
			if v == want {
				found = true
				break
			}
		}
		if c.Op == OpIncludes {
			return found
		}
		return !found
	default:
		return false
	}
}

// matchAll reports whether every condition holds.
func matchAll(conditions []Condition, fields Fields) bool {
	for _, c := range conditions {
		if !c.Match(fields) {
			return false
		}
	}
	return true
}

// asFloat coerces the numeric types YAML and JSON decoding produce.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func asStrings(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			out[i] = asString(item)
		}
		return out, true
	default:
		return nil, false
	}
}
