// Package condition evaluates declarative automation rule trees against
// event payloads. The grammar deliberately supports only one level of
// AND/OR grouping; rules authored against it must keep evaluating
// identically, so the evaluator never rejects malformed input and
// defaults to matching.
package condition

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Evaluate reports whether the given condition tree matches the payload.
//
// Accepted shapes for conditions:
//   - nil / empty: matches everything
//   - a single map {field, operator, value}
//   - an array of such maps (implicit AND)
//   - {operator: "AND"|"OR", conditions: [...]} with leaf conditions inside
//
// Evaluate is total: malformed input never panics and resolves to true so
// that automations are not silently dropped on a data-shape mismatch.
func Evaluate(conditions interface{}, payload map[string]interface{}) bool {
	switch c := conditions.(type) {
	case nil:
		return true
	case []interface{}:
		// Top-level array is a pure AND of leaf conditions.
		for _, item := range c {
			leaf, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if !evaluateLeaf(leaf, payload) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		if len(c) == 0 {
			return true
		}
		if _, hasField := c["field"]; hasField {
			return evaluateLeaf(c, payload)
		}
		return evaluateGroup(c, payload)
	default:
		return true
	}
}

// EvaluateJSON parses a stored JSON condition column and evaluates it.
// An empty or unparseable column matches everything.
func EvaluateJSON(raw string, payload map[string]interface{}) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return true
	}
	var conditions interface{}
	if err := json.Unmarshal([]byte(raw), &conditions); err != nil {
		return true
	}
	return Evaluate(conditions, payload)
}

// evaluateGroup handles the explicit {operator, conditions} form. Only one
// level of combination is supported: members are evaluated as leaves.
func evaluateGroup(group map[string]interface{}, payload map[string]interface{}) bool {
	op, _ := group["operator"].(string)

	var members []map[string]interface{}
	switch conds := group["conditions"].(type) {
	case []interface{}:
		for _, item := range conds {
			if leaf, ok := item.(map[string]interface{}); ok {
				members = append(members, leaf)
			}
		}
	case map[string]interface{}:
		members = append(members, conds)
	}

	if len(members) == 0 {
		return true
	}

	if strings.EqualFold(op, "OR") {
		for _, leaf := range members {
			if evaluateLeaf(leaf, payload) {
				return true
			}
		}
		return false
	}

	// AND is the default combinator.
	for _, leaf := range members {
		if !evaluateLeaf(leaf, payload) {
			return false
		}
	}
	return true
}

func evaluateLeaf(cond map[string]interface{}, payload map[string]interface{}) bool {
	field, _ := cond["field"].(string)
	if field == "" {
		// A condition without a field is skipped.
		return true
	}

	operator, _ := cond["operator"].(string)
	expected := cond["value"]
	resolved, found := resolvePath(payload, field)

	switch operator {
	case "equals", "==":
		return valuesEqual(resolved, expected)
	case "not_equals", "!=":
		return !valuesEqual(resolved, expected)
	case "contains":
		s, sok := resolved.(string)
		sub, vok := expected.(string)
		return sok && vok && strings.Contains(s, sub)
	case "not_contains":
		// The string guard precedes the negation: non-string operands
		// fail the guard and the condition is false, same as contains.
		s, sok := resolved.(string)
		sub, vok := expected.(string)
		return sok && vok && !strings.Contains(s, sub)
	case "greater_than", ">":
		return compareNumeric(resolved, expected, func(a, b float64) bool { return a > b })
	case "less_than", "<":
		return compareNumeric(resolved, expected, func(a, b float64) bool { return a < b })
	case "greater_than_or_equal", ">=":
		return compareNumeric(resolved, expected, func(a, b float64) bool { return a >= b })
	case "less_than_or_equal", "<=":
		return compareNumeric(resolved, expected, func(a, b float64) bool { return a <= b })
	case "exists":
		return found && resolved != nil
	case "not_exists":
		return !found || resolved == nil
	case "in":
		arr, ok := expected.([]interface{})
		if !ok {
			return false
		}
		return memberOf(arr, resolved)
	case "not_in":
		arr, ok := expected.([]interface{})
		if !ok {
			return false
		}
		return !memberOf(arr, resolved)
	default:
		// Unknown operators match permissively so newer rule grammars
		// do not silently disable existing automations.
		return true
	}
}

// resolvePath walks a dot path ("user.email") into the payload. Missing
// intermediate keys resolve to absent, never an error.
func resolvePath(payload map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = payload
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func memberOf(arr []interface{}, v interface{}) bool {
	for _, item := range arr {
		if valuesEqual(item, v) {
			return true
		}
	}
	return false
}

// valuesEqual compares two payload values. Numeric kinds are compared by
// value regardless of representation (5 == 5.0); everything else requires
// matching type and value.
func valuesEqual(a, b interface{}) bool {
	if af, aok := numericValue(a); aok {
		if bf, bok := numericValue(b); bok {
			return af == bf
		}
		return false
	}
	return a == b
}

// compareNumeric coerces both sides to float64 and applies cmp. String
// values are parsed with strconv.ParseFloat; anything non-coercible makes
// the comparison false. This is the single documented coercion rule for
// all four ordering operators.
func compareNumeric(a, b interface{}, cmp func(a, b float64) bool) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return false
	}
	return cmp(af, bf)
}

// numericValue converts genuinely numeric kinds only (no string parsing).
func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	if f, ok := numericValue(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
