// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"strings"

	"github.com/dennisfleischmann/fs-bafa-check/internal/normalize"
)

// DottedGet walks a dotted path through nested maps. A trailing "[]" on a
// path segment projects that key out of a list of maps. Missing segments
// return nil, never an error.
func DottedGet(payload map[string]any, dottedPath string) any {
	var current any = payload
	remaining := dottedPath
	for remaining != "" {
		part := remaining
		if idx := strings.IndexByte(remaining, '.'); idx >= 0 {
			part, remaining = remaining[:idx], remaining[idx+1:]
		} else {
			remaining = ""
		}

		switch node := current.(type) {
		case map[string]any:
			value, ok := node[part]
			if !ok {
				return nil
			}
			current = value
		case []any:
			if len(part) > 2 && part[len(part)-2:] == "[]" {
				key := part[:len(part)-2]
				var values []any
				for _, item := range node {
					if m, ok := item.(map[string]any); ok {
						if v, ok := m[key]; ok {
							values = append(values, v)
						}
					}
				}
				current = values
				continue
			}
			return nil
		default:
			return nil
		}
	}
	return current
}

// isEmpty reports whether a context value counts as missing for required
// field checks.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

// Compare applies a condition operator. Ordered comparisons against a
// missing or non-numeric operand are always false, never an error.
func Compare(left any, op string, right any) bool {
	switch op {
	case "==":
		return valuesEqual(left, right)
	case "!=":
		return !valuesEqual(left, right)
	case "<=", "<", ">=", ">":
		lf, lok := normalize.ParseFloat(left)
		rf, rok := normalize.ParseFloat(right)
		if !lok || !rok {
			return false
		}
		switch op {
		case "<=":
			return lf <= rf
		case "<":
			return lf < rf
		case ">=":
			return lf >= rf
		default:
			return lf > rf
		}
	default:
		return false
	}
}

func valuesEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == right
	}
	if lb, ok := left.(bool); ok {
		rb, ok := right.(bool)
		return ok && lb == rb
	}
	lf, lok := normalize.ParseFloat(left)
	rf, rok := normalize.ParseFloat(right)
	if lok && rok {
		return lf == rf
	}
	return normalize.CanonicalAny(left) == normalize.CanonicalAny(right)
}
