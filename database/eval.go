package database

import (
	"math"
	"strings"

	"conference-webapp/query"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The evaluator mirrors mongo semantics so the memory store and MongoStore
// return the same results: array properties match when any element does,
// except != which requires that no element is equal, and a missing property
// never matches.

func matches(doc map[string]any, cond query.Condition) bool {
	value, ok := doc[cond.Property]
	if !ok || value == nil {
		return false
	}
	if arr, isArray := value.(primitive.A); isArray {
		if cond.Op == query.OpNE {
			for _, elem := range arr {
				if c, ok := compare(elem, cond.Value); ok && c == 0 {
					return false
				}
			}
			return true
		}
		for _, elem := range arr {
			if matchScalar(elem, cond) {
				return true
			}
		}
		return false
	}
	return matchScalar(value, cond)
}

func matchScalar(value any, cond query.Condition) bool {
	c, ok := compare(value, cond.Value)
	if !ok {
		return cond.Op == query.OpNE
	}
	switch cond.Op {
	case query.OpEQ:
		return c == 0
	case query.OpNE:
		return c != 0
	case query.OpGT:
		return c > 0
	case query.OpGTEQ:
		return c >= 0
	case query.OpLT:
		return c < 0
	case query.OpLTEQ:
		return c <= 0
	}
	return false
}

// compare orders two values of the same type bracket.
func compare(a, b any) (int, bool) {
	if x, ok := toInt64(a); ok {
		y, ok := toInt64(b)
		if !ok {
			return 0, false
		}
		return cmpInt(x, y), true
	}
	if x, ok := a.(string); ok {
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	}
	if x, ok := a.(primitive.DateTime); ok {
		y, ok := b.(primitive.DateTime)
		if !ok {
			return 0, false
		}
		return cmpInt(int64(x), int64(y)), true
	}
	if x, ok := a.(bool); ok {
		y, ok := b.(bool)
		if !ok || x == y {
			return 0, ok
		}
		if !x {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	}
	return 0, false
}

func cmpInt(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// sortValue is the value a document sorts by for property: the smallest
// element for arrays, nil when missing.
func sortValue(doc map[string]any, property string) any {
	value := doc[property]
	arr, ok := value.(primitive.A)
	if !ok {
		return value
	}
	var lowest any
	for _, elem := range arr {
		if lowest == nil || lessForSort(elem, lowest) {
			lowest = elem
		}
	}
	return lowest
}

func lessForSort(a, b any) bool {
	return compareForSort(a, b) < 0
}

// compareForSort orders any two values: missing first, then numbers,
// strings, dates and everything else.
func compareForSort(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmpInt(int64(ra), int64(rb))
	}
	c, _ := compare(a, b)
	return c
}

func typeRank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := toInt64(v); ok {
		return 1
	}
	switch v.(type) {
	case string:
		return 2
	case primitive.DateTime:
		return 3
	case bool:
		return 4
	}
	return 5
}
