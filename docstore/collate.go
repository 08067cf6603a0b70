// ABOUTME: Ordering of view keys for range queries
// ABOUTME: null < false < true < numbers < strings < arrays < objects, arrays element-wise
package docstore

import (
	"math"
	"strings"
)

// HighKey sorts after every string, number, and array, closing a key range:
// [id] .. [id, HighKey] selects every key that starts with id.
var HighKey = map[string]any{}

// Key builds a view key.
func Key(parts ...any) []any {
	return parts
}

const (
	rankNull = iota
	rankFalse
	rankTrue
	rankNumber
	rankString
	rankArray
	rankObject
)

func rank(v any) int {
	switch x := v.(type) {
	case nil:
		return rankNull
	case bool:
		if x {
			return rankTrue
		}
		return rankFalse
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return rankNumber
	case string:
		return rankString
	case []any:
		return rankArray
	case map[string]any:
		return rankObject
	default:
		return rankObject
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	}
	return math.NaN()
}

// Compare orders two view keys. It returns -1, 0, or 1.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case rankNumber:
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankArray:
		xa, xb := a.([]any), b.([]any)
		for i := 0; i < len(xa) && i < len(xb); i++ {
			if c := Compare(xa[i], xb[i]); c != 0 {
				return c
			}
		}
		switch {
		case len(xa) < len(xb):
			return -1
		case len(xa) > len(xb):
			return 1
		}
		return 0
	case rankObject:
		ma, _ := a.(map[string]any)
		mb, _ := b.(map[string]any)
		switch {
		case len(ma) < len(mb):
			return -1
		case len(ma) > len(mb):
			return 1
		}
		return 0
	}
	return 0
}
