// ABOUTME: Tests for view key ordering
// ABOUTME: Verifies type ranks, element-wise arrays, and the HighKey sentinel
package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareTypeRanks(t *testing.T) {
	ordered := []any{nil, false, true, float64(-3), 2, "a", "b", []any{"a"}, HighKey}
	for i := 0; i < len(ordered)-1; i++ {
		assert.Equal(t, -1, Compare(ordered[i], ordered[i+1]), "%v < %v", ordered[i], ordered[i+1])
		assert.Equal(t, 1, Compare(ordered[i+1], ordered[i]))
	}
}

func TestCompareArrays(t *testing.T) {
	assert.Equal(t, 0, Compare(Key("r1", "strength"), Key("r1", "strength")))
	assert.Equal(t, -1, Compare(Key("r1"), Key("r1", "strength")), "shorter prefix sorts first")
	assert.Equal(t, -1, Compare(Key("r1", "zzz"), Key("r1", HighKey)))
	assert.Equal(t, 1, Compare(Key("r10"), Key("r1", HighKey)))
	assert.Equal(t, 0, Compare(Key(1), Key(float64(1))), "numbers compare by value")
}

func TestSum(t *testing.T) {
	assert.Equal(t, float64(1), Sum([]any{float64(1), 1, int64(-1), "x"}))
	assert.Equal(t, float64(0), Sum(nil))
}
