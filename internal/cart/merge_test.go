package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMergePolicy(t *testing.T) {
	cases := map[string]MergePolicy{
		"":        MergeNone,
		"none":    MergeNone,
		" UNION ": MergeUnion,
	}
	for input, want := range cases {
		got, err := ParseMergePolicy(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseMergePolicy("replace")
	assert.Error(t, err)
}

func TestUnionLines(t *testing.T) {
	remote := []Line{line(1, 100, 2)}
	anon := []Line{line(1, 999, 3), line(2, 50, 1), line(3, 10, 0)}

	merged, changed := unionLines(remote, anon, 4)
	require.True(t, changed)
	require.Equal(t, []int64{1, 2}, productIDs(merged))
	assert.Equal(t, 4, merged[0].Quantity)
	assert.EqualValues(t, 100, merged[0].UnitPrice)
	assert.Equal(t, 2, remote[0].Quantity, "input must not be mutated")

	_, changed = unionLines(remote, nil, 0)
	assert.False(t, changed)
}
