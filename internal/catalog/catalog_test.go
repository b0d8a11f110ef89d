package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/geoquest/internal/puzzle"
)

func TestEmbeddedOrder(t *testing.T) {
	require.NoError(t, Init())

	var ids []string
	for _, g := range Order() {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"altitude", "median", "angle-bisector", "diagonal", "circle-center"}, ids)
}

func TestLookupAndPrevious(t *testing.T) {
	g, ok := Lookup("median")
	require.True(t, ok)
	assert.True(t, g.Playable)
	assert.Equal(t, puzzle.Medium, g.Difficulty)
	assert.Equal(t, puzzle.ConceptMedian, g.Concept())

	g, ok = Lookup("diagonal")
	require.True(t, ok)
	assert.False(t, g.Playable)

	_, ok = Lookup("pentagon")
	assert.False(t, ok)

	_, ok = Previous("altitude")
	assert.False(t, ok)
	prev, ok := Previous("angle-bisector")
	assert.True(t, ok)
	assert.Equal(t, "median", prev)
}

func TestParse(t *testing.T) {
	_, err := parse([]string{"altitude triangle"})
	assert.Error(t, err)

	_, err = parse([]string{"altitude triangle easy", "altitude triangle hard"})
	assert.Error(t, err)

	_, err = parse([]string{"altitude triangle impossible"})
	assert.Error(t, err)

	out, err := parse([]string{"median triangle hard"})
	require.NoError(t, err)
	assert.Equal(t, []Game{{ID: "median", Category: "triangle", Difficulty: puzzle.Hard, Playable: true}}, out)
}
