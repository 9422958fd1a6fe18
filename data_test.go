package blade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToData(t *testing.T) {
	assert.Equal(t, Data{}, toData(nil))
	assert.Equal(t, Data{"data": 5}, toData(5))
	assert.Equal(t, Data{"a": 1}, toData(map[string]int{"a": 1}))

	type page struct {
		Title  string
		hidden bool
	}
	assert.Equal(t, Data{"Title": "T"}, toData(page{Title: "T", hidden: true}))

	src := map[string]any{"a": 1}
	d := toData(src)
	d["a"] = 2
	assert.Equal(t, 1, src["a"])
}

func TestArgsData(t *testing.T) {
	d, err := argsData(nil)
	require.NoError(t, err)
	assert.Empty(t, d)

	d, err = argsData([]any{"k", "v", "n", 1})
	require.NoError(t, err)
	assert.Equal(t, Data{"k": "v", "n": 1}, d)

	_, err = argsData([]any{"k", "v", "odd"})
	assert.ErrorContains(t, err, "odd number")
}

func TestEntries(t *testing.T) {
	got, err := entries(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, []entry{{"a", 1}, {"b", 2}}, got)

	got, err = entries([2]string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []entry{{0, "x"}, {1, "y"}}, got)

	got, err = entries(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = entries(5)
	assert.ErrorContains(t, err, "cannot iterate over int")
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "b", fallback(nil, "", "b"))
	assert.Equal(t, 0, fallback(nil, 0))
	assert.Equal(t, "a", fallback("a", "b"))
	assert.Nil(t, fallback())
}
