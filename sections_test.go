package blade

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, w io.Writer, s string) {
	t.Helper()
	_, err := io.WriteString(w, s)
	require.NoError(t, err)
}

func TestSectionsNestLIFO(t *testing.T) {
	s := NewSections(nil)
	s.Start("a")
	write(t, s.Output(), "A")
	s.Start("b")
	write(t, s.Output(), "B")
	assert.Equal(t, 2, s.Open())

	name, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, "b", name)
	name, err = s.Stop()
	require.NoError(t, err)
	assert.Equal(t, "a", name)

	assert.Equal(t, "A", s.Yield("a"))
	assert.Equal(t, "B", s.Yield("b"))
	assert.Zero(t, s.Open())
}

func TestSectionsParentMerge(t *testing.T) {
	s := NewSections(nil)
	s.Start("x", "mid")
	s.Start("x", "A@parentB")
	assert.Equal(t, "AmidB", s.Yield("x"))

	s.Start("y", "one")
	s.Start("y", "two")
	assert.Equal(t, "two", s.Yield("y"))

	s.Start("z", "A@parentB")
	assert.Equal(t, "AB", s.Yield("z"))
}

func TestSectionsCapturedParent(t *testing.T) {
	s := NewSections(nil)
	s.Start("x", "base")
	s.Start("x")
	write(t, s.Output(), "[@parent]")
	_, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, "[base]", s.Yield("x"))
}

func TestSectionsYieldDefault(t *testing.T) {
	s := NewSections(nil)
	assert.Equal(t, "", s.Yield("missing"))
	assert.Equal(t, "def", s.Yield("missing", "def"))
	s.Start("empty", "")
	assert.True(t, s.Has("empty"))
	assert.Equal(t, "", s.Yield("empty", "def"))
}

func TestSectionsYieldSection(t *testing.T) {
	s := NewSections(nil)
	s.Start("y")
	write(t, s.Output(), "Y")
	out, err := s.YieldSection()
	require.NoError(t, err)
	assert.Equal(t, "Y", out)
	assert.True(t, s.Has("y"))
}

func TestSectionsStacks(t *testing.T) {
	s := NewSections(nil)
	for _, part := range []string{"1", "2", "3"} {
		s.Push("s")
		write(t, s.Output(), part)
		name, err := s.EndPush()
		require.NoError(t, err)
		assert.Equal(t, "s", name)
	}
	s.Append("s", "4")
	assert.Equal(t, "1234", s.Stack("s"))
	assert.Equal(t, "", s.Stack("other"))
}

func TestSectionsUnbalanced(t *testing.T) {
	s := NewSections(nil)
	_, err := s.Stop()
	assert.ErrorIs(t, err, ErrNoOpenSection)
	_, err = s.YieldSection()
	assert.ErrorIs(t, err, ErrNoOpenSection)
	_, err = s.EndPush()
	assert.ErrorIs(t, err, ErrNoOpenStack)
}

func TestSectionsFlush(t *testing.T) {
	s := NewSections(nil)
	s.Start("a", "A")
	s.Push("js")
	s.Start("open")
	s.Flush()
	assert.False(t, s.Has("a"))
	assert.Zero(t, s.Open())
	_, err := s.EndPush()
	assert.ErrorIs(t, err, ErrNoOpenStack)
}

func TestOutputStack(t *testing.T) {
	var o Output
	_, err := o.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrNoBuffer)
	_, err = o.End()
	assert.ErrorIs(t, err, ErrNoBuffer)

	o.Start()
	write(t, &o, "outer ")
	o.Start()
	write(t, &o, "inner")
	assert.Equal(t, 2, o.Level())

	inner, err := o.End()
	require.NoError(t, err)
	assert.Equal(t, "inner", inner)
	write(t, &o, "again")
	outer, err := o.End()
	require.NoError(t, err)
	assert.Equal(t, "outer again", outer)

	o.Start()
	o.Start()
	o.Start()
	o.Discard(1)
	assert.Equal(t, 1, o.Level())
}
