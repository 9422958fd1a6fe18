package blade

import (
	"bytes"
	"errors"
)

// ErrNoBuffer is returned when output is written or ended with no buffer open.
var ErrNoBuffer = errors.New("no output buffer open")

// Output is a stack of capture buffers. Writes go to the most recently
// started buffer.
type Output struct {
	buffers []*bytes.Buffer
}

// Start opens a new capture buffer.
func (o *Output) Start() {
	o.buffers = append(o.buffers, new(bytes.Buffer))
}

// End closes the top buffer and returns what it captured.
func (o *Output) End() (string, error) {
	n := len(o.buffers)
	if n == 0 {
		return "", ErrNoBuffer
	}
	b := o.buffers[n-1]
	o.buffers[n-1] = nil
	o.buffers = o.buffers[:n-1]
	return b.String(), nil
}

// Level returns the number of open buffers.
func (o *Output) Level() int {
	return len(o.buffers)
}

// Discard drops every buffer above level.
func (o *Output) Discard(level int) {
	for len(o.buffers) > level {
		_, _ = o.End()
	}
}

func (o *Output) Write(p []byte) (int, error) {
	if len(o.buffers) == 0 {
		return 0, ErrNoBuffer
	}
	return o.buffers[len(o.buffers)-1].Write(p)
}
