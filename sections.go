package blade

import (
	"errors"
	"strings"
)

var (
	// ErrNoOpenSection is returned by Stop when no section is open.
	ErrNoOpenSection = errors.New("cannot stop a section without first starting one")
	// ErrNoOpenStack is returned by EndPush when no push is open.
	ErrNoOpenStack = errors.New("cannot end a push without first starting one")
)

// Sections holds the named content of one render: sections, which are
// overwritten or merged, and stacks, which only ever grow.
type Sections struct {
	out      *Output
	sections map[string]string
	last     []string
	stacks   map[string][]string
	pushes   []string
}

// NewSections returns an empty registry capturing into out. A nil out gets
// a fresh Output.
func NewSections(out *Output) *Sections {
	if out == nil {
		out = &Output{}
	}
	return &Sections{
		out:      out,
		sections: map[string]string{},
		stacks:   map[string][]string{},
	}
}

// Output returns the buffer stack sections capture into.
func (s *Sections) Output() *Output {
	return s.out
}

// Start opens the named section and captures output until Stop. With
// content, the section is stored directly and nothing is opened.
func (s *Sections) Start(name string, content ...string) {
	if len(content) > 0 {
		s.Extend(name, content[0])
		return
	}
	s.last = append(s.last, name)
	s.out.Start()
}

// Stop closes the most recently opened section, stores what it captured
// and returns its name.
func (s *Sections) Stop() (string, error) {
	n := len(s.last)
	if n == 0 {
		return "", ErrNoOpenSection
	}
	name := s.last[n-1]
	s.last = s.last[:n-1]
	content, err := s.out.End()
	if err != nil {
		return "", err
	}
	s.Extend(name, content)
	return name, nil
}

// Extend stores content under name. If content contains ParentPlaceholder,
// the placeholder is replaced by the content stored so far; otherwise the
// previous content is replaced.
func (s *Sections) Extend(name, content string) {
	if strings.Contains(content, ParentPlaceholder) {
		content = strings.ReplaceAll(content, ParentPlaceholder, s.sections[name])
	}
	s.sections[name] = content
}

// Yield returns the content of the named section, or the optional default
// when nothing was stored.
func (s *Sections) Yield(name string, def ...string) string {
	if content, ok := s.sections[name]; ok {
		return content
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

// YieldSection stops the current section and returns its content.
func (s *Sections) YieldSection() (string, error) {
	name, err := s.Stop()
	if err != nil {
		return "", err
	}
	return s.Yield(name), nil
}

// Has reports whether the named section holds content.
func (s *Sections) Has(name string) bool {
	_, ok := s.sections[name]
	return ok
}

// Open returns the number of sections currently capturing.
func (s *Sections) Open() int {
	return len(s.last)
}

// Append adds content to the named stack.
func (s *Sections) Append(name, content string) {
	s.stacks[name] = append(s.stacks[name], content)
}

// Push starts capturing output for the named stack.
func (s *Sections) Push(name string) {
	s.pushes = append(s.pushes, name)
	s.out.Start()
}

// EndPush appends the captured output to the most recently pushed stack
// and returns its name.
func (s *Sections) EndPush() (string, error) {
	n := len(s.pushes)
	if n == 0 {
		return "", ErrNoOpenStack
	}
	name := s.pushes[n-1]
	s.pushes = s.pushes[:n-1]
	content, err := s.out.End()
	if err != nil {
		return "", err
	}
	s.Append(name, content)
	return name, nil
}

// Stack returns the fragments of the named stack joined in push order.
func (s *Sections) Stack(name string) string {
	return strings.Join(s.stacks[name], "")
}

// Flush forgets every section and stack, open or closed.
func (s *Sections) Flush() {
	clear(s.sections)
	clear(s.stacks)
	s.last = s.last[:0]
	s.pushes = s.pushes[:0]
}
