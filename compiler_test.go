package blade

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilerPassOrder(t *testing.T) {
	want := []string{
		"extensions", "layouts", "comments", "echos", "set", "unset",
		"forelse", "empty", "endforelse",
		"structure_openings", "structure_closings", "else", "unless", "endunless",
		"includes", "render_each", "render", "yields", "yield_sections",
		"section_start", "section_end", "push", "endpush", "stacks", "php",
	}
	assert.Equal(t, want, NewCompiler().Passes())
}

func TestCompilerIdempotent(t *testing.T) {
	src := strings.Join([]string{
		"@layout('layouts/main')",
		"@section('content')",
		"  {{-- list --}}",
		"  @forelse(.Items as $i)",
		"    <li>{{ $i or 'none' }}</li>",
		"  @empty",
		"    {!! .Empty !!}",
		"  @endforelse",
		"  @unless(.Hidden)@include('partials/foot', 'year', 2024)@endunless",
		"@endsection",
		"@push('js')<script></script>@endpush",
	}, "\n")
	c := NewCompiler()
	once := c.Compile(src, nil)
	assert.NotContains(t, once, "@forelse")
	// no @{{ in the source, so no literal braces survive
	assert.NotContains(t, once, "{{")
	assert.Equal(t, once, c.Compile(once, nil))
}

func TestCompilerEscapedEchoIsNotIdempotent(t *testing.T) {
	c := NewCompiler()
	once := c.Compile(`@{{ .x }}`, nil)
	assert.Equal(t, `{{ .x }}`, once)
	assert.Equal(t, `{% e (.x) %}`, c.Compile(once, nil))
}

func TestCompilerExtensionsRunFirst(t *testing.T) {
	hello := func(s string) string { return strings.ReplaceAll(s, "@hello", "{{ .greeting }}") }

	c := NewCompiler()
	c.Extend(hello)
	assert.Equal(t, `<p>{% e (.greeting) %}</p>`, c.Compile("<p>@hello</p>", nil))

	last := NewCompiler(WithPasses(ExtensionsLast()))
	last.Extend(hello)
	names := last.Passes()
	require.Len(t, names, len(DefaultPasses()))
	assert.Equal(t, "extensions", names[len(names)-1])
	assert.Equal(t, `<p>{{ .greeting }}</p>`, last.Compile("<p>@hello</p>", nil))
}

func TestCompilerExtensionsInOrder(t *testing.T) {
	c := NewCompiler()
	c.Extend(func(s string) string { return s + "a" })
	c.Extend(func(s string) string { return s + "b" })
	assert.Equal(t, "xab", c.Compile("x", nil))
}

func TestCompilerCustomPasses(t *testing.T) {
	c := NewCompiler(WithPasses([]Pass{{Name: "echos", Fn: compileEchos}}))
	assert.Equal(t, []string{"echos"}, c.Passes())
	assert.Equal(t, `@if(.a){% e (.b) %}`, c.Compile(`@if(.a){{ .b }}`, nil))
}
