package blade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(d *Directive, text string) ([]Match, string) {
	var got []Match
	out := d.ReplaceAll(text, func(m Match) (string, bool) {
		got = append(got, m)
		return m.Indent + "X", true
	})
	return got, out
}

func TestMatcherNestedParens(t *testing.T) {
	got, out := collect(Matcher("if"), "a\n  @if(count(.x) > (1)) b")
	require.Len(t, got, 1)
	assert.Equal(t, "\n  ", got[0].Indent)
	assert.Equal(t, "count(.x) > (1)", got[0].Args)
	assert.Equal(t, "a\n  X b", out)
}

func TestMatcherQuotedParens(t *testing.T) {
	got, _ := collect(Matcher("yield"), `@yield(")", 'x(')`)
	require.Len(t, got, 1)
	assert.Equal(t, `")", 'x('`, got[0].Args)
}

func TestMatcherSeveralPerLine(t *testing.T) {
	got, out := collect(Matcher("if"), "@if(.a) x @if (.b)")
	require.Len(t, got, 2)
	assert.Equal(t, ".a", got[0].Args)
	assert.Equal(t, ".b", got[1].Args)
	assert.Equal(t, "X x X", out)
}

func TestMatcherUnbalancedLeftAlone(t *testing.T) {
	got, out := collect(Matcher("if"), "@if(.a b")
	assert.Empty(t, got)
	assert.Equal(t, "@if(.a b", out)
}

func TestMatcherRejectedLeftAlone(t *testing.T) {
	out := Matcher("if").ReplaceAll("<@if(.a)>", func(Match) (string, bool) { return "", false })
	assert.Equal(t, "<@if(.a)>", out)
}

func TestMatcherDoesNotCrossNames(t *testing.T) {
	got, _ := collect(Matcher("render"), "@render_each('a', .b, 'c')")
	assert.Empty(t, got)
	got, _ = collect(Matcher("for"), "@foreach(.a as $b)")
	assert.Empty(t, got)
	got, _ = collect(Matcher("if"), "@elseif(.a)")
	assert.Empty(t, got)

	assert.False(t, Keyword("else").MatchString("@elseif(.a)"))
	assert.False(t, Keyword("endfor").MatchString("@endforeach"))
	assert.True(t, Keyword("endfor").MatchString("@endfor\n"))
}

func TestSplitArgs(t *testing.T) {
	assert.Equal(t, []string{`'a, b'`, "f(1, 2)", `"c"`}, splitArgs(`'a, b', f(1, 2), "c"`))
	assert.Equal(t, []string{"x"}, splitArgs(" x "))
	assert.Equal(t, []string{"a", ""}, splitArgs("a,"))
	assert.Empty(t, splitArgs(""))
}

func TestSplitOr(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`.a or "b"`, []string{".a", `"b"`}},
		{`"x or y"`, []string{`"x or y"`}},
		{`or .a .b`, []string{"or .a .b"}},
		{`.color or .border`, []string{".color", ".border"}},
		{`(.a or .b) or .c`, []string{"(.a or .b)", ".c"}},
		{`.a or .b or 'c'`, []string{".a", ".b", "'c'"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, splitOr(tt.in))
		})
	}
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"admin"`, literal(`'admin'`))
	assert.Equal(t, `"a"`, literal(`'a'`))
	assert.Equal(t, `""`, literal(`''`))
	assert.Equal(t, `eq .c "a"`, normalizeQuotes(`eq .c 'a'`))
	assert.Equal(t, `eq .role "admin"`, normalizeQuotes(`eq .role 'admin'`))
	assert.Equal(t, `eq .s "it's"`, normalizeQuotes(`eq .s "it's"`))
	assert.Equal(t, "home", unquote(`'home'`))
	assert.Equal(t, "home", unquote(`"home"`))
	assert.Equal(t, ".x", unquote(".x"))
}

func TestCallArgs(t *testing.T) {
	assert.Equal(t, `"row" "user" $u`, callArgs(`'row', "user", $u`))
	assert.Equal(t, `(.Items | len) ""`, callArgs(`.Items | len, ''`))
	assert.Equal(t, `(index .a 0)`, callArgs(`index .a 0`))
}
