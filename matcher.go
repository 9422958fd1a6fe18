package blade

import (
	"regexp"
	"strconv"
	"strings"
)

// Directive recognises one `@name(...)` form in template text.
type Directive struct {
	name string
	re   *regexp.Regexp
}

// Match is one directive occurrence found by a Directive.
type Match struct {
	// Indent is the whitespace captured in front of the directive.
	Indent string
	// Args is the raw text between the outer parentheses.
	Args string
}

// Matcher returns the Directive for `@name(...)`. The argument list may
// contain nested parentheses and quoted strings.
func Matcher(name string) *Directive {
	return &Directive{
		name: name,
		re:   regexp.MustCompile(`(\s*)@` + regexp.QuoteMeta(name) + `\s*\(`),
	}
}

// Keyword returns a regexp for an argument-less directive such as @endif.
// The trailing word boundary keeps @else away from @elseif.
func Keyword(name string) *regexp.Regexp {
	return regexp.MustCompile(`(\s*)@` + regexp.QuoteMeta(name) + `\b`)
}

// ReplaceAll calls fn for every well formed occurrence and substitutes its
// result. When fn returns false, or the argument list is unbalanced, the
// directive is left as is.
func (d *Directive) ReplaceAll(text string, fn func(m Match) (string, bool)) string {
	var out strings.Builder
	pos := 0
	for pos < len(text) {
		loc := d.re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, open := pos+loc[0], pos+loc[1]-1
		end, ok := scanParens(text, open)
		if !ok {
			out.WriteString(text[pos:open])
			pos = open
			continue
		}
		m := Match{
			Indent: text[pos+loc[2] : pos+loc[3]],
			Args:   text[open+1 : end],
		}
		repl, ok := fn(m)
		out.WriteString(text[pos:start])
		if ok {
			out.WriteString(repl)
		} else {
			out.WriteString(text[start : end+1])
		}
		pos = end + 1
	}
	out.WriteString(text[pos:])
	return out.String()
}

// scanParens returns the index of the parenthesis closing the one at open.
func scanParens(s string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\'', '`':
			j, ok := skipQuoted(s, i)
			if !ok {
				return 0, false
			}
			i = j
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// skipQuoted returns the index of the quote closing the literal at i.
func skipQuoted(s string, i int) (int, bool) {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			if q != '`' {
				j++
			}
		case q:
			return j, true
		}
	}
	return 0, false
}

// splitArgs splits a directive argument list on top-level commas.
func splitArgs(s string) []string {
	var args []string
	depth, last := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\'', '`':
			j, ok := skipQuoted(s, i)
			if !ok {
				i = len(s)
				continue
			}
			i = j
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[last:]); tail != "" || len(args) > 0 {
		args = append(args, tail)
	}
	return args
}

// splitOr splits an expression on top-level infix `or`.
func splitOr(s string) []string {
	var parts []string
	depth, last := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\'', '`':
			j, ok := skipQuoted(s, i)
			if !ok {
				i = len(s)
				continue
			}
			i = j
		case '(':
			depth++
		case ')':
			depth--
		case ' ', '\t', '\n', '\r':
			if depth != 0 || i+3 >= len(s) || s[i+1:i+3] != "or" || !isSpace(s[i+3]) {
				continue
			}
			if left := strings.TrimSpace(s[last:i]); left != "" {
				parts = append(parts, left)
				last = i + 3
				i += 2
			}
		}
	}
	return append(parts, strings.TrimSpace(s[last:]))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// literal rewrites a single-quoted string literal, of any length, as a Go
// string literal. Anything else is returned trimmed and unchanged.
func literal(arg string) string {
	arg = strings.TrimSpace(arg)
	if len(arg) >= 2 && arg[0] == '\'' && arg[len(arg)-1] == '\'' {
		return strconv.Quote(strings.ReplaceAll(arg[1:len(arg)-1], `\'`, `'`))
	}
	return arg
}

// unquote returns the contents of a quoted literal, or arg itself.
func unquote(arg string) string {
	arg = literal(arg)
	if s, err := strconv.Unquote(arg); err == nil {
		return s
	}
	return arg
}

// normalizeQuotes rewrites single-quoted literals as Go string literals, so
// 'admin' and 'a' read as strings and not runes.
func normalizeQuotes(s string) string {
	if !strings.Contains(s, "'") {
		return s
	}
	var out strings.Builder
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '`':
			j, ok := skipQuoted(s, i)
			if !ok {
				i = len(s)
				continue
			}
			i = j
		case '\'':
			j, ok := skipQuoted(s, i)
			if !ok {
				i = len(s)
				continue
			}
			out.WriteString(s[last:i])
			out.WriteString(literal(s[i : j+1]))
			last = j + 1
			i = j
		}
	}
	out.WriteString(s[last:])
	return out.String()
}

// expr prepares a pipeline taken from template markup.
func expr(s string) string {
	return normalizeQuotes(strings.TrimSpace(s))
}

// operand renders arg so it can stand as a single function argument.
func operand(arg string) string {
	arg = expr(arg)
	if arg == "" {
		return `""`
	}
	if _, err := strconv.Unquote(arg); err == nil {
		return arg
	}
	if strings.ContainsAny(arg, " \t\r\n|") {
		return "(" + arg + ")"
	}
	return arg
}

// callArgs renders a comma separated argument list as function operands.
func callArgs(args string) string {
	parts := splitArgs(args)
	ops := make([]string, 0, len(parts))
	for _, p := range parts {
		ops = append(ops, operand(p))
	}
	return strings.Join(ops, " ")
}
