package blade

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// LeftDelim and RightDelim delimit actions in compiled templates.
	LeftDelim  = "{%"
	RightDelim = "%}"
	// ParentPlaceholder inside section content is replaced by the content
	// previously stored under the same section name.
	ParentPlaceholder = "@parent"
	// RawPrefix marks a render_each fallback that is emitted verbatim.
	RawPrefix = "raw|"
)

// PassFunc rewrites one directive family.
type PassFunc func(text string, ctx *CompileContext) string

// Pass is a named step of the compiler pipeline.
type Pass struct {
	Name string
	Fn   PassFunc
}

// DefaultPasses returns the built-in pipeline. Order matters: layouts emit
// @include for the includes pass, echos must see {{ before anything else
// touches braces, forelse must claim @empty before the generic passes run.
func DefaultPasses() []Pass {
	return []Pass{
		{"extensions", compileExtensions},
		{"layouts", compileLayouts},
		{"comments", compileComments},
		{"echos", compileEchos},
		{"set", compileSet},
		{"unset", compileUnset},
		{"forelse", compileForelse},
		{"empty", compileEmpty},
		{"endforelse", compileEndforelse},
		{"structure_openings", compileStructureOpenings},
		{"structure_closings", compileStructureClosings},
		{"else", compileElse},
		{"unless", compileUnless},
		{"endunless", compileEndunless},
		{"includes", compileIncludes},
		{"render_each", compileRenderEach},
		{"render", compileRender},
		{"yields", compileYields},
		{"yield_sections", compileYieldSections},
		{"section_start", compileSectionStart},
		{"section_end", compileSectionEnd},
		{"push", compilePush},
		{"endpush", compileEndpush},
		{"stacks", compileStacks},
		{"php", compilePHP},
	}
}

var (
	reComment     = regexp.MustCompile(`(?s)\{\{--(.*?)--\}\}`)
	reEchoTriple  = regexp.MustCompile(`(?s)\{\{\{\s*(.+?)\s*\}\}\}(\r?\n)?`)
	reEchoRaw     = regexp.MustCompile(`(?s)\{!!\s*(.+?)\s*!!\}(\r?\n)?`)
	reEcho        = regexp.MustCompile(`(?s)(@)?\{\{\s*(.+?)\s*\}\}(\r?\n)?`)
	rePHP         = regexp.MustCompile(`(?s)@php\b(.*?)@endphp\b`)
	reLoopHeader  = regexp.MustCompile(`(?s)^(.+?)\s+as\s+(\$\w+)(?:\s*=>\s*(\$\w+))?$`)
	reEmpty       = Keyword("empty")
	reEndforelse  = Keyword("endforelse")
	reEndif       = Keyword("endif")
	reEndforeach  = Keyword("endforeach")
	reEndfor      = Keyword("endfor")
	reEndwhile    = Keyword("endwhile")
	reElse        = Keyword("else")
	reEndunless   = Keyword("endunless")
	reYieldSect   = Keyword("yield_section")
	reEndsection  = Keyword("endsection")
	reEndpush     = Keyword("endpush")
	layoutDir     = Matcher("layout")
	setDir        = Matcher("set")
	unsetDir      = Matcher("unset")
	forelseDir    = Matcher("forelse")
	ifDir         = Matcher("if")
	elseifDir     = Matcher("elseif")
	foreachDir    = Matcher("foreach")
	forDir        = Matcher("for")
	whileDir      = Matcher("while")
	unlessDir     = Matcher("unless")
	includeDir    = Matcher("include")
	renderEachDir = Matcher("render_each")
	renderDir     = Matcher("render")
	yieldDir      = Matcher("yield")
	sectionDir    = Matcher("section")
	pushDir       = Matcher("push")
	stackDir      = Matcher("stack")
)

func action(body string) string {
	return LeftDelim + " " + body + " " + RightDelim
}

// keyword replaces an argument-less directive, keeping its indentation.
func keyword(re *regexp.Regexp, text, body string) string {
	return re.ReplaceAllString(text, "${1}"+strings.ReplaceAll(body, "$", "$$"))
}

func compileExtensions(text string, ctx *CompileContext) string {
	for _, ext := range ctx.extensions {
		text = ext(text)
	}
	return text
}

// compileLayouts moves a leading @layout to the end of the template as an
// @include, so the child fills its sections before the layout yields them.
func compileLayouts(text string, ctx *CompileContext) string {
	if ctx.Layout != "" {
		return text
	}
	trimmed := strings.TrimLeft(text, " \t\r\n")
	if !strings.HasPrefix(trimmed, "@layout") {
		return text
	}
	loc := layoutDir.re.FindStringIndex(trimmed)
	if loc == nil || loc[0] != 0 {
		return text
	}
	end, ok := scanParens(trimmed, loc[1]-1)
	if !ok {
		return text
	}
	args := trimmed[loc[1]:end]
	body := trimmed[end+1:]
	if i := strings.IndexByte(body, '\n'); i >= 0 && strings.TrimSpace(body[:i]) == "" {
		body = body[i+1:]
	} else if strings.TrimSpace(body) == "" {
		body = ""
	}
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	if parts := splitArgs(args); len(parts) > 0 {
		if name, ok := staticName(parts[0]); ok {
			ctx.Layout = name
		}
	}
	return body + "@include(" + args + ")"
}

func compileComments(text string, _ *CompileContext) string {
	return reComment.ReplaceAllStringFunc(text, func(m string) string {
		sm := reComment.FindStringSubmatch(m)
		return LeftDelim + "/*" + strings.ReplaceAll(sm[1], "*/", "* /") + "*/" + RightDelim
	})
}

// echoExpr rewrites `a or b` as a fallback call and parenthesises the
// result.
func echoExpr(inner string) string {
	parts := splitOr(inner)
	if len(parts) == 1 {
		return "(" + expr(inner) + ")"
	}
	ops := make([]string, len(parts))
	for i, p := range parts {
		ops[i] = "(" + expr(p) + ")"
	}
	return "(fallback " + strings.Join(ops, " ") + ")"
}

// compileEchos handles, in order, {{{ }}}, {!! !!}, then {{ }} and @{{ }}.
// A newline right after an echo is kept after the action.
func compileEchos(text string, _ *CompileContext) string {
	text = reEchoTriple.ReplaceAllStringFunc(text, func(m string) string {
		sm := reEchoTriple.FindStringSubmatch(m)
		return action("raw "+echoExpr(sm[1])) + sm[2]
	})
	text = reEchoRaw.ReplaceAllStringFunc(text, func(m string) string {
		sm := reEchoRaw.FindStringSubmatch(m)
		return action("raw "+echoExpr(sm[1])) + sm[2]
	})
	return reEcho.ReplaceAllStringFunc(text, func(m string) string {
		sm := reEcho.FindStringSubmatch(m)
		if sm[1] == "@" {
			return m[1:]
		}
		if strings.TrimSpace(sm[2]) == "" {
			return m
		}
		return action("e "+echoExpr(sm[2])) + sm[3]
	})
}

// variable returns the scope key named by a @set or @unset argument.
func variable(arg string) string {
	return strings.TrimPrefix(unquote(arg), "$")
}

func compileSet(text string, _ *CompileContext) string {
	return setDir.ReplaceAll(text, func(m Match) (string, bool) {
		args := splitArgs(m.Args)
		if len(args) != 2 || args[0] == "" {
			return "", false
		}
		return m.Indent + action("set $ "+strconv.Quote(variable(args[0]))+" "+operand(args[1])), true
	})
}

func compileUnset(text string, _ *CompileContext) string {
	return unsetDir.ReplaceAll(text, func(m Match) (string, bool) {
		args := splitArgs(m.Args)
		if len(args) != 1 || args[0] == "" {
			return "", false
		}
		return m.Indent + action("unset $ "+strconv.Quote(variable(args[0]))), true
	})
}

// loopHeader splits a loop header into the collection and the range clause.
// It accepts `X as $v`, `X as $k => $v` and the native `$k, $v := X`.
func loopHeader(args string) (coll, clause string, vars []string) {
	args = strings.TrimSpace(args)
	if sm := reLoopHeader.FindStringSubmatch(args); sm != nil {
		coll = expr(sm[1])
		vars = []string{sm[2]}
		if sm[3] != "" {
			vars = append(vars, sm[3])
		}
		return coll, strings.Join(vars, ", ") + " := " + coll, vars
	}
	if lhs, c, ok := strings.Cut(args, ":="); ok {
		coll = expr(c)
		for _, v := range strings.Split(lhs, ",") {
			vars = append(vars, strings.TrimSpace(v))
		}
		return coll, strings.Join(vars, ", ") + " := " + coll, vars
	}
	coll = expr(args)
	return coll, coll, nil
}

// bindLoopVars copies the range variables into the scope, so views included
// from the loop body see them.
func bindLoopVars(vars []string) string {
	var b strings.Builder
	for _, v := range vars {
		if name := strings.TrimPrefix(v, "$"); name != "" && name != v {
			b.WriteString(action("set $ " + strconv.Quote(name) + " " + v))
		}
	}
	return b.String()
}

// compileForelse opens the guard and the loop in one go; @empty and
// @endforelse close them.
func compileForelse(text string, _ *CompileContext) string {
	return forelseDir.ReplaceAll(text, func(m Match) (string, bool) {
		if strings.TrimSpace(m.Args) == "" {
			return "", false
		}
		coll, clause, vars := loopHeader(m.Args)
		return m.Indent + action("if gt (count "+operand(coll)+") 0") + action("range "+clause) + bindLoopVars(vars), true
	})
}

func compileEmpty(text string, _ *CompileContext) string {
	return keyword(reEmpty, text, action("end")+action("else"))
}

func compileEndforelse(text string, _ *CompileContext) string {
	return keyword(reEndforelse, text, action("end"))
}

func compileStructureOpenings(text string, _ *CompileContext) string {
	cond := func(prefix string) func(m Match) (string, bool) {
		return func(m Match) (string, bool) {
			if strings.TrimSpace(m.Args) == "" {
				return "", false
			}
			return m.Indent + action(prefix+expr(m.Args)), true
		}
	}
	loop := func(m Match) (string, bool) {
		if strings.TrimSpace(m.Args) == "" {
			return "", false
		}
		_, clause, vars := loopHeader(m.Args)
		return m.Indent + action("range "+clause) + bindLoopVars(vars), true
	}
	text = ifDir.ReplaceAll(text, cond("if "))
	text = elseifDir.ReplaceAll(text, cond("else if "))
	text = foreachDir.ReplaceAll(text, loop)
	text = forDir.ReplaceAll(text, loop)
	return whileDir.ReplaceAll(text, func(m Match) (string, bool) {
		if strings.TrimSpace(m.Args) == "" {
			return "", false
		}
		return m.Indent + action("range $loopIndex, $loopDot := loop .") +
			action("if "+expr(m.Args)) + action("loopGuard $loopIndex") + action("else") + action("break") + action("end"), true
	})
}

func compileStructureClosings(text string, _ *CompileContext) string {
	for _, re := range []*regexp.Regexp{reEndif, reEndforeach, reEndfor, reEndwhile} {
		text = keyword(re, text, action("end"))
	}
	return text
}

func compileElse(text string, _ *CompileContext) string {
	return keyword(reElse, text, action("else"))
}

// compileUnless negates through an empty if branch, which, unlike not,
// accepts missing map keys.
func compileUnless(text string, _ *CompileContext) string {
	return unlessDir.ReplaceAll(text, func(m Match) (string, bool) {
		if strings.TrimSpace(m.Args) == "" {
			return "", false
		}
		return m.Indent + action("if "+expr(m.Args)) + action("else"), true
	})
}

func compileEndunless(text string, _ *CompileContext) string {
	return keyword(reEndunless, text, action("end"))
}

func compileIncludes(text string, ctx *CompileContext) string {
	return includeDir.ReplaceAll(text, func(m Match) (string, bool) {
		args := splitArgs(m.Args)
		if len(args) == 0 || args[0] == "" {
			return "", false
		}
		ctx.addInclude(args[0])
		return m.Indent + action("include $ "+callArgs(m.Args)), true
	})
}

func compileRenderEach(text string, _ *CompileContext) string {
	return renderEachDir.ReplaceAll(text, func(m Match) (string, bool) {
		if n := len(splitArgs(m.Args)); n < 3 || n > 4 {
			return "", false
		}
		return m.Indent + action("renderEach "+callArgs(m.Args)), true
	})
}

func compileRender(text string, _ *CompileContext) string {
	return renderDir.ReplaceAll(text, func(m Match) (string, bool) {
		if len(splitArgs(m.Args)) == 0 {
			return "", false
		}
		return m.Indent + action("render "+callArgs(m.Args)), true
	})
}

func compileYields(text string, ctx *CompileContext) string {
	return yieldDir.ReplaceAll(text, func(m Match) (string, bool) {
		args := splitArgs(m.Args)
		if len(args) == 0 || len(args) > 2 || args[0] == "" {
			return "", false
		}
		if len(args) == 2 {
			ctx.Yields[unquote(args[0])] = unquote(args[1])
		} else {
			ctx.Yields[unquote(args[0])] = ""
		}
		return m.Indent + action("yield "+callArgs(m.Args)), true
	})
}

func compileYieldSections(text string, _ *CompileContext) string {
	return keyword(reYieldSect, text, action("yieldSection"))
}

func compileSectionStart(text string, ctx *CompileContext) string {
	return sectionDir.ReplaceAll(text, func(m Match) (string, bool) {
		args := splitArgs(m.Args)
		if len(args) == 0 || len(args) > 2 || args[0] == "" {
			return "", false
		}
		ctx.Sections[unquote(args[0])] = struct{}{}
		return m.Indent + action("sectionStart "+callArgs(m.Args)), true
	})
}

func compileSectionEnd(text string, _ *CompileContext) string {
	return keyword(reEndsection, text, action("sectionStop"))
}

func compilePush(text string, _ *CompileContext) string {
	return pushDir.ReplaceAll(text, func(m Match) (string, bool) {
		if len(splitArgs(m.Args)) != 1 {
			return "", false
		}
		return m.Indent + action("push "+callArgs(m.Args)), true
	})
}

func compileEndpush(text string, _ *CompileContext) string {
	return keyword(reEndpush, text, action("endPush"))
}

func compileStacks(text string, ctx *CompileContext) string {
	return stackDir.ReplaceAll(text, func(m Match) (string, bool) {
		args := splitArgs(m.Args)
		if len(args) != 1 || args[0] == "" {
			return "", false
		}
		ctx.Stacks[unquote(args[0])] = struct{}{}
		return m.Indent + action("stack "+callArgs(m.Args)), true
	})
}

// compilePHP unwraps @php ... @endphp into a raw action.
func compilePHP(text string, _ *CompileContext) string {
	return rePHP.ReplaceAllStringFunc(text, func(m string) string {
		code := strings.TrimSpace(rePHP.FindStringSubmatch(m)[1])
		if code == "" {
			return ""
		}
		return action(code)
	})
}
