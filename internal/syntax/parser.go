package syntax

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const maxHeadingLevel = 6

var labelSuffix = regexp.MustCompile(`\s*<([\p{L}\p{N}_:.\-]+)>\s*$`)

// Parse splits src into blocks and parses each of them. Parsing never fails:
// malformed input becomes ErrorExpr nodes.
//
// Blocks are separated by blank lines and by `//` comment lines. A heading
// occupies a single line; lines following it in the same run form a
// paragraph of their own.
func Parse(path, src string) *File {
	f := &File{Path: path}
	for _, run := range splitRuns(src) {
		f.Blocks = append(f.Blocks, parseRun(run)...)
	}
	return f
}

type run struct {
	line  int
	lines []string
}

func splitRuns(src string) []run {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	var (
		runs []run
		cur  *run
	)
	for i, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			cur = nil
			continue
		}
		if cur == nil {
			runs = append(runs, run{line: i + 1})
			cur = &runs[len(runs)-1]
		}
		cur.lines = append(cur.lines, line)
	}
	return runs
}

func parseRun(r run) []Block {
	first := strings.TrimLeft(r.lines[0], " \t")
	switch {
	case strings.HasPrefix(first, "="):
		blocks := []Block{parseHeading(r.line, r.lines[0])}
		if len(r.lines) > 1 {
			blocks = append(blocks, parseParagraph(r.line+1, r.lines[1:]))
		}
		return blocks
	case strings.HasPrefix(first, "#let ") || first == "#let":
		return []Block{parseLet(r.line, r.lines)}
	default:
		return []Block{parseParagraph(r.line, r.lines)}
	}
}

func parseHeading(line int, text string) *Heading {
	h := &Heading{Line: line}
	p := newParser(text)
	p.skipSpaces()
	for p.peek() == '=' {
		p.next()
		h.Level++
	}
	h.Level = min(h.Level, maxHeadingLevel)

	rest := p.src[p.off:]
	if m := labelSuffix.FindStringSubmatchIndex(string(rest)); m != nil {
		label := string(rest)[m[2]:m[3]]
		h.Label = label
		// Cut the label off by limiting the parser to the bytes before it.
		p.src = append(p.src[:p.off:p.off], []rune(string(rest)[:m[0]])...)
	}
	h.Body = trimSpaces(p.parseMarkup(0))
	return h
}

func parseLet(line int, lines []string) *Let {
	p := newParser(strings.Join(lines, "\n"))
	p.skipSpaces()
	for range len("#let") {
		p.next()
	}
	p.skipWhitespace()

	l := &Let{Line: line, NamePos: p.position()}
	if !isIdentStart(p.peek()) {
		l.Value = &ErrorExpr{Pos: p.position(), Message: "expected binding name after #let"}
		return l
	}
	l.Name = p.ident()
	p.skipWhitespace()
	if p.peek() != '=' {
		l.Value = &ErrorExpr{Pos: p.position(), Message: "expected '=' after binding name"}
		return l
	}
	p.next()
	l.Value = p.parseExpr()
	p.skipWhitespace()
	if !p.eof() {
		l.Value = &ErrorExpr{Pos: p.position(), Message: "unexpected input after binding value"}
	}
	return l
}

func parseParagraph(line int, lines []string) *Paragraph {
	p := newParser(strings.Join(lines, "\n"))
	return &Paragraph{Line: line, Body: trimSpaces(p.parseMarkup(0))}
}

// trimSpaces drops leading and trailing whitespace nodes.
func trimSpaces(nodes []Inline) []Inline {
	for len(nodes) > 0 {
		if _, ok := nodes[0].(*Space); !ok {
			break
		}
		nodes = nodes[1:]
	}
	for len(nodes) > 0 {
		if _, ok := nodes[len(nodes)-1].(*Space); !ok {
			break
		}
		nodes = nodes[:len(nodes)-1]
	}
	return nodes
}

type parser struct {
	src  []rune
	off  int
	line int
	col  int
}

func newParser(text string) *parser {
	return &parser{src: []rune(text), line: 1, col: 1}
}

func (p *parser) eof() bool { return p.off >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.off]
}

func (p *parser) next() rune {
	if p.eof() {
		return 0
	}
	r := p.src[p.off]
	p.off++
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return r
}

func (p *parser) position() Pos { return Pos{Line: p.line, Col: p.col} }

func (p *parser) skipSpaces() {
	for p.peek() == ' ' || p.peek() == '\t' {
		p.next()
	}
}

func (p *parser) skipWhitespace() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.next()
	}
}

// parseMarkup parses inline markup until the closing delimiter (0 for none)
// or the end of input. The delimiter itself is not consumed.
//
//nolint:cyclop // one case per markup construct
func (p *parser) parseMarkup(closing rune) []Inline {
	var out []Inline
	for !p.eof() && p.peek() != closing {
		pos := p.position()
		switch r := p.peek(); {
		case unicode.IsSpace(r):
			p.skipWhitespace()
			if len(out) > 0 {
				if _, ok := out[len(out)-1].(*Space); ok {
					continue
				}
			}
			out = append(out, &Space{Pos: pos})
		case r == '*':
			p.next()
			body := p.parseMarkup('*')
			p.expect('*')
			out = append(out, &Strong{Pos: pos, Body: body})
		case r == '_':
			p.next()
			body := p.parseMarkup('_')
			p.expect('_')
			out = append(out, &Emph{Pos: pos, Body: body})
		case r == '\\':
			p.next()
			if p.eof() || unicode.IsSpace(p.peek()) {
				out = append(out, &Text{Pos: pos, Value: `\`})
				continue
			}
			out = appendText(out, pos, string(p.next()))
		case r == '@':
			p.next()
			label := p.label()
			if label == "" {
				out = appendText(out, pos, "@")
				continue
			}
			out = append(out, &Ref{Pos: pos, Label: label})
		case r == '#':
			p.next()
			out = append(out, &Embed{Pos: pos, Expr: p.parseEmbedded()})
		default:
			out = appendText(out, pos, p.word(closing))
		}
	}
	return out
}

// appendText merges adjacent text so that escapes do not split words.
func appendText(out []Inline, pos Pos, s string) []Inline {
	if len(out) > 0 {
		if t, ok := out[len(out)-1].(*Text); ok {
			out[len(out)-1] = &Text{Pos: t.Pos, Value: t.Value + s}
			return out
		}
	}
	return append(out, &Text{Pos: pos, Value: s})
}

func isMarkupSpecial(r rune) bool {
	switch r {
	case '*', '_', '\\', '@', '#':
		return true
	}
	return unicode.IsSpace(r)
}

func (p *parser) word(closing rune) string {
	start := p.off
	for !p.eof() && !isMarkupSpecial(p.peek()) && p.peek() != closing {
		p.next()
	}
	if p.off == start {
		// A lone closing delimiter of an outer construct.
		p.next()
	}
	return string(p.src[start:p.off])
}

// label reads an @reference label. A trailing '.' or ':' belongs to the
// surrounding sentence.
func (p *parser) label() string {
	start := p.off
	for !p.eof() && isLabelRune(p.peek()) {
		p.next()
	}
	for p.off > start && strings.ContainsRune(".:", p.src[p.off-1]) {
		p.off--
		p.col--
	}
	return string(p.src[start:p.off])
}

func isLabelRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_-:.", r)
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentRune(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == '-'
}

func (p *parser) ident() string {
	start := p.off
	for !p.eof() && isIdentRune(p.peek()) {
		p.next()
	}
	return string(p.src[start:p.off])
}

func (p *parser) expect(r rune) bool {
	if p.peek() == r {
		p.next()
		return true
	}
	return false
}

// parseEmbedded parses the expression after '#' in markup: a primary
// expression with directly attached calls, no operators.
func (p *parser) parseEmbedded() Expr {
	pos := p.position()
	if p.eof() || unicode.IsSpace(p.peek()) {
		return &ErrorExpr{Pos: pos, Message: "expected expression after #"}
	}
	return p.parsePostfix(p.parsePrimary())
}

// parseExpr parses a full expression with '+' and '-'.
func (p *parser) parseExpr() Expr {
	p.skipWhitespace()
	left := p.parsePostfix(p.parsePrimary())
	for {
		p.skipWhitespace()
		op := p.peek()
		if op != '+' && op != '-' {
			return left
		}
		pos := p.position()
		p.next()
		p.skipWhitespace()
		right := p.parsePostfix(p.parsePrimary())
		left = &Binary{Pos: pos, Op: op, Left: left, Right: right}
	}
}

//nolint:cyclop // one case per literal kind
func (p *parser) parsePrimary() Expr {
	pos := p.position()
	r := p.peek()
	switch {
	case p.eof():
		return &ErrorExpr{Pos: pos, Message: "unexpected end of input"}
	case unicode.IsDigit(r) || (r == '-' && p.off+1 < len(p.src) && unicode.IsDigit(p.src[p.off+1])):
		return p.number()
	case r == '"':
		return p.str()
	case r == '[':
		p.next()
		body := p.parseMarkup(']')
		if !p.expect(']') {
			return &ErrorExpr{Pos: pos, Message: "unclosed content block"}
		}
		return &ContentBlock{Pos: pos, Body: body}
	case r == '(':
		p.next()
		inner := p.parseExpr()
		p.skipWhitespace()
		if !p.expect(')') {
			return &ErrorExpr{Pos: pos, Message: "unclosed parenthesis"}
		}
		return inner
	case isIdentStart(r):
		name := p.ident()
		switch name {
		case "true", "false":
			return &Bool{Pos: pos, Value: name == "true"}
		case "none":
			return &None{Pos: pos}
		}
		return &Ident{Pos: pos, Name: name}
	default:
		p.next()
		return &ErrorExpr{Pos: pos, Message: "unexpected character " + strconv.QuoteRune(r)}
	}
}

func (p *parser) parsePostfix(callee Expr) Expr {
	for {
		switch p.peek() {
		case '(':
			callee = p.parseArgs(callee)
		case '[':
			pos := p.position()
			p.next()
			body := p.parseMarkup(']')
			var arg Expr = &ContentBlock{Pos: pos, Body: body}
			if !p.expect(']') {
				arg = &ErrorExpr{Pos: pos, Message: "unclosed content block"}
			}
			call, ok := callee.(*Call)
			if !ok {
				call = &Call{Pos: callee.Position(), Callee: callee}
			}
			callee = &Call{Pos: call.Pos, Callee: call.Callee, Args: append(append([]Expr(nil), call.Args...), arg)}
		default:
			return callee
		}
	}
}

func (p *parser) parseArgs(callee Expr) Expr {
	call := &Call{Pos: callee.Position(), Callee: callee}
	p.next()
	p.skipWhitespace()
	if p.expect(')') {
		return call
	}
	for {
		call.Args = append(call.Args, p.parseExpr())
		p.skipWhitespace()
		switch {
		case p.expect(','):
			p.skipWhitespace()
			if p.expect(')') {
				return call
			}
		case p.expect(')'):
			return call
		default:
			call.Args = append(call.Args, &ErrorExpr{Pos: p.position(), Message: "expected ',' or ')'"})
			p.recoverTo(')')
			return call
		}
	}
}

// recoverTo skips input up to and including r, or to the end.
func (p *parser) recoverTo(r rune) {
	for !p.eof() {
		if p.next() == r {
			return
		}
	}
}

func (p *parser) number() Expr {
	pos := p.position()
	start := p.off
	if p.peek() == '-' {
		p.next()
	}
	isFloat := false
	for !p.eof() && (unicode.IsDigit(p.peek()) || p.peek() == '.') {
		if p.peek() == '.' {
			if isFloat || p.off+1 >= len(p.src) || !unicode.IsDigit(p.src[p.off+1]) {
				break
			}
			isFloat = true
		}
		p.next()
	}
	text := string(p.src[start:p.off])
	if isFloat {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return &ErrorExpr{Pos: pos, Message: "invalid number " + text}
		}
		return &Float{Pos: pos, Value: v}
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return &ErrorExpr{Pos: pos, Message: "invalid number " + text}
	}
	return &Int{Pos: pos, Value: v}
}

func (p *parser) str() Expr {
	pos := p.position()
	p.next()
	var b strings.Builder
	for {
		if p.eof() || p.peek() == '\n' {
			return &ErrorExpr{Pos: pos, Message: "unterminated string"}
		}
		r := p.next()
		switch r {
		case '"':
			return &Str{Pos: pos, Value: b.String()}
		case '\\':
			switch e := p.next(); e {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			default:
				b.WriteRune(e)
			}
		default:
			b.WriteRune(r)
		}
	}
}
