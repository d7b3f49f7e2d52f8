package eval

import (
	"strconv"
	"strings"

	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/quill/internal/syntax"
)

// maxRepeat bounds the repeat builtin.
const maxRepeat = 10000

type builtin func(v *vm, pos syntax.Pos, args []Value) Value

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"strong":    wrapContent("strong", func(c domain.Content) domain.Content { return &domain.Strong{Body: c} }),
		"emph":      wrapContent("emph", func(c domain.Content) domain.Content { return &domain.Emph{Body: c} }),
		"underline": decorate("underline", domain.DecorationUnderline),
		"overline":  decorate("overline", domain.DecorationOverline),
		"strike":    decorate("strike", domain.DecorationStrike),
		"highlight": decorate("highlight", domain.DecorationHighlight),
		"super":     wrapContent("super", func(c domain.Content) domain.Content { return shifted(domain.ShiftSuper, c) }),
		"sub":       wrapContent("sub", func(c domain.Content) domain.Content { return shifted(domain.ShiftSub, c) }),
		"read":      builtinRead,
		"include":   builtinInclude,
		"ref":       builtinRef,
		"pageref":   builtinPageRef,
		"pagecount": builtinPageCount,
		"outline":   builtinOutline,
		"repeat":    builtinRepeat,
		"pagebreak": builtinPageBreak,
		"str":       builtinStr,
		"upper":     caseMapper("upper", strings.ToUpper),
		"lower":     caseMapper("lower", strings.ToLower),
	}
}

// arity returns a failure when args does not hold exactly want values.
func (v *vm) arity(pos syntax.Pos, name string, args []Value, want int) Value {
	if len(args) == want {
		return nil
	}
	plural := "s"
	if want == 1 {
		plural = ""
	}
	return v.fail(pos, "%s expects %d argument%s, found %d", name, want, plural, len(args))
}

func (v *vm) contentArg(pos syntax.Pos, name string, arg Value) (domain.Content, Value) {
	if c, ok := asContent(arg); ok {
		return c, nil
	}
	switch arg.(type) {
	case IntValue, FloatValue, BoolValue:
		s, _ := repr(arg)
		return domain.NewText(s), nil
	}
	return nil, v.fail(pos, "%s expects content, found %s", name, arg.TypeName())
}

func (v *vm) stringArg(pos syntax.Pos, name string, arg Value) (string, Value) {
	s, ok := arg.(StrValue)
	if !ok {
		return "", v.fail(pos, "%s expects a string, found %s", name, arg.TypeName())
	}
	return string(s), nil
}

func wrapContent(name string, wrap func(domain.Content) domain.Content) builtin {
	return func(v *vm, pos syntax.Pos, args []Value) Value {
		if failed := v.arity(pos, name, args, 1); failed != nil {
			return failed
		}
		body, failed := v.contentArg(pos, name, args[0])
		if failed != nil {
			return failed
		}
		return ContentValue{Body: wrap(body)}
	}
}

func decorate(name string, line domain.Decoration) builtin {
	return wrapContent(name, func(c domain.Content) domain.Content {
		return &domain.Decorated{Line: line, Body: c}
	})
}

func builtinRead(v *vm, pos syntax.Pos, args []Value) Value {
	if failed := v.arity(pos, "read", args, 1); failed != nil {
		return failed
	}
	file, failed := v.stringArg(pos, "read", args[0])
	if failed != nil {
		return failed
	}
	return v.read(pos, file)
}

func builtinInclude(v *vm, pos syntax.Pos, args []Value) Value {
	if failed := v.arity(pos, "include", args, 1); failed != nil {
		return failed
	}
	file, failed := v.stringArg(pos, "include", args[0])
	if failed != nil {
		return failed
	}
	return v.include(pos, file)
}

// ref resolves a label to the heading's number, or its title when the
// heading is unnumbered.
func (v *vm) ref(pos syntax.Pos, label string) Value {
	info, ok := v.ev.intro.Heading(v.ctx, label)
	if !ok {
		return v.fail(pos, "label <%s> does not exist in the document", label)
	}
	if info.Number == "" {
		return textValue(info.Title)
	}
	return ContentValue{Body: domain.NewSequence(
		domain.NewText("Section"),
		domain.NewSpace(),
		domain.NewText(info.Number),
	)}
}

func textValue(s string) Value {
	return ContentValue{Body: textContent(s)}
}

func builtinRef(v *vm, pos syntax.Pos, args []Value) Value {
	if failed := v.arity(pos, "ref", args, 1); failed != nil {
		return failed
	}
	label, failed := v.stringArg(pos, "ref", args[0])
	if failed != nil {
		return failed
	}
	return v.ref(pos, label)
}

func builtinPageRef(v *vm, pos syntax.Pos, args []Value) Value {
	if failed := v.arity(pos, "pageref", args, 1); failed != nil {
		return failed
	}
	label, failed := v.stringArg(pos, "pageref", args[0])
	if failed != nil {
		return failed
	}
	page, found := v.ev.intro.HeadingPage(v.ctx, label)
	if !found {
		return v.fail(pos, "label <%s> does not exist in the document", label)
	}
	return IntValue(page)
}

func builtinPageCount(v *vm, pos syntax.Pos, args []Value) Value {
	if failed := v.arity(pos, "pagecount", args, 0); failed != nil {
		return failed
	}
	return IntValue(v.ev.intro.PageCount(v.ctx))
}

// builtinOutline lists every heading with its number and page, one
// paragraph per entry.
func builtinOutline(v *vm, pos syntax.Pos, args []Value) Value {
	if failed := v.arity(pos, "outline", args, 0); failed != nil {
		return failed
	}
	entries := v.ev.intro.Outline(v.ctx)
	parts := make([]domain.Content, 0, len(entries))
	for _, h := range entries {
		var line []domain.Content
		if h.Number != "" {
			line = append(line, domain.NewText(h.Number), domain.NewSpace())
		}
		line = append(line, textContent(h.Title), domain.NewSpace(), domain.NewText(strconv.Itoa(h.Page)))
		parts = append(parts, &domain.Paragraph{Body: domain.NewSequence(line...)})
	}
	return ContentValue{Body: &domain.Sequence{Children: parts}}
}

func builtinRepeat(v *vm, pos syntax.Pos, args []Value) Value {
	if failed := v.arity(pos, "repeat", args, 2); failed != nil {
		return failed
	}
	n, ok := args[0].(IntValue)
	if !ok {
		return v.fail(pos, "repeat expects an integer count, found %s", args[0].TypeName())
	}
	if n < 0 || n > maxRepeat {
		return v.fail(pos, "repeat count must be between 0 and %d, found %d", maxRepeat, n)
	}
	body, failed := v.contentArg(pos, "repeat", args[1])
	if failed != nil {
		return failed
	}
	parts := make([]domain.Content, 0, 2*int(n))
	for i := range int(n) {
		if i > 0 {
			parts = append(parts, domain.NewSpace())
		}
		parts = append(parts, body)
	}
	return ContentValue{Body: &domain.Sequence{Children: parts}}
}

func builtinPageBreak(v *vm, pos syntax.Pos, args []Value) Value {
	if failed := v.arity(pos, "pagebreak", args, 0); failed != nil {
		return failed
	}
	return ContentValue{Body: &domain.PageBreak{}}
}

func builtinStr(v *vm, pos syntax.Pos, args []Value) Value {
	if failed := v.arity(pos, "str", args, 1); failed != nil {
		return failed
	}
	s, ok := repr(args[0])
	if !ok {
		return v.fail(pos, "cannot convert %s to a string", args[0].TypeName())
	}
	return StrValue(s)
}

func caseMapper(name string, mapping func(string) string) builtin {
	return func(v *vm, pos syntax.Pos, args []Value) Value {
		if failed := v.arity(pos, name, args, 1); failed != nil {
			return failed
		}
		switch arg := args[0].(type) {
		case StrValue:
			return StrValue(mapping(string(arg)))
		case ContentValue:
			return textValue(mapping(domain.PlainText(arg.Body)))
		}
		return v.fail(pos, "%s expects a string or content, found %s", name, args[0].TypeName())
	}
}
