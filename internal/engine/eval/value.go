package eval

import (
	"strconv"
	"strings"
	"unicode"

	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/quill/internal/core/memo"
	"golang.org/x/text/unicode/norm"
)

// Value is the result of evaluating an expression.
type Value interface {
	memo.Hashable
	TypeName() string
}

// NoneValue is the absence of a value.
type NoneValue struct{}

// IntValue is a 64-bit integer.
type IntValue int64

// FloatValue is a 64-bit float.
type FloatValue float64

// StrValue is an NFC-normalised string.
type StrValue string

// BoolValue is a boolean.
type BoolValue bool

// ContentValue wraps evaluated content.
type ContentValue struct {
	Body domain.Content
}

// FuncValue refers to a builtin function by name.
type FuncValue struct {
	Name string
}

// failedValue propagates an error that has already been reported.
type failedValue struct {
	Message string
}

func (NoneValue) TypeName() string    { return "none" }
func (IntValue) TypeName() string     { return "int" }
func (FloatValue) TypeName() string   { return "float" }
func (StrValue) TypeName() string     { return "str" }
func (BoolValue) TypeName() string    { return "bool" }
func (ContentValue) TypeName() string { return "content" }
func (FuncValue) TypeName() string    { return "function" }
func (failedValue) TypeName() string  { return "error" }

// Hash implements memo.Hashable.
func (NoneValue) Hash(h *memo.Hasher) { h.Tag("value.none") }

// Hash implements memo.Hashable.
func (v IntValue) Hash(h *memo.Hasher) {
	h.Tag("value.int")
	h.Int64(int64(v))
}

// Hash implements memo.Hashable.
func (v FloatValue) Hash(h *memo.Hasher) {
	h.Tag("value.float")
	h.Float64(float64(v))
}

// Hash implements memo.Hashable.
func (v StrValue) Hash(h *memo.Hasher) {
	h.Tag("value.str")
	h.String(string(v))
}

// Hash implements memo.Hashable.
func (v BoolValue) Hash(h *memo.Hasher) {
	h.Tag("value.bool")
	h.Bool(bool(v))
}

// Hash implements memo.Hashable.
func (v ContentValue) Hash(h *memo.Hasher) {
	h.Tag("value.content")
	h.Fingerprint(v.Body.Fingerprint())
}

// Hash implements memo.Hashable.
func (v FuncValue) Hash(h *memo.Hasher) {
	h.Tag("value.func")
	h.String(v.Name)
}

// Hash implements memo.Hashable.
func (v failedValue) Hash(h *memo.Hasher) {
	h.Tag("value.failed")
	h.String(v.Message)
}

// repr renders a primitive value as text. ok is false for values without a
// textual form.
func repr(v Value) (string, bool) {
	switch v := v.(type) {
	case NoneValue:
		return "", true
	case IntValue:
		return strconv.FormatInt(int64(v), 10), true
	case FloatValue:
		return strconv.FormatFloat(float64(v), 'g', -1, 64), true
	case StrValue:
		return string(v), true
	case BoolValue:
		return strconv.FormatBool(bool(v)), true
	case ContentValue:
		return domain.PlainText(v.Body), true
	default:
		return "", false
	}
}

// textContent turns a string into words separated by breakable spaces.
func textContent(s string) domain.Content {
	s = norm.NFC.String(s)
	var (
		parts []domain.Content
		word  strings.Builder
	)
	flush := func() {
		if word.Len() > 0 {
			parts = append(parts, domain.NewText(word.String()))
			word.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			flush()
			if n := len(parts); n == 0 || parts[n-1] != domain.Content(domain.NewSpace()) {
				parts = append(parts, domain.NewSpace())
			}
			continue
		}
		word.WriteRune(r)
	}
	flush()
	return domain.NewSequence(parts...)
}
