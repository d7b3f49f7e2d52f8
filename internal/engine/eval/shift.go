package eval

import (
	"strings"

	"go.trai.ch/quill/internal/core/domain"
)

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽', ')': '⁾',
	'n': 'ⁿ', 'i': 'ⁱ', ' ': ' ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄',
	'5': '₅', '6': '₆', '7': '₇', '8': '₈', '9': '₉',
	'+': '₊', '-': '₋', '=': '₌', '(': '₍', ')': '₎',
	'a': 'ₐ', 'e': 'ₑ', 'o': 'ₒ', 'x': 'ₓ', 'h': 'ₕ',
	'k': 'ₖ', 'l': 'ₗ', 'm': 'ₘ', 'n': 'ₙ', 'p': 'ₚ',
	's': 'ₛ', 't': 'ₜ', ' ': ' ',
}

// shifted renders body as super- or subscript. Plain text whose every
// character has a dedicated codepoint is converted; anything else is kept
// and shifted synthetically by layout.
func shifted(kind domain.Shift, body domain.Content) domain.Content {
	table := superscripts
	if kind == domain.ShiftSub {
		table = subscripts
	}

	var b strings.Builder
	if convertScript(&b, table, body) {
		return textContent(b.String())
	}
	return &domain.Shifted{Shift: kind, Body: body}
}

func convertScript(b *strings.Builder, table map[rune]rune, c domain.Content) bool {
	switch n := c.(type) {
	case *domain.Text:
		for _, r := range n.Value {
			mapped, ok := table[r]
			if !ok {
				return false
			}
			b.WriteRune(mapped)
		}
		return true
	case *domain.Space:
		b.WriteByte(' ')
		return true
	case *domain.Sequence:
		for _, child := range n.Children {
			if !convertScript(b, table, child) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
