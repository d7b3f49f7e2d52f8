package domain_test

import (
	"encoding/json"
	"testing"

	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/quill/internal/core/memo"
)

func TestSymbol(t *testing.T) {
	s1 := domain.NewSymbol("intro")
	s2 := domain.NewSymbol("intro")

	if s1 != s2 {
		t.Errorf("Expected symbols to be equal for identical strings, got %v and %v", s1, s2)
	}
	if s1.String() != "intro" {
		t.Errorf("Expected String() to return %q, got %q", "intro", s1.String())
	}

	var zero domain.Symbol
	if !zero.IsZero() || zero.String() != "" {
		t.Errorf("Expected zero symbol to be empty, got %q", zero.String())
	}
}

func TestSymbolFingerprint(t *testing.T) {
	if memo.Of(domain.NewSymbol("a")) != memo.Of(domain.NewSymbol("a")) {
		t.Error("Expected equal symbols to fingerprint equally")
	}
	if memo.Of(domain.NewSymbol("a")) == memo.Of("a") {
		t.Error("Expected a symbol and a plain string to fingerprint differently")
	}
}

func TestSymbolJSON(t *testing.T) {
	type labelled struct {
		Label domain.Symbol `json:"label"`
	}

	original := labelled{Label: domain.NewSymbol("fig-1")}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal struct: %v", err)
	}
	if string(data) != `{"label":"fig-1"}` {
		t.Errorf("Expected JSON %q, got %q", `{"label":"fig-1"}`, string(data))
	}

	var decoded labelled
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal struct: %v", err)
	}
	if decoded.Label != original.Label {
		t.Errorf("Expected label %q, got %q", original.Label, decoded.Label)
	}
}
