package ai

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateContentShortInput(t *testing.T) {
	if got := truncateContent("short", 100); got != "short" {
		t.Errorf("Expected input unchanged, got %q", got)
	}
}

func TestTruncateContentAtByteBudget(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := truncateContent(long, 100)
	if len(got) != 100 {
		t.Errorf("Expected 100 bytes, got %d", len(got))
	}
}

func TestTruncateContentNeverSplitsRune(t *testing.T) {
	// Each '日' is 3 bytes; a 100-byte cut would land mid-rune
	long := strings.Repeat("日", 60)
	got := truncateContent(long, 100)
	if !utf8.ValidString(got) {
		t.Error("Truncation produced invalid UTF-8")
	}
	if len(got) > 100 {
		t.Errorf("Expected at most 100 bytes, got %d", len(got))
	}
	if len(got) < 97 {
		t.Errorf("Truncation backed off too far: %d bytes", len(got))
	}
}

func TestStripPreambleDropsLabelLines(t *testing.T) {
	input := "This is an EDITORIAL summary:\nWhat's happening: Something big.\nWhy it matters: A lot."
	got := stripPreamble(input)
	if strings.Contains(strings.ToLower(got), "this is an editorial") {
		t.Errorf("Expected label line removed, got %q", got)
	}
	if !strings.Contains(got, "What's happening: Something big.") {
		t.Errorf("Expected content lines kept, got %q", got)
	}
}

func TestStripPreambleKeepsLegitimateLines(t *testing.T) {
	input := "The product: This is a productivity app.\nCost: Free."
	got := stripPreamble(input)
	if got != input {
		t.Errorf("Expected legitimate lines untouched, got %q", got)
	}
}

func TestStripPreambleProductLabel(t *testing.T) {
	input := "  this is a PRODUCT summary\nThe product: A phone."
	got := stripPreamble(input)
	if got != "The product: A phone." {
		t.Errorf("Expected only the content line, got %q", got)
	}
}

func TestModelVersion(t *testing.T) {
	s := NewSummarizer("", "key", "test-model-1")
	if s.ModelVersion() != "test-model-1" {
		t.Errorf("Expected configured model id, got %q", s.ModelVersion())
	}
}
