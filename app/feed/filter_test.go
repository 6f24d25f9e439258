package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilterBlocksMatchingTitles(t *testing.T) {
	filter := NewFilter([]string{"sponsored", "Crypto"})

	candidates := []Candidate{
		{GUID: "1", Title: "A normal headline"},
		{GUID: "2", Title: "Sponsored: buy things"},
		{GUID: "3", Title: "The week in CRYPTO markets"},
	}

	kept := filter.Run(candidates)
	if len(kept) != 1 {
		t.Fatalf("Expected 1 surviving candidate, got %d", len(kept))
	}
	if kept[0].GUID != "1" {
		t.Errorf("Expected candidate 1 to survive, got %s", kept[0].GUID)
	}
}

func TestFilterEmptyPassesThrough(t *testing.T) {
	filter := NewFilter(nil)
	candidates := []Candidate{{GUID: "1", Title: "Anything"}}

	kept := filter.Run(candidates)
	if len(kept) != 1 {
		t.Errorf("Expected empty filter to pass everything, got %d", len(kept))
	}
}

func TestNewFilterFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocklist.yml")
	if err := os.WriteFile(path, []byte("- sponsored\n- \"  giveaway \"\n"), 0o644); err != nil {
		t.Fatalf("Failed to write blocklist: %v", err)
	}

	filter, err := NewFilterFromFile(path)
	if err != nil {
		t.Fatalf("NewFilterFromFile failed: %v", err)
	}

	kept := filter.Run([]Candidate{
		{GUID: "1", Title: "Great giveaway inside"},
		{GUID: "2", Title: "Actual news"},
	})
	if len(kept) != 1 || kept[0].GUID != "2" {
		t.Errorf("Expected trimmed keyword to match, kept: %+v", kept)
	}
}

func TestNewFilterFromFileEmptyPath(t *testing.T) {
	filter, err := NewFilterFromFile("")
	if err != nil {
		t.Fatalf("Expected no error for empty path, got: %v", err)
	}
	if len(filter.Run([]Candidate{{Title: "x"}})) != 1 {
		t.Error("Expected pass-through filter for empty path")
	}
}
