package feed

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Filter suppresses candidates whose titles contain a blocklisted keyword.
// Matching is case-insensitive substring.
type Filter struct {
	keywords []string
}

func NewFilter(keywords []string) *Filter {
	normalized := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" {
			normalized = append(normalized, keyword)
		}
	}
	return &Filter{keywords: normalized}
}

// NewFilterFromFile loads a YAML blocklist (a plain sequence of keywords).
// An empty path yields a filter that passes everything through.
func NewFilterFromFile(path string) (*Filter, error) {
	if path == "" {
		return NewFilter(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blocklist: %w", err)
	}

	var keywords []string
	if err := yaml.Unmarshal(data, &keywords); err != nil {
		return nil, fmt.Errorf("failed to parse blocklist: %w", err)
	}

	return NewFilter(keywords), nil
}

// Run returns the candidates that survive the blocklist.
func (f *Filter) Run(candidates []Candidate) []Candidate {
	if len(f.keywords) == 0 {
		return candidates
	}

	kept := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if !f.blocked(candidate.Title) {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func (f *Filter) blocked(title string) bool {
	title = strings.ToLower(title)
	for _, keyword := range f.keywords {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}
