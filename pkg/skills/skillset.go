package skills

import (
	"strings"
)

// SkillSet is an ordered set of distinct skill strings. Comparison is
// case-insensitive; the original casing of the first occurrence is preserved
// for display.
type SkillSet struct {
	items []string
	index map[string]int // normalized skill -> position in items
}

// New builds a SkillSet from the given skills, dropping duplicates and blanks.
func New(items ...string) *SkillSet {
	s := &SkillSet{index: make(map[string]int)}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Normalize returns the canonical comparison form of a skill string.
func Normalize(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

// Add appends a skill if not already present. Returns true if it was added.
func (s *SkillSet) Add(skill string) bool {
	trimmed := strings.TrimSpace(skill)
	if trimmed == "" {
		return false
	}
	key := Normalize(trimmed)
	if _, exists := s.index[key]; exists {
		return false
	}
	s.index[key] = len(s.items)
	s.items = append(s.items, trimmed)
	return true
}

// Contains reports whether the skill is present (case-insensitive).
func (s *SkillSet) Contains(skill string) bool {
	_, ok := s.index[Normalize(skill)]
	return ok
}

// Items returns a copy of the skills in insertion order.
func (s *SkillSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of distinct skills.
func (s *SkillSet) Len() int {
	return len(s.items)
}

// Subtract returns the skills in s that are absent from other, preserving
// the order of s. This is the skill-gap computation: the result is always a
// subset of s.
func (s *SkillSet) Subtract(other *SkillSet) *SkillSet {
	gaps := New()
	for _, item := range s.items {
		if other == nil || !other.Contains(item) {
			gaps.Add(item)
		}
	}
	return gaps
}

// Union returns a new set with the items of s followed by the items of other
// that s does not already contain.
func (s *SkillSet) Union(other *SkillSet) *SkillSet {
	merged := New(s.items...)
	if other != nil {
		for _, item := range other.items {
			merged.Add(item)
		}
	}
	return merged
}

// ParseList parses a comma-separated skill list, the format the extraction
// prompt asks the model for. Surrounding whitespace and empty entries are
// dropped; duplicates collapse to the first occurrence.
func ParseList(raw string) *SkillSet {
	s := New()
	for _, part := range strings.Split(raw, ",") {
		s.Add(strings.Trim(part, " \t\r\n.")) // models occasionally end the list with a period
	}
	return s
}
