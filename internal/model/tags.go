package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// TagSet is an unordered set of tags. The zero value is an empty set.
type TagSet struct {
	m map[string]struct{}
}

// NewTagSet builds a set from tags, trimming blanks and dropping duplicates.
func NewTagSet(tags ...string) TagSet {
	var s TagSet
	for _, tag := range tags {
		s.Add(tag)
	}
	return s
}

// Add inserts tag and reports whether it was new.
func (s *TagSet) Add(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	if s.m == nil {
		s.m = make(map[string]struct{})
	}
	if _, ok := s.m[tag]; ok {
		return false
	}
	s.m[tag] = struct{}{}
	return true
}

// Remove deletes tag and reports whether it was present.
func (s *TagSet) Remove(tag string) bool {
	tag = strings.TrimSpace(tag)
	if _, ok := s.m[tag]; !ok {
		return false
	}
	delete(s.m, tag)
	return true
}

func (s TagSet) Has(tag string) bool {
	_, ok := s.m[strings.TrimSpace(tag)]
	return ok
}

func (s TagSet) Len() int { return len(s.m) }

// Slice returns the tags in sorted order.
func (s TagSet) Slice() []string {
	out := make([]string, 0, len(s.m))
	for tag := range s.m {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func (s TagSet) Clone() TagSet {
	if s.m == nil {
		return TagSet{}
	}
	c := TagSet{m: make(map[string]struct{}, len(s.m))}
	for tag := range s.m {
		c.m[tag] = struct{}{}
	}
	return c
}

func (s TagSet) String() string {
	return strings.Join(s.Slice(), ",")
}

// MarshalJSON writes a sorted array so exports are stable.
func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *TagSet) UnmarshalJSON(b []byte) error {
	var tags []string
	if err := json.Unmarshal(b, &tags); err != nil {
		return err
	}
	*s = NewTagSet(tags...)
	return nil
}
