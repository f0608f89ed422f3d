// Package safety merges allergy and contraindication data from independent
// questionnaires into one display list.
package safety

import "strings"

// Source contributes raw tags.
type Source interface {
	Tags() []string
}

// TagList is a fixed Source.
type TagList []string

func (l TagList) Tags() []string { return l }

// Aggregate concatenates the tags of every source, trims them, drops empty
// ones and removes exact duplicates keeping the first occurrence. It does no
// I/O and returns the same list for the same inputs.
func Aggregate(sources ...Source) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, src := range sources {
		if src == nil {
			continue
		}
		for _, raw := range src.Tags() {
			tag := strings.TrimSpace(raw)
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}
