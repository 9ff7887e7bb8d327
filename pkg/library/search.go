package library

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// Search scores.
const (
	scoreExact     = 100
	scoreSubstring = 80
	scorePrefix    = 70
	fuzzyThreshold = 0.6
	fuzzyScale     = 60
)

// maxEditDistance is the largest typo distance that always yields a suggestion.
const maxEditDistance = 2

type scored struct {
	lib   ce.Library
	score int
}

// FilterBySearch returns the libraries matching term, best match first.
// An empty term returns libs unchanged.
func FilterBySearch(libs []ce.Library, term string) []ce.Library {
	if term == "" {
		return libs
	}
	term = strings.ToLower(term)

	var results []scored
	for _, lib := range libs {
		if s, ok := matchScore(lib, term); ok {
			results = append(results, scored{lib, s})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })

	out := make([]ce.Library, len(results))
	for i, r := range results {
		out[i] = r.lib
	}
	return out
}

func matchScore(lib ce.Library, term string) (int, bool) {
	id := strings.ToLower(lib.ID)
	name := strings.ToLower(lib.Name)
	switch {
	case term == id || term == name:
		return scoreExact, true
	case strings.Contains(id, term) || strings.Contains(name, term):
		return scoreSubstring, true
	case strings.HasPrefix(id, term) || strings.HasPrefix(name, term):
		return scorePrefix, true
	}
	best := max(fuzzyScore(term, id), fuzzyScore(term, name))
	if best > fuzzyThreshold {
		return int(best * fuzzyScale), true
	}
	return 0, false
}

// fuzzyScore blends the shared-character ratio (0.4), length similarity (0.3)
// and how much of term appears in order within target (0.3).
func fuzzyScore(term, target string) float64 {
	if term == "" || target == "" {
		return 0
	}

	termChars := charSet(term)
	targetChars := charSet(target)
	common := 0
	for r := range termChars {
		if targetChars[r] {
			common++
		}
	}
	charRatio := float64(common) / float64(max(len(termChars), len(targetChars)))

	tl, gl := len([]rune(term)), len([]rune(target))
	maxLen := max(tl, gl)
	lenScore := 1 - float64(abs(tl-gl))/float64(maxLen)

	orderScore := 0.0
	if tl <= gl {
		termRunes := []rune(term)
		i := 0
		for _, r := range target {
			if i < tl && r == termRunes[i] {
				i++
			}
		}
		orderScore = float64(i) / float64(tl)
	}

	return charRatio*0.4 + lenScore*0.3 + orderScore*0.3
}

// Suggest returns up to n libraries resembling term. Ids within edit
// distance 2 come first, nearest first; search matches follow.
func Suggest(libs []ce.Library, term string, n int) []ce.Library {
	if term == "" || n <= 0 {
		return nil
	}
	lower := strings.ToLower(term)

	type near struct {
		lib  ce.Library
		dist int
	}
	var nearby []near
	for _, lib := range libs {
		if d := levenshtein.ComputeDistance(lower, strings.ToLower(lib.ID)); d <= maxEditDistance {
			nearby = append(nearby, near{lib, d})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].dist < nearby[j].dist })

	seen := make(map[string]bool)
	var out []ce.Library
	add := func(lib ce.Library) {
		if len(out) < n && !seen[lib.ID] {
			seen[lib.ID] = true
			out = append(out, lib)
		}
	}
	for _, c := range nearby {
		add(c.lib)
	}
	for _, lib := range FilterBySearch(libs, term) {
		add(lib)
	}
	return out
}

func charSet(s string) map[rune]bool {
	set := make(map[rune]bool, len(s))
	for _, r := range s {
		set[r] = true
	}
	return set
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
