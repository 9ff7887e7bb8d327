// Package experimental finds and categorises experimental compilers.
//
// Compiler Explorer hosts many compilers built from proposal branches
// (P2996 reflection, P3385 attributes, ...), feature branches and nightly
// trunk builds. Nothing in the API marks them as such, so this package
// classifies them from their names and ids: proposal numbers, feature
// keywords, "experimental", "trunk", and the isNightly flag.
package experimental

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// Categories in display order.
const (
	CategoryProposals         = "proposals"
	CategoryReflection        = "reflection"
	CategoryConcepts          = "concepts"
	CategoryModules           = "modules"
	CategoryCoroutines        = "coroutines"
	CategoryContracts         = "contracts"
	CategoryLifetimeAnalysis  = "lifetime_analysis"
	CategoryMetaprogramming   = "metaprogramming"
	CategoryTrunkNightly      = "trunk_nightly"
	CategoryOtherExperimental = "other_experimental"
)

// Categories lists every category in display order.
var Categories = []string{
	CategoryProposals, CategoryReflection, CategoryConcepts, CategoryModules,
	CategoryCoroutines, CategoryContracts, CategoryLifetimeAnalysis,
	CategoryMetaprogramming, CategoryTrunkNightly, CategoryOtherExperimental,
}

type featureKeywords struct {
	feature  string
	keywords []string
}

// features maps each feature to the name fragments that indicate it.
var features = []featureKeywords{
	{"reflection", []string{"reflection", "refl"}},
	{"concepts", []string{"concept", "concepts-ts"}},
	{"modules", []string{"module", "modules-ts"}},
	{"coroutines", []string{"coroutine", "coro"}},
	{"contracts", []string{"contract"}},
	{"ranges", []string{"range"}},
	{"networking", []string{"network", "net-ts"}},
	{"parallelism", []string{"parallel", "par-ts"}},
	{"lifetime", []string{"lifetime"}},
	{"metaprogramming", []string{"metaprog", "autonsdmi"}},
}

// The prefix guard keeps ids such as clang1700 from reading as N1700.
var (
	proposalRe      = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])([pn])(\d{4})`)
	proposalQueryRe = regexp.MustCompile(`([pn]?)(\d{4})`)
)

// Compiler is an experimental compiler with its classification.
type Compiler struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Category             string           `json:"category"`
	ProposalNumbers      []string         `json:"proposals"`
	Features             []string         `json:"features"`
	IsNightly            bool             `json:"is_nightly"`
	Description          string           `json:"description"`
	VersionInfo          *VersionInfo     `json:"version_info"`
	Modified             string           `json:"modified"`
	PossibleOverrides    json.RawMessage  `json:"possible_overrides,omitempty"`
	PossibleRuntimeTools json.RawMessage  `json:"possible_runtime_tools,omitempty"`
	Tools                ce.CompilerTools `json:"-"`
}

// IsExperimental reports whether a compiler is experimental: its name or id
// says so, it is a nightly build, it names a proposal or a feature keyword,
// or it is a trunk build.
func IsExperimental(c ce.Compiler) bool {
	name := strings.ToLower(c.Name)
	id := strings.ToLower(c.ID)
	switch {
	case strings.Contains(name, "experimental") || strings.Contains(id, "experimental"):
		return true
	case c.IsNightly:
		return true
	case proposalRe.MatchString(c.Name + " " + c.ID):
		return true
	case len(ExtractFeatures(name)) > 0:
		return true
	case strings.Contains(name, "trunk"):
		return true
	}
	return false
}

// ExtractProposals returns the distinct upper-cased proposal numbers
// (P1234, N1234) mentioned in text.
func ExtractProposals(text string) []string {
	matches := proposalRe.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if p := strings.ToUpper(m[1]) + m[2]; !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// ExtractFeatures returns the features whose keywords appear in a
// lower-cased compiler name.
func ExtractFeatures(nameLower string) []string {
	out := []string{}
	for _, f := range features {
		for _, kw := range f.keywords {
			if strings.Contains(nameLower, kw) {
				out = append(out, f.feature)
				break
			}
		}
	}
	return out
}

// Categorize groups the experimental compilers by category. Compilers naming
// a proposal are listed under proposals and also under their feature
// category. Empty categories are omitted.
func Categorize(compilers []ce.Compiler) map[string][]Compiler {
	out := make(map[string][]Compiler)
	for _, c := range compilers {
		if !IsExperimental(c) {
			continue
		}
		ec, category := classify(c)
		if len(ec.ProposalNumbers) > 0 {
			out[CategoryProposals] = append(out[CategoryProposals], ec)
			if category != CategoryProposals {
				out[category] = append(out[category], ec)
			}
			continue
		}
		out[category] = append(out[category], ec)
	}
	return out
}

// All returns every experimental compiler sorted by category, then name.
func All(compilers []ce.Compiler) []Compiler {
	var out []Compiler
	for _, c := range compilers {
		if IsExperimental(c) {
			ec, _ := classify(c)
			out = append(out, ec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// FindByProposal returns the compilers naming a proposal. The query may be
// "P3385", "n3089" or a bare "3385", which matches both P and N numbers.
func FindByProposal(compilers []ce.Compiler, proposal string) []Compiler {
	m := proposalQueryRe.FindStringSubmatch(strings.ToLower(proposal))
	if m == nil {
		return nil
	}
	prefix := m[1]
	if prefix == "" {
		prefix = "[pn]"
	}
	pattern := regexp.MustCompile(`(?i)(?:^|[^a-z0-9])` + prefix + m[2] + `\b`)

	var out []Compiler
	for _, c := range compilers {
		if pattern.MatchString(c.Name + " " + c.ID) {
			out = append(out, build(c, CategoryProposals, ExtractFeatures(strings.ToLower(c.Name))))
		}
	}
	return out
}

// FindByFeature returns the compilers whose names carry a feature keyword.
// Unknown features are matched literally.
func FindByFeature(compilers []ce.Compiler, feature string) []Compiler {
	feature = strings.ToLower(feature)
	keywords := []string{feature}
	for _, f := range features {
		if f.feature == feature {
			keywords = f.keywords
		}
	}

	var out []Compiler
	for _, c := range compilers {
		name := strings.ToLower(c.Name)
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				out = append(out, build(c, feature, ExtractFeatures(name)))
				break
			}
		}
	}
	return out
}

func classify(c ce.Compiler) (Compiler, string) {
	name := strings.ToLower(c.Name)
	category := categoryOf(name)
	primary := category
	if proposalRe.MatchString(c.Name + " " + c.ID) {
		primary = CategoryProposals
	}
	return build(c, primary, ExtractFeatures(name)), category
}

func categoryOf(nameLower string) string {
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(nameLower, w) {
				return true
			}
		}
		return false
	}
	switch {
	case has("reflection"):
		return CategoryReflection
	case has("concept", "concepts-ts"):
		return CategoryConcepts
	case has("module", "modules-ts"):
		return CategoryModules
	case has("coroutine"):
		return CategoryCoroutines
	case has("contract"):
		return CategoryContracts
	case has("lifetime"):
		return CategoryLifetimeAnalysis
	case has("metaprog", "autonsdmi"):
		return CategoryMetaprogramming
	case has("trunk"):
		return CategoryTrunkNightly
	}
	return CategoryOtherExperimental
}

func build(c ce.Compiler, category string, feats []string) Compiler {
	proposals := ExtractProposals(c.Name + " " + c.ID)
	return Compiler{
		ID:                   c.ID,
		Name:                 c.Name,
		Category:             category,
		ProposalNumbers:      proposals,
		Features:             feats,
		IsNightly:            c.IsNightly,
		Description:          describe(c.Name, proposals, feats),
		PossibleOverrides:    c.PossibleOverrides,
		PossibleRuntimeTools: c.PossibleRuntimeTools,
		Tools:                c.Tools,
	}
}

func describe(name string, proposals, feats []string) string {
	parts := []string{name}
	if len(proposals) > 0 {
		parts = append(parts, fmt.Sprintf("Supports: %s", strings.Join(proposals, ", ")))
	}
	if len(feats) > 0 {
		parts = append(parts, fmt.Sprintf("Features: %s", strings.Join(feats, ", ")))
	}
	return strings.Join(parts, " | ")
}
