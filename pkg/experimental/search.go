package experimental

import (
	"context"
	"regexp"
	"sort"

	"golang.org/x/sync/errgroup"

	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// versionFetchLimit bounds concurrent version lookups.
const versionFetchLimit = 4

// API is the subset of the Compiler Explorer client the search needs.
type API interface {
	Compilers(ctx context.Context, lang string, extended, refresh bool) ([]ce.Compiler, error)
	CompilerVersion(ctx context.Context, compilerID string) map[string]any
}

// Query selects experimental compilers. Proposal wins over Feature, Feature
// over Category; an empty query returns all experimental compilers.
type Query struct {
	Proposal      string
	Feature       string
	Category      string
	FetchVersions bool
}

// VersionInfo is the parsed deployed version of a nightly compiler.
type VersionInfo struct {
	RawVersion    string `json:"raw_version"`
	FullVersion   string `json:"full_version"`
	Modified      string `json:"modified"`
	VersionNumber string `json:"version_number,omitempty"`
	CommitHash    string `json:"commit_hash,omitempty"`
	BuildDate     string `json:"build_date,omitempty"`
	SourceURL     string `json:"source_url,omitempty"`
	GCCBuildHash  string `json:"gcc_build_hash,omitempty"`
}

var (
	versionNumberRe = regexp.MustCompile(`version\s+([\d.]+\w*)`)
	commitHashRe    = regexp.MustCompile(`\b([a-f0-9]{40})\b`)
	shortHashRe     = regexp.MustCompile(`/([a-f0-9]{7,})\)`)
	buildDateRe     = regexp.MustCompile(`\b(202\d{5})\b`)
	sourceURLRe     = regexp.MustCompile(`(https?://[^\s)]+)`)
	gccBuildRe      = regexp.MustCompile(`gcc-([a-f0-9]{40})`)
)

// Search lists the experimental compilers of a language matching q. With
// FetchVersions set, nightly compilers get their deployed version. Results
// with a modification time come first, most recent first; the rest follow in
// descending name order.
func Search(ctx context.Context, api API, lang string, q Query) ([]Compiler, error) {
	compilers, err := api.Compilers(ctx, lang, true, false)
	if err != nil {
		return nil, err
	}

	var found []Compiler
	switch {
	case q.Proposal != "":
		found = FindByProposal(compilers, q.Proposal)
	case q.Feature != "":
		found = FindByFeature(compilers, q.Feature)
	case q.Category != "":
		for _, c := range All(compilers) {
			if c.Category == q.Category {
				found = append(found, c)
			}
		}
	default:
		found = All(compilers)
	}

	if q.FetchVersions {
		fetchVersions(ctx, api, found)
	}

	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if (a.Modified != "") != (b.Modified != "") {
			return a.Modified != ""
		}
		if a.Modified != "" {
			return a.Modified > b.Modified
		}
		return a.Name > b.Name
	})
	return found, nil
}

func fetchVersions(ctx context.Context, api API, compilers []Compiler) {
	var g errgroup.Group
	g.SetLimit(versionFetchLimit)
	for i := range compilers {
		if !compilers[i].IsNightly {
			continue
		}
		g.Go(func() error {
			if info, ok := ParseVersionInfo(api.CompilerVersion(ctx, compilers[i].ID)); ok {
				compilers[i].VersionInfo = info
				compilers[i].Modified = info.Modified
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ParseVersionInfo extracts the version number, commit hash, build date,
// source URL and GCC build hash from a deployed-version response. Responses
// carrying an error yield false.
func ParseVersionInfo(raw map[string]any) (*VersionInfo, bool) {
	if raw == nil {
		return nil, false
	}
	if _, failed := raw["error"]; failed {
		return nil, false
	}

	version := stringField(raw, "version")
	info := &VersionInfo{
		RawVersion:  version,
		FullVersion: stringField(raw, "full_version"),
		Modified:    stringField(raw, "modified"),
	}
	if m := versionNumberRe.FindStringSubmatch(version); m != nil {
		info.VersionNumber = m[1]
	}
	if m := commitHashRe.FindStringSubmatch(version); m != nil {
		info.CommitHash = m[1]
	} else if m := shortHashRe.FindStringSubmatch(version); m != nil {
		info.CommitHash = m[1]
	}
	if m := buildDateRe.FindStringSubmatch(version); m != nil {
		info.BuildDate = m[1]
	}
	if m := sourceURLRe.FindStringSubmatch(version); m != nil {
		info.SourceURL = m[1]
	}
	if m := gccBuildRe.FindStringSubmatch(version); m != nil {
		info.GCCBuildHash = m[1]
	}
	return info, true
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
