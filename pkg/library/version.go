package library

import (
	"errors"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// Latest is the version request that selects the newest stable version.
const Latest = "latest"

// ErrNoVersions is returned by [LatestVersionID] for an empty version list.
var ErrNoVersions = errors.New("no library versions available")

var devKeywords = []string{"trunk", "master", "main", "dev", "nightly", "snapshot", "head"}

// ResolveVersion maps a version request to a version id. It tries, in order:
// "latest", an exact version id, a version string, and an alias.
func ResolveVersion(versions []ce.LibraryVersion, requested string) (string, bool) {
	if len(versions) == 0 {
		return "", false
	}
	if requested == Latest {
		id, err := LatestVersionID(versions)
		return id, err == nil
	}
	for _, v := range versions {
		if v.ID == requested {
			return v.ID, true
		}
	}
	for _, v := range versions {
		if v.Version == requested {
			return v.ID, true
		}
	}
	for _, v := range versions {
		for _, alias := range v.Alias {
			if alias == requested {
				return v.ID, true
			}
		}
	}
	return "", false
}

// LatestVersionID returns the id of the newest stable version.
//
// Development versions (trunk, master, nightly, ...) are skipped unless they
// are all there is. If every remaining version carries $order, the highest
// order wins. Otherwise versions are ranked by semantic version, with
// unparseable versions below parseable ones and compared lexically.
func LatestVersionID(versions []ce.LibraryVersion) (string, error) {
	if len(versions) == 0 {
		return "", ErrNoVersions
	}

	candidates := make([]ce.LibraryVersion, 0, len(versions))
	for _, v := range versions {
		if !IsDevVersion(v) {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		candidates = versions
	}

	if allOrdered(candidates) {
		best := candidates[0]
		for _, v := range candidates[1:] {
			if *v.Order > *best.Order {
				best = v
			}
		}
		return best.ID, nil
	}

	ranked := append([]ce.LibraryVersion(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return newer(ranked[i].Version, ranked[j].Version)
	})
	return ranked[0].ID, nil
}

// IsDevVersion reports whether a version is a development build.
func IsDevVersion(v ce.LibraryVersion) bool {
	version := strings.ToLower(v.Version)
	id := strings.ToLower(v.ID)
	for _, kw := range devKeywords {
		if strings.Contains(version, kw) || strings.Contains(id, kw) {
			return true
		}
	}
	return false
}

func allOrdered(versions []ce.LibraryVersion) bool {
	for _, v := range versions {
		if v.Order == nil {
			return false
		}
	}
	return true
}

// newer reports whether version a ranks above version b.
func newer(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		if c := va.Compare(vb); c != 0 {
			return c > 0
		}
		return a > b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a > b
	}
}
