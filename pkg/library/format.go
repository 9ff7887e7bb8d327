package library

import (
	"fmt"
	"strings"

	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// FormatErrorWithSuggestions appends a "Did you mean" block listing up to
// five suggestions, each with its first three versions, followed by an
// example library request.
func FormatErrorWithSuggestions(base, lang string, suggestions []ce.Library) string {
	if len(suggestions) == 0 {
		return fmt.Sprintf("%s\n\nNo similar libraries found for %s.", base, lang)
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nDid you mean:\n")
	for i, lib := range suggestions {
		if i == suggestionLimit {
			break
		}
		versions := make([]string, 0, 3)
		for j, v := range lib.Versions {
			if j == 3 {
				break
			}
			if v.Version == "" {
				versions = append(versions, "unknown")
			} else {
				versions = append(versions, v.Version)
			}
		}
		info := "versions: " + strings.Join(versions, ", ")
		if extra := len(lib.Versions) - 3; extra > 0 {
			info += fmt.Sprintf(", +%d more", extra)
		}
		fmt.Fprintf(&b, "  - %s (%s) - %s\n", lib.ID, lib.Name, info)
	}
	fmt.Fprintf(&b, "\nExample usage: [{\"id\": \"%s\", \"version\": \"latest\"}]", suggestions[0].ID)
	return b.String()
}

// Info is a condensed view of a library for listings.
type Info struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	Versions      []string `json:"versions"`
	LatestVersion string   `json:"latest_version"`
	VersionCount  int      `json:"version_count"`
}

// Describe condenses a library into an [Info]. LatestVersion is empty when
// the library has no versions.
func Describe(lib ce.Library) Info {
	versions := make([]string, len(lib.Versions))
	for i, v := range lib.Versions {
		versions[i] = v.Version
	}
	latest, _ := LatestVersionID(lib.Versions)
	return Info{
		ID:            lib.ID,
		Name:          lib.Name,
		URL:           lib.URL,
		Versions:      versions,
		LatestVersion: latest,
		VersionCount:  len(lib.Versions),
	}
}
