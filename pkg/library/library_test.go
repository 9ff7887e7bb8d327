package library

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	errs "github.com/matzehuels/ce-mcp/pkg/errors"
	"github.com/matzehuels/ce-mcp/pkg/integrations"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

func order(f float64) *float64 { return &f }

type fakeAPI struct {
	libs      []ce.Library
	compilers []ce.Compiler
	libErr    error
	compErr   error
}

func (f *fakeAPI) Libraries(context.Context, string, bool) ([]ce.Library, error) {
	return f.libs, f.libErr
}

func (f *fakeAPI) Compilers(context.Context, string, bool, bool) ([]ce.Compiler, error) {
	return f.compilers, f.compErr
}

var testLibs = []ce.Library{
	{ID: "fmt", Name: "{fmt}", Versions: []ce.LibraryVersion{
		{ID: "1000", Version: "10.0.0", Order: order(2)},
		{ID: "1100", Version: "11.0.0", Order: order(3), StaticLibLink: []string{"fmtd"}},
		{ID: "trunk", Version: "trunk", Order: order(9)},
	}},
	{ID: "boost", Name: "Boost", Versions: []ce.LibraryVersion{
		{ID: "184", Version: "1.84.0", Alias: []string{"boost-1.84"}},
		{ID: "185", Version: "1.85.0"},
	}},
	{ID: "range-v3", Name: "range-v3", Versions: []ce.LibraryVersion{
		{ID: "0120", Version: "0.12.0"},
	}},
	{ID: "eigen", Name: "Eigen", Versions: []ce.LibraryVersion{{ID: "340", Version: "3.4.0"}}},
}

func TestLatestVersionID(t *testing.T) {
	tests := []struct {
		name     string
		versions []ce.LibraryVersion
		want     string
	}{
		{
			name: "max order",
			versions: []ce.LibraryVersion{
				{ID: "a", Version: "1.0", Order: order(1)},
				{ID: "b", Version: "0.9", Order: order(5)},
				{ID: "c", Version: "2.0", Order: order(3)},
			},
			want: "b",
		},
		{
			name: "dev versions skipped",
			versions: []ce.LibraryVersion{
				{ID: "trunk", Version: "trunk", Order: order(10)},
				{ID: "v1", Version: "1.0", Order: order(1)},
			},
			want: "v1",
		},
		{
			name: "only dev versions",
			versions: []ce.LibraryVersion{
				{ID: "master", Version: "master"},
				{ID: "nightly", Version: "nightly"},
			},
			want: "nightly",
		},
		{
			name: "semver without order",
			versions: []ce.LibraryVersion{
				{ID: "a", Version: "1.9.0"},
				{ID: "b", Version: "1.10.0"},
				{ID: "c", Version: "1.2.0"},
			},
			want: "b",
		},
		{
			name: "partial order falls back to semver",
			versions: []ce.LibraryVersion{
				{ID: "a", Version: "2.0.0", Order: order(1)},
				{ID: "b", Version: "3.0.0"},
			},
			want: "b",
		},
		{
			name: "parseable above unparseable",
			versions: []ce.LibraryVersion{
				{ID: "x", Version: "zeta"},
				{ID: "y", Version: "0.1"},
			},
			want: "y",
		},
		{
			name: "lexical fallback",
			versions: []ce.LibraryVersion{
				{ID: "x", Version: "alpha"},
				{ID: "y", Version: "gamma"},
				{ID: "z", Version: "beta"},
			},
			want: "y",
		},
		{
			name: "date style versions",
			versions: []ce.LibraryVersion{
				{ID: "old", Version: "20240101.0"},
				{ID: "new", Version: "20250127.0"},
			},
			want: "new",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LatestVersionID(tt.versions)
			if err != nil {
				t.Fatalf("LatestVersionID() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("LatestVersionID() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := LatestVersionID(nil); !errors.Is(err, ErrNoVersions) {
		t.Errorf("LatestVersionID(nil) error = %v, want ErrNoVersions", err)
	}
}

func TestResolveVersion(t *testing.T) {
	versions := testLibs[1].Versions
	tests := []struct {
		requested string
		want      string
		ok        bool
	}{
		{"latest", "185", true},
		{"184", "184", true},
		{"1.85.0", "185", true},
		{"boost-1.84", "184", true},
		{"9.9.9", "", false},
	}
	for _, tt := range tests {
		got, ok := ResolveVersion(versions, tt.requested)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ResolveVersion(%q) = (%q, %v), want (%q, %v)", tt.requested, got, ok, tt.want, tt.ok)
		}
	}

	if _, ok := ResolveVersion(nil, "latest"); ok {
		t.Error("ResolveVersion(nil) should fail")
	}
}

func TestCompilerSupport(t *testing.T) {
	all := CompilerSupport(ce.Compiler{ID: "g132", SupportsLibraryCodeFilter: true}, testLibs)
	want := Support{
		SupportsAllLibraries:     true,
		SupportedLibraries:       []string{"fmt", "boost", "range-v3", "eigen"},
		LibraryCount:             4,
		SupportsLibraryFiltering: true,
		RestrictionType:          RestrictionNone,
	}
	if diff := cmp.Diff(want, all); diff != "" {
		t.Errorf("CompilerSupport(empty libsArr) mismatch (-want +got):\n%s", diff)
	}

	limited := CompilerSupport(ce.Compiler{ID: "icc", LibsArr: []string{"fmt"}}, testLibs)
	if limited.SupportsAllLibraries || limited.RestrictionType != RestrictionLimited || limited.LibraryCount != 1 {
		t.Errorf("CompilerSupport(limited) = %+v", limited)
	}
}

func TestFilterCompilersBySupport(t *testing.T) {
	compilers := []ce.Compiler{
		{ID: "g132"},
		{ID: "icc", LibsArr: []string{"fmt"}},
		{ID: "msvc", LibsArr: []string{"boost"}},
	}
	got := FilterCompilersBySupport(compilers, "fmt")
	var ids []string
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]string{"g132", "icc"}, ids); diff != "" {
		t.Errorf("FilterCompilersBySupport() mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckCompatibility(t *testing.T) {
	if got := CheckCompatibility(ce.Compiler{}, []string{"fmt", "boost"}); got != nil {
		t.Errorf("CheckCompatibility(empty libsArr) = %v, want nil", got)
	}
	got := CheckCompatibility(ce.Compiler{LibsArr: []string{"fmt"}}, []string{"fmt", "boost", "eigen"})
	if diff := cmp.Diff([]string{"boost", "eigen"}, got); diff != "" {
		t.Errorf("CheckCompatibility() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterBySearch(t *testing.T) {
	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"fmt", "boost", "range-v3", "eigen"}},
		{"fmt", []string{"fmt"}},
		{"BOOST", []string{"boost"}},
		{"range", []string{"range-v3"}},
		{"eigne", []string{"eigen"}},
		{"zzzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			var got []string
			for _, lib := range FilterBySearch(testLibs, tt.term) {
				got = append(got, lib.ID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterBySearch(%q) mismatch (-want +got):\n%s", tt.term, diff)
			}
		})
	}
}

func TestFilterBySearchRanking(t *testing.T) {
	libs := []ce.Library{
		{ID: "fmtlog", Name: "fmtlog"},
		{ID: "fmt", Name: "{fmt}"},
	}
	got := FilterBySearch(libs, "fmt")
	if len(got) != 2 || got[0].ID != "fmt" || got[1].ID != "fmtlog" {
		t.Errorf("exact match should rank first, got %+v", got)
	}
}

func TestSuggestIncludesNearbyIDs(t *testing.T) {
	tests := []string{"fnt", "bost", "boots", "rnge-v3", "eigen3"}
	for _, term := range tests {
		t.Run(term, func(t *testing.T) {
			got := Suggest(testLibs, term, 5)
			if len(got) == 0 {
				t.Fatalf("Suggest(%q) returned nothing", term)
			}
			found := false
			for _, lib := range got {
				for _, want := range []string{"fmt", "boost", "range-v3", "eigen"} {
					if lib.ID == want {
						found = true
					}
				}
			}
			if !found {
				t.Errorf("Suggest(%q) = %+v, want a library within distance 2", term, got)
			}
		})
	}

	if got := Suggest(testLibs, "", 5); got != nil {
		t.Errorf("Suggest(\"\") = %+v, want nil", got)
	}
	if got := Suggest(testLibs, "fmt", 1); len(got) != 1 {
		t.Errorf("Suggest limit = %d, want 1", len(got))
	}
}

func TestFormatErrorWithSuggestions(t *testing.T) {
	got := FormatErrorWithSuggestions("Library 'fnt' not found for c++", "c++", testLibs[:1])
	want := "Library 'fnt' not found for c++\n\n" +
		"Did you mean:\n" +
		"  - fmt ({fmt}) - versions: 10.0.0, 11.0.0, trunk\n\n" +
		"Example usage: [{\"id\": \"fmt\", \"version\": \"latest\"}]"
	if got != want {
		t.Errorf("FormatErrorWithSuggestions() =\n%s\nwant\n%s", got, want)
	}

	many := ce.Library{ID: "x", Name: "X", Versions: make([]ce.LibraryVersion, 5)}
	if got := FormatErrorWithSuggestions("base", "c++", []ce.Library{many}); !strings.Contains(got, "versions: unknown, unknown, unknown, +2 more") {
		t.Errorf("missing +N more: %s", got)
	}

	none := FormatErrorWithSuggestions("base", "rust", nil)
	if none != "base\n\nNo similar libraries found for rust." {
		t.Errorf("no suggestions = %q", none)
	}
}

func TestResolveForCompilation(t *testing.T) {
	api := &fakeAPI{
		libs: testLibs,
		compilers: []ce.Compiler{
			{ID: "g132"},
			{ID: "icc", LibsArr: []string{"fmt"}},
		},
	}
	ctx := context.Background()

	got, err := ResolveForCompilation(ctx, api, []ce.LibrarySelection{
		{ID: "fmt", Version: "latest"},
		{ID: "boost"},
		{ID: "boost", Version: "boost-1.84"},
	}, "c++", "g132")
	if err != nil {
		t.Fatalf("ResolveForCompilation() error: %v", err)
	}
	want := []ce.LibrarySelection{{ID: "fmt", Version: "1100"}, {ID: "boost", Version: "185"}, {ID: "boost", Version: "184"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveForCompilation() mismatch (-want +got):\n%s", diff)
	}

	if got, err := ResolveForCompilation(ctx, api, nil, "c++", "g132"); err != nil || got != nil {
		t.Errorf("ResolveForCompilation(nil) = %v, %v", got, err)
	}

	tests := []struct {
		name     string
		api      *fakeAPI
		req      []ce.LibrarySelection
		compiler string
		code     errs.Code
		contains string
	}{
		{"unknown library", api, []ce.LibrarySelection{{ID: "fnt"}}, "g132",
			errs.ErrCodeLibraryNotFound, "Library 'fnt' not found for c++\n\nDid you mean:\n  - fmt"},
		{"unknown version", api, []ce.LibrarySelection{{ID: "boost", Version: "9"}}, "g132",
			errs.ErrCodeLibraryVersionNotFound, "Version '9' not found for library 'boost'. Available versions: ['1.84.0', '1.85.0']..."},
		{"unsupported", api, []ce.LibrarySelection{{ID: "boost"}, {ID: "eigen"}}, "icc",
			errs.ErrCodeCompilerLibraryUnsupported, "Compiler 'icc' does not support libraries: boost, eigen"},
		{"unknown compiler", api, []ce.LibrarySelection{{ID: "fmt"}}, "nope",
			errs.ErrCodeLibrary, "Compiler 'nope' not found for c++"},
		{"fetch failure", &fakeAPI{libErr: integrations.ErrNetwork}, []ce.LibrarySelection{{ID: "fmt"}}, "g132",
			errs.ErrCodeLibrary, "Failed to fetch libraries for c++"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveForCompilation(ctx, tt.api, tt.req, "c++", tt.compiler)
			if !errs.Is(err, tt.code) {
				t.Fatalf("code = %v, want %v (err %v)", errs.GetCode(err), tt.code, err)
			}
			if !errs.IsLibraryError(err) {
				t.Error("IsLibraryError() = false")
			}
			if !strings.Contains(errs.UserMessage(err), tt.contains) {
				t.Errorf("message = %q, want substring %q", errs.UserMessage(err), tt.contains)
			}
		})
	}
}

func TestListAndDetails(t *testing.T) {
	api := &fakeAPI{libs: testLibs}
	ctx := context.Background()

	list, err := List(ctx, api, "c++", "boost")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if diff := cmp.Diff([]Summary{{ID: "boost", Name: "Boost"}}, list); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	lib, err := Details(ctx, api, "c++", "fmt")
	if err != nil {
		t.Fatalf("Details() error: %v", err)
	}
	for _, v := range lib.Versions {
		if v.StaticLibLink != nil {
			t.Errorf("version %s kept staticliblink", v.ID)
		}
	}
	if testLibs[0].Versions[1].StaticLibLink == nil {
		t.Error("Details() modified the source library")
	}

	if _, err := Details(ctx, api, "c++", "nope"); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("Details(nope) error = %v, want ErrNotFound", err)
	}
}

func TestDescribe(t *testing.T) {
	info := Describe(testLibs[0])
	if info.LatestVersion != "1100" || info.VersionCount != 3 {
		t.Errorf("Describe() = %+v", info)
	}
	if got := Describe(ce.Library{ID: "empty"}); got.LatestVersion != "" {
		t.Errorf("Describe(empty).LatestVersion = %q", got.LatestVersion)
	}
}
