package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	errs "github.com/matzehuels/ce-mcp/pkg/errors"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
	"github.com/matzehuels/ce-mcp/pkg/library"
)

func discoveryAPI() *fakeAPI {
	return &fakeAPI{
		languages: []ce.Language{
			{ID: "c++", Name: "C++", Extensions: []string{".cpp", ".cxx"}},
			{ID: "c", Name: "C", Extensions: []string{".c"}},
			{ID: "javascript", Name: "JavaScript"},
		},
		compilers: []ce.Compiler{
			{
				ID:                "g132",
				Name:              "x86-64 gcc 13.2",
				InstructionSet:    "amd64",
				Semver:            "13.2",
				Tools:             ce.CompilerTools{{ID: "pahole", Name: "pahole"}},
				PossibleOverrides: json.RawMessage(`[{"name":"stdver"}]`),
			},
			{ID: "clang1700", Name: "x86-64 clang 17.0.1", InstructionSet: "amd64", Semver: "17.0.1"},
			{ID: "gsnapshot", Name: "x86-64 gcc (trunk)", IsNightly: true},
			{ID: "clang_p2996", Name: "x86-64 clang (experimental P2996)"},
			{ID: "old", Name: "x86-64 gcc 4.1", Hidden: true},
		},
		versions: map[string]map[string]any{
			"gsnapshot": {"version": "gcc version 15.0.0 20250101 (experimental)", "modified": "2025-01-02T03:04:05Z"},
		},
		libraries: []ce.Library{
			{ID: "fmt", Name: "{fmt}", URL: "https://fmt.dev", Versions: []ce.LibraryVersion{
				{ID: "1000", Version: "10.0.0", StaticLibLink: []string{"fmtd"}},
				{ID: "1100", Version: "11.0.0"},
			}},
			{ID: "boost", Name: "Boost", Versions: []ce.LibraryVersion{{ID: "184", Version: "1.84.0"}}},
		},
	}
}

func TestFindCompilersRejectsBroadTerms(t *testing.T) {
	s := newTestService(discoveryAPI())
	for _, term := range []string{"gcc", "Clang", " g++ ", "clang++"} {
		got, err := s.FindCompilers(context.Background(), FindCompilersArgs{SearchText: term})
		if err != nil {
			t.Fatalf("FindCompilers(%q) error: %v", term, err)
		}
		if got.Error == "" || len(got.Suggestions) != 3 || got.Count != 0 {
			t.Errorf("FindCompilers(%q) = %+v, want a rejection", term, got)
		}
	}

	got, _ := s.FindCompilers(context.Background(), FindCompilersArgs{SearchText: "gcc"})
	want := "Search term 'gcc' is too broad and would exceed token limits (25k+). Please be more specific:"
	if got.Error != want {
		t.Errorf("error = %q", got.Error)
	}
	if got.Suggestions[2] != "Use exact compiler ID with exact_search=True: 'gcc132', 'gcc1600'" {
		t.Errorf("suggestion = %q", got.Suggestions[2])
	}
	if diff := cmp.Diff([]string{"gcc 13", "clang 17", "msvc", "nightly", "g132", "clang1600"}, got.ValidExamples); diff != "" {
		t.Errorf("valid examples mismatch (-want +got):\n%s", diff)
	}
}

func TestFindCompilers(t *testing.T) {
	tests := []struct {
		name        string
		args        FindCompilersArgs
		want        []any
		wantSummary string
	}{
		{
			name:        "all visible",
			args:        FindCompilersArgs{IDsOnly: true},
			want:        []any{"g132", "clang1700", "gsnapshot", "clang_p2996"},
			wantSummary: "Found 4 compilers for c++",
		},
		{
			name:        "search text",
			args:        FindCompilersArgs{SearchText: "GCC 13", IDsOnly: true},
			want:        []any{"g132"},
			wantSummary: "Found 1 compilers for c++ matching 'GCC 13'",
		},
		{
			name:        "exact id",
			args:        FindCompilersArgs{SearchText: "clang1700", ExactSearch: true},
			want:        []any{CompilerInfo{ID: "clang1700", Name: "x86-64 clang 17.0.1", InstructionSet: "amd64", Semver: "17.0.1"}},
			wantSummary: "Found 1 compilers for c++ matching 'clang1700'",
		},
		{
			name:        "exact is case sensitive",
			args:        FindCompilersArgs{SearchText: "G132", ExactSearch: true, IDsOnly: true},
			want:        []any{},
			wantSummary: "Found 0 compilers for c++ matching 'G132'",
		},
		{
			name: "extended fields",
			args: FindCompilersArgs{SearchText: "g132", ExactSearch: true, IncludeOverrides: true, IncludeCompileTools: true},
			want: []any{CompilerInfo{
				ID:                "g132",
				Name:              "x86-64 gcc 13.2",
				InstructionSet:    "amd64",
				Semver:            "13.2",
				PossibleOverrides: []any{map[string]any{"name": "stdver"}},
				Tools:             map[string]ce.CompilerTool{"pahole": {ID: "pahole", Name: "pahole"}},
			}},
			wantSummary: "Found 1 compilers for c++ matching 'g132'",
		},
		{
			name:        "proposal",
			args:        FindCompilersArgs{Proposal: "P2996", IDsOnly: true},
			want:        []any{"clang_p2996"},
			wantSummary: "Found 1 experimental compilers for c++ supporting proposal P2996",
		},
		{
			name:        "show all experimental",
			args:        FindCompilersArgs{ShowAll: true, IDsOnly: true},
			want:        []any{"gsnapshot", "clang_p2996"},
			wantSummary: "Found 2 experimental compilers for c++",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestService(discoveryAPI()).FindCompilers(context.Background(), tt.args)
			if err != nil {
				t.Fatalf("FindCompilers() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got.Compilers); diff != "" {
				t.Errorf("compilers mismatch (-want +got):\n%s", diff)
			}
			if got.Count != len(tt.want) {
				t.Errorf("count = %d, want %d", got.Count, len(tt.want))
			}
			if got.Summary != tt.wantSummary {
				t.Errorf("summary = %q, want %q", got.Summary, tt.wantSummary)
			}
		})
	}
}

func TestFindCompilersNightlyVersion(t *testing.T) {
	got, err := newTestService(discoveryAPI()).FindCompilers(context.Background(), FindCompilersArgs{Feature: "trunk"})
	if err != nil {
		t.Fatalf("FindCompilers() error: %v", err)
	}
	if got.Count != 1 {
		t.Fatalf("count = %d, want 1", got.Count)
	}
	info := got.Compilers[0].(CompilerInfo)
	if info.VersionInfo == nil || info.VersionInfo.VersionNumber != "15.0.0" {
		t.Errorf("version info = %+v", info.VersionInfo)
	}
	if info.Modified != "2025-01-02T03:04:05Z" {
		t.Errorf("modified = %q", info.Modified)
	}
}

func TestFindCompilersNetworkError(t *testing.T) {
	api := discoveryAPI()
	api.compilersErr = errors.New("connection reset")
	_, err := newTestService(api).FindCompilers(context.Background(), FindCompilersArgs{})
	if !errs.Is(err, errs.ErrCodeNetwork) {
		t.Errorf("error = %v, want NETWORK_ERROR", err)
	}
}

func TestGetLibraries(t *testing.T) {
	got, err := newTestService(discoveryAPI()).GetLibraries(context.Background(), GetLibrariesArgs{SearchText: "fmt"})
	if err != nil {
		t.Fatalf("GetLibraries() error: %v", err)
	}
	want := &LibrariesResult{
		Language:   "c++",
		SearchText: "fmt",
		Count:      1,
		Libraries:  []library.Summary{{ID: "fmt", Name: "{fmt}"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetLibraries() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetLibraryDetails(t *testing.T) {
	s := newTestService(discoveryAPI())

	got, err := s.GetLibraryDetails(context.Background(), GetLibraryDetailsArgs{LibraryID: "fmt"})
	if err != nil {
		t.Fatalf("GetLibraryDetails() error: %v", err)
	}
	if got.Error != "" || got.Library == nil {
		t.Fatalf("GetLibraryDetails() = %+v", got)
	}
	if got.LatestVersion != "1100" {
		t.Errorf("latest = %q, want 1100", got.LatestVersion)
	}
	if got.Library.Versions[0].StaticLibLink != nil {
		t.Error("staticliblink not stripped")
	}

	missing, err := s.GetLibraryDetails(context.Background(), GetLibraryDetailsArgs{LibraryID: "fmtt"})
	if err != nil {
		t.Fatalf("GetLibraryDetails() error: %v", err)
	}
	if missing.Error != "Library 'fmtt' not found for c++" {
		t.Errorf("error = %q", missing.Error)
	}
	if missing.LibraryID != "fmtt" {
		t.Errorf("library_id = %q, want it echoed", missing.LibraryID)
	}
	if len(missing.Suggestions) == 0 || missing.Suggestions[0].ID != "fmt" {
		t.Errorf("suggestions = %v, want fmt first", missing.Suggestions)
	}

	empty, _ := s.GetLibraryDetails(context.Background(), GetLibraryDetailsArgs{})
	if empty.Error != "library_id is required" {
		t.Errorf("error = %q", empty.Error)
	}
}

func TestGetLanguages(t *testing.T) {
	s := newTestService(discoveryAPI())

	all, err := s.GetLanguages(context.Background(), GetLanguagesArgs{})
	if err != nil {
		t.Fatalf("GetLanguages() error: %v", err)
	}
	if all.Count != 3 {
		t.Errorf("count = %d, want 3", all.Count)
	}

	got, err := s.GetLanguages(context.Background(), GetLanguagesArgs{SearchText: "script"})
	if err != nil {
		t.Fatalf("GetLanguages() error: %v", err)
	}
	want := &LanguagesResult{
		SearchText: "script",
		Count:      1,
		Languages:  []LanguageInfo{{ID: "javascript", Name: "JavaScript", Extensions: []string{}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetLanguages() mismatch (-want +got):\n%s", diff)
	}
}
