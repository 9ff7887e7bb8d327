package tools

// LibraryArg selects a library for a compilation. An empty version means "latest".
type LibraryArg struct {
	ID      string `json:"id" validate:"required" jsonschema:"library id, e.g. fmt or boost"`
	Version string `json:"version,omitempty" jsonschema:"version id, version string, alias, or latest"`
}

// ToolArg selects a compile-time tool (clang-tidy, Sonar, ...).
type ToolArg struct {
	ID   string   `json:"id" jsonschema:"tool id as listed by find_compilers with include_compile_tools"`
	Args []string `json:"args,omitempty" jsonschema:"tool arguments"`
}

// CompileCheckArgs are the arguments of compile_check.
type CompileCheckArgs struct {
	Source           string       `json:"source" validate:"required" jsonschema:"source code to compile"`
	Language         string       `json:"language" validate:"required" jsonschema:"language id: c++, c, rust, go, python, ..."`
	Compiler         string       `json:"compiler,omitempty" jsonschema:"compiler id (g132, clang1700) or friendly name (g++, clang-latest)"`
	Options          string       `json:"options,omitempty" jsonschema:"compiler flags, e.g. -O2 -std=c++20"`
	ExtractArgs      *bool        `json:"extract_args,omitempty" jsonschema:"read flags from source comments such as // flags: -Wall (default true)"`
	Libraries        []LibraryArg `json:"libraries,omitempty" validate:"omitempty,dive" jsonschema:"libraries to link"`
	CreateBinary     bool         `json:"create_binary,omitempty" jsonschema:"build a full executable"`
	CreateObjectOnly bool         `json:"create_object_only,omitempty" jsonschema:"build an object file without linking"`
}

// CompileAndRunArgs are the arguments of compile_and_run.
type CompileAndRunArgs struct {
	Source           string       `json:"source" validate:"required" jsonschema:"source code to compile and run"`
	Language         string       `json:"language" validate:"required" jsonschema:"language id: c++, c, rust, go, python, ..."`
	Compiler         string       `json:"compiler,omitempty" jsonschema:"compiler id (g132, clang1700) or friendly name (g++, clang-latest)"`
	Options          string       `json:"options,omitempty" jsonschema:"compiler flags, e.g. -O2 -std=c++20"`
	Stdin            string       `json:"stdin,omitempty" jsonschema:"standard input for the program"`
	Args             []string     `json:"args,omitempty" jsonschema:"command line arguments"`
	Timeout          int          `json:"timeout,omitempty" validate:"gte=0" jsonschema:"maximum execution time in milliseconds (default 5000)"`
	Libraries        []LibraryArg `json:"libraries,omitempty" validate:"omitempty,dive" jsonschema:"libraries to link"`
	Tools            []ToolArg    `json:"tools,omitempty" jsonschema:"compile-time tools to run"`
	CreateBinary     bool         `json:"create_binary,omitempty" jsonschema:"build a full executable"`
	CreateObjectOnly bool         `json:"create_object_only,omitempty" jsonschema:"build an object file without linking"`
}

// CompileWithDiagnosticsArgs are the arguments of compile_with_diagnostics.
type CompileWithDiagnosticsArgs struct {
	Source           string       `json:"source" validate:"required" jsonschema:"source code to analyze"`
	Language         string       `json:"language" validate:"required" jsonschema:"language id: c++, c, rust, go, ..."`
	Compiler         string       `json:"compiler,omitempty" jsonschema:"compiler id (g132, clang1700) or friendly name (g++, clang-latest)"`
	Options          string       `json:"options,omitempty" jsonschema:"additional compiler flags"`
	DiagnosticLevel  string       `json:"diagnostic_level,omitempty" validate:"omitempty,oneof=minimal normal verbose" jsonschema:"minimal, normal (-Wall) or verbose (-Wall -Wextra -Wpedantic)"`
	Libraries        []LibraryArg `json:"libraries,omitempty" validate:"omitempty,dive" jsonschema:"libraries to link"`
	Tools            []ToolArg    `json:"tools,omitempty" jsonschema:"compile-time tools to run"`
	CreateBinary     bool         `json:"create_binary,omitempty" jsonschema:"build a full executable"`
	CreateObjectOnly bool         `json:"create_object_only,omitempty" jsonschema:"build an object file without linking"`
}

// AnalyzeOptimizationArgs are the arguments of analyze_optimization.
type AnalyzeOptimizationArgs struct {
	Source                     string       `json:"source" validate:"required" jsonschema:"source code to analyze"`
	Language                   string       `json:"language" validate:"required" jsonschema:"language id: c++, c, rust, go, ..."`
	Compiler                   string       `json:"compiler,omitempty" jsonschema:"compiler id (g132, clang1700) or friendly name (g++, clang-latest)"`
	OptimizationLevel          string       `json:"optimization_level,omitempty" jsonschema:"optimization flags: -O0, -O2, -O3 (default), -Os, -Ofast"`
	AnalysisType               string       `json:"analysis_type,omitempty" validate:"omitempty,oneof=all vectorization inlining loops" jsonschema:"focus: all (default), vectorization, inlining or loops"`
	IncludeOptimizationRemarks *bool        `json:"include_optimization_remarks,omitempty" jsonschema:"include the compiler's optimization remarks (default true)"`
	FilterOutLibraryCode       *bool        `json:"filter_out_library_code,omitempty" jsonschema:"hide standard library code"`
	FilterOutDebugCalls        *bool        `json:"filter_out_debug_calls,omitempty" jsonschema:"hide debug and profiling calls"`
	DoDemangle                 *bool        `json:"do_demangle,omitempty" jsonschema:"demangle C++ symbols"`
	Libraries                  []LibraryArg `json:"libraries,omitempty" validate:"omitempty,dive" jsonschema:"libraries to link"`
}

// CompilerArg is one compiler of a comparison. Compiler is accepted as an
// alias of ID.
type CompilerArg struct {
	ID       string `json:"id,omitempty" jsonschema:"compiler id or friendly name"`
	Compiler string `json:"compiler,omitempty" jsonschema:"alias of id"`
	Options  string `json:"options,omitempty" jsonschema:"compiler flags"`
}

// Name returns the requested compiler name.
func (c CompilerArg) Name() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Compiler
}

// CompareCompilersArgs are the arguments of compare_compilers.
type CompareCompilersArgs struct {
	Source         string        `json:"source" validate:"required" jsonschema:"source code to compile"`
	Language       string        `json:"language" validate:"required" jsonschema:"language id"`
	Compilers      []CompilerArg `json:"compilers" validate:"required,min=1" jsonschema:"compilers to compare, e.g. [{\"id\": \"g132\", \"options\": \"-O2\"}]"`
	ComparisonType string        `json:"comparison_type" validate:"required,oneof=execution assembly diagnostics" jsonschema:"execution, assembly or diagnostics"`
	Libraries      []LibraryArg  `json:"libraries,omitempty" validate:"omitempty,dive" jsonschema:"libraries to link"`
	Function       string        `json:"function,omitempty" jsonschema:"assembly comparisons only: diff just this function, e.g. main"`
}

// GenerateShareURLArgs are the arguments of generate_share_url.
type GenerateShareURLArgs struct {
	Source    string       `json:"source" validate:"required" jsonschema:"source code to share"`
	Language  string       `json:"language" validate:"required" jsonschema:"language id"`
	Compiler  string       `json:"compiler,omitempty" jsonschema:"compiler id or friendly name"`
	Options   string       `json:"options,omitempty" jsonschema:"compiler flags"`
	Layout    string       `json:"layout,omitempty" validate:"omitempty,oneof=simple comparison assembly" jsonschema:"UI layout: simple (default), comparison or assembly"`
	Libraries []LibraryArg `json:"libraries,omitempty" validate:"omitempty,dive" jsonschema:"libraries to include"`
	Tools     []ToolArg    `json:"tools,omitempty" jsonschema:"tools to include"`
}

// FindCompilersArgs are the arguments of find_compilers.
type FindCompilersArgs struct {
	Language            string `json:"language,omitempty" jsonschema:"language id (default c++)"`
	Proposal            string `json:"proposal,omitempty" jsonschema:"proposal number, e.g. P3385 or 3385"`
	Feature             string `json:"feature,omitempty" jsonschema:"experimental feature: reflection, concepts, modules, ..."`
	Category            string `json:"category,omitempty" jsonschema:"experimental category: proposals, reflection, trunk_nightly, ..."`
	ShowAll             bool   `json:"show_all,omitempty" jsonschema:"list every experimental compiler"`
	SearchText          string `json:"search_text,omitempty" jsonschema:"filter by id or name, e.g. gcc 13, clang17, msvc, nightly; avoid bare gcc or clang"`
	ExactSearch         bool   `json:"exact_search,omitempty" jsonschema:"treat search_text as an exact, case-sensitive compiler id"`
	IDsOnly             bool   `json:"ids_only,omitempty" jsonschema:"return only compiler ids"`
	IncludeOverrides    bool   `json:"include_overrides,omitempty" jsonschema:"include possibleOverrides (large)"`
	IncludeRuntimeTools bool   `json:"include_runtime_tools,omitempty" jsonschema:"include possibleRuntimeTools (large)"`
	IncludeCompileTools bool   `json:"include_compile_tools,omitempty" jsonschema:"include compile-time tools (large)"`
}

// GetLibrariesArgs are the arguments of get_libraries.
type GetLibrariesArgs struct {
	Language   string `json:"language,omitempty" jsonschema:"language id (default c++)"`
	SearchText string `json:"search_text,omitempty" jsonschema:"filter by id or name"`
}

// GetLibraryDetailsArgs are the arguments of get_library_details.
type GetLibraryDetailsArgs struct {
	Language  string `json:"language,omitempty" jsonschema:"language id (default c++)"`
	LibraryID string `json:"library_id,omitempty" jsonschema:"library id, e.g. boost or fmt"`
}

// GetLanguagesArgs are the arguments of get_languages.
type GetLanguagesArgs struct {
	SearchText string `json:"search_text,omitempty" jsonschema:"filter by id or name"`
}

// LookupInstructionArgs are the arguments of lookup_instruction.
type LookupInstructionArgs struct {
	InstructionSet string `json:"instruction_set" validate:"required" jsonschema:"architecture: amd64 (x86_64), aarch64 (arm64), mips, riscv, ..."`
	Opcode         string `json:"opcode" validate:"required" jsonschema:"instruction to look up, e.g. mov or stp"`
	FormatOutput   *bool  `json:"format_output,omitempty" jsonschema:"add plain-text formatted docs (default true)"`
}

// DownloadShortlinkArgs are the arguments of download_shortlink.
type DownloadShortlinkArgs struct {
	ShortlinkURL      string `json:"shortlink_url" validate:"required" jsonschema:"shortlink URL or id, e.g. https://godbolt.org/z/G38YP7eW4"`
	DestinationPath   string `json:"destination_path" validate:"required" jsonschema:"directory to write the files into"`
	PreserveFilenames *bool  `json:"preserve_filenames,omitempty" jsonschema:"keep the original filenames (default true)"`
	FallbackPrefix    string `json:"fallback_prefix,omitempty" jsonschema:"prefix for generated filenames (default ce)"`
	IncludeMetadata   *bool  `json:"include_metadata,omitempty" jsonschema:"write compiler settings as JSON (default true)"`
	OverwriteExisting bool   `json:"overwrite_existing,omitempty" jsonschema:"overwrite existing files"`
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
