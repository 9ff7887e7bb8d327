package server

// Tool names, in registration order.
const (
	ToolCompileCheck           = "compile_check"
	ToolCompileAndRun          = "compile_and_run"
	ToolCompileWithDiagnostics = "compile_with_diagnostics"
	ToolAnalyzeOptimization    = "analyze_optimization"
	ToolCompareCompilers       = "compare_compilers"
	ToolGenerateShareURL       = "generate_share_url"
	ToolFindCompilers          = "find_compilers"
	ToolGetLibraries           = "get_libraries"
	ToolGetLibraryDetails      = "get_library_details"
	ToolGetLanguages           = "get_languages"
	ToolLookupInstruction      = "lookup_instruction"
	ToolDownloadShortlink      = "download_shortlink"
)

// ToolNames lists every registered tool.
var ToolNames = []string{
	ToolCompileCheck,
	ToolCompileAndRun,
	ToolCompileWithDiagnostics,
	ToolAnalyzeOptimization,
	ToolCompareCompilers,
	ToolGenerateShareURL,
	ToolFindCompilers,
	ToolGetLibraries,
	ToolGetLibraryDetails,
	ToolGetLanguages,
	ToolLookupInstruction,
	ToolDownloadShortlink,
}

func (s *Server) registerTools() {
	addTool(s, ToolCompileCheck,
		"Check whether code compiles, without running it. "+
			"Flags can be embedded in the source as a comment such as '// flags: -Wall'. "+
			"Returns success, exit code, error and warning counts and the first error.",
		s.svc.CompileCheck)

	addTool(s, ToolCompileAndRun,
		"Compile and execute code, capturing stdout, stderr, the exit code and the execution time. "+
			"stdin, command line args and a timeout in milliseconds (default 5000) can be given. "+
			"Long output is truncated.",
		s.svc.CompileAndRun)

	addTool(s, ToolCompileWithDiagnostics,
		"Compile with warnings enabled and return structured diagnostics with line, column, message and fix suggestion. "+
			"diagnostic_level is 'normal' (-Wall) or 'verbose' (-Wall -Wextra -Wpedantic).",
		s.svc.CompileWithDiagnostics)

	addTool(s, ToolAnalyzeOptimization,
		"Compile with an optimization level (default -O3) and inspect the generated assembly for vectorization, "+
			"inlining, loop unrolling and memcpy/memset conversion. "+
			"analysis_type focuses the summary on 'vectorization', 'inlining', 'loops' or 'all'. "+
			"Optimization remarks from the compiler are included when available.",
		s.svc.AnalyzeOptimization)

	addTool(s, ToolCompareCompilers,
		"Compile the same source with several compilers ({compiler, options} entries) and compare the results. "+
			"comparison_type 'execution' diffs program output, 'assembly' diffs the generated code and "+
			"'diagnostics' compares warnings and errors.",
		s.svc.CompareCompilers)

	addTool(s, ToolGenerateShareURL,
		"Create a shareable Compiler Explorer short URL for the code, compiler, flags and libraries. "+
			"layout is 'simple', 'comparison' or 'assembly'.",
		s.svc.GenerateShareURL)

	addTool(s, ToolFindCompilers,
		"Find compilers for a language, optionally filtered by experimental proposal (e.g. 'P2996'), feature, "+
			"category or search text. Avoid bare searches like 'gcc' or 'clang': use 'gcc 13', 'x86-64 clang' "+
			"or an exact id with exact_search. include_overrides, include_runtime_tools and include_compile_tools "+
			"add extended fields and grow the output considerably.",
		s.svc.FindCompilers)

	addTool(s, ToolGetLibraries,
		"List the libraries available for a language (id and name only), optionally filtered by search text, "+
			"e.g. 'boost' or 'fmt'.",
		s.svc.GetLibraries)

	addTool(s, ToolGetLibraryDetails,
		"Get the details of one library, including its versions and the version 'latest' resolves to. "+
			"Unknown ids return close matches.",
		s.svc.GetLibraryDetails)

	addTool(s, ToolGetLanguages,
		"List the supported languages (id, name and file extensions), optionally filtered by search text.",
		s.svc.GetLanguages)

	addTool(s, ToolLookupInstruction,
		"Look up the documentation of an assembly instruction. instruction_set accepts aliases "+
			"(x86_64 and x64 for amd64, arm64 for aarch64); the opcode is case-insensitive.",
		s.svc.LookupInstruction)

	addTool(s, ToolDownloadShortlink,
		"Download the sources behind a Compiler Explorer shortlink (full URL or id) into a local directory. "+
			"Original filenames are kept by default, multi-file projects are supported and the compiler "+
			"settings are saved as JSON metadata.",
		s.svc.DownloadShortlink)
}
