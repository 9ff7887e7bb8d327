// Package tools implements the ce-mcp tools on top of the Compiler Explorer
// client.
//
// Each tool is a method on [Service] that takes a typed argument struct and
// returns a compact, task-specific result meant to be read by an LLM:
//
//   - [Service.CompileCheck]: does the code compile, how many errors and warnings
//   - [Service.CompileAndRun]: compile, execute, and report the program output
//   - [Service.CompileWithDiagnostics]: structured diagnostics with fix-it hints
//   - [Service.AnalyzeOptimization]: assembly plus optimization heuristics
//   - [Service.CompareCompilers]: the same source across several compilers
//   - [Service.GenerateShareURL]: a godbolt.org shortlink
//   - [Service.FindCompilers], [Service.GetLanguages], [Service.GetLibraries]
//     and [Service.GetLibraryDetails]: catalogue discovery
//   - [Service.LookupInstruction]: opcode documentation
//   - [Service.DownloadShortlink]: write a shortlink's sources to disk
//
// Argument structs carry `validate` tags checked with [errs.ValidateStruct]
// and `jsonschema` descriptions used when the tools are registered with an
// MCP server.
//
// Compiler names are resolved through the configured compiler mappings, so
// "g++" and "clang-latest" work wherever a compiler id is expected.
//
// # Usage
//
//	client := compilerexplorer.NewClientFromConfig(backend, cfg)
//	svc := tools.NewService(client, cfg, logger)
//	res, err := svc.CompileCheck(ctx, tools.CompileCheckArgs{
//	    Source:   "int main() { return 0; }",
//	    Language: "c++",
//	    Compiler: "g++",
//	})
package tools
