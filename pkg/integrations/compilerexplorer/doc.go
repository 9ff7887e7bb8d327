// Package compilerexplorer provides a typed client for the Compiler Explorer
// (godbolt.org) REST API.
//
// # Overview
//
// The API exposes:
//
//   - /languages, /compilers/{lang} and /libraries/{lang}: metadata listings
//   - /compiler/{id}/compile: compilation and, with execute filters, execution
//   - /shortener and /shortlinkinfo/{id}: sharing
//   - /asm/{set}/{opcode}: instruction documentation
//
// The deployed-version service lives on a separate host and is configured
// through [Options.VersionEndpoint].
//
// # Response Shapes
//
// Compiler output arrives in several shapes depending on the compiler and API
// version. [Lines] accepts arrays of {text, tag}, arrays of strings, or one
// newline-separated string. [Millis] accepts numbers and numeric strings.
// [CompilerTools] accepts both the object and the array form of "tools".
//
// # Usage
//
//	client := compilerexplorer.NewClientFromConfig(backend, cfg)
//	res, err := client.Compile(ctx, compilerexplorer.CompileRequest{
//	    Source:     "int main() { return 0; }",
//	    Language:   "c++",
//	    CompilerID: "g132",
//	    Options:    "-O2",
//	})
package compilerexplorer
