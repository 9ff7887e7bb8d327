package tools

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/ce-mcp/pkg/asmdiff"
	errs "github.com/matzehuels/ce-mcp/pkg/errors"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// compareLimit bounds concurrent compilations in a comparison.
const compareLimit = 4

// Comparison types.
const (
	CompareExecution   = "execution"
	CompareAssembly    = "assembly"
	CompareDiagnostics = "diagnostics"
)

// CompilerComparison is one compiler's entry in a comparison. Which fields
// are set depends on the comparison type.
type CompilerComparison struct {
	Compiler string `json:"compiler"`
	Options  string `json:"options"`
	Error    string `json:"error,omitempty"`

	AssemblySize *int  `json:"assembly_size,omitempty"`
	Warnings     *int  `json:"warnings,omitempty"`
	Errors       *int  `json:"errors,omitempty"`
	Compiled     *bool `json:"compiled,omitempty"`
	Executed     *bool `json:"executed,omitempty"`
	ExitCode     *int  `json:"exit_code,omitempty"`

	Stdout *string `json:"stdout,omitempty"`
	Stderr *string `json:"stderr,omitempty"`

	asm string
}

// ExecutionDiff holds unified diffs of the first two programs' output.
type ExecutionDiff struct {
	StdoutDiff string `json:"stdout_diff"`
	StderrDiff string `json:"stderr_diff"`
	Summary    string `json:"summary"`
}

// CompareCompilersResult is the result of compare_compilers.
type CompareCompilersResult struct {
	ComparisonType string               `json:"comparison_type"`
	Results        []CompilerComparison `json:"results"`
	Differences    []string             `json:"differences"`
	AssemblyDiff   *asmdiff.Result      `json:"assembly_diff,omitempty"`
	ExecutionDiff  *ExecutionDiff       `json:"execution_diff,omitempty"`
}

// CompareCompilers compiles the same source with several compilers and
// reports how they differ. Compilations run concurrently; results keep the
// order of args.Compilers. A failing compiler is reported in its entry and
// does not fail the comparison.
func (s *Service) CompareCompilers(ctx context.Context, args CompareCompilersArgs) (*CompareCompilersResult, error) {
	if err := errs.ValidateStruct(args); err != nil {
		return nil, err
	}
	for i, c := range args.Compilers {
		if strings.TrimSpace(c.Name()) == "" {
			return nil, errs.New(errs.ErrCodeInvalidInput, "compilers[%d] needs an id", i)
		}
	}

	results := make([]CompilerComparison, len(args.Compilers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(compareLimit)
	for i, c := range args.Compilers {
		g.Go(func() error {
			results[i] = s.compareOne(gctx, args, c)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &CompareCompilersResult{
		ComparisonType: args.ComparisonType,
		Results:        results,
		Differences:    []string{},
	}
	if len(results) >= 2 {
		a, b := results[0], results[1]
		switch args.ComparisonType {
		case CompareAssembly:
			out.Differences = assemblyDifferences(a, b)
			if a.Error == "" && b.Error == "" {
				asmA, asmB := a.asm, b.asm
				if args.Function != "" {
					fa, okA := asmdiff.ExtractFunction(asmA, args.Function)
					fb, okB := asmdiff.ExtractFunction(asmB, args.Function)
					if okA && okB {
						asmA, asmB = fa, fb
					} else {
						out.Differences = append(out.Differences, fmt.Sprintf("Function '%s' not found in both listings, diffing the full assembly", args.Function))
					}
				}
				d := asmdiff.Diff(asmA, asmB, label(a), label(b), -1)
				out.AssemblyDiff = &d
			}
		case CompareExecution:
			out.Differences, out.ExecutionDiff = executionDifferences(a, b)
		case CompareDiagnostics:
			out.Differences = diagnosticDifferences(a, b)
		}
	}
	return out, nil
}

func (s *Service) compareOne(ctx context.Context, args CompareCompilersArgs, c CompilerArg) CompilerComparison {
	entry := CompilerComparison{Compiler: c.Name(), Options: c.Options}
	t, err := s.resolveTarget(args.Language, c.Name())
	if err != nil {
		entry.Error = errs.UserMessage(err)
		return entry
	}
	entry.Compiler = t.compiler

	libs, err := s.resolveLibraries(ctx, args.Libraries, t)
	if err != nil {
		entry.Error = errs.UserMessage(err)
		return entry
	}
	req := ce.CompileRequest{
		Source:     args.Source,
		Language:   t.language,
		CompilerID: t.compiler,
		Options:    c.Options,
		Libraries:  libs,
	}

	if args.ComparisonType == CompareExecution {
		req.Timeout = defaultExecTimeout
		result, err := s.api.CompileAndExecute(ctx, req)
		if err != nil {
			entry.Error = errs.UserMessage(compileError(err, t.compiler))
			return entry
		}
		run := s.summarizeRun(result)
		entry.Compiled = ptr(run.Compiled)
		entry.Executed = ptr(run.Executed)
		entry.ExitCode = ptr(run.ExitCode)
		entry.Stdout = ptr(run.Stdout)
		entry.Stderr = ptr(run.Stderr)
		return entry
	}

	result, err := s.api.Compile(ctx, req)
	if err != nil {
		entry.Error = errs.UserMessage(compileError(err, t.compiler))
		return entry
	}
	var warnings, errorCount int
	for _, d := range ParseDiagnostics(result.Stderr) {
		switch d.Type {
		case "warning":
			warnings++
		case "error":
			errorCount++
		}
	}
	entry.Warnings = ptr(warnings)
	if args.ComparisonType == CompareAssembly {
		entry.asm = result.Asm.Text()
		entry.AssemblySize = ptr(len(result.Asm))
	} else {
		entry.Errors = ptr(errorCount)
	}
	return entry
}

func assemblyDifferences(a, b CompilerComparison) []string {
	diffs := []string{}
	if a.AssemblySize == nil || b.AssemblySize == nil {
		return diffs
	}
	delta := *a.AssemblySize - *b.AssemblySize
	if delta != 0 {
		percent := math.Abs(float64(delta)) / float64(max(*a.AssemblySize, 1)) * 100
		direction := "larger"
		if delta > 0 {
			direction = "smaller"
		}
		diffs = append(diffs, fmt.Sprintf("%s produces %.0f%% %s code", b.Compiler, percent, direction))
	}
	if *a.Warnings != *b.Warnings {
		diffs = append(diffs, fmt.Sprintf("Warning counts differ: %s=%d, %s=%d", a.Compiler, *a.Warnings, b.Compiler, *b.Warnings))
	}
	return diffs
}

func executionDifferences(a, b CompilerComparison) ([]string, *ExecutionDiff) {
	diffs := []string{}
	if a.Compiled == nil || b.Compiled == nil {
		return diffs, nil
	}
	if *a.Compiled != *b.Compiled {
		diffs = append(diffs, fmt.Sprintf("Compilation differs: %s compiled=%t, %s compiled=%t", a.Compiler, *a.Compiled, b.Compiler, *b.Compiled))
	}
	if *a.ExitCode != *b.ExitCode {
		diffs = append(diffs, fmt.Sprintf("Exit codes differ: %s=%d, %s=%d", a.Compiler, *a.ExitCode, b.Compiler, *b.ExitCode))
	}
	if *a.Stdout != *b.Stdout {
		diffs = append(diffs, "Stdout differs")
	}
	if *a.Stderr != *b.Stderr {
		diffs = append(diffs, "Stderr differs")
	}

	exec := &ExecutionDiff{
		StdoutDiff: asmdiff.UnifiedText(*a.Stdout, *b.Stdout, label(a)+" stdout", label(b)+" stdout"),
		StderrDiff: asmdiff.UnifiedText(*a.Stderr, *b.Stderr, label(a)+" stderr", label(b)+" stderr"),
		Summary:    "Outputs are identical",
	}
	if len(diffs) > 0 {
		exec.Summary = strings.Join(diffs, "; ")
	}
	return diffs, exec
}

func diagnosticDifferences(a, b CompilerComparison) []string {
	diffs := []string{}
	if a.Warnings == nil || b.Warnings == nil {
		return diffs
	}
	if *a.Warnings != *b.Warnings {
		diffs = append(diffs, fmt.Sprintf("Warning counts differ: %s=%d, %s=%d", a.Compiler, *a.Warnings, b.Compiler, *b.Warnings))
	}
	if *a.Errors != *b.Errors {
		diffs = append(diffs, fmt.Sprintf("Error counts differ: %s=%d, %s=%d", a.Compiler, *a.Errors, b.Compiler, *b.Errors))
	}
	return diffs
}

func label(c CompilerComparison) string {
	return joinOptions(c.Compiler, c.Options)
}

func ptr[T any](v T) *T { return &v }
