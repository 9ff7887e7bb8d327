package tools

import (
	"context"
	"regexp"
	"strings"

	errs "github.com/matzehuels/ce-mcp/pkg/errors"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// defaultExecTimeout is the execution timeout in milliseconds.
const defaultExecTimeout = 5000

// Diagnostic is one compiler error, warning or note.
type Diagnostic struct {
	Type       string  `json:"type"`
	Line       int     `json:"line"`
	Column     int     `json:"column"`
	Message    string  `json:"message"`
	Suggestion *string `json:"suggestion"`
}

// CompileCheckResult is the result of compile_check.
type CompileCheckResult struct {
	Success      bool    `json:"success"`
	ExitCode     int     `json:"exit_code"`
	ErrorCount   int     `json:"error_count"`
	WarningCount int     `json:"warning_count"`
	FirstError   *string `json:"first_error"`
}

// CompileCheck compiles without executing and counts diagnostics.
func (s *Service) CompileCheck(ctx context.Context, args CompileCheckArgs) (*CompileCheckResult, error) {
	if err := errs.ValidateStruct(args); err != nil {
		return nil, err
	}
	t, err := s.resolveTarget(args.Language, args.Compiler)
	if err != nil {
		return nil, err
	}

	options := args.Options
	if boolOr(args.ExtractArgs, s.cfg.Defaults.ExtractArgsFromSource) {
		if extracted, ok := ExtractCompileArgs(args.Source); ok {
			options = joinOptions(options, extracted)
			s.logger.Debug("extracted compile args", "args", extracted)
		}
	}

	libs, err := s.resolveLibraries(ctx, args.Libraries, t)
	if err != nil {
		return nil, err
	}

	result, err := s.api.Compile(ctx, ce.CompileRequest{
		Source:           args.Source,
		Language:         t.language,
		CompilerID:       t.compiler,
		Options:          options,
		Libraries:        libs,
		CreateBinary:     args.CreateBinary,
		CreateObjectOnly: args.CreateObjectOnly,
	})
	if err != nil {
		return nil, compileError(err, t.compiler)
	}

	code := result.ExitCode(1)
	out := &CompileCheckResult{Success: code == 0, ExitCode: code}
	for _, d := range ParseDiagnostics(result.Stderr) {
		switch d.Type {
		case "error":
			out.ErrorCount++
			if out.FirstError == nil {
				msg := d.Message
				out.FirstError = &msg
			}
		case "warning":
			out.WarningCount++
		}
	}
	return out, nil
}

// CompileAndRunResult is the result of compile_and_run.
type CompileAndRunResult struct {
	Compiled        bool     `json:"compiled"`
	Executed        bool     `json:"executed"`
	ExitCode        int      `json:"exit_code"`
	ExecutionTimeMS int64    `json:"execution_time_ms"`
	Stdout          string   `json:"stdout"`
	Stderr          string   `json:"stderr"`
	Truncated       bool     `json:"truncated"`
	ToolWarnings    []string `json:"tool_warnings,omitempty"`
}

// CompileAndRun compiles and executes the program. Output is capped at the
// configured line limits.
func (s *Service) CompileAndRun(ctx context.Context, args CompileAndRunArgs) (*CompileAndRunResult, error) {
	if err := errs.ValidateStruct(args); err != nil {
		return nil, err
	}
	t, err := s.resolveTarget(args.Language, args.Compiler)
	if err != nil {
		return nil, err
	}
	libs, err := s.resolveLibraries(ctx, args.Libraries, t)
	if err != nil {
		return nil, err
	}
	selected, warnings := s.ValidateTools(ctx, args.Tools, t.compiler, t.language)

	timeout := args.Timeout
	if timeout == 0 {
		timeout = defaultExecTimeout
	}
	result, err := s.api.CompileAndExecute(ctx, ce.CompileRequest{
		Source:           args.Source,
		Language:         t.language,
		CompilerID:       t.compiler,
		Options:          args.Options,
		Libraries:        libs,
		Tools:            selected,
		CreateBinary:     args.CreateBinary,
		CreateObjectOnly: args.CreateObjectOnly,
		Stdin:            args.Stdin,
		Args:             args.Args,
		Timeout:          timeout,
	})
	if err != nil {
		return nil, compileError(err, t.compiler)
	}

	run := s.summarizeRun(result)
	run.ToolWarnings = warnings
	return run, nil
}

// summarizeRun flattens an execution response. When the build failed the
// build's stderr is reported, since the program produced no output.
func (s *Service) summarizeRun(result *ce.CompileResult) *CompileAndRunResult {
	stdout, stderr := result.Stdout.Text(), result.Stderr.Text()
	execTime := result.ExecTime
	if r := result.ExecResult; r != nil {
		if stdout == "" {
			stdout = r.Stdout.Text()
		}
		if stderr == "" {
			stderr = r.Stderr.Text()
		}
		if execTime == 0 {
			execTime = r.ExecTime
		}
	}
	compiled := result.Compiled()
	if !compiled && stderr == "" && result.BuildResult != nil {
		stderr = result.BuildResult.Stderr.Text()
	}

	limits := s.cfg.OutputLimits
	stdout, outCut := TruncateOutput(stdout, limits.MaxStdoutLines, limits.MaxLineLength, limits.TruncationMessage)
	stderr, errCut := TruncateOutput(stderr, limits.MaxStderrLines, limits.MaxLineLength, limits.TruncationMessage)

	return &CompileAndRunResult{
		Compiled:        compiled,
		Executed:        result.Executed(),
		ExitCode:        result.ExitCode(-1),
		ExecutionTimeMS: int64(execTime),
		Stdout:          stdout,
		Stderr:          stderr,
		Truncated:       result.Truncated || outCut || errCut,
	}
}

// CompileWithDiagnosticsResult is the result of compile_with_diagnostics.
type CompileWithDiagnosticsResult struct {
	Success      bool         `json:"success"`
	Diagnostics  []Diagnostic `json:"diagnostics"`
	Command      string       `json:"command"`
	ToolOutputs  []ToolOutput `json:"tool_outputs,omitempty"`
	ToolWarnings []string     `json:"tool_warnings,omitempty"`
}

// ToolOutput is what a compile-time tool printed.
type ToolOutput struct {
	ID       string `json:"id"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
}

var warningFlags = map[string]string{
	"minimal": "",
	"normal":  "-Wall",
	"verbose": "-Wall -Wextra -Wpedantic",
}

// CompileWithDiagnostics compiles with extra warnings enabled and returns
// structured diagnostics.
func (s *Service) CompileWithDiagnostics(ctx context.Context, args CompileWithDiagnosticsArgs) (*CompileWithDiagnosticsResult, error) {
	if err := errs.ValidateStruct(args); err != nil {
		return nil, err
	}
	t, err := s.resolveTarget(args.Language, args.Compiler)
	if err != nil {
		return nil, err
	}
	level := args.DiagnosticLevel
	if level == "" {
		level = "normal"
	}
	options := joinOptions(args.Options, warningFlags[level])

	libs, err := s.resolveLibraries(ctx, args.Libraries, t)
	if err != nil {
		return nil, err
	}
	selected, warnings := s.ValidateTools(ctx, args.Tools, t.compiler, t.language)

	result, err := s.api.Compile(ctx, ce.CompileRequest{
		Source:           args.Source,
		Language:         t.language,
		CompilerID:       t.compiler,
		Options:          options,
		Libraries:        libs,
		Tools:            selected,
		CreateBinary:     args.CreateBinary,
		CreateObjectOnly: args.CreateObjectOnly,
	})
	if err != nil {
		return nil, compileError(err, t.compiler)
	}

	diags := ParseDiagnostics(result.Stderr)
	if diags == nil {
		diags = []Diagnostic{}
	}
	out := &CompileWithDiagnosticsResult{
		Success:      result.ExitCode(1) == 0,
		Diagnostics:  diags,
		Command:      joinOptions(t.compiler, options, "<source>"),
		ToolWarnings: warnings,
	}
	for _, tr := range result.Tools {
		out.ToolOutputs = append(out.ToolOutputs, ToolOutput{
			ID:       tr.ID,
			ExitCode: tr.Code,
			Stdout:   tr.Stdout.Text(),
			Stderr:   tr.Stderr.Text(),
		})
	}
	return out, nil
}

// diagnosticMarker finds "error:", "warning:" or "note:" in untagged lines.
var diagnosticMarker = regexp.MustCompile(`(?i)\b(error|warning|note):`)

// ParseDiagnostics extracts diagnostics from compiler stderr. Tagged lines
// are always diagnostics; untagged lines only when they carry an
// "error:", "warning:" or "note:" marker, which skips source excerpts.
func ParseDiagnostics(stderr ce.Lines) []Diagnostic {
	var out []Diagnostic
	for _, line := range stderr {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}

		d := Diagnostic{Message: text}
		if tag := line.Tag; tag != nil {
			d.Line, d.Column = tag.Line, tag.Column
			d.Type = classifyDiagnostic(tag, text)
		} else {
			m := diagnosticMarker.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			d.Type = strings.ToLower(m[1])
		}

		if suggestion, ok := ExtractCompilerSuggestion(text); ok {
			d.Suggestion = &suggestion
		}
		out = append(out, d)
	}
	return out
}

// classifyDiagnostic types a tagged line. An explicit "error:", "warning:"
// or "note:" marker in the tag text, then in the line, wins. Next comes the
// tag severity, and a bare keyword only counts when the severity is unset.
func classifyDiagnostic(tag *ce.Tag, lineText string) string {
	for _, text := range []string{tag.Text, lineText} {
		if m := diagnosticMarker.FindStringSubmatch(text); m != nil {
			return strings.ToLower(m[1])
		}
	}
	if tag.Severity > 0 {
		return severityType(tag.Severity)
	}
	lower := strings.ToLower(tag.Text)
	if lower == "" {
		lower = strings.ToLower(lineText)
	}
	switch {
	case strings.Contains(lower, "error"):
		return "error"
	case strings.Contains(lower, "warning"):
		return "warning"
	}
	return "note"
}

// severityType maps a tag severity to a diagnostic type. Compiler Explorer
// sends either Monaco marker severities (8 error, 4 warning, 2 info, 1 hint)
// or its own 3/2/1 scale.
func severityType(severity int) string {
	switch severity {
	case 8, 3:
		return "error"
	case 4, 2:
		return "warning"
	}
	if severity > 8 {
		return "error"
	}
	return "note"
}
