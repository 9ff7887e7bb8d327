package tools

import (
	"context"
	"strings"

	errs "github.com/matzehuels/ce-mcp/pkg/errors"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// simdInstructions are the mnemonics taken as evidence of vectorization.
var simdInstructions = []string{"movdqu", "movups", "vmovups", "vaddps", "vmov", "vadd"}

// Optimizations are the heuristics detected in the assembly.
type Optimizations struct {
	MemcpyConversion bool     `json:"memcpy_conversion"`
	Vectorization    bool     `json:"vectorization"`
	LoopUnrolling    bool     `json:"loop_unrolling"`
	FunctionInlining bool     `json:"function_inlining"`
	SIMDInstructions []string `json:"simd_instructions"`
}

// OptimizationRemark is a remark from the compiler's optimization passes.
type OptimizationRemark struct {
	Pass     string `json:"pass"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Function string `json:"function,omitempty"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message,omitempty"`
}

// AnalyzeOptimizationResult is the result of analyze_optimization.
type AnalyzeOptimizationResult struct {
	OptimizationsDetected Optimizations        `json:"optimizations_detected"`
	Summary               string               `json:"summary"`
	AssemblyLines         int                  `json:"assembly_lines"`
	InstructionCount      int                  `json:"instruction_count"`
	AssemblyOutput        []string             `json:"assembly_output"`
	Truncated             bool                 `json:"truncated"`
	TotalInstructions     int                  `json:"total_instructions"`
	OptimizationRemarks   []OptimizationRemark `json:"optimization_remarks,omitempty"`
}

// AnalyzeOptimization compiles at the requested optimization level and
// reports what the optimizer did, judged from the assembly.
func (s *Service) AnalyzeOptimization(ctx context.Context, args AnalyzeOptimizationArgs) (*AnalyzeOptimizationResult, error) {
	if err := errs.ValidateStruct(args); err != nil {
		return nil, err
	}
	t, err := s.resolveTarget(args.Language, args.Compiler)
	if err != nil {
		return nil, err
	}
	level := args.OptimizationLevel
	if level == "" {
		level = "-O3"
	}

	overrides := map[string]bool{}
	if args.FilterOutLibraryCode != nil {
		overrides["libraryCode"] = !*args.FilterOutLibraryCode
	}
	if args.FilterOutDebugCalls != nil {
		overrides["debugCalls"] = !*args.FilterOutDebugCalls
	}
	if args.DoDemangle != nil {
		overrides["demangle"] = *args.DoDemangle
	}

	libs, err := s.resolveLibraries(ctx, args.Libraries, t)
	if err != nil {
		return nil, err
	}
	remarks := boolOr(args.IncludeOptimizationRemarks, true)

	result, err := s.api.Compile(ctx, ce.CompileRequest{
		Source:          args.Source,
		Language:        t.language,
		CompilerID:      t.compiler,
		Options:         level,
		FilterOverrides: overrides,
		Libraries:       libs,
		ProduceOptInfo:  remarks,
	})
	if err != nil {
		return nil, compileError(err, t.compiler)
	}

	out := AnalyzeAssembly(result.Asm.Text(), args.AnalysisType, s.cfg.OutputLimits.MaxAssemblyLines)
	if remarks {
		out.OptimizationRemarks = convertRemarks(result.OptOutput)
	}
	return out, nil
}

// AnalyzeAssembly applies the optimization heuristics to assembly text and
// caps the returned lines at maxLines. analysisType narrows the summary to
// vectorization, inlining or loops; "" and "all" report everything.
func AnalyzeAssembly(asm, analysisType string, maxLines int) *AnalyzeOptimizationResult {
	var asmLines []string
	if asm != "" {
		asmLines = strings.Split(strings.TrimRight(asm, "\n"), "\n")
	}
	instructions := make([]string, 0, len(asmLines))
	for _, line := range asmLines {
		if line = strings.TrimSpace(line); line != "" {
			instructions = append(instructions, line)
		}
	}

	opt := Optimizations{
		MemcpyConversion: strings.Contains(asm, "memcpy") || strings.Contains(asm, "memmove"),
		FunctionInlining: !strings.Contains(strings.ToLower(asm), "call"),
		SIMDInstructions: []string{},
	}
	for _, inst := range simdInstructions {
		if strings.Contains(asm, inst) {
			opt.SIMDInstructions = append(opt.SIMDInstructions, inst)
		}
	}
	opt.Vectorization = len(opt.SIMDInstructions) > 0

	focus := func(kind string) bool {
		return analysisType == "" || analysisType == "all" || analysisType == kind
	}
	var summary []string
	if opt.MemcpyConversion && focus("loops") {
		summary = append(summary, "Compiler optimized manual loop to memcpy call")
	}
	if opt.Vectorization && focus("vectorization") {
		summary = append(summary, "SIMD vectorization detected")
	}
	if opt.FunctionInlining && focus("inlining") {
		summary = append(summary, "Function calls inlined")
	}

	out := &AnalyzeOptimizationResult{
		OptimizationsDetected: opt,
		Summary:               "No significant optimizations detected",
		AssemblyLines:         len(asmLines),
	}
	if len(summary) > 0 {
		out.Summary = strings.Join(summary, "; ")
	}
	if maxLines > 0 && len(instructions) > maxLines {
		instructions = instructions[:maxLines]
		out.Truncated = true
	}
	out.AssemblyOutput = instructions
	out.InstructionCount = len(instructions)
	out.TotalInstructions = len(instructions)
	if out.Truncated {
		out.TotalInstructions += len(asmLines) - maxLines
	}
	return out
}

func convertRemarks(opt []ce.OptRemark) []OptimizationRemark {
	if len(opt) == 0 {
		return nil
	}
	out := make([]OptimizationRemark, len(opt))
	for i, r := range opt {
		out[i] = OptimizationRemark{
			Pass:     r.Pass,
			Name:     r.Name,
			Type:     r.OptType,
			Function: r.Function,
			Message:  r.DisplayString,
		}
		if r.DebugLoc != nil {
			out[i].Line = r.DebugLoc.Line
		}
	}
	return out
}
