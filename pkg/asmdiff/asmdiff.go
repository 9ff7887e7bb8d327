// Package asmdiff compares assembly listings.
//
// Listings are normalised first ([Normalize]) so that comments and spacing do
// not show up as differences. [Diff] then produces a unified diff, a
// side-by-side view of the changed regions, per-line statistics and a one-line
// summary. The instruction and call extraction is architecture-agnostic: it
// works on the first token of each line and knows the call mnemonics of x86,
// ARM, MIPS and RISC-V.
package asmdiff

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of context lines in unified diffs.
const DefaultContext = 3

// DefaultWidth truncates each side of the side-by-side view.
const DefaultWidth = 50

// Result is the comparison of two listings.
type Result struct {
	UnifiedDiff string      `json:"unified_diff"`
	SideBySide  [][2]string `json:"side_by_side"`
	Statistics  Stats       `json:"statistics"`
	Summary     string      `json:"summary"`
}

// Stats counts what changed between two listings. The unique lists keep
// first-seen order.
type Stats struct {
	LinesAdded                int      `json:"lines_added"`
	LinesRemoved              int      `json:"lines_removed"`
	LinesChanged              int      `json:"lines_changed"`
	InstructionsAdded         []string `json:"instructions_added"`
	InstructionsRemoved       []string `json:"instructions_removed"`
	FunctionCallsAdded        []string `json:"function_calls_added"`
	FunctionCallsRemoved      []string `json:"function_calls_removed"`
	UniqueInstructionsAdded   []string `json:"unique_instructions_added"`
	UniqueInstructionsRemoved []string `json:"unique_instructions_removed"`
	UniqueCallsAdded          []string `json:"unique_calls_added"`
	UniqueCallsRemoved        []string `json:"unique_calls_removed"`
}

var mnemonicRe = regexp.MustCompile(`^[a-z][a-z0-9._]*$`)

var callMnemonics = map[string]bool{"call": true, "bl": true, "blx": true, "jal": true, "jalr": true}

// Normalize drops comment-only and blank lines, strips inline # comments and
// collapses runs of whitespace.
func Normalize(asm string) []string {
	var out []string
	for _, line := range strings.Split(asm, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}
	return out
}

// Diff compares two listings. A context below zero selects [DefaultContext].
func Diff(asm1, asm2, label1, label2 string, context int) Result {
	if context < 0 {
		context = DefaultContext
	}
	lines1 := Normalize(asm1)
	lines2 := Normalize(asm2)

	diffLines := UnifiedLines(lines1, lines2, label1, label2, context)
	stats := Analyze(diffLines)
	return Result{
		UnifiedDiff: strings.Join(diffLines, "\n"),
		SideBySide:  SideBySide(lines1, lines2, DefaultWidth),
		Statistics:  stats,
		Summary:     Summary(stats, lines1, lines2),
	}
}

// UnifiedLines returns the unified diff of two line slices, one diff line per
// element and without line terminators.
func UnifiedLines(a, b []string, labelA, labelB string, context int) []string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        terminate(a),
		B:        terminate(b),
		FromFile: labelA,
		ToFile:   labelB,
		Context:  context,
	})
	if err != nil || text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// UnifiedText diffs two texts line by line and returns the unified diff.
func UnifiedText(a, b, labelA, labelB string) string {
	return strings.Join(UnifiedLines(splitText(a), splitText(b), labelA, labelB, DefaultContext), "\n")
}

// Analyze counts the added and removed lines of a unified diff and extracts
// their instructions and call targets.
func Analyze(diffLines []string) Stats {
	stats := Stats{
		InstructionsAdded:    []string{},
		InstructionsRemoved:  []string{},
		FunctionCallsAdded:   []string{},
		FunctionCallsRemoved: []string{},
	}
	for _, line := range diffLines {
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			stats.LinesAdded++
			if inst, ok := ExtractInstruction(line[1:]); ok {
				stats.InstructionsAdded = append(stats.InstructionsAdded, inst)
			}
			if call, ok := ExtractFunctionCall(line[1:]); ok {
				stats.FunctionCallsAdded = append(stats.FunctionCallsAdded, call)
			}
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			stats.LinesRemoved++
			if inst, ok := ExtractInstruction(line[1:]); ok {
				stats.InstructionsRemoved = append(stats.InstructionsRemoved, inst)
			}
			if call, ok := ExtractFunctionCall(line[1:]); ok {
				stats.FunctionCallsRemoved = append(stats.FunctionCallsRemoved, call)
			}
		}
	}
	stats.UniqueInstructionsAdded = unique(stats.InstructionsAdded)
	stats.UniqueInstructionsRemoved = unique(stats.InstructionsRemoved)
	stats.UniqueCallsAdded = unique(stats.FunctionCallsAdded)
	stats.UniqueCallsRemoved = unique(stats.FunctionCallsRemoved)
	return stats
}

// ExtractInstruction returns the lower-cased mnemonic of an assembly line.
// Labels, directives and # lines have none.
func ExtractInstruction(line string) (string, bool) {
	s := strings.TrimSpace(line)
	if s == "" || strings.HasSuffix(s, ":") || strings.HasPrefix(s, ".") || strings.HasPrefix(s, "#") {
		return "", false
	}
	inst := strings.ToLower(strings.Fields(s)[0])
	if len(inst) <= 10 && mnemonicRe.MatchString(inst) {
		return inst, true
	}
	return "", false
}

// ExtractFunctionCall returns the target of a call (call, bl, blx, jal, jalr).
// Indirect memory calls are reported as indirect_<mnemonic>.
func ExtractFunctionCall(line string) (string, bool) {
	s := strings.TrimSpace(line)
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) < 2 || !callMnemonics[fields[0]] {
		return "", false
	}

	target := strings.TrimSpace(s[len(firstField(s)):])
	if strings.Contains(strings.ToLower(target), "ptr") && strings.Contains(target, "[") {
		return "indirect_" + fields[0], true
	}
	if strings.HasPrefix(target, "[") && strings.HasSuffix(target, "]") {
		target = target[1 : len(target)-1]
	}
	return target, true
}

// SideBySide pairs the changed regions of two listings, each side truncated
// to maxWidth runes. Equal regions are omitted.
func SideBySide(lines1, lines2 []string, maxWidth int) [][2]string {
	out := [][2]string{}
	m := difflib.NewMatcher(lines1, lines2)
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			n := max(op.I2-op.I1, op.J2-op.J1)
			for k := 0; k < n; k++ {
				var left, right string
				if op.I1+k < op.I2 {
					left = lines1[op.I1+k]
				}
				if op.J1+k < op.J2 {
					right = lines2[op.J1+k]
				}
				out = append(out, [2]string{clip(left, maxWidth), clip(right, maxWidth)})
			}
		case 'd':
			for i := op.I1; i < op.I2; i++ {
				out = append(out, [2]string{clip(lines1[i], maxWidth), ""})
			}
		case 'i':
			for j := op.J1; j < op.J2; j++ {
				out = append(out, [2]string{"", clip(lines2[j], maxWidth)})
			}
		}
	}
	return out
}

// ExtractFunction returns the listing of one function: from the first line
// naming it with a definition marker (":", "(" or "<") up to the next
// top-level label that is not a local (dot) label.
func ExtractFunction(asm, name string) (string, bool) {
	lines := strings.Split(asm, "\n")
	start := -1
	for i, line := range lines {
		if strings.Contains(line, name) && strings.ContainsAny(line, ":(<") {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		line := lines[i]
		if line == "" || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			continue
		}
		if strings.Contains(line, ":") && !strings.HasPrefix(strings.TrimSpace(line), ".") {
			end = i
			break
		}
	}
	return strings.Join(lines[start:end], "\n"), true
}

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

func terminate(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

func splitText(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func unique(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := []string{}
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
