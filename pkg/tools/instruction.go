package tools

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	errs "github.com/matzehuels/ce-mcp/pkg/errors"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// instructionSetAliases maps common architecture names to the ids Compiler
// Explorer documents instructions under.
var instructionSetAliases = map[string]string{
	"x64":    "amd64",
	"x86_64": "amd64",
	"x86-64": "amd64",
	"arm64":  "aarch64",
}

// NormalizeInstructionSet lower-cases an architecture name and resolves
// aliases such as x86_64 and arm64.
func NormalizeInstructionSet(set string) string {
	set = strings.ToLower(strings.TrimSpace(set))
	if alias, ok := instructionSetAliases[set]; ok {
		return alias
	}
	return set
}

// LookupInstructionResult is the result of lookup_instruction.
type LookupInstructionResult struct {
	Found          bool               `json:"found"`
	InstructionSet string             `json:"instruction_set"`
	Opcode         string             `json:"opcode"`
	Documentation  *ce.InstructionDoc `json:"documentation,omitempty"`
	FormattedDocs  string             `json:"formatted_docs,omitempty"`
	Error          string             `json:"error,omitempty"`
	ErrorCode      errs.Code          `json:"error_code,omitempty"`
}

// LookupInstruction fetches the documentation of an opcode. Unknown opcodes
// are reported in Error and ErrorCode rather than failing the call.
func (s *Service) LookupInstruction(ctx context.Context, args LookupInstructionArgs) (*LookupInstructionResult, error) {
	if err := errs.ValidateStruct(args); err != nil {
		return nil, err
	}
	set := NormalizeInstructionSet(args.InstructionSet)
	opcode := strings.ToUpper(strings.TrimSpace(args.Opcode))
	if err := errs.ValidateIdentifier("instruction set", set); err != nil {
		return nil, err
	}
	if err := errs.ValidateIdentifier("opcode", opcode); err != nil {
		return nil, err
	}

	out := &LookupInstructionResult{InstructionSet: set, Opcode: opcode}
	doc, err := s.api.InstructionDocs(ctx, set, opcode)
	if isNotFound(err) {
		out.Error = fmt.Sprintf("Instruction '%s' not found for instruction set '%s'", opcode, set)
		out.ErrorCode = errs.ErrCodeInstructionNotFound
		return out, nil
	}
	if err != nil {
		return nil, networkError(err)
	}

	out.Found = true
	out.Documentation = doc
	if boolOr(args.FormatOutput, true) {
		out.FormattedDocs = FormatInstructionDoc(opcode, doc)
	}
	return out, nil
}

var (
	textPolicy    = bluemonday.StrictPolicy()
	blockBreakers = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n", "</li>", "\n", "</tr>", "\n")
)

// FormatInstructionDoc renders the documentation as plain text: the opcode,
// the tooltip, the HTML body stripped of markup and the reference URL.
func FormatInstructionDoc(opcode string, doc *ce.InstructionDoc) string {
	var b strings.Builder
	b.WriteString(opcode)
	b.WriteString("\n")
	if t := stripHTML(doc.Tooltip); t != "" {
		b.WriteString("\n" + t + "\n")
	}
	if body := stripHTML(doc.HTML); body != "" && body != stripHTML(doc.Tooltip) {
		b.WriteString("\n" + body + "\n")
	}
	if doc.URL != "" {
		b.WriteString("\nReference: " + doc.URL + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// stripHTML removes markup and collapses blank lines.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(textPolicy.Sanitize(blockBreakers.Replace(s)))
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
