package compilerexplorer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Language is an entry of GET /languages.
type Language struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Extensions      []string `json:"extensions"`
	Monaco          string   `json:"monaco,omitempty"`
	DefaultCompiler string   `json:"defaultCompiler,omitempty"`
}

// Compiler is an entry of GET /compilers/{lang}. Only the requested fields
// are populated; the extended ones are empty unless asked for.
type Compiler struct {
	ID                        string   `json:"id"`
	Name                      string   `json:"name"`
	Lang                      string   `json:"lang"`
	CompilerType              string   `json:"compilerType,omitempty"`
	InstructionSet            string   `json:"instructionSet,omitempty"`
	Semver                    string   `json:"semver,omitempty"`
	Group                     string   `json:"group,omitempty"`
	GroupName                 string   `json:"groupName,omitempty"`
	Hidden                    bool     `json:"hidden,omitempty"`
	IsNightly                 bool     `json:"isNightly,omitempty"`
	LibsArr                   []string `json:"libsArr"`
	SupportsLibraryCodeFilter bool     `json:"supportsLibraryCodeFilter,omitempty"`
	SupportsExecute           bool     `json:"supportsExecute,omitempty"`
	SupportsBinary            bool     `json:"supportsBinary,omitempty"`
	SupportsAsmDocs           bool     `json:"supportsAsmDocs,omitempty"`
	SupportsOptOutput         bool     `json:"supportsOptOutput,omitempty"`

	// Extended fields.
	Tools                CompilerTools   `json:"tools,omitempty"`
	PossibleOverrides    json.RawMessage `json:"possibleOverrides,omitempty"`
	PossibleRuntimeTools json.RawMessage `json:"possibleRuntimeTools,omitempty"`
	License              json.RawMessage `json:"license,omitempty"`
	Notification         string          `json:"notification,omitempty"`
	Options              string          `json:"options,omitempty"`
	Alias                []string        `json:"alias,omitempty"`
}

// CompilerTool is a compile-time tool (clang-tidy, pahole, ...) a compiler offers.
type CompilerTool struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CompilerTools holds a compiler's tools. The API sends them either as an
// object keyed by tool id ({"clangtidytrunk": {"id": ..., "tool": {"name": ...}}})
// or as an array; both decode to the same sorted list.
type CompilerTools []CompilerTool

// UnmarshalJSON accepts the object and array forms.
func (t *CompilerTools) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}

	type rawTool struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Tool struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"tool"`
	}
	flatten := func(key string, r rawTool) CompilerTool {
		ct := CompilerTool{ID: r.ID, Name: r.Name}
		if ct.ID == "" {
			ct.ID = r.Tool.ID
		}
		if ct.ID == "" {
			ct.ID = key
		}
		if ct.Name == "" {
			ct.Name = r.Tool.Name
		}
		return ct
	}

	switch data[0] {
	case '{':
		var m map[string]rawTool
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		out := make(CompilerTools, 0, len(m))
		for k, r := range m {
			out = append(out, flatten(k, r))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		*t = out
	case '[':
		var list []rawTool
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		out := make(CompilerTools, 0, len(list))
		for _, r := range list {
			out = append(out, flatten("", r))
		}
		*t = out
	default:
		return fmt.Errorf("tools: unexpected JSON %s", truncate(data, 32))
	}
	return nil
}

// IDs returns the tool ids in order.
func (t CompilerTools) IDs() []string {
	ids := make([]string, len(t))
	for i, tool := range t {
		ids[i] = tool.ID
	}
	return ids
}

// Library is an entry of GET /libraries/{lang}.
type Library struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	URL         string           `json:"url,omitempty"`
	Description string           `json:"description,omitempty"`
	Versions    []LibraryVersion `json:"versions"`
}

// LibraryVersion is one installable version of a library.
type LibraryVersion struct {
	ID            string   `json:"id"`
	Version       string   `json:"version"`
	Alias         []string `json:"alias,omitempty"`
	Order         *float64 `json:"$order,omitempty"`
	Path          []string `json:"path,omitempty"`
	Dependencies  []string `json:"dependencies,omitempty"`
	StaticLibLink []string `json:"staticliblink,omitempty"`
}

// LibrarySelection selects a library version for a compilation.
type LibrarySelection struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// ToolSelection selects a compile-time tool for a compilation.
type ToolSelection struct {
	ID   string   `json:"id"`
	Args []string `json:"args"`
}

// Tag is the source location the compiler attached to an output line.
type Tag struct {
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Text     string `json:"text"`
	Severity int    `json:"severity,omitempty"`
}

// Line is one line of compiler output.
type Line struct {
	Text string `json:"text"`
	Tag  *Tag   `json:"tag,omitempty"`
}

// Lines is compiler output. The API sends arrays of {text, tag}, arrays of
// strings, or a single newline-separated string; all decode to Lines.
type Lines []Line

// UnmarshalJSON accepts the three output shapes.
func (l *Lines) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = SplitLines(s)
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Lines, 0, len(raw))
	for _, r := range raw {
		r = bytes.TrimSpace(r)
		if len(r) > 0 && r[0] == '"' {
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				return err
			}
			out = append(out, Line{Text: s})
			continue
		}
		var line Line
		if err := json.Unmarshal(r, &line); err != nil {
			return err
		}
		out = append(out, line)
	}
	*l = out
	return nil
}

// SplitLines turns a newline-separated string into Lines.
func SplitLines(s string) Lines {
	if s == "" {
		return nil
	}
	parts := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	out := make(Lines, len(parts))
	for i, p := range parts {
		out[i] = Line{Text: p}
	}
	return out
}

// Text joins the line texts with newlines.
func (l Lines) Text() string {
	texts := make([]string, len(l))
	for i, line := range l {
		texts[i] = line.Text
	}
	return strings.Join(texts, "\n")
}

// Millis is an execution time in milliseconds. The API sends it as a number
// or as a numeric string.
type Millis int64

// UnmarshalJSON accepts numbers and numeric strings. Unparseable values decode to 0.
func (m *Millis) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*m = 0
		return nil
	}
	*m = Millis(f)
	return nil
}

// BuildResult is the build step of an execution request.
type BuildResult struct {
	Code   int   `json:"code"`
	Stdout Lines `json:"stdout,omitempty"`
	Stderr Lines `json:"stderr,omitempty"`
}

// ExecResult is the run step reported by some API versions.
type ExecResult struct {
	Code       int    `json:"code"`
	DidExecute bool   `json:"didExecute"`
	Stdout     Lines  `json:"stdout,omitempty"`
	Stderr     Lines  `json:"stderr,omitempty"`
	ExecTime   Millis `json:"execTime,omitempty"`
}

// ToolResult is the output of a compile-time tool.
type ToolResult struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Code   int    `json:"code"`
	Stdout Lines  `json:"stdout,omitempty"`
	Stderr Lines  `json:"stderr,omitempty"`
}

// CompileResult is the response of POST /compiler/{id}/compile.
type CompileResult struct {
	Code        *int         `json:"code,omitempty"`
	Stdout      Lines        `json:"stdout,omitempty"`
	Stderr      Lines        `json:"stderr,omitempty"`
	Asm         Lines        `json:"asm,omitempty"`
	DidExecute  bool         `json:"didExecute,omitempty"`
	ExecTime    Millis       `json:"execTime,omitempty"`
	Truncated   bool         `json:"truncated,omitempty"`
	BuildResult *BuildResult `json:"buildResult,omitempty"`
	ExecResult  *ExecResult  `json:"execResult,omitempty"`
	Tools       []ToolResult `json:"tools,omitempty"`
	OptOutput   []OptRemark  `json:"optOutput,omitempty"`
}

// OptRemark is an optimization remark, returned when ProduceOptInfo is set.
type OptRemark struct {
	Pass          string    `json:"Pass"`
	Name          string    `json:"Name"`
	Function      string    `json:"Function"`
	OptType       string    `json:"optType"`
	DisplayString string    `json:"displayString"`
	DebugLoc      *DebugLoc `json:"DebugLoc,omitempty"`
}

// DebugLoc is a source position in an optimization remark.
type DebugLoc struct {
	File   string `json:"File"`
	Line   int    `json:"Line"`
	Column int    `json:"Column"`
}

// ExitCode returns the response code, or def when the API omitted it.
func (r *CompileResult) ExitCode(def int) int {
	if r.Code == nil {
		return def
	}
	return *r.Code
}

// Compiled reports whether the build step succeeded. Execution responses
// carry it in buildResult; plain compilations in the top-level code.
func (r *CompileResult) Compiled() bool {
	if r.BuildResult != nil {
		return r.BuildResult.Code == 0
	}
	return r.ExitCode(1) == 0
}

// Executed reports whether the program ran.
func (r *CompileResult) Executed() bool {
	return r.DidExecute || r.ExecResult != nil
}

// CompileRequest describes a compilation (and optionally an execution).
type CompileRequest struct {
	Source     string
	Language   string
	CompilerID string
	Options    string

	// FilterOverrides replace individual configured filters, keyed by API name
	// (libraryCode, debugCalls, demangle, ...).
	FilterOverrides map[string]bool

	Libraries []LibrarySelection
	Tools     []ToolSelection

	CreateBinary     bool
	CreateObjectOnly bool

	// ProduceOptInfo asks the compiler for optimization remarks (optOutput).
	ProduceOptInfo bool

	// Execution only.
	Stdin   string
	Args    []string
	Timeout int
}

// ShareRequest describes a single-compiler session to store as a shortlink.
type ShareRequest struct {
	Source     string
	Language   string
	CompilerID string
	Options    string
	Libraries  []LibrarySelection
	Tools      []ToolSelection
}

// ClientState is the stored state behind a shortlink (GET /shortlinkinfo/{id}).
type ClientState struct {
	Sessions []Session `json:"sessions"`
	Trees    []Tree    `json:"trees,omitempty"`
}

// Session is one editor with its compilers.
type Session struct {
	ID        int               `json:"id"`
	Language  string            `json:"language"`
	Source    string            `json:"source"`
	Filename  string            `json:"filename,omitempty"`
	Compilers []SessionCompiler `json:"compilers,omitempty"`
	Executors []SessionExecutor `json:"executors,omitempty"`
}

// SessionCompiler is a compiler pane attached to a session or tree.
type SessionCompiler struct {
	ID      string             `json:"id"`
	Options string             `json:"options"`
	Libs    []LibrarySelection `json:"libs,omitempty"`
}

// SessionExecutor is an executor pane attached to a session.
type SessionExecutor struct {
	Compiler SessionCompiler `json:"compiler"`
	Args     string          `json:"arguments,omitempty"`
	Stdin    string          `json:"stdin,omitempty"`
}

// Tree is a multi-file project.
type Tree struct {
	ID                 int               `json:"id"`
	CompilerLanguageID string            `json:"compilerLanguageId"`
	Files              []TreeFile        `json:"files"`
	Compilers          []SessionCompiler `json:"compilers,omitempty"`
}

// TreeFile is one file of a tree.
type TreeFile struct {
	ID           int    `json:"id"`
	Filename     string `json:"filename"`
	IsMainSource bool   `json:"isMainSource"`
	IsIncluded   bool   `json:"isIncluded"`
	Content      string `json:"content"`
	LangID       string `json:"langId,omitempty"`
}

// InstructionDoc is the documentation of one opcode (GET /asm/{set}/{opcode}).
type InstructionDoc struct {
	Tooltip string `json:"tooltip"`
	HTML    string `json:"html"`
	URL     string `json:"url"`
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
