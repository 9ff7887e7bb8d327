package compilerexplorer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/ce-mcp/pkg/cache"
	"github.com/matzehuels/ce-mcp/pkg/integrations"
)

var fastBackoff = cache.Backoff{Attempts: 2, Delay: time.Millisecond, Factor: 1}

func testClient(t *testing.T, backend cache.Cache, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(backend, Options{
		Endpoint:        server.URL,
		VersionEndpoint: server.URL + "/version",
		CacheTTL:        time.Hour,
		Backoff:         fastBackoff,
	})
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode body %s: %v", data, err)
	}
	return m
}

func TestLanguages(t *testing.T) {
	client := testClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/languages" {
			t.Errorf("path = %s, want /languages", r.URL.Path)
		}
		if got := r.Header.Get("User-Agent"); got != "CompilerExplorerMCP/1.0" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte(`[{"id":"c++","name":"C++","extensions":[".cpp",".cxx"],"monaco":"cppp"},{"id":"rust","name":"Rust","extensions":[".rs"]}]`))
	})

	langs, err := client.Languages(context.Background(), false)
	if err != nil {
		t.Fatalf("Languages() error: %v", err)
	}
	want := []Language{
		{ID: "c++", Name: "C++", Extensions: []string{".cpp", ".cxx"}, Monaco: "cppp"},
		{ID: "rust", Name: "Rust", Extensions: []string{".rs"}},
	}
	if diff := cmp.Diff(want, langs); diff != "" {
		t.Errorf("Languages() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompilersFields(t *testing.T) {
	tests := []struct {
		name      string
		extended  bool
		wantTools bool
	}{
		{"essential", false, false},
		{"extended", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fields string
			client := testClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/compilers/c++" {
					t.Errorf("path = %s", r.URL.Path)
				}
				fields = r.URL.Query().Get("fields")
				w.Write([]byte(`[{"id":"g132","name":"x86-64 gcc 13.2","lang":"c++","libsArr":[],"tools":{"clangtidytrunk":{"id":"clangtidytrunk","tool":{"name":"clang-tidy (trunk)"}}}}]`))
			})

			compilers, err := client.Compilers(context.Background(), "c++", tt.extended, false)
			if err != nil {
				t.Fatalf("Compilers() error: %v", err)
			}
			if !strings.HasPrefix(fields, "id,name,lang,") || !strings.Contains(fields, "libsArr") {
				t.Errorf("fields = %q, missing essential fields", fields)
			}
			if got := strings.Contains(fields, "tools"); got != tt.wantTools {
				t.Errorf("fields contains tools = %v, want %v", got, tt.wantTools)
			}
			if len(compilers) != 1 || compilers[0].ID != "g132" {
				t.Fatalf("compilers = %+v", compilers)
			}
			want := CompilerTools{{ID: "clangtidytrunk", Name: "clang-tidy (trunk)"}}
			if diff := cmp.Diff(want, compilers[0].Tools); diff != "" {
				t.Errorf("tools mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLibrariesCached(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, cache.NewMemoryCache(), func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[{"id":"fmt","name":"{fmt}","versions":[{"id":"1000","version":"10.0.0","$order":3}]}]`))
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		libs, err := client.Libraries(ctx, "c++", false)
		if err != nil {
			t.Fatalf("Libraries() error: %v", err)
		}
		if len(libs) != 1 || libs[0].Versions[0].Order == nil || *libs[0].Versions[0].Order != 3 {
			t.Fatalf("libs = %+v", libs)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}

	if _, err := client.Libraries(ctx, "c++", true); err != nil {
		t.Fatalf("Libraries(refresh) error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls after refresh = %d, want 2", got)
	}
}

func TestCompilePayload(t *testing.T) {
	var body map[string]any
	client := testClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/compiler/g132/compile" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		body = decodeBody(t, r)
		w.Write([]byte(`{"code":0,"asm":[{"text":"main:"},{"text":"  xor eax, eax"}],"stderr":[]}`))
	})

	res, err := client.Compile(context.Background(), CompileRequest{
		Source:          "int main(){}",
		Language:        "c++",
		CompilerID:      "g132",
		Options:         "-O2",
		FilterOverrides: map[string]bool{"libraryCode": false, "unknown": true},
		Libraries:       []LibrarySelection{{ID: "fmt", Version: "1000"}},
		CreateBinary:    true,
	})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if !res.Compiled() || res.Asm.Text() != "main:\n  xor eax, eax" {
		t.Errorf("result = %+v", res)
	}

	opts := body["options"].(map[string]any)
	if opts["userArguments"] != "-O2" {
		t.Errorf("userArguments = %v", opts["userArguments"])
	}
	filters := opts["filters"].(map[string]any)
	wantFilters := map[string]any{
		"binary": true, "binaryObject": false, "commentOnly": false, "demangle": true,
		"directives": true, "execute": false, "intel": true, "labels": true,
		"libraryCode": false, "trim": true, "debugCalls": true,
	}
	if diff := cmp.Diff(wantFilters, filters); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
	co := opts["compilerOptions"].(map[string]any)
	if _, ok := co["producePp"]; !ok || co["producePp"] != nil {
		t.Errorf("producePp = %v, want explicit null", co["producePp"])
	}
	if co["produceCfg"] != false {
		t.Errorf("produceCfg = %v", co["produceCfg"])
	}
	if tools, ok := opts["tools"].([]any); !ok || len(tools) != 0 {
		t.Errorf("tools = %v, want []", opts["tools"])
	}
	wantLibs := []any{map[string]any{"id": "fmt", "version": "1000"}}
	if diff := cmp.Diff(wantLibs, opts["libraries"]); diff != "" {
		t.Errorf("libraries mismatch (-want +got):\n%s", diff)
	}
	if _, ok := opts["executeParameters"]; ok {
		t.Error("compile payload must not carry executeParameters")
	}
}

func TestCompileAndExecutePayload(t *testing.T) {
	var body map[string]any
	client := testClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		body = decodeBody(t, r)
		w.Write([]byte(`{"code":3,"didExecute":true,"stdout":[{"text":"hello"}],"stderr":"warn\n","execTime":"12","buildResult":{"code":0}}`))
	})

	res, err := client.CompileAndExecute(context.Background(), CompileRequest{
		Source:     "int main(){}",
		CompilerID: "g132",
		Stdin:      "in",
		Args:       []string{"a", "b"},
		Timeout:    5000,
	})
	if err != nil {
		t.Fatalf("CompileAndExecute() error: %v", err)
	}
	if !res.Compiled() || !res.Executed() || res.ExitCode(-1) != 3 {
		t.Errorf("result = %+v", res)
	}
	if res.ExecTime != 12 {
		t.Errorf("ExecTime = %d, want 12", res.ExecTime)
	}
	if res.Stdout.Text() != "hello" || res.Stderr.Text() != "warn" {
		t.Errorf("stdout = %q, stderr = %q", res.Stdout.Text(), res.Stderr.Text())
	}

	opts := body["options"].(map[string]any)
	want := map[string]any{"args": []any{"a", "b"}, "stdin": "in", "timeout": float64(5000)}
	if diff := cmp.Diff(want, opts["executeParameters"]); diff != "" {
		t.Errorf("executeParameters mismatch (-want +got):\n%s", diff)
	}
	wantCO := map[string]any{"executorRequest": true, "skipAsm": true}
	if diff := cmp.Diff(wantCO, opts["compilerOptions"]); diff != "" {
		t.Errorf("compilerOptions mismatch (-want +got):\n%s", diff)
	}
	filters := opts["filters"].(map[string]any)
	if filters["execute"] != true || filters["binary"] != false || filters["binaryObject"] != false {
		t.Errorf("filters = %v", filters)
	}
}

func TestCompileNotFound(t *testing.T) {
	client := testClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := client.Compile(context.Background(), CompileRequest{CompilerID: "nope"})
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("Compile() error = %v, want ErrNotFound", err)
	}
}

func TestCompileRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"code":0}`))
	})
	if _, err := client.Compile(context.Background(), CompileRequest{CompilerID: "g132"}); err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestCreateShortLink(t *testing.T) {
	var body map[string]any
	client := testClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shortener" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body = decodeBody(t, r)
		w.Write([]byte(`{"url":"https://godbolt.org/z/abc123"}`))
	})

	url, err := client.CreateShortLink(context.Background(), ShareRequest{
		Source:     "int main(){}",
		Language:   "c++",
		CompilerID: "g132",
		Options:    "-O2",
		Libraries:  []LibrarySelection{{ID: "fmt", Version: "1000"}},
	})
	if err != nil {
		t.Fatalf("CreateShortLink() error: %v", err)
	}
	if url != "https://godbolt.org/z/abc123" {
		t.Errorf("url = %q", url)
	}

	want := map[string]any{
		"sessions": []any{map[string]any{
			"id":       float64(1),
			"language": "c++",
			"source":   "int main(){}",
			"compilers": []any{map[string]any{
				"id":        "g132",
				"options":   "-O2",
				"libraries": []any{map[string]any{"id": "fmt", "version": "1000"}},
			}},
		}},
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestCompilerVersion(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   map[string]any
	}{
		{"ok", http.StatusOK, `{"version":"gcc 13.2"}`, map[string]any{"version": "gcc 13.2"}},
		{"not found", http.StatusNotFound, ``, map[string]any{"error": "Version info not available"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/version" || r.URL.Query().Get("id") != "gsnapshot" {
					t.Errorf("url = %s", r.URL)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			got := client.CompilerVersion(context.Background(), "gsnapshot")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CompilerVersion() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("bad request", func(t *testing.T) {
		client := testClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})
		got := client.CompilerVersion(context.Background(), "x")
		if msg, _ := got["error"].(string); !strings.Contains(msg, "status 400") {
			t.Errorf("error = %v, want status 400", got)
		}
	})
}

func TestShortlinkInfo(t *testing.T) {
	client := testClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shortlinkinfo/abc":
			w.Write([]byte(`{"sessions":[{"id":1,"language":"c++","source":"int x;","compilers":[{"id":"g132","options":"-O2"}]}],
				"trees":[{"id":1,"compilerLanguageId":"c++","files":[{"id":1,"filename":"main.cpp","isMainSource":true,"isIncluded":true,"content":"int main(){}"}]}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	state, err := client.ShortlinkInfo(context.Background(), "abc")
	if err != nil {
		t.Fatalf("ShortlinkInfo() error: %v", err)
	}
	if len(state.Sessions) != 1 || state.Sessions[0].Compilers[0].Options != "-O2" {
		t.Errorf("sessions = %+v", state.Sessions)
	}
	if len(state.Trees) != 1 || state.Trees[0].Files[0].Filename != "main.cpp" || !state.Trees[0].Files[0].IsMainSource {
		t.Errorf("trees = %+v", state.Trees)
	}

	if _, err := client.ShortlinkInfo(context.Background(), "missing"); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("ShortlinkInfo(missing) error = %v, want ErrNotFound", err)
	}
}

func TestInstructionDocs(t *testing.T) {
	client := testClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/asm/amd64/MOV" {
			w.Write([]byte(`{"tooltip":"Move","html":"<p>Move</p>","url":"https://www.felixcloutier.com/x86/mov"}`))
			return
		}
		http.NotFound(w, r)
	})

	doc, err := client.InstructionDocs(context.Background(), "amd64", "mov")
	if err != nil {
		t.Fatalf("InstructionDocs() error: %v", err)
	}
	if doc.Tooltip != "Move" {
		t.Errorf("tooltip = %q", doc.Tooltip)
	}
	if _, err := client.InstructionDocs(context.Background(), "amd64", "bogus"); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("InstructionDocs(bogus) error = %v, want ErrNotFound", err)
	}
}

func TestLinesUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Lines
	}{
		{"objects", `[{"text":"a.cpp:1:2: error: x","tag":{"line":1,"column":2,"text":"x"}}]`,
			Lines{{Text: "a.cpp:1:2: error: x", Tag: &Tag{Line: 1, Column: 2, Text: "x"}}}},
		{"strings", `["one","two"]`, Lines{{Text: "one"}, {Text: "two"}}},
		{"string", `"one\ntwo\n"`, Lines{{Text: "one"}, {Text: "two"}}},
		{"empty string", `""`, nil},
		{"null", `null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Lines
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMillisUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Millis
	}{
		{`12`, 12},
		{`"34"`, 34},
		{`"12.7"`, 12},
		{`"n/a"`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		var got Millis
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCompilerToolsArrayForm(t *testing.T) {
	var tools CompilerTools
	if err := json.Unmarshal([]byte(`[{"id":"pahole","name":"pahole"},{"id":"readelf","tool":{"name":"readelf"}}]`), &tools); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	want := CompilerTools{{ID: "pahole", Name: "pahole"}, {ID: "readelf", Name: "readelf"}}
	if diff := cmp.Diff(want, tools); diff != "" {
		t.Errorf("tools mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"pahole", "readelf"}, tools.IDs()); diff != "" {
		t.Errorf("IDs() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileResultDefaults(t *testing.T) {
	var res CompileResult
	if res.ExitCode(-1) != -1 {
		t.Errorf("ExitCode() without code = %d, want -1", res.ExitCode(-1))
	}
	if res.Compiled() {
		t.Error("Compiled() without code should be false")
	}
	res.BuildResult = &BuildResult{Code: 0}
	if !res.Compiled() {
		t.Error("Compiled() should follow buildResult")
	}
}
