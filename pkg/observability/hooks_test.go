package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Tool hooks
	tl := NoopToolHooks{}
	tl.OnToolStart(ctx, "compile_check", "id-1")
	tl.OnToolComplete(ctx, "compile_check", "id-1", time.Second, errors.New("boom"))

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "http")
	c.OnCacheMiss(ctx, "tools")
	c.OnCacheSet(ctx, "http", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "godbolt.org", "/api/languages")
	h.OnResponse(ctx, "GET", "godbolt.org", "/api/languages", 200, time.Second)
	h.OnError(ctx, "GET", "godbolt.org", "/api/languages", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Tools().(NoopToolHooks); !ok {
		t.Error("Tools() should return NoopToolHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customTools := &testToolHooks{}
	SetToolHooks(customTools)
	if Tools() != customTools {
		t.Error("SetToolHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Tools().(NoopToolHooks); !ok {
		t.Error("Reset() should restore NoopToolHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("Reset() should restore NoopHTTPHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testToolHooks{}
	SetToolHooks(custom)
	SetToolHooks(nil)
	if Tools() != custom {
		t.Error("SetToolHooks(nil) should keep the current hooks")
	}

	SetCacheHooks(nil)
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("SetCacheHooks(nil) should keep the current hooks")
	}

	SetHTTPHooks(nil)
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("SetHTTPHooks(nil) should keep the current hooks")
	}
}

func TestCustomToolHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	h := &testToolHooks{}
	SetToolHooks(h)

	ctx := context.Background()
	Tools().OnToolStart(ctx, "compile_and_run", "abc")
	Tools().OnToolComplete(ctx, "compile_and_run", "abc", 10*time.Millisecond, nil)

	if h.started != 1 || h.completed != 1 {
		t.Errorf("started=%d completed=%d, want 1/1", h.started, h.completed)
	}
	if h.lastTool != "compile_and_run" {
		t.Errorf("lastTool = %q", h.lastTool)
	}
}

type testToolHooks struct {
	started   int
	completed int
	lastTool  string
}

func (h *testToolHooks) OnToolStart(_ context.Context, tool, _ string) {
	h.started++
	h.lastTool = tool
}

func (h *testToolHooks) OnToolComplete(_ context.Context, tool, _ string, _ time.Duration, _ error) {
	h.completed++
	h.lastTool = tool
}

type testCacheHooks struct{ NoopCacheHooks }

type testHTTPHooks struct{ NoopHTTPHooks }
