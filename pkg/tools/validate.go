package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/ce-mcp/pkg/cache"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// toolsTTL is how long a compiler's tool list is trusted.
const toolsTTL = 24 * time.Hour

// toolsEntry is a cached tool list. Known is false when the compiler or its
// tools field was missing from the listing.
type toolsEntry struct {
	Known bool              `json:"known"`
	Tools []ce.CompilerTool `json:"tools"`
}

// toolsCache memoises tool lists per (language, compiler).
type toolsCache struct {
	mem   *cache.MemoryCache
	keyer cache.Keyer
}

func newToolsCache() *toolsCache {
	return &toolsCache{mem: cache.NewMemoryCache(), keyer: cache.NewDefaultKeyer()}
}

func (c *toolsCache) get(ctx context.Context, lang, compiler string) (toolsEntry, bool) {
	data, ok, err := c.mem.Get(ctx, c.keyer.ToolsKey(lang, compiler))
	if err != nil || !ok {
		return toolsEntry{}, false
	}
	var e toolsEntry
	if json.Unmarshal(data, &e) != nil {
		return toolsEntry{}, false
	}
	return e, true
}

func (c *toolsCache) set(ctx context.Context, lang, compiler string, e toolsEntry) {
	if data, err := json.Marshal(e); err == nil {
		_ = c.mem.Set(ctx, c.keyer.ToolsKey(lang, compiler), data, toolsTTL)
	}
}

func (c *toolsCache) clear() { c.mem.Clear() }

// compilerTools returns the tools a compiler offers, from cache or the
// extended compiler listing.
func (s *Service) compilerTools(ctx context.Context, lang, compilerID string) (toolsEntry, error) {
	if e, ok := s.tools.get(ctx, lang, compilerID); ok {
		return e, nil
	}
	compilers, err := s.api.Compilers(ctx, lang, true, false)
	if err != nil {
		return toolsEntry{}, err
	}
	var e toolsEntry
	for _, c := range compilers {
		if c.ID == compilerID {
			e = toolsEntry{Known: c.Tools != nil, Tools: c.Tools}
			break
		}
	}
	s.tools.set(ctx, lang, compilerID, e)
	return e, nil
}

// ValidateTools checks requested tools against the compiler's tool list.
// It returns the tools that can be sent and a warning for each one that
// cannot. When the compiler's tools are unknown, every tool with an id is
// passed through with a single warning.
func (s *Service) ValidateTools(ctx context.Context, requested []ToolArg, compilerID, lang string) ([]ce.ToolSelection, []string) {
	if len(requested) == 0 {
		return nil, nil
	}

	var warnings []string
	withID := make([]ToolArg, 0, len(requested))
	for i, t := range requested {
		if strings.TrimSpace(t.ID) == "" {
			warnings = append(warnings, fmt.Sprintf("Tool at index %d is missing 'id' field", i))
			continue
		}
		withID = append(withID, t)
	}

	entry, err := s.compilerTools(ctx, lang, compilerID)
	if err != nil || !entry.Known {
		reason := "tool information is not available"
		if err != nil {
			reason = err.Error()
		}
		warnings = append(warnings, fmt.Sprintf(
			"Could not validate tools for compiler '%s' (%s); passing them through unchecked", compilerID, reason))
		return toSelections(withID), warnings
	}

	ids := ce.CompilerTools(entry.Tools).IDs()
	available := make(map[string]bool, len(ids))
	for _, id := range ids {
		available[id] = true
	}

	var valid []ToolArg
	for _, t := range withID {
		if available[t.ID] {
			valid = append(valid, t)
			continue
		}
		if match, ok := caseInsensitiveMatch(ids, t.ID); ok {
			warnings = append(warnings, fmt.Sprintf(
				"Warning: Tool '%s' not available for compiler '%s'. Did you mean: '%s'?", t.ID, compilerID, match))
			continue
		}
		warnings = append(warnings, fmt.Sprintf(
			"Warning: Tool '%s' not available for compiler '%s'. Available tools: %s", t.ID, compilerID, formatToolIDs(ids)))
	}
	s.logger.Debug("validated tools", "compiler", compilerID, "valid", len(valid), "warnings", len(warnings))
	return toSelections(valid), warnings
}

func caseInsensitiveMatch(ids []string, id string) (string, bool) {
	for _, candidate := range ids {
		if strings.EqualFold(candidate, id) {
			return candidate, true
		}
	}
	return "", false
}

func formatToolIDs(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}

func toSelections(tools []ToolArg) []ce.ToolSelection {
	if len(tools) == 0 {
		return nil
	}
	out := make([]ce.ToolSelection, len(tools))
	for i, t := range tools {
		args := t.Args
		if args == nil {
			args = []string{}
		}
		out[i] = ce.ToolSelection{ID: t.ID, Args: args}
	}
	return out
}
