package cache

import "strings"

// Keyer generates cache keys for the different kinds of cached data.
// Implementations must be deterministic: the same inputs always yield the same key.
type Keyer interface {
	// HTTPKey generates a key for a cached HTTP response body.
	HTTPKey(namespace, key string) string

	// ToolsKey generates a key for a compiler's tool metadata.
	ToolsKey(language, compiler string) string
}

// DefaultKeyer produces readable keys for HTTP responses and hashed keys for
// anything whose inputs may contain arbitrary characters.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:{namespace}:{key}".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ToolsKey returns a hashed key scoped to one compiler of one language.
// Language ids are compared case-insensitively by Compiler Explorer, compiler ids are not.
func (DefaultKeyer) ToolsKey(language, compiler string) string {
	return hashKey("tools", strings.ToLower(language), compiler)
}
