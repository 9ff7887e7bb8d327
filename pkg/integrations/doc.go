// Package integrations provides the shared HTTP plumbing for remote API clients.
//
// # Overview
//
// [Client] wraps an [http.Client] with default headers, a retry policy
// ([cache.Backoff]), optional response caching through a [cache.Cache], and
// [observability] HTTP hooks. API-specific clients live in subpackages and
// embed it:
//
//   - [compilerexplorer]: the Compiler Explorer REST API
//
// # Client Pattern
//
//	ce := compilerexplorer.NewClient(backend, compilerexplorer.Options{Endpoint: "https://godbolt.org/api"})
//	langs, err := ce.Languages(ctx, false) // false = use cache
//
// # Errors
//
// A 404 maps to [ErrNotFound]. Network failures and 5xx responses map to
// [ErrNetwork] wrapped with [cache.Retryable] so that [Client.Cached] and
// [Client.Retry] try again. Other statuses map to [ErrNetwork] and are not
// retried. Errors are wrapped with %w; test them with [errors.Is].
//
// [compilerexplorer]: github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer
// [cache.Cache]: github.com/matzehuels/ce-mcp/pkg/cache.Cache
// [cache.Backoff]: github.com/matzehuels/ce-mcp/pkg/cache.Backoff
// [cache.Retryable]: github.com/matzehuels/ce-mcp/pkg/cache.Retryable
// [observability]: github.com/matzehuels/ce-mcp/pkg/observability
package integrations
