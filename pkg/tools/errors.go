package tools

import (
	"context"
	"errors"

	errs "github.com/matzehuels/ce-mcp/pkg/errors"
	"github.com/matzehuels/ce-mcp/pkg/integrations"
)

func isNotFound(err error) bool {
	return errors.Is(err, integrations.ErrNotFound)
}

// networkError classifies a transport failure. Already classified errors
// pass through unchanged.
func networkError(err error) error {
	if err == nil || errs.GetCode(err) != "" {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.ErrCodeTimeout, err, "Compiler Explorer request timed out")
	}
	return errs.Wrap(errs.ErrCodeNetwork, err, "Compiler Explorer request failed")
}
