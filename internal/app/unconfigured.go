package app

import (
	"context"

	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/core"
	"github.com/joseph-ayodele/ballot-registry/internal/core/grouping"
)

// unconfigured stands in for the processor in read-only commands.
type unconfigured struct{}

func (unconfigured) ProcessFiles(context.Context, []string, grouping.ProgressFunc) (core.RunResult, error) {
	return core.RunResult{}, common.NewAppError("CONFIG_ERROR", "processing is not configured", common.ErrInvalidInput)
}
