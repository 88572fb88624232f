package interfaces

import (
	"context"

	"llm-crypto-trader/internal/types"
)

type Engine interface {
	// RunCycle runs one full decision cycle. The returned error only reports
	// bookkeeping failures; outcomes are valid even when it is non-nil.
	RunCycle(ctx context.Context) ([]types.Outcome, error)
}
