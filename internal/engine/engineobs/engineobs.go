package engineobs

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"llm-crypto-trader/internal/interfaces"
	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/trace"
	"llm-crypto-trader/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) RunCycle(ctx context.Context) ([]types.Outcome, error) {
	if trace.CycleID(ctx) == "" {
		ctx = trace.WithCycleID(ctx, ulid.Make().String())
	}
	ctx, span := trace.StartSpan(ctx, "engine.RunCycle")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting trading cycle")

	outcomes, err := oe.engine.RunCycle(ctx)

	var executed, failed int
	for _, o := range outcomes {
		switch o.Stage {
		case types.StageExecuted:
			executed++
		case types.StageFailed:
			failed++
		}
	}

	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trading cycle bookkeeping failed", err,
			"instruments", len(outcomes),
			"executed", executed,
			"failed", failed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return outcomes, err
	}

	logger.InfoSkip(ctx, 1, "Trading cycle completed",
		"instruments", len(outcomes),
		"executed", executed,
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return outcomes, nil
}
