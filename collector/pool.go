package collector

import (
	"context"

	"github.com/gookit/event"
	"github.com/sourcegraph/conc/pool"

	"github.com/nanoncore/pon-telemetry/types"
)

// PollResult is the outcome of CollectONUs for one OLT.
type PollResult struct {
	OLT    types.EquipmentConfig
	Report *OnuReport
	Err    error
}

// CollectAll polls olts concurrently, at most WithWorkers at a time. Each
// OLT gets its own session; failures are reported per OLT.
func (c *Collector) CollectAll(ctx context.Context, olts []types.EquipmentConfig) []PollResult {
	p := pool.New().WithMaxGoroutines(c.workers)
	resultsChan := make(chan PollResult, len(olts))

	for _, olt := range olts {
		olt := olt
		p.Go(func() {
			report, err := c.CollectONUs(ctx, olt)
			resultsChan <- PollResult{OLT: olt, Report: report, Err: err}
		})
	}

	p.Wait()
	close(resultsChan)

	results := make([]PollResult, 0, len(olts))
	for r := range resultsChan {
		if r.Err != nil {
			c.logger.Error().Err(r.Err).Str("olt", r.OLT.Address).Msg("ONU poll failed")
			c.fire(EventPollFailed, event.M{"olt": r.OLT.Address, "error": r.Err})
		}
		results = append(results, r)
	}
	return results
}
