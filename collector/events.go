package collector

import "github.com/gookit/event"

// Event names published on the manager passed to WithEvents.
const (
	// EventOnusCollected carries "olt" and "report" (*OnuReport)
	EventOnusCollected = "olt.onus.collected"
	// EventMacsCollected carries "olt" and "report" (*MacReport)
	EventMacsCollected = "olt.macs.collected"
	// EventPollFailed carries "olt" and "error"
	EventPollFailed = "olt.poll.failed"
)

func (c *Collector) fire(name string, params event.M) {
	if c.events == nil {
		return
	}
	if err, _ := c.events.Fire(name, params); err != nil {
		c.logger.Warn().Err(err).Str("event", name).Msg("event listener failed")
	}
}
