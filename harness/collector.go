package harness

import (
	"github.com/asaskevich/EventBus"
)

// TopicRecorded is published on the collector's bus with the Result as the
// only argument every time a result is recorded.
const TopicRecorded = "harness:recorded"

// Collector accumulates results for the caller that owns it. It holds no
// global state: each sweep owner creates or resets its own.
type Collector struct {
	results []Result
	bus     EventBus.Bus
}

// NewCollector returns an empty Collector. If bus is non-nil every recorded
// result is published on TopicRecorded. Subscribers should subscribe
// synchronously; an async handler would run alongside the next measurement.
func NewCollector(bus EventBus.Bus) *Collector {
	return &Collector{bus: bus}
}

// Record appends r.
func (c *Collector) Record(r Result) {
	c.results = append(c.results, r)

	if c.bus != nil {
		c.bus.Publish(TopicRecorded, r)
	}
}

// Results returns a copy of the recorded results in recording order.
func (c *Collector) Results() []Result {
	out := make([]Result, len(c.results))
	copy(out, c.results)

	return out
}

// Len returns the number of recorded results.
func (c *Collector) Len() int {
	return len(c.results)
}

// Reset drops every recorded result.
func (c *Collector) Reset() {
	c.results = nil
}
