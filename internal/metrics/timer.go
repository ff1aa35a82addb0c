package metrics

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/contentworks/workflow/backend/metrics"
)

type Timer struct {
	clock  clock.Clock
	client metrics.Client
	start  time.Time
	name   string
	tags   metrics.Tags
}

func NewTimer(clock clock.Clock, client metrics.Client, name string, tags metrics.Tags) *Timer {
	return &Timer{
		clock:  clock,
		client: client,
		start:  clock.Now(),
		name:   name,
		tags:   tags,
	}
}

// Stop the timer and send the elapsed time as milliseconds as a distribution metric
func (t *Timer) Stop() {
	elapsed := t.clock.Since(t.start)
	t.client.Distribution(t.name, t.tags, float64(elapsed/time.Millisecond))
}
