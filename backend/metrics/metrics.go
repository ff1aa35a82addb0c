// Package metrics defines the minimal metrics client the engine reports
// through. Implementations adapt it to statsd, prometheus, or whatever the
// host application uses; the engine itself only emits.
package metrics

import "time"

type Tags map[string]string

type Client interface {
	Counter(name string, tags Tags, value int64)

	Distribution(name string, tags Tags, value float64)

	Gauge(name string, tags Tags, value int64)

	Timing(name string, tags Tags, duration time.Duration)

	WithTags(tags Tags) Client
}
