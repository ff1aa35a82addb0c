package client

import (
	"github.com/benbjohnson/clock"

	"github.com/contentworks/workflow/backend"
)

type Options struct {
	backend.Options

	// Clock used for resolution timing metrics. Defaults to the wall clock.
	Clock clock.Clock
}

type ClientOption func(*Options)

func WithClock(c clock.Clock) ClientOption {
	return func(o *Options) {
		o.Clock = c
	}
}

func WithBackendOptions(opts ...backend.BackendOption) ClientOption {
	return func(o *Options) {
		for _, opt := range opts {
			opt(&o.Options)
		}
	}
}

func applyOptions(opts ...ClientOption) *Options {
	options := &Options{
		Options: backend.ApplyOptions(),
		Clock:   clock.New(),
	}

	for _, opt := range opts {
		opt(options)
	}

	return options
}
