package mutation

import (
	"github.com/contentworks/workflow/backend"
)

type Options struct {
	backend.Options

	// NameCache, when set, is invalidated for every workflow a mutation
	// persists.
	NameCache NameCache
}

type ServiceOption func(*Options)

func WithNameCache(nc NameCache) ServiceOption {
	return func(o *Options) {
		o.NameCache = nc
	}
}

func WithBackendOptions(opts ...backend.BackendOption) ServiceOption {
	return func(o *Options) {
		for _, opt := range opts {
			opt(&o.Options)
		}
	}
}
