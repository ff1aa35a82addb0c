package repository

import (
	"time"

	"github.com/contentworks/workflow/backend"
)

type Options struct {
	backend.Options

	// CacheSize is the maximum number of graphs kept in the cache.
	CacheSize int

	// CacheTTL is how long an unused graph stays cached.
	CacheTTL time.Duration
}

type RepositoryOption func(*Options)

func WithCacheSize(size int) RepositoryOption {
	return func(o *Options) {
		o.CacheSize = size
	}
}

func WithCacheTTL(ttl time.Duration) RepositoryOption {
	return func(o *Options) {
		o.CacheTTL = ttl
	}
}

func WithBackendOptions(opts ...backend.BackendOption) RepositoryOption {
	return func(o *Options) {
		for _, opt := range opts {
			opt(&o.Options)
		}
	}
}
