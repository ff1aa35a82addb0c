package resolver

import (
	"context"

	"github.com/contentworks/workflow/backend"
)

// ContentCommunityFunc returns the community a content item belongs to.
// Needed for the content-id shapes of community filtering; the engine does
// not own content items.
type ContentCommunityFunc func(ctx context.Context, contentID string) (int64, error)

type Options struct {
	backend.Options

	// CommunityFiltering enables filtering of assigned roles by community
	// visibility. When disabled, all filter functions are the identity.
	CommunityFiltering bool

	// ContentCommunity resolves a content item's community id. Required for
	// the content-id filter shapes when CommunityFiltering is enabled.
	ContentCommunity ContentCommunityFunc
}

type ResolverOption func(*Options)

func WithCommunityFiltering(enabled bool) ResolverOption {
	return func(o *Options) {
		o.CommunityFiltering = enabled
	}
}

func WithContentCommunity(f ContentCommunityFunc) ResolverOption {
	return func(o *Options) {
		o.ContentCommunity = f
	}
}

func WithBackendOptions(opts ...backend.BackendOption) ResolverOption {
	return func(o *Options) {
		for _, opt := range opts {
			opt(&o.Options)
		}
	}
}
