// Package client is the entry-point facade for assignment-type queries. It
// combines the graph repository and the role resolver behind a single call
// surface, adding tracing, metrics and debug logging around each resolution.
package client

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/contentworks/workflow/backend"
	"github.com/contentworks/workflow/backend/metrics"
	"github.com/contentworks/workflow/core"
	"github.com/contentworks/workflow/internal/log"
	im "github.com/contentworks/workflow/internal/metrics"
	"github.com/contentworks/workflow/internal/metrickeys"
	"github.com/contentworks/workflow/repository"
	"github.com/contentworks/workflow/resolver"
)

type Client struct {
	repo     *repository.Repository
	resolver *resolver.Resolver
	options  *Options
	tracer   trace.Tracer
}

func New(repo *repository.Repository, res *resolver.Resolver, opts ...ClientOption) *Client {
	options := applyOptions(opts...)

	return &Client{
		repo:     repo,
		resolver: res,
		options:  options,
		tracer:   options.TracerProvider.Tracer(backend.TracerName),
	}
}

// AssignmentRequest identifies one resolution: which content item in which
// workflow state, and for which user.
type AssignmentRequest struct {
	ContentID   string
	WorkflowID  int64
	StateID     int64
	UserName    string
	UserRoles   []string
	CommunityID int64
}

// AssignmentType resolves the effective assignment type for the request.
func (c *Client) AssignmentType(ctx context.Context, req AssignmentRequest) (core.AssignmentType, error) {
	ctx, span := c.tracer.Start(ctx, "AssignmentType", trace.WithAttributes(
		attribute.Int64(log.WorkflowIDKey, req.WorkflowID),
		attribute.Int64(log.StateIDKey, req.StateID),
		attribute.String(log.ContentIDKey, req.ContentID),
		attribute.String(log.UserNameKey, req.UserName),
	))
	defer span.End()

	timer := im.NewTimer(c.options.Clock, c.options.Metrics, metrickeys.AssignmentTiming, metrics.Tags{})
	defer timer.Stop()

	w, err := c.repo.Load(ctx, req.WorkflowID)
	if err != nil {
		return core.AssignmentTypeNone, err
	}

	at, err := c.resolver.AssignmentType(
		ctx, w, req.StateID, req.ContentID, req.UserName, req.UserRoles, req.CommunityID)
	if err != nil {
		return core.AssignmentTypeNone, err
	}

	span.SetAttributes(attribute.String(log.AssignmentKey, at.String()))
	c.options.Metrics.Counter(metrickeys.AssignmentComputed, metrics.Tags{
		metrickeys.AssignmentType: at.String(),
	}, 1)
	c.options.Logger.Debug(
		"resolved assignment type",
		log.WorkflowIDKey, req.WorkflowID,
		log.StateIDKey, req.StateID,
		log.ContentIDKey, req.ContentID,
		log.UserNameKey, req.UserName,
		log.AssignmentKey, at.String(),
	)

	return at, nil
}

// AssignmentTypeFor resolves the effective assignment type for a content
// item's recorded workflow state.
func (c *Client) AssignmentTypeFor(ctx context.Context, cws core.ContentWorkflowState, userName string, userRoles []string, communityID int64) (core.AssignmentType, error) {
	return c.AssignmentType(ctx, AssignmentRequest{
		ContentID:   cws.ContentID,
		WorkflowID:  cws.WorkflowID,
		StateID:     cws.StateID,
		UserName:    userName,
		UserRoles:   userRoles,
		CommunityID: communityID,
	})
}

// AssignmentTypes resolves assignment types for multiple content items that
// share a workflow state, in input order. The graph is loaded once.
func (c *Client) AssignmentTypes(ctx context.Context, workflowID, stateID int64, contentIDs []string, userName string, userRoles []string, communityID int64) ([]core.AssignmentType, error) {
	ctx, span := c.tracer.Start(ctx, "AssignmentTypes", trace.WithAttributes(
		attribute.Int64(log.WorkflowIDKey, workflowID),
		attribute.Int64(log.StateIDKey, stateID),
		attribute.Int("content_count", len(contentIDs)),
	))
	defer span.End()

	timer := im.NewTimer(c.options.Clock, c.options.Metrics, metrickeys.AssignmentTiming, metrics.Tags{})
	defer timer.Stop()

	w, err := c.repo.Load(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	types, err := c.resolver.AssignmentTypes(ctx, w, stateID, contentIDs, userName, userRoles, communityID)
	if err != nil {
		return nil, err
	}

	c.options.Metrics.Counter(metrickeys.AssignmentComputed, metrics.Tags{}, int64(len(types)))

	return types, nil
}

// Workflow returns the cached, self-healed graph for the given id.
func (c *Client) Workflow(ctx context.Context, workflowID int64) (*core.Workflow, error) {
	return c.repo.Load(ctx, workflowID)
}
