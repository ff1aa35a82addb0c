package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/contentworks/workflow/backend"
	"github.com/contentworks/workflow/backend/metrics"
	"github.com/contentworks/workflow/backend/sqlite"
	"github.com/contentworks/workflow/core"
	"github.com/contentworks/workflow/internal/metrickeys"
	"github.com/contentworks/workflow/repository"
	"github.com/contentworks/workflow/resolver"
)

type capturingMetrics struct {
	mu            sync.Mutex
	counters      map[string]int64
	counterTags   map[string]metrics.Tags
	distributions map[string]int
}

func newCapturingMetrics() *capturingMetrics {
	return &capturingMetrics{
		counters:      map[string]int64{},
		counterTags:   map[string]metrics.Tags{},
		distributions: map[string]int{},
	}
}

func (c *capturingMetrics) Counter(name string, tags metrics.Tags, value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters[name] += value
	c.counterTags[name] = tags
}

func (c *capturingMetrics) Distribution(name string, tags metrics.Tags, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.distributions[name]++
}

func (c *capturingMetrics) Gauge(name string, tags metrics.Tags, value int64) {}

func (c *capturingMetrics) Timing(name string, tags metrics.Tags, duration time.Duration) {}

func (c *capturingMetrics) WithTags(tags metrics.Tags) metrics.Client {
	return c
}

func (c *capturingMetrics) counter(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counters[name]
}

func reviewWorkflow() *core.Workflow {
	return &core.Workflow{
		ID:   1,
		Name: "Standard",
		Roles: []*core.Role{
			{ID: 10, WorkflowID: 1, Name: "Author"},
			{ID: 11, WorkflowID: 1, Name: "Admin"},
		},
		States: []*core.State{
			{
				ID: 100, WorkflowID: 1, Name: "Review",
				AssignedRoles: []*core.AssignedRole{
					{RoleID: 10, WorkflowID: 1, StateID: 100, AssignmentType: core.AssignmentTypeAssignee, AdhocType: core.AdhocAnonymous},
					{RoleID: 11, WorkflowID: 1, StateID: 100, AssignmentType: core.AssignmentTypeAdmin},
				},
			},
		},
	}
}

func clientFixture(t *testing.T, opts ...ClientOption) (*Client, *sqlite.Store) {
	t.Helper()

	s := sqlite.NewInMemoryStore()
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Create(context.Background(), reviewWorkflow()))

	repo := repository.New(s, nil)
	res := resolver.New(s, s)

	return New(repo, res, opts...), s
}

func Test_AssignmentType(t *testing.T) {
	ctx := context.Background()
	c, s := clientFixture(t)

	require.NoError(t, s.Save(ctx, &core.AdhocAssignment{
		ContentID: "501",
		RoleID:    10,
		UserName:  "sam",
		AdhocType: core.AdhocAnonymous,
	}))

	// Ad-hoc assignee on the item.
	at, err := c.AssignmentType(ctx, AssignmentRequest{
		ContentID:  "501",
		WorkflowID: 1,
		StateID:    100,
		UserName:   "sam",
		UserRoles:  []string{"Author"},
	})
	require.NoError(t, err)
	require.Equal(t, core.AssignmentTypeAssignee, at)

	// Other role members fall back to reader on anonymous ad-hoc.
	at, err = c.AssignmentType(ctx, AssignmentRequest{
		ContentID:  "501",
		WorkflowID: 1,
		StateID:    100,
		UserName:   "drew",
		UserRoles:  []string{"Author"},
	})
	require.NoError(t, err)
	require.Equal(t, core.AssignmentTypeReader, at)
}

func Test_AssignmentType_UnknownWorkflow(t *testing.T) {
	ctx := context.Background()
	c, _ := clientFixture(t)

	_, err := c.AssignmentType(ctx, AssignmentRequest{
		ContentID:  "501",
		WorkflowID: 42,
		StateID:    100,
		UserName:   "sam",
	})
	require.ErrorIs(t, err, backend.ErrWorkflowNotFound)
}

func Test_AssignmentTypeFor(t *testing.T) {
	ctx := context.Background()
	c, _ := clientFixture(t)

	at, err := c.AssignmentTypeFor(ctx, core.ContentWorkflowState{
		ContentID:  "501",
		WorkflowID: 1,
		StateID:    100,
	}, "drew", []string{"Admin"}, 0)
	require.NoError(t, err)
	require.Equal(t, core.AssignmentTypeAdmin, at)
}

func Test_AssignmentTypes_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	c, s := clientFixture(t)

	require.NoError(t, s.Save(ctx, &core.AdhocAssignment{
		ContentID: "b",
		RoleID:    10,
		UserName:  "sam",
		AdhocType: core.AdhocAnonymous,
	}))

	types, err := c.AssignmentTypes(ctx, 1, 100, []string{"a", "b", "c"}, "sam", []string{"Author"}, 0)
	require.NoError(t, err)
	require.Equal(t, []core.AssignmentType{
		core.AssignmentTypeReader,
		core.AssignmentTypeAssignee,
		core.AssignmentTypeReader,
	}, types)
}

func Test_AssignmentType_EmitsMetrics(t *testing.T) {
	ctx := context.Background()
	mc := newCapturingMetrics()
	c, _ := clientFixture(t,
		WithClock(clock.NewMock()),
		WithBackendOptions(backend.WithMetrics(mc)),
	)

	at, err := c.AssignmentType(ctx, AssignmentRequest{
		ContentID:  "501",
		WorkflowID: 1,
		StateID:    100,
		UserName:   "drew",
		UserRoles:  []string{"Admin"},
	})
	require.NoError(t, err)
	require.Equal(t, core.AssignmentTypeAdmin, at)

	require.Equal(t, int64(1), mc.counter(metrickeys.AssignmentComputed))
	require.Equal(t, metrics.Tags{
		metrickeys.AssignmentType: core.AssignmentTypeAdmin.String(),
	}, mc.counterTags[metrickeys.AssignmentComputed])
	require.Equal(t, 1, mc.distributions[metrickeys.AssignmentTiming])
}
