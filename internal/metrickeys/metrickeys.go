package metrickeys

const (
	Prefix = "workflow."

	// Repository
	WorkflowLoaded    = Prefix + "graph.loaded"
	WorkflowSaved     = Prefix + "graph.saved"
	WorkflowRepaired  = Prefix + "graph.repaired"
	WorkflowCacheHit  = Prefix + "graph.cache.hit"
	WorkflowCacheMiss = Prefix + "graph.cache.miss"

	WorkflowCacheSize     = Prefix + "graph.cache.size"
	WorkflowCacheEviction = Prefix + "graph.cache.eviction"

	// Resolution
	AssignmentComputed = Prefix + "assignment.computed"
	AssignmentTiming   = Prefix + "assignment.duration"

	// Mutations
	RoleAdded   = Prefix + "role.added"
	RoleRemoved = Prefix + "role.removed"
	RoleCopied  = Prefix + "role.copied"
)

// Tag names
const (
	// Store backing the repository
	Store = "store"

	// Reason for evicting an entry from the graph cache
	EvictionReason = "reason"

	// Resulting assignment type of a computation
	AssignmentType = "assignment_type"
)
