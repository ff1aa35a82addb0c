// Package log holds the structured logging keys used across the engine so
// that log consumers see consistent field names.
package log

const (
	WorkflowIDKey   = "workflow_id"
	WorkflowNameKey = "workflow_name"
	StateIDKey      = "state_id"
	TransitionIDKey = "transition_id"
	RoleIDKey       = "role_id"
	RoleNameKey     = "role_name"
	ContentIDKey    = "content_id"
	UserNameKey     = "user_name"
	CommunityIDKey  = "community_id"
	VersionKey      = "version"
	AssignmentKey   = "assignment_type"
)
