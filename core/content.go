package core

// ContentWorkflowState locates a content item in its workflow. It is a
// transient projection read from the item's persisted location; the engine
// consumes it as input and never owns it.
type ContentWorkflowState struct {
	ContentID  string `json:"content_id"`
	WorkflowID int64  `json:"workflow_id"`
	StateID    int64  `json:"state_id"`
}

// AdhocAssignment is a per-content-item override of a role's assignment,
// naming a specific user. Owned by the ad-hoc store, consumed here.
type AdhocAssignment struct {
	ContentID string    `json:"content_id"`
	RoleID    int64     `json:"role_id"`
	UserName  string    `json:"user_name"`
	AdhocType AdhocType `json:"adhoc_type"`
}
