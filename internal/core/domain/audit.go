package domain

import "time"

// AuditUser is the actor snapshot stored with an audit event.
type AuditUser struct {
	ID       string `json:"id" bson:"id"`
	Username string `json:"username,omitempty" bson:"username,omitempty"`
	Email    string `json:"email,omitempty" bson:"email,omitempty"`
	Role     string `json:"role,omitempty" bson:"role,omitempty"`
}

// AuditEvent records the outcome of a single audited request. It is sealed
// once the response has been sent and is owned by the audit store afterwards.
type AuditEvent struct {
	Action      string         `json:"action" bson:"action"`
	Entity      string         `json:"entity" bson:"entity"`
	EntityID    *string        `json:"entityId" bson:"entity_id"`
	Resource    string         `json:"resource" bson:"resource"`
	ResourceID  *string        `json:"resourceId" bson:"resource_id"`
	Description string         `json:"description" bson:"description"`
	Details     map[string]any `json:"details,omitempty" bson:"details,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Success     bool           `json:"success" bson:"success"`
	StatusCode  int            `json:"statusCode" bson:"status_code"`
	User        *AuditUser     `json:"user,omitempty" bson:"user,omitempty"`
	Timestamp   time.Time      `json:"timestamp" bson:"timestamp"`
}
