package model

import "time"

// AuditEntry records one administrative action against a subscription.
type AuditEntry struct {
	ID         string // UUID
	AdminID    string
	Action     string // e.g. EXTEND_SUBSCRIPTION, REVOKE_SUBSCRIPTION
	TargetType string
	TargetID   string
	Metadata   map[string]interface{}
	CreatedAt  time.Time
}
