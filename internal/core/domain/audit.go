package domain

import "time"

// Audited entity types.
const (
	AuditEntityEntry      = "journal_entry"
	AuditEntityPeriod     = "accounting_period"
	AuditEntityFiscalYear = "fiscal_year"
	AuditEntityAccount    = "account"
)

// Audit outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeFailure = "failure"
)

// AuditRecord is one append-only audit trail row.
type AuditRecord struct {
	AuditID    string         `json:"auditID"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityID"`
	Action     string         `json:"action"`
	Outcome    string         `json:"outcome"`
	Detail     map[string]any `json:"detail,omitempty"`
	ActorID    string         `json:"actorID"`
	Branch     string         `json:"branch,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// AuditFilter narrows audit listings for consumers.
type AuditFilter struct {
	EntityType string
	EntityID   string
	Limit      int
}
