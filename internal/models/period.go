package models

import "time"

// AccountingPeriod represents a row of the accounting_periods table.
type AccountingPeriod struct {
	PeriodKey string     `db:"period_key"`
	Year      int        `db:"year"`
	Month     int        `db:"month"`
	Status    string     `db:"status"`
	OpenedAt  time.Time  `db:"opened_at"`
	OpenedBy  string     `db:"opened_by"`
	ClosedAt  *time.Time `db:"closed_at"`
	ClosedBy  *string    `db:"closed_by"`
}

// FiscalYear represents a row of the fiscal_years table.
type FiscalYear struct {
	FiscalYearID        string     `db:"fiscal_year_id"`
	Year                int        `db:"year"`
	Status              string     `db:"status"`
	StartDate           time.Time  `db:"start_date"`
	EndDate             time.Time  `db:"end_date"`
	TemporaryOpen       bool       `db:"temporary_open"`
	TemporaryOpenBy     *string    `db:"temporary_open_by"`
	TemporaryOpenAt     *time.Time `db:"temporary_open_at"`
	TemporaryOpenReason *string    `db:"temporary_open_reason"`
	ClosedBy            *string    `db:"closed_by"`
	ClosedAt            *time.Time `db:"closed_at"`
	AuditFields
}

// FiscalYearActivity represents a row of the fiscal_year_activities table.
type FiscalYearActivity struct {
	ActivityID   string    `db:"activity_id"`
	FiscalYearID string    `db:"fiscal_year_id"`
	Action       string    `db:"action"`
	Description  string    `db:"description"`
	Details      []byte    `db:"details"` // jsonb
	UserID       string    `db:"user_id"`
	CreatedAt    time.Time `db:"created_at"`
}

// AuditRecord represents a row of the audit_log table.
type AuditRecord struct {
	AuditID    string    `db:"audit_id"`
	EntityType string    `db:"entity_type"`
	EntityID   string    `db:"entity_id"`
	Action     string    `db:"action"`
	Outcome    string    `db:"outcome"`
	Detail     []byte    `db:"detail"` // jsonb
	ActorID    string    `db:"actor_id"`
	Branch     string    `db:"branch"`
	CreatedAt  time.Time `db:"created_at"`
}
