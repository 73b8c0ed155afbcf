package domain

import (
	"time"
)

// PeriodStatus is the open/closed state of a calendar month.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "open"
	PeriodClosed PeriodStatus = "closed"
)

// AccountingPeriod is one calendar month, keyed YYYY-MM.
type AccountingPeriod struct {
	PeriodKey string       `json:"periodKey"`
	Year      int          `json:"year"`
	Month     int          `json:"month"`
	Status    PeriodStatus `json:"status"`
	OpenedAt  time.Time    `json:"openedAt"`
	OpenedBy  string       `json:"openedBy"`
	ClosedAt  *time.Time   `json:"closedAt,omitempty"`
	ClosedBy  string       `json:"closedBy,omitempty"`
}

// PeriodKeyFor derives the YYYY-MM key of date.
func PeriodKeyFor(date time.Time) string {
	return date.Format("2006-01")
}

// ParsePeriodKey validates a YYYY-MM key and returns the first day of the month.
func ParsePeriodKey(key string) (time.Time, error) {
	return time.Parse("2006-01", key)
}

// NewAccountingPeriod builds an open period containing date.
func NewAccountingPeriod(date time.Time, userID string, at time.Time) AccountingPeriod {
	return AccountingPeriod{
		PeriodKey: PeriodKeyFor(date),
		Year:      date.Year(),
		Month:     int(date.Month()),
		Status:    PeriodOpen,
		OpenedAt:  at,
		OpenedBy:  userID,
	}
}

// FiscalYearStatus is the lifecycle state of a fiscal year.
type FiscalYearStatus string

const (
	FiscalYearOpen     FiscalYearStatus = "open"
	FiscalYearClosed   FiscalYearStatus = "closed"
	FiscalYearRollover FiscalYearStatus = "rollover"
)

// FiscalYear is one calendar year of accounting.
type FiscalYear struct {
	FiscalYearID        string           `json:"fiscalYearID"`
	Year                int              `json:"year"`
	Status              FiscalYearStatus `json:"status"`
	StartDate           time.Time        `json:"startDate"`
	EndDate             time.Time        `json:"endDate"`
	TemporaryOpen       bool             `json:"temporaryOpen"`
	TemporaryOpenBy     string           `json:"temporaryOpenBy,omitempty"`
	TemporaryOpenAt     *time.Time       `json:"temporaryOpenAt,omitempty"`
	TemporaryOpenReason string           `json:"temporaryOpenReason,omitempty"`
	ClosedBy            string           `json:"closedBy,omitempty"`
	ClosedAt            *time.Time       `json:"closedAt,omitempty"`
	AuditFields
}

// CanCreateEntries is true while the year is open or temporarily reopened.
func (f FiscalYear) CanCreateEntries() bool {
	return f.Status == FiscalYearOpen || f.TemporaryOpen
}

// Contains reports whether date falls inside the year's span.
func (f FiscalYear) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(f.StartDate) && !d.After(f.EndDate)
}

// CalendarYearSpan returns Jan 1 and Dec 31 of year.
func CalendarYearSpan(year int) (time.Time, time.Time) {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// Fiscal year activity actions.
const (
	ActivityOpen           = "open"
	ActivityClose          = "close"
	ActivityTemporaryOpen  = "temporary_open"
	ActivityTemporaryClose = "temporary_close"
	ActivityRollover       = "rollover"
	ActivityRolloverTarget = "rollover_target_created"
)

// FiscalYearActivity is an append-only row describing something done to a fiscal year.
type FiscalYearActivity struct {
	ActivityID   string         `json:"activityID"`
	FiscalYearID string         `json:"fiscalYearID"`
	Action       string         `json:"action"`
	Description  string         `json:"description"`
	Details      map[string]any `json:"details,omitempty"`
	UserID       string         `json:"userID"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// GateAction names the mutation a writer wants to perform on a date.
type GateAction string

const (
	ActionCreate        GateAction = "create"
	ActionUpdate        GateAction = "update"
	ActionPost          GateAction = "post"
	ActionReverse       GateAction = "reverse"
	ActionReturnToDraft GateAction = "return_to_draft"
	ActionRemove        GateAction = "remove"
	ActionImport        GateAction = "import"
	ActionAutoPost      GateAction = "auto_post"
	ActionRollover      GateAction = "rollover"
)

// IsSensitive marks actions that may pass a closed period with an override capability.
func (a GateAction) IsSensitive() bool {
	switch a {
	case ActionReverse, ActionReturnToDraft, ActionRemove:
		return true
	}
	return false
}

// GateRequest describes a mutation attempt checked by the period gate.
type GateRequest struct {
	Action GateAction
	Branch string
	Strict bool
}

// GateDecision is returned when a mutation is allowed.
type GateDecision struct {
	PeriodKey    string `json:"periodKey"`
	FiscalYearID string `json:"fiscalYearID,omitempty"`
	Overridden   bool   `json:"overridden"`
}
