package mapping

import (
	"encoding/json"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/SscSPs/backoffice_ledger/internal/models"
)

// ToModelPeriod converts a domain AccountingPeriod to a model AccountingPeriod
func ToModelPeriod(d domain.AccountingPeriod) models.AccountingPeriod {
	return models.AccountingPeriod{
		PeriodKey: d.PeriodKey,
		Year:      d.Year,
		Month:     d.Month,
		Status:    string(d.Status),
		OpenedAt:  d.OpenedAt,
		OpenedBy:  d.OpenedBy,
		ClosedAt:  d.ClosedAt,
		ClosedBy:  nullable(d.ClosedBy),
	}
}

// ToDomainPeriod converts a model AccountingPeriod to a domain AccountingPeriod
func ToDomainPeriod(m models.AccountingPeriod) domain.AccountingPeriod {
	return domain.AccountingPeriod{
		PeriodKey: m.PeriodKey,
		Year:      m.Year,
		Month:     m.Month,
		Status:    domain.PeriodStatus(m.Status),
		OpenedAt:  m.OpenedAt,
		OpenedBy:  m.OpenedBy,
		ClosedAt:  m.ClosedAt,
		ClosedBy:  deref(m.ClosedBy),
	}
}

// ToModelFiscalYear converts a domain FiscalYear to a model FiscalYear
func ToModelFiscalYear(d domain.FiscalYear) models.FiscalYear {
	return models.FiscalYear{
		FiscalYearID:        d.FiscalYearID,
		Year:                d.Year,
		Status:              string(d.Status),
		StartDate:           d.StartDate,
		EndDate:             d.EndDate,
		TemporaryOpen:       d.TemporaryOpen,
		TemporaryOpenBy:     nullable(d.TemporaryOpenBy),
		TemporaryOpenAt:     d.TemporaryOpenAt,
		TemporaryOpenReason: nullable(d.TemporaryOpenReason),
		ClosedBy:            nullable(d.ClosedBy),
		ClosedAt:            d.ClosedAt,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainFiscalYear converts a model FiscalYear to a domain FiscalYear
func ToDomainFiscalYear(m models.FiscalYear) domain.FiscalYear {
	return domain.FiscalYear{
		FiscalYearID:        m.FiscalYearID,
		Year:                m.Year,
		Status:              domain.FiscalYearStatus(m.Status),
		StartDate:           domain.DateOnly(m.StartDate),
		EndDate:             domain.DateOnly(m.EndDate),
		TemporaryOpen:       m.TemporaryOpen,
		TemporaryOpenBy:     deref(m.TemporaryOpenBy),
		TemporaryOpenAt:     m.TemporaryOpenAt,
		TemporaryOpenReason: deref(m.TemporaryOpenReason),
		ClosedBy:            deref(m.ClosedBy),
		ClosedAt:            m.ClosedAt,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelActivity converts a domain FiscalYearActivity, encoding details as JSON.
func ToModelActivity(d domain.FiscalYearActivity) (models.FiscalYearActivity, error) {
	details, err := marshalDetail(d.Details)
	if err != nil {
		return models.FiscalYearActivity{}, err
	}
	return models.FiscalYearActivity{
		ActivityID:   d.ActivityID,
		FiscalYearID: d.FiscalYearID,
		Action:       d.Action,
		Description:  d.Description,
		Details:      details,
		UserID:       d.UserID,
		CreatedAt:    d.CreatedAt,
	}, nil
}

// ToDomainActivity converts a model FiscalYearActivity, decoding its JSON details.
func ToDomainActivity(m models.FiscalYearActivity) (domain.FiscalYearActivity, error) {
	details, err := unmarshalDetail(m.Details)
	if err != nil {
		return domain.FiscalYearActivity{}, err
	}
	return domain.FiscalYearActivity{
		ActivityID:   m.ActivityID,
		FiscalYearID: m.FiscalYearID,
		Action:       m.Action,
		Description:  m.Description,
		Details:      details,
		UserID:       m.UserID,
		CreatedAt:    m.CreatedAt,
	}, nil
}

// ToModelAuditRecord converts a domain AuditRecord, encoding its detail as JSON.
func ToModelAuditRecord(d domain.AuditRecord) (models.AuditRecord, error) {
	detail, err := marshalDetail(d.Detail)
	if err != nil {
		return models.AuditRecord{}, err
	}
	return models.AuditRecord{
		AuditID:    d.AuditID,
		EntityType: d.EntityType,
		EntityID:   d.EntityID,
		Action:     d.Action,
		Outcome:    d.Outcome,
		Detail:     detail,
		ActorID:    d.ActorID,
		Branch:     d.Branch,
		CreatedAt:  d.CreatedAt,
	}, nil
}

// ToDomainAuditRecord converts a model AuditRecord, decoding its JSON detail.
func ToDomainAuditRecord(m models.AuditRecord) (domain.AuditRecord, error) {
	detail, err := unmarshalDetail(m.Detail)
	if err != nil {
		return domain.AuditRecord{}, err
	}
	return domain.AuditRecord{
		AuditID:    m.AuditID,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Action:     m.Action,
		Outcome:    m.Outcome,
		Detail:     detail,
		ActorID:    m.ActorID,
		Branch:     m.Branch,
		CreatedAt:  m.CreatedAt,
	}, nil
}

func marshalDetail(detail map[string]any) ([]byte, error) {
	if detail == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(detail)
}

func unmarshalDetail(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
