package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/platform/metrics"
	"github.com/SscSPs/backoffice_ledger/internal/utils/accounting"
	"github.com/go-playground/validator/v10"
)

// Auto-post stages, reported on failure.
const (
	StageValidate        = "validate"
	StageResolveAccounts = "resolve_accounts"
	StageBalance         = "balance"
	StagePeriodGate      = "period_gate"
	StagePersist         = "persist"
	StageLink            = "link"
)

type autoPostService struct {
	BaseService
	accounts portssvc.AccountReaderSvc
	gate     portssvc.PeriodGateSvc
	ledger   portssvc.LedgerWriterSvc
	tx       portsrepo.TransactionManager
	validate *validator.Validate

	mu      sync.RWMutex
	linkers map[string]portssvc.RecordLinker
}

// NewAutoPostService creates the gateway domain writers use to post business events.
func NewAutoPostService(accounts portssvc.AccountReaderSvc, gate portssvc.PeriodGateSvc, ledger portssvc.LedgerWriterSvc, tx portsrepo.TransactionManager, opts ...ServiceOption) portssvc.AutoPostSvc {
	return &autoPostService{
		BaseService: newBaseService(opts),
		accounts:    accounts,
		gate:        gate,
		ledger:      ledger,
		tx:          tx,
		validate:    validator.New(),
		linkers:     make(map[string]portssvc.RecordLinker),
	}
}

var _ portssvc.AutoPostSvc = (*autoPostService)(nil)

func (s *autoPostService) RegisterLinker(referenceType string, linker portssvc.RecordLinker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkers[referenceType] = linker
}

func (s *autoPostService) linker(referenceType string) portssvc.RecordLinker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.linkers[referenceType]
}

func (s *autoPostService) fail(ctx context.Context, stage string, err error, req dto.AutoPostRequest) *apperrors.AutoPostError {
	failure := apperrors.NewAutoPostError(stage, err)
	metrics.AutoPostFailures.WithLabelValues(stage).Inc()
	s.LogInfo(ctx, "Auto-post rejected",
		slog.String("stage", stage),
		slog.String("reason", failure.Reason),
		slog.String("reference_type", req.ReferenceType),
		slog.String("reference_id", req.ReferenceID),
		slog.String("error", err.Error()))
	return failure
}

func (s *autoPostService) AutoPost(ctx context.Context, req dto.AutoPostRequest, actor domain.Actor) (*domain.JournalEntry, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, s.fail(ctx, StageValidate, fmt.Errorf("%w: %v", apperrors.ErrValidation, err), req)
	}
	if req.Date.IsZero() {
		return nil, s.fail(ctx, StageValidate, fmt.Errorf("%w: date is required", apperrors.ErrValidation), req)
	}
	probe := make([]domain.Posting, len(req.Lines))
	codes := make([]string, 0, len(req.Lines))
	seen := make(map[string]bool, len(req.Lines))
	for i, l := range req.Lines {
		probe[i] = domain.Posting{LineNo: i + 1, Debit: l.Debit, Credit: l.Credit}
		if !seen[l.AccountCode] {
			seen[l.AccountCode] = true
			codes = append(codes, l.AccountCode)
		}
	}
	if err := accounting.ValidatePostingLines(probe); err != nil {
		return nil, s.fail(ctx, StageValidate, err, req)
	}

	accounts, err := s.accounts.ResolveCodes(ctx, codes)
	if err != nil {
		return nil, s.fail(ctx, StageResolveAccounts, err, req)
	}

	if err := accounting.ValidateEntryBalance(probe); err != nil {
		return nil, s.fail(ctx, StageBalance, err, req)
	}

	lines := make([]dto.PostingLineRequest, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = dto.PostingLineRequest{
			Account: accounts[l.AccountCode].AccountID,
			Debit:   l.Debit,
			Credit:  l.Credit,
			Memo:    l.Memo,
		}
	}

	var (
		entry *domain.JournalEntry
		stage string
	)
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		stage = StagePeriodGate
		if _, err := s.gate.CheckMutable(txCtx, req.Date, domain.GateRequest{Action: domain.ActionAutoPost, Branch: req.Branch}, actor); err != nil {
			return err
		}

		stage = StagePersist
		var err error
		entry, err = s.ledger.CreateAndPost(txCtx, dto.CreateEntryRequest{
			Date:          req.Date,
			Description:   req.Description,
			Branch:        req.Branch,
			ReferenceType: req.ReferenceType,
			ReferenceID:   req.ReferenceID,
			Lines:         lines,
		}, domain.ActionAutoPost, actor)
		if err != nil {
			return err
		}

		stage = StageLink
		if linker := s.linker(req.ReferenceType); linker != nil {
			return linker.LinkEntry(txCtx, req.ReferenceID, entry.EntryID)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, stage, err, req)
	}
	s.LogInfo(ctx, "Auto-post succeeded",
		slog.String("entry_id", entry.EntryID),
		slog.String("reference_type", req.ReferenceType),
		slog.String("reference_id", req.ReferenceID))
	return entry, nil
}

func (s *autoPostService) PostWithCompensation(ctx context.Context, req dto.AutoPostRequest, actor domain.Actor, compensate portssvc.CompensateFunc) (*domain.JournalEntry, error) {
	entry, err := s.AutoPost(ctx, req, actor)
	if err == nil {
		return entry, nil
	}
	if compensate == nil {
		return nil, err
	}

	var failure *apperrors.AutoPostError
	if !errors.As(err, &failure) {
		failure = apperrors.NewAutoPostError(StagePersist, err)
	}
	if cerr := compensate(ctx, failure); cerr != nil {
		s.LogError(ctx, cerr, "Compensation after failed auto-post also failed",
			slog.String("reference_type", req.ReferenceType),
			slog.String("reference_id", req.ReferenceID))
		return nil, errors.Join(err, cerr)
	}
	return nil, err
}
