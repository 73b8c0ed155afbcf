package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the actor lacks the capability for the requested action.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates the resource is in a state that does not allow the operation.
var ErrConflict = errors.New("conflict")

// ErrInternal indicates an unexpected failure, usually in storage.
var ErrInternal = errors.New("internal error")

// Ledger specific failures. Each one maps to a stable reason code, see ReasonCode.
var (
	ErrUnbalancedEntry    = errors.New("entry debits and credits do not balance")
	ErrPeriodClosed       = errors.New("accounting period is closed")
	ErrFiscalYearClosed   = errors.New("fiscal year is closed")
	ErrPeriodNotDefined   = errors.New("accounting period is not defined")
	ErrAccountHasPostings = errors.New("account has postings")
	ErrAccountsExist      = errors.New("chart of accounts is not empty")
	ErrAlreadyPosted      = errors.New("entry is already posted")
	ErrNotPosted          = errors.New("entry is not posted")
	ErrSourceUnbalanced   = errors.New("source fiscal year trial balance is unbalanced")
)

// AppError carries a status-like code and a message around an underlying cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with a code and message.
func NewAppError(code int, message string, err error) *AppError {
	if err == nil {
		err = ErrInternal
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError builds an ErrNotFound for the given entity and identifier.
func NewNotFoundError(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}

// reasons is ordered: the more specific sentinels come first.
var reasons = []struct {
	err  error
	code string
}{
	{ErrUnbalancedEntry, "UNBALANCED_ENTRY"},
	{ErrPeriodClosed, "PERIOD_CLOSED"},
	{ErrFiscalYearClosed, "FISCAL_YEAR_CLOSED"},
	{ErrPeriodNotDefined, "PERIOD_NOT_DEFINED"},
	{ErrAccountHasPostings, "ACCOUNT_HAS_POSTINGS"},
	{ErrAccountsExist, "ACCOUNTS_EXIST"},
	{ErrAlreadyPosted, "ALREADY_POSTED"},
	{ErrNotPosted, "NOT_POSTED"},
	{ErrSourceUnbalanced, "SOURCE_UNBALANCED"},
	{ErrNotFound, "NOT_FOUND"},
	{ErrValidation, "VALIDATION_ERROR"},
	{ErrDuplicate, "DUPLICATE"},
	{ErrForbidden, "FORBIDDEN"},
	{ErrConflict, "CONFLICT"},
}

// ReasonCode returns the machine readable reason for err, or INTERNAL_ERROR.
func ReasonCode(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return "INTERNAL_ERROR"
}

// AutoPostError reports which stage of an auto-post failed and why.
type AutoPostError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *AutoPostError) Error() string {
	return fmt.Sprintf("auto-post failed at %s (%s): %v", e.Stage, e.Reason, e.Err)
}

func (e *AutoPostError) Unwrap() error {
	return e.Err
}

// NewAutoPostError derives the reason from err.
func NewAutoPostError(stage string, err error) *AutoPostError {
	return &AutoPostError{Stage: stage, Reason: ReasonCode(err), Err: err}
}
