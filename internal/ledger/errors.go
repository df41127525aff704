package ledger

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("movement not found")

// ValidationError is a recoverable input problem. Nothing is written when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

var (
	ErrNothingSelected     = &ValidationError{Msg: "nothing selected"}
	ErrMissingMethod       = &ValidationError{Msg: "missing payment method"}
	ErrInvalidSettleMethod = &ValidationError{Msg: "invalid settlement method"}
	ErrNoValidPending      = &ValidationError{Msg: "no valid pending items"}
	ErrStaleSelection      = &ValidationError{Msg: "selection contains settled or unknown movements"}
	ErrOnAccountCustomer   = &ValidationError{Msg: "on-account requires customer"}
	ErrOnAccountKind       = &ValidationError{Msg: "on-account is only available for sales"}
	ErrAmountNotPositive   = &ValidationError{Msg: "amount must be positive"}
	ErrInvalidKind         = &ValidationError{Msg: "invalid movement kind"}
	ErrInvalidMethod       = &ValidationError{Msg: "invalid payment method"}
	ErrPaymentKind         = &ValidationError{Msg: "payments are created by settlement only"}
	ErrMissingDescription  = &ValidationError{Msg: "description is required"}
	ErrInvalidRange        = &ValidationError{Msg: "invalid range"}
)

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps a persistence failure. The operation did not apply.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
