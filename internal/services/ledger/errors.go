package ledger

import "errors"

// Service errors
var (
	ErrInvalidAmount       = errors.New("amount must be greater than 0")
	ErrInvalidDestination  = errors.New("invalid transfer destination")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransformerConfig   = errors.New("transformer configuration invalid")
	ErrWriteConflict       = errors.New("write conflict")
)
