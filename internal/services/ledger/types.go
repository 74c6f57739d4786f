package ledger

import "ewallet/internal/models"

// TopUpRequest asks for a credit against the acting owner's wallet.
// Status defaults to Completed when nil.
type TopUpRequest struct {
	Name     string
	Amount   int64
	Status   *models.TransactionStatus
	Metadata models.JSON
}

// WithdrawRequest asks for a debit against the acting owner's wallet.
// Status defaults to Completed when nil.
type WithdrawRequest struct {
	Name     string
	Amount   int64
	Status   *models.TransactionStatus
	Metadata models.JSON
}

// TransferRequest asks to move Amount from the acting owner's wallet
// to To's wallet. The two sides carry their own metadata.
type TransferRequest struct {
	To           Owner
	Name         string
	Amount       int64
	FromMetadata models.JSON
	ToMetadata   models.JSON
}

// Config holds the engine's tunables.
type Config struct {
	// MaxAttempts bounds the automatic retry on write conflicts.
	MaxAttempts int
	// PageSize is the batch size of the Transactions sequence.
	PageSize int
}

// Default configuration values
const (
	DefaultMaxAttempts = 3
	DefaultPageSize    = 100
)
