package ledger

import (
	"context"
	"iter"

	"ewallet/internal/models"
)

// Owner is anything that can have a wallet. Implementations only need
// to expose a stable owner reference; the service does the rest.
type Owner interface {
	OwnerRef() models.OwnerRef
}

// Service is the wallet operation engine.
type Service interface {
	// TopUp credits the owner's wallet, creating it on first use.
	TopUp(ctx context.Context, owner Owner, req TopUpRequest) (*models.Transaction, error)

	// Withdraw debits the owner's wallet after a balance check.
	Withdraw(ctx context.Context, owner Owner, req WithdrawRequest) (*models.Transaction, error)

	// Transfer moves funds from the owner's wallet to another owner's,
	// recording a Withdraw and a Deposit transaction paired by one
	// Transfer row, all in a single atomic unit.
	Transfer(ctx context.Context, owner Owner, req TransferRequest) (*models.Transfer, error)

	// Wallet resolves the owner's wallet without creating one.
	Wallet(ctx context.Context, owner Owner) (*models.Wallet, error)

	// Transactions yields the owner's transactions in creation order.
	// The sequence is lazy and restartable; iterating it again re-reads
	// the store.
	Transactions(ctx context.Context, owner Owner) iter.Seq2[*models.Transaction, error]
}

// CacheOperator is the wallet read cache the service invalidates after
// every balance change.
type CacheOperator interface {
	GetWallet(ctx context.Context, owner models.OwnerRef) (*models.Wallet, error)
	SetWallet(ctx context.Context, owner models.OwnerRef, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, owner models.OwnerRef) error
}
