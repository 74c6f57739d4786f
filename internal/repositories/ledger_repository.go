package repositories

import (
	"context"
	"errors"

	"ewallet/internal/models"

	"github.com/google/uuid"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransferNotFound    = errors.New("transfer not found")
)

// LedgerRepository defines the storage operations the ledger service
// runs against. Inside ExecuteInTransaction the same interface is
// handed back bound to the open database transaction, so every write
// of one wallet operation shares one atomic unit.
type LedgerRepository interface {
	// FindWallet resolves the wallet for an owner without creating one.
	FindWallet(ctx context.Context, owner models.OwnerRef) (*models.Wallet, error)

	// ResolveWallet returns the owner's wallet, creating an empty one on
	// first use. Inside a transaction the returned row is locked for
	// update until commit.
	ResolveWallet(ctx context.Context, owner models.OwnerRef) (*models.Wallet, error)

	// CreateTransaction appends an immutable transaction row.
	CreateTransaction(ctx context.Context, txn *models.Transaction) error

	// CreateTransfer appends the pairing row of a two-sided transfer.
	CreateTransfer(ctx context.Context, transfer *models.Transfer) error

	// AddBalance applies a signed delta to the wallet row and refreshes
	// the in-memory balance.
	AddBalance(ctx context.Context, wallet *models.Wallet, delta int64) error

	// ListTransactions returns one page of a wallet's transactions in
	// creation order.
	ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error)

	// ExecuteInTransaction runs fn inside one atomic unit of work.
	ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error
}
