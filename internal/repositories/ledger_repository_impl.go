package repositories

import (
	"context"
	"errors"
	"fmt"

	"ewallet/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db   *gorm.DB
	inTx bool
}

// NewLedgerRepository creates a ledger repository backed by GORM.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) FindWallet(ctx context.Context, owner models.OwnerRef) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", owner.Type, owner.ID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) ResolveWallet(ctx context.Context, owner models.OwnerRef) (*models.Wallet, error) {
	var wallet models.Wallet
	query := r.db.WithContext(ctx)
	if r.inTx {
		// The row lock is held until commit, so the balance read here
		// stays valid for the balance write of the same unit of work.
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := query.
		Where("owner_type = ? AND owner_id = ?", owner.Type, owner.ID).
		First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	wallet = models.Wallet{OwnerType: owner.Type, OwnerID: owner.ID}
	if err := r.db.WithContext(ctx).Create(&wallet).Error; err != nil {
		// A concurrent first operation for the same owner can win the
		// insert race on the owner index; IsRetryable reports that as a
		// retryable conflict and the next attempt resolves the winner.
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *ledgerRepository) CreateTransfer(ctx context.Context, transfer *models.Transfer) error {
	if err := r.db.WithContext(ctx).Create(transfer).Error; err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

func (r *ledgerRepository) AddBalance(ctx context.Context, wallet *models.Wallet, delta int64) error {
	var balance int64
	err := r.db.WithContext(ctx).
		Raw("UPDATE wallets SET balance = balance + ?, updated_at = NOW() WHERE id = ? RETURNING balance",
			delta, wallet.ID).
		Scan(&balance).Error
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	wallet.Balance = balance
	return nil
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

func (r *ledgerRepository) ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx, inTx: true})
	})
}
