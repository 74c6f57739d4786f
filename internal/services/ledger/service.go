package ledger

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"ewallet/internal/models"
	"ewallet/internal/repositories"
)

type service struct {
	repo         repositories.LedgerRepository
	transformers *Registry
	cache        CacheOperator
	config       Config
	metrics      MetricsCollector
}

// NewService creates the wallet operation engine.
func NewService(
	repo repositories.LedgerRepository,
	transformers *Registry,
	cache CacheOperator,
	config Config,
	metrics MetricsCollector,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if transformers == nil {
		transformers = NewRegistry()
	}
	if cache == nil {
		cache = noopCache{}
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:         repo,
		transformers: transformers,
		cache:        cache,
		config:       config,
		metrics:      metrics,
	}
}

func (s *service) TopUp(ctx context.Context, owner Owner, req TopUpRequest) (*models.Transaction, error) {
	if req.Amount < 1 {
		return nil, ErrInvalidAmount
	}
	transformer, err := s.transformers.topUp()
	if err != nil {
		return nil, err
	}

	var txn *models.Transaction
	err = s.withRetry(ctx, "top_up", func(tx repositories.LedgerRepository) error {
		wallet, err := tx.ResolveWallet(ctx, owner.OwnerRef())
		if err != nil {
			return err
		}

		txn = newTransaction(wallet, models.TransactionTypeDeposit, transformer.TransformTopUp(wallet, req))
		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		if txn.Status == models.TransactionStatusCompleted {
			return tx.AddBalance(ctx, wallet, req.Amount)
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordError("top_up", err.Error())
		return nil, err
	}

	s.cache.InvalidateWallet(ctx, owner.OwnerRef())
	s.metrics.RecordTransaction("top_up", req.Amount)
	return txn, nil
}

func (s *service) Withdraw(ctx context.Context, owner Owner, req WithdrawRequest) (*models.Transaction, error) {
	if req.Amount < 1 {
		return nil, ErrInvalidAmount
	}
	transformer, err := s.transformers.withdraw()
	if err != nil {
		return nil, err
	}

	var txn *models.Transaction
	err = s.withRetry(ctx, "withdraw", func(tx repositories.LedgerRepository) error {
		wallet, err := tx.ResolveWallet(ctx, owner.OwnerRef())
		if err != nil {
			return err
		}

		// Checked against the row-locked balance, so no concurrent
		// withdrawal can pass this check on the same funds.
		if wallet.Balance < req.Amount {
			return ErrInsufficientBalance
		}

		txn = newTransaction(wallet, models.TransactionTypeWithdraw, transformer.TransformWithdraw(wallet, req))
		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		if txn.Status == models.TransactionStatusCompleted {
			return tx.AddBalance(ctx, wallet, -req.Amount)
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordError("withdraw", err.Error())
		return nil, err
	}

	s.cache.InvalidateWallet(ctx, owner.OwnerRef())
	s.metrics.RecordTransaction("withdraw", req.Amount)
	return txn, nil
}

func (s *service) Transfer(ctx context.Context, owner Owner, req TransferRequest) (*models.Transfer, error) {
	if req.Amount < 1 {
		return nil, ErrInvalidAmount
	}
	if req.To == nil {
		return nil, fmt.Errorf("%w: transfer destination is required", ErrInvalidDestination)
	}
	fromTransformer, err := s.transformers.transferFrom()
	if err != nil {
		return nil, err
	}
	toTransformer, err := s.transformers.transferTo()
	if err != nil {
		return nil, err
	}

	var transfer *models.Transfer
	err = s.withRetry(ctx, "transfer", func(tx repositories.LedgerRepository) error {
		fromWallet, err := tx.ResolveWallet(ctx, owner.OwnerRef())
		if err != nil {
			return err
		}
		if fromWallet.Balance < req.Amount {
			return ErrInsufficientBalance
		}
		toWallet, err := tx.ResolveWallet(ctx, req.To.OwnerRef())
		if err != nil {
			return err
		}

		fromTxn := newTransaction(fromWallet, models.TransactionTypeWithdraw, fromTransformer.TransformTransferFrom(fromWallet, req))
		if err := tx.CreateTransaction(ctx, fromTxn); err != nil {
			return err
		}
		toTxn := newTransaction(toWallet, models.TransactionTypeDeposit, toTransformer.TransformTransferTo(toWallet, req))
		if err := tx.CreateTransaction(ctx, toTxn); err != nil {
			return err
		}

		transfer = &models.Transfer{
			FromTransactionID: fromTxn.ID,
			ToTransactionID:   toTxn.ID,
			Amount:            req.Amount,
		}
		if err := tx.CreateTransfer(ctx, transfer); err != nil {
			return err
		}

		// The two sides settle independently: a transformer marking one
		// side non-Completed must not block the other side's update.
		if fromTxn.Status == models.TransactionStatusCompleted {
			if err := tx.AddBalance(ctx, fromWallet, -req.Amount); err != nil {
				return err
			}
		}
		if toTxn.Status == models.TransactionStatusCompleted {
			if err := tx.AddBalance(ctx, toWallet, req.Amount); err != nil {
				return err
			}
		}

		transfer.From = fromTxn
		transfer.To = toTxn
		return nil
	})
	if err != nil {
		s.metrics.RecordError("transfer", err.Error())
		return nil, err
	}

	s.cache.InvalidateWallet(ctx, owner.OwnerRef())
	s.cache.InvalidateWallet(ctx, req.To.OwnerRef())
	s.metrics.RecordTransaction("transfer", req.Amount)
	return transfer, nil
}

func (s *service) Wallet(ctx context.Context, owner Owner) (*models.Wallet, error) {
	ref := owner.OwnerRef()
	if wallet, err := s.cache.GetWallet(ctx, ref); err == nil {
		return wallet, nil
	}

	wallet, err := s.repo.FindWallet(ctx, ref)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	s.cache.SetWallet(ctx, ref, wallet)
	return wallet, nil
}

func (s *service) Transactions(ctx context.Context, owner Owner) iter.Seq2[*models.Transaction, error] {
	return func(yield func(*models.Transaction, error) bool) {
		wallet, err := s.repo.FindWallet(ctx, owner.OwnerRef())
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				// No wallet yet means an empty ledger, not a failure.
				return
			}
			yield(nil, err)
			return
		}

		for offset := 0; ; offset += s.config.PageSize {
			batch, err := s.repo.ListTransactions(ctx, wallet.ID, s.config.PageSize, offset)
			if err != nil {
				yield(nil, err)
				return
			}
			for i := range batch {
				if !yield(&batch[i], nil) {
					return
				}
			}
			if len(batch) < s.config.PageSize {
				return
			}
		}
	}
}

// withRetry re-runs the whole unit of work, wallet resolution included,
// on transient write conflicts; balances may have changed between
// attempts. Deterministic failures are returned as-is.
func (s *service) withRetry(ctx context.Context, operation string, fn func(repositories.LedgerRepository) error) error {
	var err error
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		err = s.repo.ExecuteInTransaction(ctx, fn)
		if err == nil {
			return nil
		}
		if !repositories.IsRetryable(err) {
			return err
		}
		s.metrics.RecordConflictRetry(operation)
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrWriteConflict, s.config.MaxAttempts, err)
}

func newTransaction(wallet *models.Wallet, txType models.TransactionType, fields Fields) *models.Transaction {
	return &models.Transaction{
		WalletID:       wallet.ID,
		Type:           txType,
		Name:           fields.Name,
		Amount:         fields.Amount,
		Status:         fields.Status,
		OpeningBalance: fields.OpeningBalance,
		ClosingBalance: fields.ClosingBalance,
		Metadata:       fields.Metadata,
	}
}

type noopCache struct{}

func (noopCache) GetWallet(context.Context, models.OwnerRef) (*models.Wallet, error) {
	return nil, errors.New("cache disabled")
}
func (noopCache) SetWallet(context.Context, models.OwnerRef, *models.Wallet) error { return nil }
func (noopCache) InvalidateWallet(context.Context, models.OwnerRef) error          { return nil }
