package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ewallet/internal/models"
	"ewallet/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testOwner is a minimal Owner for tests.
type testOwner string

func (o testOwner) OwnerRef() models.OwnerRef {
	return models.OwnerRef{Type: "user", ID: string(o)}
}

// countingMetrics records calls so tests can assert retry behavior.
type countingMetrics struct {
	mu           sync.Mutex
	transactions int
	errors       int
	retries      int
}

func (c *countingMetrics) RecordTransaction(string, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transactions++
}

func (c *countingMetrics) RecordError(string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors++
}

func (c *countingMetrics) RecordConflictRetry(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries++
}

func newTestService(repo repositories.LedgerRepository) Service {
	return NewService(repo, nil, nil, Config{}, nil)
}

func TestTopUp(t *testing.T) {
	ctx := context.Background()
	owner := testOwner("alice")

	t.Run("creates wallet and credits balance", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		txn, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 500})
		require.NoError(t, err)

		assert.Equal(t, models.TransactionTypeDeposit, txn.Type)
		assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
		assert.Equal(t, models.TransactionNameTopUp, txn.Name)
		assert.Equal(t, int64(500), txn.Amount)
		assert.NotEqual(t, uuid.Nil, txn.ID)

		assert.Equal(t, 1, repo.walletCount())
		assert.Equal(t, int64(500), repo.balanceOf(owner.OwnerRef()))

		wallet, err := svc.Wallet(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, txn.WalletID, wallet.ID)
		assert.Equal(t, int64(500), wallet.Balance)
	})

	t.Run("reuses the existing wallet", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		first, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 100})
		require.NoError(t, err)
		second, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 250})
		require.NoError(t, err)

		assert.Equal(t, first.WalletID, second.WalletID)
		assert.Equal(t, 1, repo.walletCount())
		assert.Equal(t, int64(350), repo.balanceOf(owner.OwnerRef()))
	})

	t.Run("pending top-up is stored without moving the balance", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		txn, err := svc.TopUp(ctx, owner, TopUpRequest{
			Name:   models.TransactionNameTopUp,
			Amount: 500,
			Status: models.TransactionStatusPending.Ptr(),
		})
		require.NoError(t, err)

		assert.Equal(t, models.TransactionStatusPending, txn.Status)
		assert.Equal(t, 1, repo.transactionCount())
		assert.Equal(t, int64(0), repo.balanceOf(owner.OwnerRef()))
	})

	t.Run("metadata is carried onto the transaction", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		meta := models.JSON{"provider": "stripe", "reference": "ch_123"}
		txn, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 10, Metadata: meta})
		require.NoError(t, err)
		assert.Equal(t, meta, txn.Metadata)
	})

	t.Run("rejects non-positive amounts without touching storage", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		for _, amount := range []int64{0, -1, -500} {
			_, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: amount})
			assert.ErrorIs(t, err, ErrInvalidAmount)
		}
		assert.Equal(t, 0, repo.walletCount())
		assert.Equal(t, 0, repo.transactionCount())
		assert.Equal(t, 0, repo.execCount)
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	owner := testOwner("alice")

	t.Run("debits the balance", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 500})
		require.NoError(t, err)

		txn, err := svc.Withdraw(ctx, owner, WithdrawRequest{Name: models.TransactionNameWithdraw, Amount: 200})
		require.NoError(t, err)

		assert.Equal(t, models.TransactionTypeWithdraw, txn.Type)
		assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
		assert.Equal(t, int64(200), txn.Amount)
		assert.Equal(t, int64(300), repo.balanceOf(owner.OwnerRef()))
	})

	t.Run("insufficient balance leaves no trace", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 100})
		require.NoError(t, err)

		_, err = svc.Withdraw(ctx, owner, WithdrawRequest{Name: models.TransactionNameWithdraw, Amount: 101})
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		assert.Equal(t, 1, repo.transactionCount())
		assert.Equal(t, int64(100), repo.balanceOf(owner.OwnerRef()))
	})

	t.Run("withdrawing the exact balance succeeds", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 100})
		require.NoError(t, err)

		_, err = svc.Withdraw(ctx, owner, WithdrawRequest{Name: models.TransactionNameWithdraw, Amount: 100})
		require.NoError(t, err)
		assert.Equal(t, int64(0), repo.balanceOf(owner.OwnerRef()))
	})

	t.Run("pending withdrawal does not move the balance", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 100})
		require.NoError(t, err)

		txn, err := svc.Withdraw(ctx, owner, WithdrawRequest{
			Name:   models.TransactionNameWithdraw,
			Amount: 60,
			Status: models.TransactionStatusPending.Ptr(),
		})
		require.NoError(t, err)

		assert.Equal(t, models.TransactionStatusPending, txn.Status)
		assert.Equal(t, int64(100), repo.balanceOf(owner.OwnerRef()))
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.Withdraw(ctx, owner, WithdrawRequest{Name: models.TransactionNameWithdraw, Amount: 0})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, 0, repo.execCount)
	})

	t.Run("store failure rolls the unit back and is not retried", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 100})
		require.NoError(t, err)

		boom := errors.New("connection reset")
		repo.failCreate = boom
		repo.execCount = 0

		_, err = svc.Withdraw(ctx, owner, WithdrawRequest{Name: models.TransactionNameWithdraw, Amount: 50})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, repo.execCount)
		assert.Equal(t, int64(100), repo.balanceOf(owner.OwnerRef()))
		assert.Equal(t, 1, repo.transactionCount())
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	alice := testOwner("alice")
	bob := testOwner("bob")

	t.Run("moves funds and records both sides", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.TopUp(ctx, alice, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 1000})
		require.NoError(t, err)

		transfer, err := svc.Transfer(ctx, alice, TransferRequest{
			To:     bob,
			Name:   models.TransactionNameGift,
			Amount: 400,
		})
		require.NoError(t, err)

		require.NotNil(t, transfer.From)
		require.NotNil(t, transfer.To)
		assert.Equal(t, transfer.FromTransactionID, transfer.From.ID)
		assert.Equal(t, transfer.ToTransactionID, transfer.To.ID)
		assert.Equal(t, int64(400), transfer.Amount)

		assert.Equal(t, models.TransactionTypeWithdraw, transfer.From.Type)
		assert.Equal(t, models.TransactionTypeDeposit, transfer.To.Type)
		assert.NotEqual(t, transfer.From.WalletID, transfer.To.WalletID)

		assert.Equal(t, int64(600), repo.balanceOf(alice.OwnerRef()))
		assert.Equal(t, int64(400), repo.balanceOf(bob.OwnerRef()))
		assert.Equal(t, 1, repo.transferCount())
		assert.Equal(t, 3, repo.transactionCount())
	})

	t.Run("per-side metadata lands on the matching side", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.TopUp(ctx, alice, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 100})
		require.NoError(t, err)

		transfer, err := svc.Transfer(ctx, alice, TransferRequest{
			To:           bob,
			Name:         models.TransactionNameGift,
			Amount:       100,
			FromMetadata: models.JSON{"note": "sent"},
			ToMetadata:   models.JSON{"note": "received"},
		})
		require.NoError(t, err)

		assert.Equal(t, models.JSON{"note": "sent"}, transfer.From.Metadata)
		assert.Equal(t, models.JSON{"note": "received"}, transfer.To.Metadata)
	})

	t.Run("creates the destination wallet on demand", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.TopUp(ctx, alice, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 100})
		require.NoError(t, err)
		require.Equal(t, 1, repo.walletCount())

		_, err = svc.Transfer(ctx, alice, TransferRequest{To: bob, Name: models.TransactionNameGift, Amount: 30})
		require.NoError(t, err)
		assert.Equal(t, 2, repo.walletCount())
	})

	t.Run("insufficient balance writes nothing on either side", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.TopUp(ctx, alice, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 100})
		require.NoError(t, err)

		_, err = svc.Transfer(ctx, alice, TransferRequest{To: bob, Name: models.TransactionNameGift, Amount: 150})
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		assert.Equal(t, 1, repo.walletCount())
		assert.Equal(t, 1, repo.transactionCount())
		assert.Equal(t, 0, repo.transferCount())
		assert.Equal(t, int64(100), repo.balanceOf(alice.OwnerRef()))
		assert.Equal(t, int64(0), repo.balanceOf(bob.OwnerRef()))
	})

	t.Run("self transfer records both legs and nets to zero", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.TopUp(ctx, alice, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 100})
		require.NoError(t, err)

		transfer, err := svc.Transfer(ctx, alice, TransferRequest{To: alice, Name: models.TransactionNameGift, Amount: 40})
		require.NoError(t, err)

		assert.Equal(t, transfer.From.WalletID, transfer.To.WalletID)
		assert.Equal(t, int64(100), repo.balanceOf(alice.OwnerRef()))
		assert.Equal(t, 3, repo.transactionCount())
		assert.Equal(t, 1, repo.transferCount())
	})

	t.Run("rejects missing destination", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.Transfer(ctx, alice, TransferRequest{To: nil, Name: models.TransactionNameGift, Amount: 10})
		assert.ErrorIs(t, err, ErrInvalidDestination)
		assert.Equal(t, 0, repo.execCount)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.Transfer(ctx, alice, TransferRequest{To: bob, Name: models.TransactionNameGift, Amount: -5})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, 0, repo.execCount)
	})
}

func TestWallet(t *testing.T) {
	ctx := context.Background()
	owner := testOwner("alice")

	t.Run("not found before any operation", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.Wallet(ctx, owner)
		assert.ErrorIs(t, err, ErrWalletNotFound)
	})

	t.Run("reflects the settled balance", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 300})
		require.NoError(t, err)
		_, err = svc.Withdraw(ctx, owner, WithdrawRequest{Name: models.TransactionNameWithdraw, Amount: 120})
		require.NoError(t, err)

		wallet, err := svc.Wallet(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, int64(180), wallet.Balance)
		assert.Equal(t, "user", wallet.OwnerType)
		assert.Equal(t, "alice", wallet.OwnerID)
	})
}

func TestBalanceMatchesCompletedTransactions(t *testing.T) {
	ctx := context.Background()
	owner := testOwner("alice")
	repo := newMemRepo()
	svc := newTestService(repo)

	pending := models.TransactionStatusPending.Ptr()
	steps := []func() error{
		func() error {
			_, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 500})
			return err
		},
		func() error {
			_, err := svc.Withdraw(ctx, owner, WithdrawRequest{Name: models.TransactionNameWithdraw, Amount: 200})
			return err
		},
		func() error {
			_, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 50, Status: pending})
			return err
		},
		func() error {
			_, err := svc.Withdraw(ctx, owner, WithdrawRequest{Name: models.TransactionNameWithdraw, Amount: 70, Status: pending})
			return err
		},
		func() error {
			_, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 25})
			return err
		},
	}
	for _, step := range steps {
		require.NoError(t, step())
	}

	var fromLedger int64
	for txn, err := range svc.Transactions(ctx, owner) {
		require.NoError(t, err)
		if txn.Status != models.TransactionStatusCompleted {
			continue
		}
		switch txn.Type {
		case models.TransactionTypeDeposit:
			fromLedger += txn.Amount
		case models.TransactionTypeWithdraw:
			fromLedger -= txn.Amount
		}
	}

	wallet, err := svc.Wallet(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(325), wallet.Balance)
	assert.Equal(t, wallet.Balance, fromLedger)
}

func TestRetryOnWriteConflict(t *testing.T) {
	ctx := context.Background()
	owner := testOwner("alice")

	t.Run("recovers within the attempt budget", func(t *testing.T) {
		repo := newMemRepo()
		metrics := &countingMetrics{}
		svc := NewService(repo, nil, nil, Config{MaxAttempts: 3}, metrics)

		repo.conflicts = 2
		txn, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 100})
		require.NoError(t, err)

		assert.Equal(t, int64(100), txn.Amount)
		assert.Equal(t, 3, repo.execCount)
		assert.Equal(t, 2, metrics.retries)
		assert.Equal(t, int64(100), repo.balanceOf(owner.OwnerRef()))
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		repo := newMemRepo()
		metrics := &countingMetrics{}
		svc := NewService(repo, nil, nil, Config{MaxAttempts: 3}, metrics)

		repo.conflicts = 3
		_, err := svc.TopUp(ctx, owner, TopUpRequest{Name: models.TransactionNameTopUp, Amount: 100})

		assert.ErrorIs(t, err, ErrWriteConflict)
		assert.ErrorIs(t, err, repositories.ErrSerialization)
		assert.Equal(t, 3, repo.execCount)
		assert.Equal(t, 3, metrics.retries)
		assert.Equal(t, 1, metrics.errors)
		assert.Equal(t, 0, repo.transactionCount())
	})

	t.Run("deterministic failures are not retried", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewService(repo, nil, nil, Config{MaxAttempts: 3}, nil)

		_, err := svc.Withdraw(ctx, owner, WithdrawRequest{Name: models.TransactionNameWithdraw, Amount: 10})
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Equal(t, 1, repo.execCount)
	})
}
