package ledger

import (
	"context"
	"sync"
	"time"

	"ewallet/internal/models"
	"ewallet/internal/repositories"

	"github.com/google/uuid"
)

// memRepo is an in-memory LedgerRepository used by the tests in this
// package. ExecuteInTransaction serializes units of work behind one
// mutex, giving the same effective isolation as the row-locked
// Postgres implementation, and rolls every write back when the unit
// returns an error. Mocks cannot express read-your-writes semantics,
// which the balance and concurrency tests depend on.
type memRepo struct {
	mu           sync.Mutex
	wallets      map[models.OwnerRef]*models.Wallet
	transactions []models.Transaction
	transfers    []models.Transfer

	// conflicts fails that many upcoming units with a serialization
	// error before running them; execCount counts started units.
	conflicts  int
	execCount  int
	failCreate error
}

func newMemRepo() *memRepo {
	return &memRepo{wallets: make(map[models.OwnerRef]*models.Wallet)}
}

func (m *memRepo) ExecuteInTransaction(ctx context.Context, fn func(repositories.LedgerRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.execCount++
	if m.conflicts > 0 {
		m.conflicts--
		return repositories.ErrSerialization
	}

	snapshot := m.snapshot()
	if err := fn(&memTx{m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

func (m *memRepo) FindWallet(ctx context.Context, owner models.OwnerRef) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).FindWallet(ctx, owner)
}

func (m *memRepo) ResolveWallet(ctx context.Context, owner models.OwnerRef) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).ResolveWallet(ctx, owner)
}

func (m *memRepo) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).CreateTransaction(ctx, txn)
}

func (m *memRepo) CreateTransfer(ctx context.Context, transfer *models.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).CreateTransfer(ctx, transfer)
}

func (m *memRepo) AddBalance(ctx context.Context, wallet *models.Wallet, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).AddBalance(ctx, wallet, delta)
}

func (m *memRepo) ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).ListTransactions(ctx, walletID, limit, offset)
}

// Inspection helpers for assertions. Locked so they are safe to call
// while worker goroutines are still running.

func (m *memRepo) balanceOf(owner models.OwnerRef) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.wallets[owner]; ok {
		return w.Balance
	}
	return 0
}

func (m *memRepo) walletCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.wallets)
}

func (m *memRepo) transactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

func (m *memRepo) transferCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transfers)
}

type memSnapshot struct {
	wallets      map[models.OwnerRef]*models.Wallet
	transactions int
	transfers    int
}

func (m *memRepo) snapshot() memSnapshot {
	wallets := make(map[models.OwnerRef]*models.Wallet, len(m.wallets))
	for ref, w := range m.wallets {
		copied := *w
		wallets[ref] = &copied
	}
	return memSnapshot{
		wallets:      wallets,
		transactions: len(m.transactions),
		transfers:    len(m.transfers),
	}
}

func (m *memRepo) restore(s memSnapshot) {
	m.wallets = s.wallets
	m.transactions = m.transactions[:s.transactions]
	m.transfers = m.transfers[:s.transfers]
}

// memTx is the unlocked view handed to a unit of work.
type memTx struct {
	r *memRepo
}

func (t *memTx) FindWallet(ctx context.Context, owner models.OwnerRef) (*models.Wallet, error) {
	if w, ok := t.r.wallets[owner]; ok {
		copied := *w
		return &copied, nil
	}
	return nil, repositories.ErrWalletNotFound
}

func (t *memTx) ResolveWallet(ctx context.Context, owner models.OwnerRef) (*models.Wallet, error) {
	if w, ok := t.r.wallets[owner]; ok {
		copied := *w
		return &copied, nil
	}
	wallet := &models.Wallet{
		ID:        uuid.New(),
		OwnerType: owner.Type,
		OwnerID:   owner.ID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	t.r.wallets[owner] = wallet
	copied := *wallet
	return &copied, nil
}

func (t *memTx) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if t.r.failCreate != nil {
		return t.r.failCreate
	}
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt
	t.r.transactions = append(t.r.transactions, *txn)
	return nil
}

func (t *memTx) CreateTransfer(ctx context.Context, transfer *models.Transfer) error {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	transfer.CreatedAt = time.Now()
	transfer.UpdatedAt = transfer.CreatedAt
	stored := *transfer
	stored.From, stored.To = nil, nil
	t.r.transfers = append(t.r.transfers, stored)
	return nil
}

func (t *memTx) AddBalance(ctx context.Context, wallet *models.Wallet, delta int64) error {
	for _, w := range t.r.wallets {
		if w.ID == wallet.ID {
			w.Balance += delta
			w.UpdatedAt = time.Now()
			wallet.Balance = w.Balance
			return nil
		}
	}
	return repositories.ErrWalletNotFound
}

func (t *memTx) ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var matched []models.Transaction
	for _, txn := range t.r.transactions {
		if txn.WalletID == walletID {
			matched = append(matched, txn)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (t *memTx) ExecuteInTransaction(ctx context.Context, fn func(repositories.LedgerRepository) error) error {
	// Nested units share the outer one.
	return fn(t)
}
