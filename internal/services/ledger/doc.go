/*
Package ledger implements the wallet operation engine: it attaches a
monetary balance to any owner entity and records every balance change
as an immutable transaction, pairing transactions into transfers when
money moves between two wallets.

Usage:

	svc := ledger.NewService(repo, ledger.NewRegistry(), cache, ledger.Config{}, nil)

	// Any entity exposing an OwnerRef can own a wallet.
	account := ledger.NewOwnerWallet(user, svc)

	txn, err := account.TopUp(ctx, ledger.TopUpRequest{
	    Name:   models.TransactionNameTopUp,
	    Amount: 1500,
	})

	transfer, err := account.Transfer(ctx, ledger.TransferRequest{
	    To:     otherUser,
	    Name:   models.TransactionNameGift,
	    Amount: 500,
	})

Each of TopUp, Withdraw and Transfer runs as one atomic unit of work:
wallet resolution (created on first use), transformer application,
transaction and transfer persistence, and the conditional balance
update all commit or roll back together. The wallet row is locked for
update inside the unit, and the whole unit is retried up to
Config.MaxAttempts when the store reports a write conflict.

Balance only moves for transactions written with status Completed.
Transformers decide that status at creation time; the engine never
transitions a transaction between statuses afterwards.

Transformers:

The mapping from request data to stored transaction fields is
pluggable per deployment through a Registry holding one implementation
per Role. A registered implementation that does not satisfy its role's
interface surfaces ErrTransformerConfig before anything is written.

Error Handling:

  - ErrInvalidAmount: amount < 1, checked before the unit of work starts
  - ErrInsufficientBalance: balance too low at check time, nothing written
  - ErrTransformerConfig: wiring defect, nothing written
  - ErrWriteConflict: contention retries exhausted; wraps the store error
  - anything else propagates from the store unmodified
*/
package ledger
