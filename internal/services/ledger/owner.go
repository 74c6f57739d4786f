package ledger

import (
	"context"
	"iter"

	"ewallet/internal/models"
)

// OwnerWallet binds an Owner to the engine, giving the owner the full
// wallet capability surface: resolve the wallet, list its ledger, and
// run the three money operations as itself.
type OwnerWallet struct {
	owner Owner
	svc   Service
}

func NewOwnerWallet(owner Owner, svc Service) *OwnerWallet {
	if owner == nil {
		panic("owner is required")
	}
	if svc == nil {
		panic("service is required")
	}
	return &OwnerWallet{owner: owner, svc: svc}
}

// Wallet resolves the associated wallet without creating one.
func (ow *OwnerWallet) Wallet(ctx context.Context) (*models.Wallet, error) {
	return ow.svc.Wallet(ctx, ow.owner)
}

// Transactions yields the owner's transactions in creation order.
func (ow *OwnerWallet) Transactions(ctx context.Context) iter.Seq2[*models.Transaction, error] {
	return ow.svc.Transactions(ctx, ow.owner)
}

func (ow *OwnerWallet) TopUp(ctx context.Context, req TopUpRequest) (*models.Transaction, error) {
	return ow.svc.TopUp(ctx, ow.owner, req)
}

func (ow *OwnerWallet) Withdraw(ctx context.Context, req WithdrawRequest) (*models.Transaction, error) {
	return ow.svc.Withdraw(ctx, ow.owner, req)
}

func (ow *OwnerWallet) Transfer(ctx context.Context, req TransferRequest) (*models.Transfer, error) {
	return ow.svc.Transfer(ctx, ow.owner, req)
}
