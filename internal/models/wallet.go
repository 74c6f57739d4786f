package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnerRef is a weak reference to the entity a wallet is attached to.
// The wallet never owns its owner, so nothing here cascades.
type OwnerRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Wallet holds a single integer balance in minor currency units and is
// attached to exactly one owner. The balance is only mutated by the
// ledger service, inside a locked database transaction.
type Wallet struct {
	ID        uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	OwnerType string    `gorm:"not null;uniqueIndex:idx_wallets_owner" json:"owner_type"`
	OwnerID   string    `gorm:"not null;uniqueIndex:idx_wallets_owner" json:"owner_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	// Wallets always start empty; balance arrives through transactions.
	w.Balance = 0
	return nil
}

// Owner returns the wallet's owner reference.
func (w *Wallet) Owner() OwnerRef {
	return OwnerRef{Type: w.OwnerType, ID: w.OwnerID}
}
