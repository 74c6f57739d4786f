package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionType classifies the direction of a transaction. It is
// decided by the operation that created the record, never by the caller.
type TransactionType uint8

const (
	TransactionTypeWithdraw TransactionType = 0
	TransactionTypeDeposit  TransactionType = 1
)

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeWithdraw:
		return "withdraw"
	case TransactionTypeDeposit:
		return "deposit"
	}
	return "unknown"
}

// TransactionStatus is the settlement state written at creation time.
// Only Completed triggers a balance change; the ledger never moves a
// transaction between statuses after creation.
type TransactionStatus uint8

const (
	TransactionStatusPending   TransactionStatus = 0
	TransactionStatusCompleted TransactionStatus = 1
	TransactionStatusCancelled TransactionStatus = 2
	TransactionStatusFailed    TransactionStatus = 3
	TransactionStatusRefunded  TransactionStatus = 4
)

func (s TransactionStatus) String() string {
	switch s {
	case TransactionStatusPending:
		return "pending"
	case TransactionStatusCompleted:
		return "completed"
	case TransactionStatusCancelled:
		return "cancelled"
	case TransactionStatusFailed:
		return "failed"
	case TransactionStatusRefunded:
		return "refunded"
	}
	return "unknown"
}

// Ptr is a convenience for request structs that take an optional status.
func (s TransactionStatus) Ptr() *TransactionStatus { return &s }

// Common transaction names. The column is an open-ended string; these
// are just the classifications the stock transformers use.
const (
	TransactionNameTopUp    = "top_up"
	TransactionNameWithdraw = "withdraw"
	TransactionNameGift     = "gift"
	TransactionNamePurchase = "purchase"
)

// Transaction is an immutable record of a single balance-affecting (or
// not-yet-affecting) event against one wallet. Amount is always
// positive; direction lives in Type.
type Transaction struct {
	ID             uuid.UUID         `gorm:"type:uuid;primarykey" json:"id"`
	WalletID       uuid.UUID         `gorm:"type:uuid;index;not null" json:"wallet_id"`
	Type           TransactionType   `gorm:"not null;index" json:"type"`
	Name           string            `gorm:"not null" json:"name"`
	Amount         int64             `gorm:"not null" json:"amount"`
	Status         TransactionStatus `gorm:"not null;index" json:"status"`
	OpeningBalance *int64            `json:"opening_balance,omitempty"`
	ClosingBalance *int64            `json:"closing_balance,omitempty"`
	Metadata       JSON              `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
