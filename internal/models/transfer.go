package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transfer pairs the two transactions of a money movement between two
// wallets: a Withdraw on the source side and a Deposit on the
// destination side, created in the same database transaction. It is
// immutable once written.
type Transfer struct {
	ID                uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	FromTransactionID uuid.UUID `gorm:"type:uuid;not null" json:"from_transaction_id"`
	ToTransactionID   uuid.UUID `gorm:"type:uuid;not null" json:"to_transaction_id"`
	Amount            int64     `gorm:"not null" json:"amount"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	From *Transaction `gorm:"foreignKey:FromTransactionID" json:"from,omitempty"`
	To   *Transaction `gorm:"foreignKey:ToTransactionID" json:"to,omitempty"`
}

func (t *Transfer) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
