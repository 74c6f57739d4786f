package models

import (
	"strconv"

	"gorm.io/gorm"
)

// User is the reference wallet owner shipped with the service. Any
// other entity can own a wallet by exposing an OwnerRef of its own.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	Password     string `gorm:"not null" json:"-"`
	Name         string `gorm:"not null"`
	Role         string `gorm:"default:'user'"`
	TokenVersion int    `gorm:"default:1"`
}

// OwnerRef makes User a ledger owner.
func (u *User) OwnerRef() OwnerRef {
	return OwnerRef{Type: "user", ID: strconv.FormatUint(uint64(u.ID), 10)}
}
