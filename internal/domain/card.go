// Package domain provides definitions of all entities.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrCardNotFound indicates that the card is not found or does not belong to the requester.
	ErrCardNotFound = errors.New("card not found")
	// ErrCardNotActive indicates that the card status forbids transfers.
	ErrCardNotActive = errors.New("card is not active")
	// ErrCardExpired indicates that the card expiry date has passed.
	ErrCardExpired = errors.New("card has expired")
	// ErrInsufficientBalance indicates that the card does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrExpiryInPast indicates an attempt to create a card that is already expired.
	ErrExpiryInPast = errors.New("expiry date is in the past")
	// ErrOwnerNotFound indicates that the owner for the card is not found.
	ErrOwnerNotFound = errors.New("owner not found")
)

// CardStatus is the lifecycle status of a card.
type CardStatus string

// All card statuses.
const (
	CardStatusActive  CardStatus = "ACTIVE"
	CardStatusBlocked CardStatus = "BLOCKED"
)

// Card holds a user's card data. The raw card number is stored encrypted and
// is never serialized; only the mask leaves the service.
type Card struct {
	ID              int32           `json:"id"`
	Owner           string          `json:"owner"`
	EncryptedNumber string          `json:"-"`
	MaskedNumber    string          `json:"masked_number"`
	HolderName      string          `json:"holder_name"`
	ExpiryDate      time.Time       `json:"expiry_date"`
	Status          CardStatus      `json:"status"`
	Balance         decimal.Decimal `json:"balance"`
	Version         int64           `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsExpired reports whether the card is transfer-ineligible on the given day.
func (c Card) IsExpired(today time.Time) bool {
	return c.ExpiryDate.Before(today.Truncate(24 * time.Hour))
}

// CreateCardParams is the input data to persist a new card.
type CreateCardParams struct {
	Owner           string          `json:"owner"`
	EncryptedNumber string          `json:"-"`
	MaskedNumber    string          `json:"masked_number"`
	HolderName      string          `json:"holder_name"`
	ExpiryDate      time.Time       `json:"expiry_date"`
	Balance         decimal.Decimal `json:"balance"`
}

// ListCardsParams is the input data to filter cards.
//
// Zero valued filters are ignored. Owner empty means all owners (admin listing).
type ListCardsParams struct {
	Owner      string
	Status     CardStatus
	HolderName string
	Last4      string
	ExpiryFrom time.Time
	ExpiryTo   time.Time
	Limit      int32
	Offset     int32
}
