package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrSameCardTransfer indicates that source and destination cards are the same.
	ErrSameCardTransfer = errors.New("cannot transfer to the same card")
	// ErrInvalidAmount indicates an unparseable amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount indicates a zero or negative amount.
	ErrNegativeAmount = errors.New("amount must be greater than 0")
	// ErrTransferNotFound indicates that the transfer is not found.
	ErrTransferNotFound = errors.New("transfer not found")
)

// TransferStatus is the terminal status of a ledger record.
type TransferStatus string

// TransferStatusSuccess is the only status the engine writes: a transfer row
// exists if and only if both balance mutations committed.
const TransferStatusSuccess TransferStatus = "SUCCESS"

// Transfer is an immutable receipt of a completed transfer between two cards.
type Transfer struct {
	ID          int64           `json:"id"`
	FromCardID  int32           `json:"from_card_id"`
	ToCardID    int32           `json:"to_card_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      TransferStatus  `json:"status"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateTransferParams is the input data for the transfer transaction.
type CreateTransferParams struct {
	FromCardID  int32           `json:"from_card_id"`
	ToCardID    int32           `json:"to_card_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// ListTransfersParams is the input data to list a card's transfer history.
type ListTransfersParams struct {
	CardID int32 `json:"card_id"`
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

// TransferTxResult is the result of the transfer transaction.
type TransferTxResult struct {
	Transfer Transfer `json:"transfer"`
	FromCard Card     `json:"from_card"`
	ToCard   Card     `json:"to_card"`
}
