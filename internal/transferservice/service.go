// Package transferservice manages business logic layer of transfers.
package transferservice

import (
	"context"

	"cardbank/internal/carddelivery"
	"cardbank/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by transfer service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transferservice
type Repo interface {
	Transfer(ctx context.Context, owner string, arg domain.CreateTransferParams) (domain.TransferTxResult, error)
	List(ctx context.Context, arg domain.ListTransfersParams) ([]domain.Transfer, error)
}

// Service facilitates transfer service layer logic.
type Service struct {
	repo        Repo
	cardService carddelivery.Service
}

// New returns transfer service struct to manage transfer business logic.
func New(tr Repo, cs carddelivery.Service) *Service {
	return &Service{
		repo:        tr,
		cardService: cs,
	}
}

// Transfer validates the request and then executes the transfer transaction.
//
// Only cheap structural checks happen here; eligibility that depends on card
// state is decided under row locks inside the transaction.
func (s *Service) Transfer(ctx context.Context, owner string, fromCardID, toCardID int32, amount, description string) (domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TransferTxResult

	if fromCardID == toCardID {
		return result, domain.ErrSameCardTransfer
	}

	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return result, domain.ErrInvalidAmount
	}

	if amountDecimal.LessThanOrEqual(decimal.Zero) {
		return result, domain.ErrNegativeAmount
	}

	arg := domain.CreateTransferParams{
		FromCardID:  fromCardID,
		ToCardID:    toCardID,
		Amount:      amountDecimal,
		Description: description,
	}

	return s.repo.Transfer(ctx, owner, arg)
}

// ListForCard returns the transfer history of one of the owner's cards.
func (s *Service) ListForCard(ctx context.Context, owner string, cardID, pageSize, pageID int32) ([]domain.Transfer, error) {
	if _, err := s.cardService.GetOwned(ctx, cardID, owner); err != nil {
		return nil, err
	}

	arg := domain.ListTransfersParams{
		CardID: cardID,
		Limit:  pageSize,
		Offset: (pageID - 1) * pageSize,
	}

	return s.repo.List(ctx, arg)
}
