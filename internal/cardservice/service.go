// Package cardservice manages business logic layer of cards.
package cardservice

import (
	"context"
	"time"

	"cardbank/internal/domain"
	"cardbank/pkg/cryptopkg"
	"cardbank/pkg/errorspkg"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by card service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package cardservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateCardParams) (domain.Card, error)
	Get(ctx context.Context, id int32) (domain.Card, error)
	GetOwned(ctx context.Context, id int32, owner string) (domain.Card, error)
	List(ctx context.Context, arg domain.ListCardsParams) ([]domain.Card, error)
	SetStatus(ctx context.Context, id int32, status domain.CardStatus) (domain.Card, error)
	Delete(ctx context.Context, id int32) error
}

// Service facilitates card service layer logic.
type Service struct {
	repo   Repo
	crypto *cryptopkg.Service
}

// New returns card service struct to manage card business logic.
func New(cr Repo, crypto *cryptopkg.Service) *Service {
	return &Service{
		repo:   cr,
		crypto: crypto,
	}
}

// Create encrypts the card number, derives the mask once and persists the card.
//
// The raw number is gone after this call; only the ciphertext and the mask are stored.
func (s *Service) Create(ctx context.Context, owner, number, holderName string, expiryDate time.Time, balance decimal.Decimal) (domain.Card, error) {
	l := zerolog.Ctx(ctx)

	var card domain.Card

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if expiryDate.Before(today) {
		return card, domain.ErrExpiryInPast
	}

	encrypted, err := s.crypto.Encrypt(number)
	if err != nil {
		l.Error().Err(err).Send()
		return card, errorspkg.ErrInternal
	}

	arg := domain.CreateCardParams{
		Owner:           owner,
		EncryptedNumber: encrypted,
		MaskedNumber:    cryptopkg.Mask(number),
		HolderName:      holderName,
		ExpiryDate:      expiryDate,
		Balance:         balance,
	}

	return s.repo.Create(ctx, arg)
}

// Get returns the card with the given id regardless of its owner.
func (s *Service) Get(ctx context.Context, id int32) (domain.Card, error) {
	return s.repo.Get(ctx, id)
}

// GetOwned returns the card with the given id if it belongs to the owner.
func (s *Service) GetOwned(ctx context.Context, id int32, owner string) (domain.Card, error) {
	return s.repo.GetOwned(ctx, id, owner)
}

// List returns cards matching the filters for the requested page.
func (s *Service) List(ctx context.Context, arg domain.ListCardsParams, pageSize, pageID int32) ([]domain.Card, error) {
	arg.Limit = pageSize
	arg.Offset = (pageID - 1) * pageSize

	return s.repo.List(ctx, arg)
}

// SetStatus updates the card lifecycle status.
func (s *Service) SetStatus(ctx context.Context, id int32, status domain.CardStatus) (domain.Card, error) {
	return s.repo.SetStatus(ctx, id, status)
}

// Delete removes the card with the given id.
func (s *Service) Delete(ctx context.Context, id int32) error {
	return s.repo.Delete(ctx, id)
}
