// Package helpers provides seeding helpers used in integration tests.
package helpers

import (
	"context"
	"testing"
	"time"

	"cardbank/internal/cardrepo"
	"cardbank/internal/domain"
	"cardbank/internal/sessionrepo"
	"cardbank/internal/userrepo"
	"cardbank/pkg/cryptopkg"
	"cardbank/pkg/dbpkg"
	"cardbank/pkg/passpkg"
	"cardbank/pkg/randompkg"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RandomUser returns an in memory random user for unit tests.
func RandomUser() domain.UserWithoutPassword {
	return domain.UserWithoutPassword{
		Username:  randompkg.Owner(),
		FullName:  randompkg.Owner(),
		Email:     randompkg.Email(),
		Role:      domain.RoleUser,
		Enabled:   true,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// RandomCard returns an in memory random active card for unit tests.
func RandomCard(owner string) domain.Card {
	number := randompkg.CardNumber()
	now := time.Now().UTC().Truncate(time.Second)

	return domain.Card{
		ID:              randompkg.Int32Between(1, 1_000),
		Owner:           owner,
		EncryptedNumber: randompkg.String(44),
		MaskedNumber:    cryptopkg.Mask(number),
		HolderName:      randompkg.HolderName(),
		ExpiryDate:      randompkg.ExpiryDate(),
		Status:          domain.CardStatusActive,
		Balance:         randompkg.MoneyAmountBetween(100, 10_000),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// RandomTransfer returns an in memory random transfer between the given cards.
func RandomTransfer(fromCardID, toCardID int32) domain.Transfer {
	return domain.Transfer{
		ID:         int64(randompkg.Int32Between(1, 1_000)),
		FromCardID: fromCardID,
		ToCardID:   toCardID,
		Amount:     randompkg.MoneyAmountBetween(1, 100),
		Status:     domain.TransferStatusSuccess,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

// SeedUser inserts a random enabled user and returns it.
func SeedUser(t *testing.T, db dbpkg.SQLInterface) domain.User {
	t.Helper()

	hashedPassword, err := passpkg.Hash(randompkg.String(10))
	if err != nil {
		t.Fatalf("passpkg.Hash() returned error: %v", err)
	}

	arg := domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.Owner(),
		Email:          randompkg.Email(),
		Role:           domain.RoleUser,
	}

	user, err := userrepo.NewRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("userRepo.Create(context.Background(), %v) returned error: %v", arg, err)
	}

	return user
}

// SeedSession inserts the given session row and returns it.
func SeedSession(t *testing.T, db dbpkg.SQLInterface, arg domain.CreateSessionParams) domain.Session {
	t.Helper()

	session, err := sessionrepo.NewRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("sessionRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return session
}

// SeedCardWith1000Balance inserts an active unexpired card with a 1000 balance.
func SeedCardWith1000Balance(t *testing.T, db dbpkg.SQLInterface, owner string) domain.Card {
	t.Helper()

	return SeedCard(t, db, owner, decimal.NewFromInt(1000))
}

// SeedCard inserts an active unexpired card with the given balance.
func SeedCard(t *testing.T, db dbpkg.SQLInterface, owner string, balance decimal.Decimal) domain.Card {
	t.Helper()

	crypto, err := cryptopkg.New("", zerolog.Nop())
	if err != nil {
		t.Fatalf("cryptopkg.New() returned error: %v", err)
	}

	number := randompkg.CardNumber()

	encrypted, err := crypto.Encrypt(number)
	if err != nil {
		t.Fatalf("crypto.Encrypt() returned error: %v", err)
	}

	arg := domain.CreateCardParams{
		Owner:           owner,
		EncryptedNumber: encrypted,
		MaskedNumber:    cryptopkg.Mask(number),
		HolderName:      randompkg.HolderName(),
		ExpiryDate:      randompkg.ExpiryDate(),
		Balance:         balance,
	}

	card, err := cardrepo.NewRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("cardRepo.Create(context.Background(), %v) returned error: %v", arg, err)
	}

	return card
}

// SeedBlockedCard inserts a card and flips it to BLOCKED.
func SeedBlockedCard(t *testing.T, db dbpkg.SQLInterface, owner string) domain.Card {
	t.Helper()

	card := SeedCardWith1000Balance(t, db, owner)

	blocked, err := cardrepo.NewRepoPGS(db).SetStatus(context.Background(), card.ID, domain.CardStatusBlocked)
	if err != nil {
		t.Fatalf("cardRepo.SetStatus(context.Background(), %v, BLOCKED) returned error: %v", card.ID, err)
	}

	return blocked
}

// SeedExpiredCard inserts a card whose expiry date is already in the past.
//
// The expiry check is not enforced at insert time so the row goes in directly.
func SeedExpiredCard(t *testing.T, db dbpkg.SQLInterface, owner string) domain.Card {
	t.Helper()

	card := SeedCardWith1000Balance(t, db, owner)

	const query = `
	UPDATE cards
	SET expiry_date = $1, version = version + 1, updated_at = now()
	WHERE id = $2`

	expired := time.Now().UTC().AddDate(-1, 0, 0)

	if _, err := db.ExecContext(context.Background(), query, expired, card.ID); err != nil {
		t.Fatalf("expiring card %v failed: %v", card.ID, err)
	}

	refetched, err := cardrepo.NewRepoPGS(db).Get(context.Background(), card.ID)
	if err != nil {
		t.Fatalf("cardRepo.Get(context.Background(), %v) returned error: %v", card.ID, err)
	}

	return refetched
}
