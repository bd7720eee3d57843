// Package cardrepo manages repository layer of cards.
package cardrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cardbank/internal/domain"
	"cardbank/pkg/dbpkg"
	"cardbank/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates card repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns card RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const cardColumns = `id, owner, encrypted_number, masked_number, holder_name, expiry_date, status, balance, version, created_at, updated_at`

func scanCard(row *sql.Row) (domain.Card, error) {
	var c domain.Card

	err := row.Scan(
		&c.ID,
		&c.Owner,
		&c.EncryptedNumber,
		&c.MaskedNumber,
		&c.HolderName,
		&c.ExpiryDate,
		&c.Status,
		&c.Balance,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	return c, err
}

const createQuery = `
INSERT INTO
    cards (owner, encrypted_number, masked_number, holder_name, expiry_date, status, balance)
VALUES
    ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + cardColumns

// Create creates the card and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateCardParams) (domain.Card, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.Owner,
		arg.EncryptedNumber,
		arg.MaskedNumber,
		arg.HolderName,
		arg.ExpiryDate,
		domain.CardStatusActive,
		arg.Balance,
	)

	c, err := scanCard(row)
	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "cards_owner_fkey":
				return c, domain.ErrOwnerNotFound
			case "cards_balance_check":
				return c, domain.ErrInsufficientBalance
			}
		}

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

const getQuery = `
SELECT ` + cardColumns + `
FROM cards
WHERE id = $1
`

// Get returns the card with the given id regardless of its owner.
func (r *RepoPGS) Get(ctx context.Context, id int32) (domain.Card, error) {
	l := zerolog.Ctx(ctx)

	c, err := scanCard(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return c, domain.ErrCardNotFound
		}

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

const getOwnedQuery = `
SELECT ` + cardColumns + `
FROM cards
WHERE id = $1 AND owner = $2
`

// GetOwned returns the card with the given id if it belongs to the owner.
//
// A foreign card is indistinguishable from a missing one on purpose.
func (r *RepoPGS) GetOwned(ctx context.Context, id int32, owner string) (domain.Card, error) {
	l := zerolog.Ctx(ctx)

	c, err := scanCard(r.db.QueryRowContext(ctx, getOwnedQuery, id, owner))
	if err != nil {
		if err == sql.ErrNoRows {
			return c, domain.ErrCardNotFound
		}

		l.Error().Err(err).Send()

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

const getForUpdateQuery = `
SELECT ` + cardColumns + `
FROM cards
WHERE id = $1 AND owner = $2
FOR UPDATE
`

// GetForUpdate takes an exclusive row lock on the owner's card and returns it.
//
// It must run inside a transaction; the lock is held until commit or rollback.
// The transfer transaction is the only caller allowed to lock card rows.
func (r *RepoPGS) GetForUpdate(ctx context.Context, id int32, owner string) (domain.Card, error) {
	l := zerolog.Ctx(ctx)

	c, err := scanCard(r.db.QueryRowContext(ctx, getForUpdateQuery, id, owner))
	if err != nil {
		if err == sql.ErrNoRows {
			return c, domain.ErrCardNotFound
		}

		l.Error().Err(err).Send()

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

const setBalanceQuery = `
UPDATE cards
SET balance = $1, version = version + 1, updated_at = now()
WHERE id = $2
RETURNING ` + cardColumns

// SetBalance writes the card's balance and bumps the optimistic version so
// non-locking readers observe the change.
func (r *RepoPGS) SetBalance(ctx context.Context, id int32, balance decimal.Decimal) (domain.Card, error) {
	l := zerolog.Ctx(ctx)

	c, err := scanCard(r.db.QueryRowContext(ctx, setBalanceQuery, balance, id))
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return c, domain.ErrCardNotFound
		}

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "cards_balance_check" {
				return c, domain.ErrInsufficientBalance
			}
		}

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

const setStatusQuery = `
UPDATE cards
SET status = $1, version = version + 1, updated_at = now()
WHERE id = $2
RETURNING ` + cardColumns

// SetStatus updates the card lifecycle status.
func (r *RepoPGS) SetStatus(ctx context.Context, id int32, status domain.CardStatus) (domain.Card, error) {
	l := zerolog.Ctx(ctx)

	c, err := scanCard(r.db.QueryRowContext(ctx, setStatusQuery, status, id))
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return c, domain.ErrCardNotFound
		}

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

const deleteQuery = `
DELETE FROM cards
WHERE id = $1
`

// Delete removes the card with the given id.
func (r *RepoPGS) Delete(ctx context.Context, id int32) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	affected, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if affected == 0 {
		return domain.ErrCardNotFound
	}

	return nil
}

// List returns cards matching the given filters ordered by id descending.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListCardsParams) ([]domain.Card, error) {
	l := zerolog.Ctx(ctx)

	var (
		where []string
		args  []interface{}
	)

	addFilter := func(condition string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(condition, len(args)))
	}

	if arg.Owner != "" {
		addFilter("owner = $%d", arg.Owner)
	}

	if arg.Status != "" {
		addFilter("status = $%d", arg.Status)
	}

	if arg.HolderName != "" {
		addFilter("holder_name ILIKE $%d", "%"+arg.HolderName+"%")
	}

	if arg.Last4 != "" {
		addFilter("masked_number LIKE $%d", "% "+arg.Last4)
	}

	if !arg.ExpiryFrom.IsZero() {
		addFilter("expiry_date >= $%d", arg.ExpiryFrom)
	}

	if !arg.ExpiryTo.IsZero() {
		addFilter("expiry_date <= $%d", arg.ExpiryTo)
	}

	query := `SELECT ` + cardColumns + ` FROM cards`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	args = append(args, arg.Limit, arg.Offset)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Card{}

	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(
			&c.ID,
			&c.Owner,
			&c.EncryptedNumber,
			&c.MaskedNumber,
			&c.HolderName,
			&c.ExpiryDate,
			&c.Status,
			&c.Balance,
			&c.Version,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, c)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
