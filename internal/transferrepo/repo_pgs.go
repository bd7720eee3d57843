// Package transferrepo manages repository layer of transfers.
package transferrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cardbank/internal/cardrepo"
	"cardbank/internal/domain"
	"cardbank/pkg/dbpkg"
	"cardbank/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates transfer repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns transfer RepoPGS bound to an existing transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns transfer RepoPGS with a connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const createQuery = `
INSERT INTO
    transfers (from_card_id, to_card_id, amount, status, description)
VALUES
    ($1, $2, $3, $4, $5)
RETURNING id, from_card_id, to_card_id, amount, status, description, created_at
`

// Create appends the ledger record and then returns it. The record is
// immutable: no update or delete is exposed.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateTransferParams) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.FromCardID,
		arg.ToCardID,
		arg.Amount,
		domain.TransferStatusSuccess,
		arg.Description,
	)

	var t domain.Transfer
	err := row.Scan(
		&t.ID,
		&t.FromCardID,
		&t.ToCardID,
		&t.Amount,
		&t.Status,
		&t.Description,
		&t.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "transfers_from_card_id_fkey", "transfers_to_card_id_fkey":
				return t, domain.ErrCardNotFound
			case "transfers_amount_check":
				return t, domain.ErrNegativeAmount
			case "transfers_distinct_cards_check":
				return t, domain.ErrSameCardTransfer
			}
		}

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const getQuery = `
SELECT
	id, from_card_id, to_card_id, amount, status, description, created_at
FROM transfers
WHERE id = $1
`

// Get returns the transfer with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	var t domain.Transfer

	err := row.Scan(
		&t.ID,
		&t.FromCardID,
		&t.ToCardID,
		&t.Amount,
		&t.Status,
		&t.Description,
		&t.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return t, domain.ErrTransferNotFound
		}

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const listQuery = `
SELECT
	id, from_card_id, to_card_id, amount, status, description, created_at
FROM transfers
WHERE
    from_card_id = $1 OR to_card_id = $1
ORDER BY id DESC
LIMIT $2 OFFSET $3
`

// List returns the transfers the given card participated in.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListTransfersParams) ([]domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery,
		arg.CardID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transfer{}

	for rows.Next() {
		var t domain.Transfer
		if err := rows.Scan(
			&t.ID,
			&t.FromCardID,
			&t.ToCardID,
			&t.Amount,
			&t.Status,
			&t.Description,
			&t.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

// Transfer moves money between two of the owner's cards.
//
// Both card rows are locked with SELECT ... FOR UPDATE in ascending id order
// regardless of which card is the source, so two concurrent transfers over
// the same pair can never deadlock. Eligibility (ownership, status, expiry,
// balance) is validated only after both locks are held; the balance writes
// and the ledger insert commit in the same transaction or not at all.
func (r *RepoPGS) Transfer(ctx context.Context, owner string, arg domain.CreateTransferParams) (domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TransferTxResult

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	cardRepo := cardrepo.NewRepoPGS(tx)
	ledger := NewTxRepoPGS(tx)

	firstID, secondID := arg.FromCardID, arg.ToCardID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, err := cardRepo.GetForUpdate(ctx, firstID, owner)
	if err != nil {
		return result, err
	}

	second, err := cardRepo.GetForUpdate(ctx, secondID, owner)
	if err != nil {
		return result, err
	}

	from, to := first, second
	if from.ID != arg.FromCardID {
		from, to = second, first
	}

	if from.Status != domain.CardStatusActive || to.Status != domain.CardStatusActive {
		return result, domain.ErrCardNotActive
	}

	today := time.Now().UTC()
	if from.IsExpired(today) || to.IsExpired(today) {
		return result, domain.ErrCardExpired
	}

	if from.Balance.LessThan(arg.Amount) {
		return result, domain.ErrInsufficientBalance
	}

	result.FromCard, err = cardRepo.SetBalance(ctx, from.ID, from.Balance.Sub(arg.Amount))
	if err != nil {
		return result, err
	}

	result.ToCard, err = cardRepo.SetBalance(ctx, to.ID, to.Balance.Add(arg.Amount))
	if err != nil {
		return result, err
	}

	result.Transfer, err = ledger.Create(ctx, arg)
	if err != nil {
		return result, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.TransferTxResult{}, errorspkg.ErrInternal
	}

	return result, nil
}
