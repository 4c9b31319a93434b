package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/fintrack/internal/dbx"
	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `id, amount, transaction_type, category, description, date, user_id`

type TransactionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTransactionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *TransactionsRepo {
	return &TransactionsRepo{pool: pool, prom: prom}
}

func (r *TransactionsRepo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

func scanTransaction(row pgx.Row) (t transaction.Transaction, err error) {
	err = row.Scan(&t.ID, &t.Amount, &t.TransactionType, &t.Category, &t.Description, &t.Date, &t.UserID)
	return
}

// whereClause turns a filter into SQL conditions starting at placeholder $1.
func whereClause(f transaction.ListFilter) (string, []any) {
	var conds []string
	var args []any

	argsPosition := 1

	add := func(cond string, arg any) {
		conds = append(conds, fmt.Sprintf(cond, argsPosition))
		args = append(args, arg)
		argsPosition++
	}

	if f.UserID != nil {
		add("user_id = $%d", *f.UserID)
	}

	if f.TransactionType != nil {
		add("transaction_type = $%d", *f.TransactionType)
	}

	if f.Category != nil {
		add("category = $%d", *f.Category)
	}

	if f.From != nil {
		add("date >= $%d", *f.From)
	}

	if f.To != nil {
		add("date <= $%d", *f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *TransactionsRepo) List(ctx context.Context, f transaction.ListFilter) ([]transaction.Transaction, error) {
	where, args := whereClause(f)

	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` ORDER BY id ASC`

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, f.Limit)
	}

	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, f.Offset)
	}

	var rows pgx.Rows

	err := r.observe("transactions.list", func() error {
		var err error
		rows, err = r.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]transaction.Transaction, 0)

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, rows.Err()
}

func (r *TransactionsRepo) Summary(ctx context.Context, f transaction.ListFilter) (transaction.Summary, error) {
	where, args := whereClause(f)

	query := `SELECT transaction_type, category, COALESCE(SUM(amount), 0), COUNT(*)
		FROM transactions` + where + `
		GROUP BY transaction_type, category`

	var rows pgx.Rows

	err := r.observe("transactions.summary", func() error {
		var err error
		rows, err = r.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return transaction.Summary{}, err
	}

	defer rows.Close()

	groups := make([]transaction.Group, 0)

	for rows.Next() {
		var g transaction.Group
		if err := rows.Scan(&g.TransactionType, &g.Category, &g.Total, &g.Count); err != nil {
			return transaction.Summary{}, err
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return transaction.Summary{}, err
	}

	return transaction.SummarizeGroups(groups), nil
}

func (r *TransactionsRepo) GetByID(ctx context.Context, id int64) (transaction.Transaction, error) {
	return r.getOne(ctx, r.pool, "transactions.get_by_id", `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
}

func (r *TransactionsRepo) getOne(ctx context.Context, db dbx.DBTX, op, query string, id int64) (transaction.Transaction, error) {
	var t transaction.Transaction

	err := r.observe(op, func() error {
		var err error
		t, err = scanTransaction(db.QueryRow(ctx, query, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return transaction.Transaction{}, transaction.ErrNotFound
		}
		return transaction.Transaction{}, err
	}

	return t, nil
}

// requireUser locks the owning user row against concurrent deletion until
// the surrounding transaction ends.
func (r *TransactionsRepo) requireUser(ctx context.Context, tx pgx.Tx, userID int64) error {
	var id int64

	err := r.observe("transactions.require_user", func() error {
		return tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR KEY SHARE`, userID).Scan(&id)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return transaction.ErrUserNotFound
	}

	return err
}

func (r *TransactionsRepo) Create(ctx context.Context, req transaction.CreateRequest) (transaction.Transaction, error) {
	t, err := transaction.NewFromCreateRequest(req)

	if err != nil {
		return transaction.Transaction{}, err
	}

	err = dbx.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.requireUser(ctx, tx, t.UserID); err != nil {
			return err
		}

		return r.observe("transactions.create", func() error {
			return tx.QueryRow(ctx,
				`INSERT INTO transactions (amount, transaction_type, category, description, date, user_id)
				VALUES ($1,$2,$3,$4,$5,$6)
				RETURNING id`,
				t.Amount, t.TransactionType, t.Category, t.Description, t.Date, t.UserID,
			).Scan(&t.ID)
		})
	})

	if err != nil {
		if violatesConstraint(err, codeForeignKeyViolation, constraintTransactionsUser) {
			return transaction.Transaction{}, transaction.ErrUserNotFound
		}
		return transaction.Transaction{}, err
	}

	return t, nil
}

func (r *TransactionsRepo) Update(ctx context.Context, id int64, req transaction.UpdateRequest) (updated transaction.Transaction, err error) {
	err = dbx.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		t, err := r.getOne(ctx, tx, "transactions.update.lock", `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}

		previousOwner := t.UserID

		if err := req.Apply(&t); err != nil {
			return err
		}

		if t.UserID != previousOwner {
			if err := r.requireUser(ctx, tx, t.UserID); err != nil {
				return err
			}
		}

		err = r.observe("transactions.update", func() error {
			_, err := tx.Exec(ctx,
				`UPDATE transactions
				SET amount = $2,
					transaction_type = $3,
					category = $4,
					description = $5,
					date = $6,
					user_id = $7
				WHERE id = $1`,
				t.ID, t.Amount, t.TransactionType, t.Category, t.Description, t.Date, t.UserID,
			)
			return err
		})

		if err != nil {
			return err
		}

		updated = t
		return nil
	})

	if violatesConstraint(err, codeForeignKeyViolation, constraintTransactionsUser) {
		return transaction.Transaction{}, transaction.ErrUserNotFound
	}

	return updated, err
}

func (r *TransactionsRepo) Delete(ctx context.Context, id int64) error {
	var tag pgconn.CommandTag

	err := r.observe("transactions.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return transaction.ErrNotFound
	}

	return nil
}
