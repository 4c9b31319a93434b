package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/fintrack/internal/dbx"
	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/geocoder89/fintrack/internal/validation"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, first_name, last_name, email, phone_number, password, created_at`

type UsersRepo struct {
	pool  *pgxpool.Pool
	prom  *observability.Prom
	rules *validation.Validator
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom, rules *validation.Validator) *UsersRepo {
	if rules == nil {
		rules = validation.Default()
	}

	return &UsersRepo{pool: pool, prom: prom, rules: rules}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

func scanUser(row pgx.Row) (u user.User, err error) {
	err = row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.CreatedAt)
	return
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var rows pgx.Rows

	err := r.observe("users.list", func() error {
		var err error
		rows, err = r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]user.User, 0)

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}

	return out, rows.Err()
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getOne(ctx, r.pool, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail is an exact match; login relies on it.
func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, r.pool, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UsersRepo) getOne(ctx context.Context, db dbx.DBTX, op, query string, arg any) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		var err error
		u, err = scanUser(db.QueryRow(ctx, query, arg))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, req user.CreateRequest) (user.User, error) {
	u, err := user.NewFromCreateRequest(req, r.rules)

	if err != nil {
		return user.User{}, err
	}

	err = r.observe("users.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO users (first_name, last_name, email, phone_number, password, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id`,
			u.FirstName, u.LastName, u.Email, u.PhoneNumber, u.PasswordHash, u.CreatedAt,
		).Scan(&u.ID)
	})

	if err != nil {
		if violatesConstraint(err, codeUniqueViolation, constraintUsersEmail) {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

// Update locks the row, applies the supplied fields and writes them back in
// one transaction.
func (r *UsersRepo) Update(ctx context.Context, id int64, req user.UpdateRequest) (updated user.User, err error) {
	err = dbx.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		u, err := r.getOne(ctx, tx, "users.update.lock", `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}

		if err := req.Apply(&u, r.rules); err != nil {
			return err
		}

		err = r.observe("users.update", func() error {
			_, err := tx.Exec(ctx,
				`UPDATE users
				SET first_name = $2,
					last_name = $3,
					email = $4,
					phone_number = $5,
					password = $6
				WHERE id = $1`,
				u.ID, u.FirstName, u.LastName, u.Email, u.PhoneNumber, u.PasswordHash,
			)
			return err
		})

		if err != nil {
			if violatesConstraint(err, codeUniqueViolation, constraintUsersEmail) {
				return user.ErrEmailTaken
			}
			return err
		}

		updated = u
		return nil
	})

	return updated, err
}

// Delete removes the user's transactions and then the user row as one unit.
// It reports how many transactions went with it.
func (r *UsersRepo) Delete(ctx context.Context, id int64) (removed int64, err error) {
	err = dbx.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var lockedID int64

		err := r.observe("users.delete.lock", func() error {
			return tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&lockedID)
		})

		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return user.ErrNotFound
			}
			return err
		}

		var tag pgconn.CommandTag

		err = r.observe("users.delete.transactions", func() error {
			var err error
			tag, err = tx.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1`, id)
			return err
		})

		if err != nil {
			return fmt.Errorf("%w: %w", user.ErrCascadeFailed, err)
		}

		removed = tag.RowsAffected()

		err = r.observe("users.delete", func() error {
			_, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
			return err
		})

		if err != nil {
			return fmt.Errorf("%w: %w", user.ErrCascadeFailed, err)
		}

		return nil
	})

	if err != nil {
		removed = 0
	}

	return removed, err
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
