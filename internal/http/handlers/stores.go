package handlers

import (
	"context"
	"time"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/domain/user"
)

// Small interfaces so tests can swap in fakes for the store and sessions.

type UserStore interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, req user.CreateRequest) (user.User, error)
	Update(ctx context.Context, id int64, req user.UpdateRequest) (user.User, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type TransactionStore interface {
	List(ctx context.Context, f transaction.ListFilter) ([]transaction.Transaction, error)
	Summary(ctx context.Context, f transaction.ListFilter) (transaction.Summary, error)
	GetByID(ctx context.Context, id int64) (transaction.Transaction, error)
	Create(ctx context.Context, req transaction.CreateRequest) (transaction.Transaction, error)
	Update(ctx context.Context, id int64, req transaction.UpdateRequest) (transaction.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

type SessionStarter interface {
	Start(ctx context.Context, userID int64) (string, time.Time, error)
	End(ctx context.Context, token string) error
}

const storeTimeout = 3 * time.Second
