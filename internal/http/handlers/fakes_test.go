package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/geocoder89/fintrack/internal/repo/memory"
	"github.com/geocoder89/fintrack/internal/session"
)

// fakeUsers serves reads and writes from an in-memory store unless an error
// is injected for the operation under test.
type fakeUsers struct {
	*memory.UsersRepo

	listErr   error
	getErr    error
	deleteErr error
}

func (f *fakeUsers) List(ctx context.Context) ([]user.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.UsersRepo.List(ctx)
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getErr != nil {
		return user.User{}, f.getErr
	}
	return f.UsersRepo.GetByEmail(ctx, email)
}

func (f *fakeUsers) Delete(ctx context.Context, id int64) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.UsersRepo.Delete(ctx, id)
}

type fakeTransactions struct {
	*memory.TransactionsRepo

	deleteErr  error
	lastFilter transaction.ListFilter
}

func (f *fakeTransactions) List(ctx context.Context, filter transaction.ListFilter) ([]transaction.Transaction, error) {
	f.lastFilter = filter
	return f.TransactionsRepo.List(ctx, filter)
}

func (f *fakeTransactions) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.TransactionsRepo.Delete(ctx, id)
}

type fakeSessions struct {
	live     map[string]int64
	ended    []string
	startErr error
	next     int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{live: make(map[string]int64)}
}

func (f *fakeSessions) Start(ctx context.Context, userID int64) (string, time.Time, error) {
	if f.startErr != nil {
		return "", time.Time{}, f.startErr
	}
	f.next++
	token := fmt.Sprintf("token-%d", f.next)
	f.live[token] = userID
	return token, time.Now().Add(time.Hour), nil
}

func (f *fakeSessions) Resolve(ctx context.Context, token string) (int64, error) {
	id, ok := f.live[token]
	if !ok {
		return 0, session.ErrNoSession
	}
	return id, nil
}

func (f *fakeSessions) End(ctx context.Context, token string) error {
	f.ended = append(f.ended, token)
	delete(f.live, token)
	return nil
}

var errBoom = errors.New("connection reset by peer")

func newFakes() (*memory.Store, *fakeUsers, *fakeTransactions) {
	store := memory.NewStore(nil)
	return store, &fakeUsers{UsersRepo: store.Users()}, &fakeTransactions{TransactionsRepo: store.Transactions()}
}

func int64Ptr(v int64) *int64 { return &v }

func seedUser(users *fakeUsers, email string) user.User {
	u, err := users.Create(context.Background(), user.CreateRequest{
		FirstName:   "Lenny",
		LastName:    "Ronaldo",
		Email:       email,
		PhoneNumber: "0723020507",
		Password:    "password123",
	})
	if err != nil {
		panic(err)
	}
	return u
}

func seedTransaction(txs *fakeTransactions, owner int64, amount int64) transaction.Transaction {
	t, err := txs.Create(context.Background(), transaction.CreateRequest{
		Amount:          int64Ptr(amount),
		TransactionType: "expense",
		Category:        "food",
		UserID:          int64Ptr(owner),
	})
	if err != nil {
		panic(err)
	}
	return t
}
