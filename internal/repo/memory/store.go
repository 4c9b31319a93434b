package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/geocoder89/fintrack/internal/validation"
)

// Store keeps users and transactions in process memory behind one lock, so
// cascade deletes and owner checks see a consistent view of both tables.
type Store struct {
	mu    sync.RWMutex
	rules *validation.Validator

	users        map[int64]user.User
	transactions map[int64]transaction.Transaction

	nextUserID        int64
	nextTransactionID int64
}

func NewStore(rules *validation.Validator) *Store {
	if rules == nil {
		rules = validation.Default()
	}

	return &Store{
		rules:        rules,
		users:        make(map[int64]user.User),
		transactions: make(map[int64]transaction.Transaction),
	}
}

func (s *Store) Users() *UsersRepo {
	return &UsersRepo{s: s}
}

func (s *Store) Transactions() *TransactionsRepo {
	return &TransactionsRepo{s: s}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if u, ok := r.s.userByEmail(email); ok {
		return u, nil
	}
	return user.User{}, user.ErrNotFound
}

// userByEmail expects the caller to hold the lock.
func (s *Store) userByEmail(email string) (user.User, bool) {
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return user.User{}, false
}

func (r *UsersRepo) Create(ctx context.Context, req user.CreateRequest) (user.User, error) {
	u, err := user.NewFromCreateRequest(req, r.s.rules)
	if err != nil {
		return user.User{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.userByEmail(u.Email); taken {
		return user.User{}, user.ErrEmailTaken
	}

	r.s.nextUserID++
	u.ID = r.s.nextUserID
	r.s.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) Update(ctx context.Context, id int64, req user.UpdateRequest) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if err := req.Apply(&u, r.s.rules); err != nil {
		return user.User{}, err
	}

	if other, taken := r.s.userByEmail(u.Email); taken && other.ID != id {
		return user.User{}, user.ErrEmailTaken
	}

	r.s.users[id] = u
	return u, nil
}

// Delete removes the user together with every transaction it owns.
func (r *UsersRepo) Delete(ctx context.Context, id int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return 0, user.ErrNotFound
	}

	var removed int64
	for txID, t := range r.s.transactions {
		if t.UserID == id {
			delete(r.s.transactions, txID)
			removed++
		}
	}

	delete(r.s.users, id)
	return removed, nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.s.Ping(ctx)
}

type TransactionsRepo struct {
	s *Store
}

// sorted expects the caller to hold the lock.
func (s *Store) sorted(f transaction.ListFilter) []transaction.Transaction {
	out := make([]transaction.Transaction, 0)
	for _, t := range s.transactions {
		if f.Match(t) {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *TransactionsRepo) List(ctx context.Context, f transaction.ListFilter) ([]transaction.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := r.s.sorted(f)

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []transaction.Transaction{}, nil
		}
		out = out[f.Offset:]
	}

	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}

	return out, nil
}

func (r *TransactionsRepo) Summary(ctx context.Context, f transaction.ListFilter) (transaction.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return transaction.Summarize(r.s.sorted(f)), nil
}

func (r *TransactionsRepo) GetByID(ctx context.Context, id int64) (transaction.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.transactions[id]
	if !ok {
		return transaction.Transaction{}, transaction.ErrNotFound
	}
	return t, nil
}

func (r *TransactionsRepo) Create(ctx context.Context, req transaction.CreateRequest) (transaction.Transaction, error) {
	t, err := transaction.NewFromCreateRequest(req)
	if err != nil {
		return transaction.Transaction{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[t.UserID]; !ok {
		return transaction.Transaction{}, transaction.ErrUserNotFound
	}

	r.s.nextTransactionID++
	t.ID = r.s.nextTransactionID
	r.s.transactions[t.ID] = t

	return t, nil
}

func (r *TransactionsRepo) Update(ctx context.Context, id int64, req transaction.UpdateRequest) (transaction.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.transactions[id]
	if !ok {
		return transaction.Transaction{}, transaction.ErrNotFound
	}

	if err := req.Apply(&t); err != nil {
		return transaction.Transaction{}, err
	}

	if _, ok := r.s.users[t.UserID]; !ok {
		return transaction.Transaction{}, transaction.ErrUserNotFound
	}

	r.s.transactions[id] = t
	return t, nil
}

func (r *TransactionsRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.transactions[id]; !ok {
		return transaction.ErrNotFound
	}

	delete(r.s.transactions, id)
	return nil
}
