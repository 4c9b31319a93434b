package transaction

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("transaction not found")
	// ErrUserNotFound means the owning user id does not reference a user.
	ErrUserNotFound = errors.New("owning user not found")
)

// Conventional transaction types. The store does not enforce them; Summary
// only adds up these two.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Transaction is both the stored entity and its public projection: it has no
// secret fields and no back-reference to the owning user's other transactions.
type Transaction struct {
	ID              int64     `json:"id"`
	Amount          int64     `json:"amount"`
	TransactionType string    `json:"transaction_type"`
	Category        string    `json:"category"`
	Description     string    `json:"description"`
	Date            time.Time `json:"date"`
	UserID          int64     `json:"user_id"`
}

type CreateRequest struct {
	Amount          *int64     `json:"amount" binding:"required"`
	TransactionType string     `json:"transaction_type" binding:"required,max=50"`
	Category        string     `json:"category" binding:"omitempty,max=100"`
	Description     string     `json:"description" binding:"omitempty,max=1000"`
	Date            *Timestamp `json:"date"`
	UserID          *int64     `json:"user_id" binding:"required,gt=0"`
}

// UpdateRequest is a partial update: nil fields are left untouched.
type UpdateRequest struct {
	Amount          *int64     `json:"amount"`
	TransactionType *string    `json:"transaction_type" binding:"omitempty,min=1,max=50"`
	Category        *string    `json:"category" binding:"omitempty,max=100"`
	Description     *string    `json:"description" binding:"omitempty,max=1000"`
	Date            *Timestamp `json:"date"`
	UserID          *int64     `json:"user_id" binding:"omitempty,gt=0"`
}

// ListFilter narrows a listing. Nil fields do not filter; Limit 0 means no limit.
type ListFilter struct {
	UserID          *int64
	TransactionType *string
	Category        *string
	From            *time.Time
	To              *time.Time
	Limit           int
	Offset          int
}

func (f ListFilter) Match(t Transaction) bool {
	if f.UserID != nil && t.UserID != *f.UserID {
		return false
	}
	if f.TransactionType != nil && t.TransactionType != *f.TransactionType {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Date.After(*f.To) {
		return false
	}
	return true
}

type CategoryTotal struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
}

type Summary struct {
	Income     int64           `json:"income"`
	Expense    int64           `json:"expense"`
	Net        int64           `json:"net"`
	Count      int             `json:"count"`
	ByCategory []CategoryTotal `json:"by_category"`
}
