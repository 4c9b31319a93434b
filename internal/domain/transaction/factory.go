package transaction

import (
	"sort"
	"strings"
	"time"

	"github.com/geocoder89/fintrack/internal/validation"
)

// NewFromCreateRequest builds an unsaved Transaction. Date defaults to now.
func NewFromCreateRequest(req CreateRequest) (Transaction, error) {
	if req.Amount == nil {
		return Transaction{}, &validation.Error{Field: "amount", Message: "is required"}
	}

	if req.UserID == nil || *req.UserID <= 0 {
		return Transaction{}, &validation.Error{Field: "user_id", Message: "is required"}
	}

	txType := strings.TrimSpace(req.TransactionType)
	if txType == "" {
		return Transaction{}, &validation.Error{Field: "transaction_type", Message: "is required"}
	}

	date := time.Now().UTC()
	if req.Date != nil && !req.Date.IsZero() {
		date = req.Date.Time().UTC()
	}

	return Transaction{
		Amount:          *req.Amount,
		TransactionType: txType,
		Category:        strings.TrimSpace(req.Category),
		Description:     req.Description,
		Date:            date,
		UserID:          *req.UserID,
	}, nil
}

// Apply copies the supplied fields of req onto t. On error t is unchanged.
func (req UpdateRequest) Apply(t *Transaction) error {
	next := *t

	if req.Amount != nil {
		next.Amount = *req.Amount
	}

	if req.TransactionType != nil {
		txType := strings.TrimSpace(*req.TransactionType)
		if txType == "" {
			return &validation.Error{Field: "transaction_type", Message: "must not be empty"}
		}
		next.TransactionType = txType
	}

	if req.Category != nil {
		next.Category = strings.TrimSpace(*req.Category)
	}

	if req.Description != nil {
		next.Description = *req.Description
	}

	if req.Date != nil && !req.Date.IsZero() {
		next.Date = req.Date.Time().UTC()
	}

	if req.UserID != nil {
		if *req.UserID <= 0 {
			return &validation.Error{Field: "user_id", Message: "must be positive"}
		}
		next.UserID = *req.UserID
	}

	*t = next
	return nil
}

// Group is a pre-aggregated slice of transactions sharing a type and category.
type Group struct {
	TransactionType string
	Category        string
	Total           int64
	Count           int
}

// Summarize totals income and expense. ByCategory holds expense categories,
// largest first.
func Summarize(items []Transaction) Summary {
	groups := make([]Group, 0, len(items))
	for _, t := range items {
		groups = append(groups, Group{
			TransactionType: t.TransactionType,
			Category:        t.Category,
			Total:           t.Amount,
			Count:           1,
		})
	}
	return SummarizeGroups(groups)
}

func SummarizeGroups(groups []Group) Summary {
	s := Summary{ByCategory: []CategoryTotal{}}
	byCategory := map[string]int64{}

	for _, g := range groups {
		s.Count += g.Count

		switch strings.ToLower(g.TransactionType) {
		case TypeIncome:
			s.Income += g.Total
		case TypeExpense:
			s.Expense += g.Total
			byCategory[g.Category] += g.Total
		}
	}

	s.Net = s.Income - s.Expense

	for category, total := range byCategory {
		s.ByCategory = append(s.ByCategory, CategoryTotal{Category: category, Total: total})
	}

	sort.Slice(s.ByCategory, func(i, j int) bool {
		if s.ByCategory[i].Total != s.ByCategory[j].Total {
			return s.ByCategory[i].Total > s.ByCategory[j].Total
		}
		return s.ByCategory[i].Category < s.ByCategory[j].Category
	})

	return s
}
