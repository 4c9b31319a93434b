package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/domain/user"
)

const DemoPassword = "password123"

type SeedUsers interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, req user.CreateRequest) (user.User, error)
}

type SeedTransactions interface {
	Create(ctx context.Context, req transaction.CreateRequest) (transaction.Transaction, error)
}

type SeedResult struct {
	UsersCreated        int
	TransactionsCreated int
}

type demoTransaction struct {
	owner       int
	amount      int64
	txType      string
	category    string
	description string
	date        time.Time
}

var demoUsers = []user.CreateRequest{
	{FirstName: "Lenny", LastName: "Ronaldo", Email: "lennyronaldo@gmail.com", PhoneNumber: "0723020507", Password: DemoPassword},
	{FirstName: "Sarah", LastName: "Kamau", Email: "sarah.kamau@gmail.com", PhoneNumber: "0712345678", Password: DemoPassword},
	{FirstName: "Mike", LastName: "Ochieng", Email: "mike.ochieng@gmail.com", PhoneNumber: "0734567890", Password: DemoPassword},
	{FirstName: "Basil", LastName: "Omondi", Email: "basil.omondi@gmail.com", PhoneNumber: "0734567899", Password: DemoPassword},
}

var demoTransactions = []demoTransaction{
	{0, 1500, "expense", "shopping", "New clothes at Sarit", at(2024, 12, 15, 14, 30)},
	{0, 500, "expense", "transport", "Uber to town", at(2024, 12, 16, 9, 15)},
	{0, 25000, "income", "salary", "December salary", at(2024, 12, 1, 8, 0)},
	{1, 750, "expense", "food", "Groceries at Naivas", at(2024, 12, 17, 16, 45)},
	{1, 1200, "expense", "bills", "Electricity token", at(2024, 12, 10, 12, 0)},
	{2, 30000, "income", "freelance", "Website project payment", at(2024, 12, 5, 10, 0)},
	{2, 2000, "expense", "entertainment", "Movie tickets and dinner", at(2024, 12, 14, 19, 30)},
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

// SeedDemo loads the demo users and their transactions. Users that already
// exist (by email) are skipped together with their transactions, so running
// it twice is harmless.
func SeedDemo(ctx context.Context, users SeedUsers, txs SeedTransactions) (SeedResult, error) {
	var res SeedResult
	created := make(map[int]int64, len(demoUsers))

	for i, req := range demoUsers {
		_, err := users.GetByEmail(ctx, req.Email)

		if err == nil {
			continue
		}

		if !errors.Is(err, user.ErrNotFound) {
			return res, fmt.Errorf("seed: lookup %s: %w", req.Email, err)
		}

		u, err := users.Create(ctx, req)
		if err != nil {
			return res, fmt.Errorf("seed: create %s: %w", req.Email, err)
		}

		created[i] = u.ID
		res.UsersCreated++
	}

	for _, d := range demoTransactions {
		ownerID, ok := created[d.owner]
		if !ok {
			continue
		}

		amount := d.amount
		_, err := txs.Create(ctx, transaction.CreateRequest{
			Amount:          &amount,
			TransactionType: d.txType,
			Category:        d.category,
			Description:     d.description,
			Date:            transaction.NewTimestamp(d.date),
			UserID:          &ownerID,
		})

		if err != nil {
			return res, fmt.Errorf("seed: transaction %q: %w", d.description, err)
		}

		res.TransactionsCreated++
	}

	return res, nil
}
