package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
	// ErrCascadeFailed wraps a failure while removing a user's transactions.
	// The whole delete is rolled back when it is returned.
	ErrCascadeFailed = errors.New("could not delete user's related records")
)

// User is the stored entity. PasswordHash never leaves the store layer in
// serialized form; handlers respond with View.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	PasswordHash string
	CreatedAt    time.Time
}

// View is the public projection of a User.
type View struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u User) View() View {
	return View{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
	}
}

func Views(users []User) []View {
	out := make([]View, 0, len(users))
	for _, u := range users {
		out = append(out, u.View())
	}
	return out
}

type CreateRequest struct {
	FirstName   string `json:"first_name" binding:"required,max=100"`
	LastName    string `json:"last_name" binding:"required,max=100"`
	Email       string `json:"email" binding:"required,email_shape,max=254"`
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
	Password    string `json:"password" binding:"required,max=72"`
}

// UpdateRequest is a partial update: nil fields are left untouched.
type UpdateRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name" binding:"omitempty,min=1,max=100"`
	Email       *string `json:"email" binding:"omitempty,email_shape,max=254"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,phone"`
	Password    *string `json:"password" binding:"omitempty,min=1,max=72"`
}

func (r UpdateRequest) Empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Email == nil && r.PhoneNumber == nil && r.Password == nil
}
