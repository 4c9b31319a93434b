package user

import (
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/fintrack/internal/security"
	"github.com/geocoder89/fintrack/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// NewFromCreateRequest validates the request and hashes the password. The
// returned User has no ID yet; the store assigns it.
func NewFromCreateRequest(req CreateRequest, v *validation.Validator) (User, error) {
	firstName, err := requiredName("first_name", req.FirstName)
	if err != nil {
		return User{}, err
	}

	lastName, err := requiredName("last_name", req.LastName)
	if err != nil {
		return User{}, err
	}

	email, err := v.Email(req.Email)
	if err != nil {
		return User{}, err
	}

	phone, err := v.Phone(req.PhoneNumber)
	if err != nil {
		return User{}, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return User{}, err
	}

	return User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PhoneNumber:  phone,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Apply copies the supplied fields of req onto u, validating each one. On
// error u is left unchanged.
func (req UpdateRequest) Apply(u *User, v *validation.Validator) error {
	next := *u

	if req.FirstName != nil {
		name, err := requiredName("first_name", *req.FirstName)
		if err != nil {
			return err
		}
		next.FirstName = name
	}

	if req.LastName != nil {
		name, err := requiredName("last_name", *req.LastName)
		if err != nil {
			return err
		}
		next.LastName = name
	}

	if req.Email != nil {
		email, err := v.Email(*req.Email)
		if err != nil {
			return err
		}
		next.Email = email
	}

	if req.PhoneNumber != nil {
		phone, err := v.Phone(*req.PhoneNumber)
		if err != nil {
			return err
		}
		next.PhoneNumber = phone
	}

	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return err
		}
		next.PasswordHash = hash
	}

	*u = next
	return nil
}

func requiredName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", &validation.Error{Field: field, Message: "is required"}
	}
	return value, nil
}

func hashPassword(plain string) (string, error) {
	hash, err := security.HashPassword(plain)

	switch {
	case err == nil:
		return hash, nil
	case errors.Is(err, security.ErrEmptyPassword):
		return "", &validation.Error{Field: "password", Message: "is required"}
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return "", &validation.Error{Field: "password", Message: "must be at most 72 bytes"}
	default:
		return "", err
	}
}
