package domain

import "context"

// Service is the user-authentication service behind the root routes.
type Service interface {
	RegisterUser(ctx context.Context, req RegisterRequest) (*User, error)
	// Authenticate returns ErrUserNotFound for an unknown email and
	// ErrInvalidCredentials for a wrong password.
	Authenticate(ctx context.Context, email, password string) (*User, error)
	ValidLogin(ctx context.Context, email, password string) bool
	CreateSession(ctx context.Context, email string) (string, error)
	UserFromSession(ctx context.Context, token string) (*User, error)
	DestroySession(ctx context.Context, token string) error
	ResetPasswordToken(ctx context.Context, email string) (string, error)
	UpdatePassword(ctx context.Context, resetToken, password string) error
}

type RegisterRequest struct {
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}
