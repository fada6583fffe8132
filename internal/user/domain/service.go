// Package domain declares the users resource served under /api/v1/users.
package domain

import (
	"context"

	authdomain "github.com/smallbiznis/authgate/internal/auth/domain"
)

type Service interface {
	List(ctx context.Context) ([]authdomain.User, error)
	Get(ctx context.Context, id string) (*authdomain.User, error)
	Create(ctx context.Context, req CreateRequest) (*authdomain.User, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*authdomain.User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type CreateRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// UpdateRequest changes names only. Absent fields are left untouched.
type UpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}
