package serviceinterfaces

import (
	"context"

	"civicfeedback/internal/models"
)

// IdentityServiceInterface defines account lookup and credential checks.
type IdentityServiceInterface interface {
	Login(ctx context.Context, email, password string) (models.PublicUser, error)
	Signup(ctx context.Context, req models.SignupRequest) (models.PublicUser, error)
	GetUserByID(ctx context.Context, id string) (models.PublicUser, error)
	IsAdmin(ctx context.Context, id string) (bool, error)
	ListUsers(ctx context.Context) ([]models.PublicUser, error)
	CreateUser(ctx context.Context, req models.SignupRequest, role models.Role) (models.PublicUser, error)
	EnsureAdminUser(ctx context.Context, email, password string) error
}
