package services

import (
	"context"
	"strings"
	"sync"

	"civicfeedback/internal/config"
	"civicfeedback/internal/models"
	"civicfeedback/internal/observability"
	"civicfeedback/internal/serviceinterfaces"
	"civicfeedback/internal/store"
	contextutils "civicfeedback/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// IdentityService provides login, signup and user lookup over the record store.
type IdentityService struct {
	store   *store.Store
	cfg     *config.Config
	logger  *observability.Logger
	metrics *observability.DomainMetrics

	unknownOnce sync.Once
	unknownHash string
}

var _ serviceinterfaces.IdentityServiceInterface = (*IdentityService)(nil)

// NewIdentityService creates a new IdentityService
func NewIdentityService(st *store.Store, cfg *config.Config, logger *observability.Logger, metrics *observability.DomainMetrics) *IdentityService {
	if st == nil {
		panic("NewIdentityService: store is nil")
	}
	return &IdentityService{store: st, cfg: cfg, logger: logger, metrics: metrics}
}

// Login verifies credentials. Unknown email and wrong password fail identically.
func (s *IdentityService) Login(ctx context.Context, email, password string) (result0 models.PublicUser, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "Login")
	defer observability.FinishSpan(span, &err)

	user, found, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return models.PublicUser{}, err
	}
	stored := user.Password
	if !found {
		stored = s.unknownUserHash()
	}
	if !contextutils.CheckPassword(stored, password) || !found {
		s.metrics.RecordLogin(ctx, false)
		s.logger.Info(ctx, "Login rejected", map[string]interface{}{"email": contextutils.MaskSecret(email)})
		return models.PublicUser{}, contextutils.ErrInvalidCredentials
	}

	s.metrics.RecordLogin(ctx, true)
	span.SetAttributes(observability.AttributeUserID(user.ID))
	return user.Public(), nil
}

// unknownUserHash is compared against when the email has no account, so a miss
// costs one bcrypt comparison like a wrong password does.
func (s *IdentityService) unknownUserHash() string {
	s.unknownOnce.Do(func() {
		hash, err := contextutils.HashPassword("unknown-account", s.cfg.Auth.BcryptCost)
		if err != nil {
			s.logger.Warn(context.Background(), "Failed to prepare unknown account hash", map[string]interface{}{"error": err.Error()})
			return
		}
		s.unknownHash = hash
	})
	return s.unknownHash
}

// Signup creates a regular account and returns it without the credential
func (s *IdentityService) Signup(ctx context.Context, req models.SignupRequest) (result0 models.PublicUser, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "Signup")
	defer observability.FinishSpan(span, &err)

	if s.cfg.IsSignupDisabled() {
		return models.PublicUser{}, contextutils.ErrSignupsDisabled
	}

	created, err := s.createUser(ctx, req, models.RoleUser)
	if err != nil {
		return models.PublicUser{}, err
	}

	s.metrics.RecordSignup(ctx)
	s.logger.Info(ctx, "User signed up", map[string]interface{}{"user_id": created.ID})
	return created, nil
}

// CreateUser creates an account with an explicit role, bypassing the signup switch
func (s *IdentityService) CreateUser(ctx context.Context, req models.SignupRequest, role models.Role) (result0 models.PublicUser, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "CreateUser", attribute.String("user.role", string(role)))
	defer observability.FinishSpan(span, &err)

	if !role.Valid() {
		return models.PublicUser{}, contextutils.WithDetails(contextutils.ErrInvalidInput, "unknown role %q", role)
	}
	return s.createUser(ctx, req, role)
}

func (s *IdentityService) createUser(ctx context.Context, req models.SignupRequest, role models.Role) (models.PublicUser, error) {
	if err := contextutils.ValidateStruct(req); err != nil {
		return models.PublicUser{}, err
	}

	hash, err := contextutils.HashPassword(req.Password, s.cfg.Auth.BcryptCost)
	if err != nil {
		return models.PublicUser{}, err
	}

	user, err := s.store.CreateUser(ctx, models.User{
		Email:    req.Email,
		Password: hash,
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Role:     role,
	})
	if err != nil {
		return models.PublicUser{}, err
	}
	return user.Public(), nil
}

// GetUserByID returns the sanitized user record
func (s *IdentityService) GetUserByID(ctx context.Context, id string) (result0 models.PublicUser, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "GetUserByID", observability.AttributeUserID(id))
	defer observability.FinishSpan(span, &err)

	user, found, err := s.store.FindUser(ctx, id)
	if err != nil {
		return models.PublicUser{}, err
	}
	if !found {
		return models.PublicUser{}, contextutils.ErrUserNotFound
	}
	return user.Public(), nil
}

// IsAdmin reports whether id belongs to an administrator. Unknown ids are not admins.
func (s *IdentityService) IsAdmin(ctx context.Context, id string) (result0 bool, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "IsAdmin", observability.AttributeUserID(id))
	defer observability.FinishSpan(span, &err)

	user, found, err := s.store.FindUser(ctx, id)
	if err != nil {
		return false, err
	}
	return found && user.IsAdmin(), nil
}

// ListUsers returns every account without credentials
func (s *IdentityService) ListUsers(ctx context.Context) (result0 []models.PublicUser, err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "ListUsers")
	defer observability.FinishSpan(span, &err)

	users, err := s.store.Users(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.PublicUser, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	span.SetAttributes(observability.AttributeCount(len(out)))
	return out, nil
}

// EnsureAdminUser creates the configured administrator when it does not exist yet.
// It is a no-op when either value is empty or the email is already registered.
func (s *IdentityService) EnsureAdminUser(ctx context.Context, email, password string) (err error) {
	ctx, span := observability.TraceIdentityFunction(ctx, "EnsureAdminUser")
	defer observability.FinishSpan(span, &err)

	if email == "" || password == "" {
		return nil
	}

	existing, found, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if found {
		if !existing.IsAdmin() {
			s.logger.Warn(ctx, "Configured admin email belongs to a non-admin account", map[string]interface{}{
				"user_id": existing.ID,
			})
		}
		return nil
	}

	created, err := s.createUser(ctx, models.SignupRequest{Email: email, Password: password, Name: "Administrator"}, models.RoleAdmin)
	if err != nil {
		return contextutils.WrapError(err, "failed to create admin user")
	}

	s.logger.Info(ctx, "Admin user created", map[string]interface{}{"user_id": created.ID})
	return nil
}
