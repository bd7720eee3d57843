// Package userservice manages business logic layer of users.
package userservice

import (
	"context"

	"cardbank/internal/domain"
	"cardbank/pkg/errorspkg"
	"cardbank/pkg/passpkg"

	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by user service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package userservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error)
	Get(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context, limit, offset int32) ([]domain.User, error)
	SetRole(ctx context.Context, username string, role domain.Role) (domain.User, error)
	SetEnabled(ctx context.Context, username string, enabled bool) (domain.User, error)
}

// Service facilitates user service layer logic.
type Service struct {
	repo Repo
}

// New returns user service struct to manage user business logic.
func New(ur Repo) *Service {
	return &Service{
		repo: ur,
	}
}

// NewUserWithoutPassword returns user with removed sensitive data.
func NewUserWithoutPassword(u domain.User) domain.UserWithoutPassword {
	return domain.UserWithoutPassword{
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		Enabled:   u.Enabled,
		CreatedAt: u.CreatedAt,
	}
}

// Create creates and returns a regular user.
func (s *Service) Create(ctx context.Context, username, password, fullname, email string) (domain.UserWithoutPassword, error) {
	l := zerolog.Ctx(ctx)

	var result domain.UserWithoutPassword

	hashedPassword, err := passpkg.Hash(password)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	arg := domain.CreateUserParams{
		Username:       username,
		HashedPassword: hashedPassword,
		FullName:       fullname,
		Email:          email,
		Role:           domain.RoleUser,
	}

	gotUser, err := s.repo.Create(ctx, arg)
	if err != nil {
		return result, err
	}

	result = NewUserWithoutPassword(gotUser)

	return result, nil
}

// CheckPassword checks if the password is valid for the given enabled user.
func (s *Service) CheckPassword(ctx context.Context, username, pass string) (domain.UserWithoutPassword, error) {
	l := zerolog.Ctx(ctx)

	var response domain.UserWithoutPassword

	gotUser, err := s.repo.Get(ctx, username)
	if err != nil {
		return response, err
	}

	if !gotUser.Enabled {
		l.Warn().Str("username", username).Msg("login attempt for disabled user")
		return response, domain.ErrUserDisabled
	}

	err = passpkg.Check(pass, gotUser.HashedPassword)
	if err != nil {
		l.Warn().Err(err).Send()
		return response, domain.ErrWrongPassword
	}

	response = NewUserWithoutPassword(gotUser)

	return response, nil
}

// Get returns the user with the given username without password data.
func (s *Service) Get(ctx context.Context, username string) (domain.UserWithoutPassword, error) {
	gotUser, err := s.repo.Get(ctx, username)
	if err != nil {
		return domain.UserWithoutPassword{}, err
	}

	return NewUserWithoutPassword(gotUser), nil
}

// List returns users for the requested page without password data.
func (s *Service) List(ctx context.Context, pageSize, pageID int32) ([]domain.UserWithoutPassword, error) {
	limit := pageSize
	offset := (pageID - 1) * pageSize

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	result := make([]domain.UserWithoutPassword, len(users))
	for i, u := range users {
		result[i] = NewUserWithoutPassword(u)
	}

	return result, nil
}

// SetRole updates the user's role.
func (s *Service) SetRole(ctx context.Context, username string, role domain.Role) (domain.UserWithoutPassword, error) {
	updated, err := s.repo.SetRole(ctx, username, role)
	if err != nil {
		return domain.UserWithoutPassword{}, err
	}

	return NewUserWithoutPassword(updated), nil
}

// SetEnabled enables or disables the user account.
func (s *Service) SetEnabled(ctx context.Context, username string, enabled bool) (domain.UserWithoutPassword, error) {
	updated, err := s.repo.SetEnabled(ctx, username, enabled)
	if err != nil {
		return domain.UserWithoutPassword{}, err
	}

	return NewUserWithoutPassword(updated), nil
}
