package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pizzeria/internal/auth"
	"pizzeria/internal/models"
	"pizzeria/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
}

// ProfileInput carries a partial profile update; nil fields are left alone.
type ProfileInput struct {
	FirstName *string           `json:"firstName"`
	LastName  *string           `json:"lastName"`
	Phone     *string           `json:"phone"`
	Addresses *[]models.Address `json:"addresses"`
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	CreateUser(ctx context.Context, user *models.User, password string) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	logger   *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) UserService {
	return &userService{userRepo: userRepo, tokens: tokens, logger: logger}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateRegistration(in); err != nil {
		return nil, "", err
	}

	user := &models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     in.Email,
		Phone:     in.Phone,
		Role:      string(models.RoleCustomer),
		IsActive:  true,
	}
	if err := s.CreateUser(ctx, user, in.Password); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user registered", zap.Uint("user_id", user.ID))
	return user, token, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrAccountDisabled
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// CreateUser hashes password and stores the user. Seeding uses it directly
// to create the admin account.
func (s *userService) CreateUser(ctx context.Context, user *models.User, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	user.Email = normalizeEmail(user.Email)

	err = s.userRepo.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateKey) {
		return ErrEmailTaken
	}
	return err
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *userService) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*models.User, error) {
	if err := validateProfile(in); err != nil {
		return nil, err
	}
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Addresses != nil {
		user.Addresses = normalizeAddresses(*in.Addresses)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.GetAll(ctx)
}

// normalizeAddresses keeps exactly one default: the first flagged address,
// or the first address when none is flagged.
func normalizeAddresses(addresses []models.Address) []models.Address {
	out := make([]models.Address, 0, len(addresses))
	defaultSet := false
	for _, a := range addresses {
		a.Address = strings.TrimSpace(a.Address)
		if a.IsDefault && defaultSet {
			a.IsDefault = false
		}
		defaultSet = defaultSet || a.IsDefault
		out = append(out, a)
	}
	if !defaultSet && len(out) > 0 {
		out[0].IsDefault = true
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
