package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"chargemap/backend/libs/auth"
	"chargemap/backend/services/auth-service/internal/models"
	"chargemap/backend/services/auth-service/internal/password"
	"chargemap/backend/services/auth-service/internal/repository"
)

const minPasswordLength = 8

var (
	// ErrUsernameTaken is returned when attempting to register a duplicate username.
	ErrUsernameTaken = errors.New("auth: username already exists")
	// ErrEmailInUse is returned when attempting to register duplicate email.
	ErrEmailInUse = errors.New("auth: email already exists")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrPasswordMismatch means password and password2 differ.
	ErrPasswordMismatch = errors.New("auth: passwords don't match")
	// ErrPasswordTooShort means the password is under the minimum length.
	ErrPasswordTooShort = errors.New("auth: password must be at least 8 characters long")
	// ErrPasswordTooLong means the password exceeds what the hasher accepts.
	ErrPasswordTooLong = errors.New("auth: password must be at most 72 bytes")
	// ErrUsernameRequired means registration came without a username.
	ErrUsernameRequired = errors.New("auth: username is required")
	// ErrInvalidEmail means the email address could not be parsed.
	ErrInvalidEmail = errors.New("auth: invalid email address")
	// ErrUserNotFound is returned for tokens of deleted accounts.
	ErrUserNotFound = errors.New("auth: user not found")
)

// UserRepository defines storage contract used by the service.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, profile models.Profile) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateToken(userID int64, username, role string) (string, error)
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	Password2   string
	FirstName   string
	LastName    string
	PhoneNumber string
	VehicleType string
}

// AuthService contains registration, login and profile logic.
type AuthService struct {
	repo      UserRepository
	hasher    password.Hasher
	tokenizer TokenIssuer
	denylist  auth.Denylist
	logger    *zap.Logger
}

// NewAuthService builds AuthService.
func NewAuthService(repo UserRepository, hasher password.Hasher, tokenizer TokenIssuer, denylist auth.Denylist, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokenizer: tokenizer,
		denylist:  denylist,
		logger:    logger,
	}
}

// Register creates a regular user account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	email, err := validEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if in.Password != in.Password2 {
		return nil, ErrPasswordMismatch
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, password.ErrTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		VehicleType:  strings.TrimSpace(in.VehicleType),
		Role:         auth.RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates a user by username and produces a JWT.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	s.rehash(ctx, user, password)

	token, err := s.tokenizer.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return token, user, nil
}

// rehash upgrades a hash made with an outdated bcrypt cost. Failures only cost
// another attempt at the next login.
func (s *AuthService) rehash(ctx context.Context, user *models.User, password string) {
	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.repo.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.Warn("failed to rehash password", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}
	user.PasswordHash = hash
	s.logger.Info("password rehashed", zap.Int64("user_id", user.ID))
}

// Logout revokes the presented token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return auth.ErrInvalidToken
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	s.logger.Info("user logged out", zap.Int64("user_id", claims.UserID))
	return nil
}

// Profile returns the user's own account.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return user, nil
}

// UpdateProfile changes the editable fields of the user's account.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, profile models.Profile) (*models.User, error) {
	email, err := validEmail(profile.Email)
	if err != nil {
		return nil, err
	}
	profile.Email = email
	profile.FirstName = strings.TrimSpace(profile.FirstName)
	profile.LastName = strings.TrimSpace(profile.LastName)
	profile.PhoneNumber = strings.TrimSpace(profile.PhoneNumber)
	profile.VehicleType = strings.TrimSpace(profile.VehicleType)

	user, err := s.repo.UpdateProfile(ctx, userID, profile)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return user, nil
}

func validEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrUsernameTaken):
		return ErrUsernameTaken
	case errors.Is(err, repository.ErrEmailTaken):
		return ErrEmailInUse
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	}
	return err
}
