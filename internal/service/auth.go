package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"docshare/internal/auth"
	"docshare/internal/model"
	"docshare/internal/repository"
)

var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// RegisterInput carries the fields of a registration request.
// Field presence validation happens at the HTTP boundary.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Grade    string
}

// AuthService defines the account and session use cases: registration,
// login with token issuance, and resolving a bearer token back to a user.
type AuthService interface {
	// Register creates a new account with an irreversibly hashed password.
	// Returns ErrEmailTaken when the email is already registered.
	Register(ctx context.Context, in RegisterInput) (*model.User, error)

	// Login verifies credentials and returns a signed bearer token.
	// Returns ErrInvalidCredentials for unknown email or password mismatch.
	Login(ctx context.Context, email, password string) (string, error)

	// UserFromToken validates a bearer token and loads the user it was
	// issued for. Token failures surface as the auth package's typed
	// errors; a valid token for a deleted user yields ErrUserNotFound.
	UserFromToken(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	users      repository.UserRepository
	tokens     *auth.TokenService
	bcryptCost int
}

// NewAuthService constructs an AuthService.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, bcryptCost int) AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Grade:        in.Grade,
		CreatedAt:    model.NewDate(time.Now().UTC()),
	}

	stored, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return stored, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	// bcrypt comparison is constant-time with respect to the stored digest.
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *authService) UserFromToken(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
