package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/parkspace/parking-client/internal/core/domain"
)

const defaultTokenTTL = 24 * time.Hour

// AuthService implements registration, login and token verification.
type AuthService struct {
	repo      UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(repo UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{repo: repo, jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL, now: time.Now}
}

// Register creates an account. An empty role registers a regular user.
func (s *AuthService) Register(ctx context.Context, username, password string, role domain.Role) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if role == "" {
		role = domain.RoleUser
	}
	role, err := domain.ParseRole(string(role))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a signed token carrying the role.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *User, error) {
	if username == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Verify parses an HS256 token and returns its principal.
func (s *AuthService) Verify(token string) (Principal, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	sub, _ := claims.GetSubject()
	username, _ := claims["username"].(string)
	raw, _ := claims["role"].(string)
	role, err := domain.ParseRole(raw)
	if err != nil || sub == "" {
		return Principal{}, fmt.Errorf("%w: incomplete claims", ErrInvalidCredentials)
	}
	return Principal{UserID: sub, Username: username, Role: role}, nil
}

func (s *AuthService) generateToken(user *User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.jwtSecret)
}
