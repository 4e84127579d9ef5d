package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrInvalidToken         = errors.New("invalid or expired token")
)

// AuthService is the session gate: it signs operators in and turns bearer
// tokens back into sessions.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, user *domain.SystemUser, err error)
	ParseToken(token string) (domain.Session, error)
	CreateUser(ctx context.Context, caller domain.Session, name, email, password string, role domain.Role) (*domain.SystemUser, error)
	ListUsers(ctx context.Context) ([]domain.SystemUser, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*domain.SystemUser, error)
	// EnsureBootstrapAdmin creates the first admin when no operator exists.
	EnsureBootstrapAdmin(ctx context.Context, email, password string) error
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.SystemUserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	clock         Clock
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.SystemUserRepository, jwtSecret string, jwtExpiration time.Duration, clock Clock) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 12 * time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		clock:         clock,
	}
}

// Login handles operator authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.SystemUser, error) {
	if email == "" || password == "" {
		return "", nil, invalidf("email and password cannot be empty")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.generateJWT(user)
	if err != nil {
		zap.S().Errorw("token signing failed", "user", user.Email, "error", err)
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// CreateUser registers a new operator. Only admins may do so.
func (s *authService) CreateUser(ctx context.Context, caller domain.Session, name, email, password string, role domain.Role) (*domain.SystemUser, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.createUser(ctx, name, email, password, role)
}

func (s *authService) createUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.SystemUser, error) {
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, invalidf("name, email and password cannot be empty")
	}
	if !role.Valid() {
		return nil, invalidf("unknown role %q", role)
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.SystemUser{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if _, err := s.userRepo.Create(ctx, user); err != nil {
		// Unique index caught a concurrent registration.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]domain.SystemUser, error) {
	return s.userRepo.List(ctx)
}

func (s *authService) GetUser(ctx context.Context, id primitive.ObjectID) (*domain.SystemUser, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, fmt.Errorf("user %w", repository.ErrNotFound))
	}
	return user, nil
}

func (s *authService) EnsureBootstrapAdmin(ctx context.Context, email, password string) error {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if email == "" || password == "" {
		zap.S().Warn("no operators exist and no bootstrap admin is configured; nobody can sign in")
		return nil
	}
	if _, err := s.createUser(ctx, "Administrator", email, password, domain.RoleAdmin); err != nil {
		return err
	}
	zap.S().Infow("bootstrap admin created", "email", email)
	return nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(user *domain.SystemUser) (string, error) {
	now := s.clock.Now()
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "tenzinsgym-pos",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken validates a bearer token and returns its session.
func (s *authService) ParseToken(tokenString string) (domain.Session, error) {
	claims := &jwtClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return domain.Session{}, ErrInvalidToken
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return domain.Session{}, ErrInvalidToken
	}
	return domain.Session{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}
