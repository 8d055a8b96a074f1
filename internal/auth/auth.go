// Package auth manages officer accounts: signup, login and bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/store"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// DefaultTokenTTL is used when the service is created without a TTL
const DefaultTokenTTL = 12 * time.Hour

var (
	// ErrNotConfigured means no signing secret is set
	ErrNotConfigured = errors.New("authentication not configured")

	// ErrInvalidCredentials covers unknown e-mails and wrong passwords alike
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned by Signup for an existing e-mail
	ErrEmailTaken = errors.New("email already registered")

	// ErrInactive is returned by Login for a deactivated account
	ErrInactive = errors.New("account is inactive")

	// ErrInvalidToken is returned by Verify for any unusable token
	ErrInvalidToken = errors.New("invalid token")
)

// InputError is a signup field problem
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// Accounts is the part of the store auth needs
type Accounts interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

// SignupRequest registers a new officer
type SignupRequest struct {
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	FullName    string     `json:"fullName"`
	Role        model.Role `json:"role"`
	BadgeNumber string     `json:"badgeNumber"`
	StationID   string     `json:"stationId,omitempty"`
	Designation string     `json:"designation,omitempty"`
}

// LoginRequest authenticates an officer
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is a signed token and the user it belongs to
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// Claims are carried in every token
type Claims struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies tokens for officer accounts
type Service struct {
	accounts Accounts
	secret   []byte
	ttl      time.Duration
	cost     int
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBcryptCost overrides the hashing cost
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates an auth service
func NewService(accounts Accounts, secret string, ttl time.Duration, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	s := &Service{
		accounts: accounts,
		secret:   []byte(secret),
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether tokens can be issued
func (s *Service) Configured() bool {
	return len(s.secret) > 0 && s.accounts != nil
}

// Signup creates an account and returns a session for it
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	if err := validateSignup(&req); err != nil {
		return nil, err
	}

	if _, err := s.accounts.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         req.Role,
		BadgeNumber:  req.BadgeNumber,
		StationID:    req.StationID,
		Department:   model.DefaultDepartment,
		Designation:  req.Designation,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
		PasswordHash: string(hash),
	}
	if err := s.accounts.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("officer registered",
		zap.String("user_id", u.ID),
		zap.String("role", string(u.Role)))

	return s.issue(u)
}

// Login checks the password and returns a fresh session
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	u, err := s.accounts.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		s.logger.Warn("login rejected", zap.String("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactive
	}

	now := s.now().UTC()
	if err := s.accounts.TouchLogin(ctx, u.ID, now); err != nil {
		s.logger.Warn("record login failed (non-critical)", zap.String("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLogin = &now
	}

	return s.issue(u)
}

// Verify parses a bearer token
func (s *Service) Verify(token string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrNotConfigured
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func (s *Service) issue(u *model.User) (*Session, error) {
	now := s.now()
	expires := now.Add(s.ttl)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Session{Token: signed, ExpiresAt: expires.UTC(), User: u}, nil
}

func validateSignup(req *SignupRequest) error {
	req.Email = normalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.BadgeNumber = strings.TrimSpace(req.BadgeNumber)

	if _, err := mail.ParseAddress(req.Email); err != nil || req.Email == "" {
		return &InputError{Message: "A valid email is required"}
	}
	if len(req.Password) < MinPasswordLength {
		return &InputError{Message: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)}
	}
	if req.FullName == "" {
		return &InputError{Message: "Full name is required"}
	}
	if req.BadgeNumber == "" {
		return &InputError{Message: "Badge number is required"}
	}
	if !req.Role.Valid() {
		return &InputError{Message: fmt.Sprintf("Invalid role: %s", req.Role)}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
