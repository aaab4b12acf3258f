// Package auth registers accounts, checks passwords and issues the bearer
// tokens the HTTP API authenticates with.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tracker/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// Users is the account storage the service needs.
type Users interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// Registration holds the fields of a sign up request.
type Registration struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type Service struct {
	users      Users
	logger     zerolog.Logger
	issuer     string
	signingKey []byte
	accessTTL  time.Duration
	now        func() time.Time
}

func NewService(users Users, logger zerolog.Logger, issuer, signingKey string, accessTTL time.Duration) *Service {
	return &Service{
		users:      users,
		logger:     logger.With().Str("component", "auth").Logger(),
		issuer:     issuer,
		signingKey: []byte(signingKey),
		accessTTL:  accessTTL,
		now:        time.Now,
	}
}

// Register validates r, hashes the password and stores the account.
func (s *Service) Register(ctx context.Context, r Registration) (models.User, error) {
	if err := validateRegistration(r); err != nil {
		return models.User{}, err
	}

	hash, err := argon2id.CreateHash(r.Password, argon2id.DefaultParams)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, models.User{
		Username:     r.Username,
		Email:        r.Email,
		FirstName:    strings.TrimSpace(r.FirstName),
		LastName:     strings.TrimSpace(r.LastName),
		PasswordHash: hash,
	})
	if err != nil {
		return models.User{}, err
	}

	s.logger.Info().Int64("user_id", u.ID).Msg("registered user")
	return u, nil
}

// Login checks the password of username and returns a fresh access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, models.User, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return "", models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", models.User{}, err
	}

	match, err := argon2id.ComparePasswordAndHash(password, u.PasswordHash)
	if err != nil {
		return "", models.User{}, fmt.Errorf("failed to compare password: %w", err)
	}
	if !match {
		s.logger.Debug().Int64("user_id", u.ID).Msg("password mismatch")
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := s.IssueToken(u.ID)
	if err != nil {
		return "", models.User{}, err
	}
	s.logger.Info().Int64("user_id", u.ID).Msg("logged in")
	return token, u, nil
}

// IssueToken signs an access token whose subject is userID.
func (s *Service) IssueToken(userID int64) (string, error) {
	tokenID, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        tokenID.String(),
		Issuer:    s.issuer,
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Authenticate parses a bearer token and loads the user it was issued to.
func (s *Service) Authenticate(ctx context.Context, token string) (models.User, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return models.User{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}

	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return models.User{}, fmt.Errorf("%w: unknown user %d", ErrInvalidToken, userID)
	}
	return u, err
}

// validateRegistration holds the username rules binding tags cannot
// express. Email and password shape is checked when the request is bound.
func validateRegistration(r Registration) error {
	username := strings.TrimSpace(r.Username)
	switch {
	case username == "":
		return models.NewValidationError("username", "This field may not be blank.")
	case strings.ContainsAny(username, " \t\n"):
		return models.NewValidationError("username", "Enter a valid username.")
	case strings.TrimSpace(r.Email) == "":
		return models.NewValidationError("email", "This field may not be blank.")
	}
	return nil
}
