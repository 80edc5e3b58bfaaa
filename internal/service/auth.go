package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen  = 8
	accessTokenType = "access"
)

type AuthService struct {
	users      repository.UserRepository
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
	clock      clock
	logger     zerolog.Logger
}

type SignUpInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

func newAuthService(users repository.UserRepository, opts Options, clk clock, logger zerolog.Logger) *AuthService {
	cost := opts.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		secret:     []byte(opts.JWTSecret),
		tokenTTL:   opts.AccessTokenTTL,
		bcryptCost: cost,
		clock:      clk,
		logger:     logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, invalid("email: enter a valid email address")
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = email
	}
	if len(in.Password) < minPasswordLen {
		return models.User{}, invalid("password: must be at least %d characters", minPasswordLen)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return models.User{}, conflict("user with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.User{}, storage(err, "", "lookup user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.CreateUser(ctx, models.User{
		Email:        email,
		Username:     username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(hash),
		IsActive:     true,
	})
	if errors.Is(err, repository.ErrConflict) {
		return models.User{}, conflict("user with this email or username already exists")
	}
	if err != nil {
		return models.User{}, storage(err, "", "create user")
	}
	s.logger.Info().Str("user_id", user.ID).Msg("user signed up")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, unauthorized("invalid email or password")
	}
	if err != nil {
		return Session{}, storage(err, "", "lookup user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, unauthorized("invalid email or password")
	}
	if !user.IsActive {
		return Session{}, unauthorized("user account is disabled")
	}

	now := s.clock.now()
	expiresAt := now.Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"typ":   accessTokenType,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return Session{}, err
	}

	if err := s.users.SetLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	} else {
		user.LastLogin = &now
	}
	return Session{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate verifies an access token and resolves the caller from storage.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (models.Identity, error) {
	// Expiry is checked below against the service clock.
	parser := jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, unauthorized("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !claims.VerifyExpiresAt(s.clock.now().Unix(), true) {
		return models.Identity{}, unauthorized("token expired")
	}
	if typ, _ := claims["typ"].(string); typ != accessTokenType {
		return models.Identity{}, unauthorized("invalid token type")
	}
	userID, _ := claims["sub"].(string)
	if !validID(userID) {
		return models.Identity{}, unauthorized("invalid token subject")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Identity{}, unauthorized("user not found")
	}
	if err != nil {
		return models.Identity{}, storage(err, "", "load user")
	}
	if !user.IsActive {
		return models.Identity{}, unauthorized("user account is disabled")
	}
	return user.Identity(), nil
}

func (s *AuthService) CurrentUser(ctx context.Context, id models.Identity) (models.UserSummary, error) {
	user, err := s.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		return models.UserSummary{}, storage(err, "user not found", "load user")
	}
	return user.Summary(), nil
}
