package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/participant-registry/internal/config"
	"github.com/noah-isme/participant-registry/internal/dto"
	"github.com/noah-isme/participant-registry/internal/models"
	"github.com/noah-isme/participant-registry/internal/repository"
)

// AdminRole is the only role issued by the registry.
const AdminRole = "admin"

// AdminClaims are the JWT claims carried by admin access tokens.
type AdminClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService signs administrators in and out.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	Logout(ctx context.Context, actor ActivityActor, tokenID string, expiresAt time.Time) error
}

type authService struct {
	admins    map[string]config.AdminAccount
	secret    []byte
	ttl       time.Duration
	tokens    repository.TokenStore
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the authentication service.
func NewAuthService(admins []config.AdminAccount, secret string, ttl time.Duration, tokens repository.TokenStore, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) AuthService {
	accounts := make(map[string]config.AdminAccount, len(admins))
	for _, admin := range admins {
		accounts[strings.ToLower(strings.TrimSpace(admin.Email))] = admin
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	return &authService{
		admins:    accounts,
		secret:    []byte(secret),
		ttl:       ttl,
		tokens:    tokens,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	email := normalizeEmail(payload.Email)
	admin, ok := s.admins[email]
	if !ok {
		s.logger.Warn().Str("email", email).Msg("login attempt for unknown admin")
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(payload.Password)); err != nil {
		s.logger.Warn().Str("email", email).Msg("login attempt with wrong password")
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.ttl)
	claims := AdminClaims{
		Name:  admin.Name,
		Email: admin.Email,
		Role:  AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   admin.Email,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return dto.LoginResponse{}, fmt.Errorf("sign access token: %w", err)
	}

	actor := ActivityActor{Name: admin.Name, Email: admin.Email}
	if s.activity != nil {
		if _, err := s.activity.Record(ctx, ActivityEntry{Actor: actor, Action: models.ActionLogin, Details: "Admin signed in"}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record login")
		}
	}

	return dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Admin:     dto.AdminProfile{Name: admin.Name, Email: admin.Email, Role: AdminRole},
	}, nil
}

func (s *authService) Logout(ctx context.Context, actor ActivityActor, tokenID string, expiresAt time.Time) error {
	if strings.TrimSpace(tokenID) == "" {
		return newValidationError("token", "missing token id")
	}

	if s.tokens != nil {
		if err := s.tokens.Revoke(ctx, tokenID, expiresAt.Sub(s.now())); err != nil {
			s.logger.Error().Err(err).Msg("failed to revoke access token")
			return err
		}
	}

	if s.activity != nil {
		if _, err := s.activity.Record(ctx, ActivityEntry{Actor: actor, Action: models.ActionLogout, Details: "Admin signed out"}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record logout")
		}
	}

	return nil
}
