package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/clinscribe/intake/pkg/errors"
)

// Service exposes authentication workflows.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (ClinicianView, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	SSOAuthURL(ctx context.Context, state, codeChallenge string) (string, error)
	SSOCallback(ctx context.Context, code, codeVerifier string) (LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
	Refresh(ctx context.Context, refreshToken string) (LoginResponse, error)
	Profile(ctx context.Context, clinicianID int64) (ClinicianView, error)
	Logout(ctx context.Context, clinicianID int64) error
}

type service struct {
	cfg    Config
	repo   Repository
	logger *slog.Logger

	providerMu sync.Mutex
	provider   *oidc.Provider
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// NewService constructs a Service instance.
func NewService(cfg Config, repo Repository, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		repo:   repo,
		logger: logger.With("component", "auth.service"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (ClinicianView, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return ClinicianView{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
	}
	name, err := normalizeName(req.Name)
	if err != nil {
		return ClinicianView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	if err := validatePassword(req.Password); err != nil {
		return ClinicianView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	_, exists, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return ClinicianView{}, apperrors.Wrap(apperrors.CodeAuthError, "failed to check clinician", err)
	}
	if exists {
		return ClinicianView{}, apperrors.Wrap(apperrors.CodeEmailExists, "email already registered", nil)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return ClinicianView{}, apperrors.Wrap(apperrors.CodeAuthError, "failed to hash password", err)
	}
	clinician, err := s.repo.Create(ctx, email, name, string(hashed))
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return ClinicianView{}, apperrors.Wrap(apperrors.CodeEmailExists, "email already registered", err)
		}
		return ClinicianView{}, apperrors.Wrap(apperrors.CodeAuthError, "failed to create clinician", err)
	}
	return toView(clinician), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
	}
	if strings.TrimSpace(req.Password) == "" {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "password cannot be empty", nil)
	}
	clinician, found, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeAuthError, "failed to fetch clinician", err)
	}
	if !found {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidCredentials, "invalid email or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(clinician.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidCredentials, "invalid email or password", nil)
	}
	return s.buildLoginResponse(clinician)
}

func (s *service) ValidateToken(ctx context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing", nil)
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != tokenTypeAccess {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token type mismatch", nil)
	}
	return claims, nil
}

func (s *service) Profile(ctx context.Context, clinicianID int64) (ClinicianView, error) {
	clinician, found, err := s.repo.GetByID(ctx, clinicianID)
	if err != nil {
		return ClinicianView{}, apperrors.Wrap(apperrors.CodeAuthError, "failed to load profile", err)
	}
	if !found {
		return ClinicianView{}, apperrors.Wrap(apperrors.CodeClinicianNotFound, "clinician not found", nil)
	}
	return toView(clinician), nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (LoginResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return LoginResponse{}, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token type mismatch", nil)
	}
	clinician, found, err := s.repo.GetByID(ctx, claims.ClinicianID)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeAuthError, "failed to load clinician", err)
	}
	if !found {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeClinicianNotFound, "clinician not found", nil)
	}
	return s.buildLoginResponse(clinician)
}

func (s *service) buildLoginResponse(clinician Clinician) (LoginResponse, error) {
	access, err := s.generateToken(clinician, tokenTypeAccess, s.cfg.TokenTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	refresh, err := s.generateToken(clinician, tokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{
		Token:        access,
		RefreshToken: refresh,
		Clinician:    toView(clinician),
	}, nil
}

func (s *service) generateToken(clinician Clinician, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		ClinicianID: clinician.ID,
		Email:       clinician.Email,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(clinician.ID, 10),
			ID:        newTokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeAuthError, "failed to sign token", err)
	}
	return signed, nil
}

func (s *service) parseToken(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token invalid", nil)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing expiry", nil)
	}
	if claims.ExpiresAt.Time.Before(time.Now()) {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token expired", nil)
	}
	return Claims{
		ClinicianID: claims.ClinicianID,
		Email:       claims.Email,
		TokenType:   claims.TokenType,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func toView(clinician Clinician) ClinicianView {
	return ClinicianView{
		ID:        clinician.ID,
		Email:     clinician.Email,
		Name:      clinician.Name,
		CreatedAt: clinician.CreatedAt,
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", errors.New("name cannot be empty")
	}
	if len([]rune(name)) > 64 {
		return "", errors.New("name cannot exceed 64 characters")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '\'' {
			return "", errors.New("name must contain only letters, spaces, hyphens, or apostrophes")
		}
	}
	return name, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	ClinicianID int64  `json:"clinicianId"`
	Email       string `json:"email"`
	TokenType   string `json:"type"`
}

func newTokenID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}
