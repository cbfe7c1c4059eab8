package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	apperrors "github.com/clinscribe/intake/pkg/errors"
)

const ssoProviderName = "oidc"

type ssoClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
}

func (s *service) SSOAuthURL(ctx context.Context, state, codeChallenge string) (string, error) {
	cfg, _, err := s.oauthConfig(ctx)
	if err != nil {
		return "", err
	}
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("access_type", "offline"),
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}
	return cfg.AuthCodeURL(state, opts...), nil
}

func (s *service) SSOCallback(ctx context.Context, code, codeVerifier string) (LoginResponse, error) {
	cfg, provider, err := s.oauthConfig(ctx)
	if err != nil {
		return LoginResponse{}, err
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(codeVerifier) == "" {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidRequest, "missing oauth code or verifier", nil)
	}
	token, err := cfg.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeOAuthExchangeFailed, "failed to exchange oauth code", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeOAuthExchangeFailed, "missing id_token in oauth response", nil)
	}
	claims, err := s.verifyIDToken(ctx, provider, rawIDToken)
	if err != nil {
		return LoginResponse{}, err
	}
	if !claims.EmailVerified {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidCredentials, "sso account email not verified", nil)
	}
	email, err := normalizeEmail(claims.Email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
	}
	if claims.Subject == "" {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeAuthError, "missing sso subject", nil)
	}

	identity, found, err := s.repo.GetIdentity(ctx, ssoProviderName, claims.Subject)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeAuthError, "failed to fetch identity", err)
	}
	if found {
		clinician, ok, err := s.repo.GetByID(ctx, identity.ClinicianID)
		if err != nil {
			return LoginResponse{}, apperrors.Wrap(apperrors.CodeAuthError, "failed to load clinician", err)
		}
		if !ok {
			return LoginResponse{}, apperrors.Wrap(apperrors.CodeClinicianNotFound, "clinician not found", nil)
		}
		if token.RefreshToken != "" {
			if err := s.upsertIdentity(ctx, identity.ClinicianID, claims, token.RefreshToken); err != nil {
				return LoginResponse{}, err
			}
		}
		return s.buildLoginResponse(clinician)
	}

	if _, exists, err := s.repo.GetByEmail(ctx, email); err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeAuthError, "failed to check existing clinician", err)
	} else if exists {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeAccountLinkingDisabled, "account linking by email is not enabled", nil)
	}

	name := ssoDisplayName(claims)
	passwordHash, err := hashRandomPassword()
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeAuthError, "failed to generate password hash", err)
	}
	clinician, err := s.repo.Create(ctx, email, name, passwordHash)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return LoginResponse{}, apperrors.Wrap(apperrors.CodeEmailExists, "email already registered", err)
		}
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeAuthError, "failed to create clinician", err)
	}

	if err := s.upsertIdentity(ctx, clinician.ID, claims, token.RefreshToken); err != nil {
		return LoginResponse{}, err
	}
	return s.buildLoginResponse(clinician)
}

func (s *service) Logout(ctx context.Context, clinicianID int64) error {
	identity, found, err := s.repo.GetIdentityByClinician(ctx, clinicianID, ssoProviderName)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeAuthError, "failed to fetch identity", err)
	}
	if !found || identity.RefreshToken == "" {
		return nil
	}
	refreshToken, err := decryptToken(s.cfg.SSO.TokenEncryptionKey, identity.RefreshToken)
	if err != nil {
		s.logger.Warn("failed to decrypt sso refresh token", "error", err)
		return nil
	}
	if refreshToken == "" {
		return nil
	}
	if err := s.revokeToken(ctx, refreshToken); err != nil {
		s.logger.Warn("failed to revoke sso refresh token", "error", err)
		return nil
	}
	return nil
}

// oauthConfig lazily discovers the OIDC provider and builds the oauth2 config
// from its advertised endpoints.
func (s *service) oauthConfig(ctx context.Context) (*oauth2.Config, *oidc.Provider, error) {
	sso := s.cfg.SSO
	if !sso.Enabled {
		return nil, nil, apperrors.Wrap(apperrors.CodeAuthNotConfigured, "sso is not enabled", nil)
	}
	if strings.TrimSpace(sso.ClientID) == "" || strings.TrimSpace(sso.RedirectURL) == "" {
		return nil, nil, apperrors.Wrap(apperrors.CodeAuthNotConfigured, "sso is not configured", nil)
	}
	if strings.TrimSpace(sso.TokenEncryptionKey) == "" {
		return nil, nil, apperrors.Wrap(apperrors.CodeAuthNotConfigured, "sso token encryption key is missing", nil)
	}
	provider, err := s.discoverProvider(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &oauth2.Config{
		ClientID:     sso.ClientID,
		ClientSecret: sso.ClientSecret,
		RedirectURL:  sso.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		Endpoint:     provider.Endpoint(),
	}, provider, nil
}

func (s *service) discoverProvider(ctx context.Context) (*oidc.Provider, error) {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()
	if s.provider != nil {
		return s.provider, nil
	}
	provider, err := oidc.NewProvider(ctx, s.cfg.SSO.IssuerURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeAuthError, "failed to initialize oidc provider", err)
	}
	s.provider = provider
	return provider, nil
}

func (s *service) verifyIDToken(ctx context.Context, provider *oidc.Provider, rawToken string) (ssoClaims, error) {
	verifier := provider.Verifier(&oidc.Config{ClientID: s.cfg.SSO.ClientID})
	idToken, err := verifier.Verify(ctx, rawToken)
	if err != nil {
		return ssoClaims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "failed to verify id token", err)
	}
	var claims ssoClaims
	if err := idToken.Claims(&claims); err != nil {
		return ssoClaims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "failed to parse id token claims", err)
	}
	if claims.Email == "" {
		return ssoClaims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "missing email in id token", nil)
	}
	return claims, nil
}

func (s *service) upsertIdentity(ctx context.Context, clinicianID int64, claims ssoClaims, refreshToken string) error {
	encoded := ""
	if refreshToken != "" {
		ciphertext, err := encryptToken(s.cfg.SSO.TokenEncryptionKey, refreshToken)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeAuthError, "failed to encrypt refresh token", err)
		}
		encoded = ciphertext
	}
	_, err := s.repo.UpsertIdentity(ctx, Identity{
		ClinicianID:     clinicianID,
		Provider:        ssoProviderName,
		ProviderSubject: claims.Subject,
		ProviderEmail:   claims.Email,
		RefreshToken:    encoded,
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeAuthError, "failed to persist identity", err)
	}
	return nil
}

// revokeToken posts to the provider's revocation endpoint when discovery
// advertises one.
func (s *service) revokeToken(ctx context.Context, refreshToken string) error {
	provider, err := s.discoverProvider(ctx)
	if err != nil {
		return err
	}
	var extra struct {
		RevocationEndpoint string `json:"revocation_endpoint"`
	}
	if err := provider.Claims(&extra); err != nil || extra.RevocationEndpoint == "" {
		return errors.New("provider does not advertise a revocation endpoint")
	}
	form := url.Values{}
	form.Set("token", refreshToken)
	form.Set("token_type_hint", "refresh_token")
	form.Set("client_id", s.cfg.SSO.ClientID)
	if s.cfg.SSO.ClientSecret != "" {
		form.Set("client_secret", s.cfg.SSO.ClientSecret)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, extra.RevocationEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("revocation endpoint returned status %d", resp.StatusCode)
}

func ssoDisplayName(claims ssoClaims) string {
	candidate := strings.TrimSpace(claims.Name)
	if candidate == "" {
		candidate = strings.TrimSpace(claims.GivenName)
	}
	if candidate == "" {
		candidate = strings.Split(claims.Email, "@")[0]
	}
	builder := strings.Builder{}
	for _, r := range candidate {
		if builder.Len() >= 64 {
			break
		}
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r == ' ' || r == '-' {
			builder.WriteRune(r)
		}
	}
	name := strings.TrimSpace(builder.String())
	if name == "" {
		name = "Clinician"
	}
	if normalized, err := normalizeName(name); err == nil {
		return normalized
	}
	return "Clinician"
}

func hashRandomPassword() (string, error) {
	raw, err := randomString(32)
	if err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func randomString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CodeChallengeFromVerifier computes the PKCE code challenge for a verifier.
func CodeChallengeFromVerifier(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// NewOAuthState returns a state, code verifier, and code challenge for PKCE.
func NewOAuthState() (state string, codeVerifier string, codeChallenge string, err error) {
	state, err = randomString(32)
	if err != nil {
		return "", "", "", err
	}
	codeVerifier, err = randomString(32)
	if err != nil {
		return "", "", "", err
	}
	codeChallenge = CodeChallengeFromVerifier(codeVerifier)
	return state, codeVerifier, codeChallenge, nil
}
