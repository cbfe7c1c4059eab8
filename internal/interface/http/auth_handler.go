package http

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/clinscribe/intake/internal/domain/auth"
	apperrors "github.com/clinscribe/intake/pkg/errors"
)

// Register creates a clinician account.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	view, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, authHTTPError(err, "register_failed"))
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Login exchanges credentials for an access and refresh token pair.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, authHTTPError(err, "login_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh rotates an access token using a refresh token.
func (h *Handler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, authHTTPError(err, "refresh_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Profile returns the authenticated clinician.
func (h *Handler) Profile(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	view, err := h.authSvc.Profile(c.Request.Context(), claims.ClinicianID)
	if err != nil {
		abortWithError(c, authHTTPError(err, "profile_failed"))
		return
	}
	c.JSON(http.StatusOK, view)
}

// Logout revokes any linked SSO refresh token.
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), claims.ClinicianID); err != nil {
		abortWithError(c, authHTTPError(err, "logout_failed"))
		return
	}
	c.Status(http.StatusNoContent)
}

// SSOLogin starts the OIDC login flow with PKCE.
func (h *Handler) SSOLogin(c *gin.Context) {
	state, verifier, challenge, err := auth.NewOAuthState()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "auth_failed", "failed to prepare sso state", err))
		return
	}
	authURL, err := h.authSvc.SSOAuthURL(c.Request.Context(), state, challenge)
	if err != nil {
		abortWithError(c, authHTTPError(err, "sso_failed"))
		return
	}
	setOAuthStateCookie(c, state, verifier)
	c.Redirect(http.StatusFound, authURL)
}

// SSOCallback completes the OIDC login flow.
func (h *Handler) SSOCallback(c *gin.Context) {
	cookie, ok := readOAuthStateCookie(c)
	clearOAuthStateCookie(c)
	if !ok || cookie.State != c.Query("state") {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "state mismatch", nil))
		return
	}
	resp, err := h.authSvc.SSOCallback(c.Request.Context(), c.Query("code"), cookie.CodeVerifier)
	if err != nil {
		abortWithError(c, authHTTPError(err, "sso_failed"))
		return
	}
	if h.postLoginRedirect != "" {
		redirect := h.postLoginRedirect + "#" + url.Values{
			"token":        {resp.Token},
			"refreshToken": {resp.RefreshToken},
		}.Encode()
		c.Redirect(http.StatusFound, redirect)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func authHTTPError(err error, fallbackCode string) *HTTPError {
	status := http.StatusInternalServerError
	code := fallbackCode
	switch {
	case apperrors.IsCode(err, apperrors.CodeInvalidInput), apperrors.IsCode(err, apperrors.CodeInvalidRequest):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, apperrors.CodeEmailExists):
		status = http.StatusConflict
		code = "email_exists"
	case apperrors.IsCode(err, apperrors.CodeInvalidCredentials):
		status = http.StatusUnauthorized
		code = "invalid_credentials"
	case apperrors.IsCode(err, apperrors.CodeInvalidToken):
		status = http.StatusForbidden
		code = "invalid_token"
	case apperrors.IsCode(err, apperrors.CodeClinicianNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case apperrors.IsCode(err, apperrors.CodeAuthNotConfigured):
		status = http.StatusServiceUnavailable
		code = "auth_not_configured"
	case apperrors.IsCode(err, apperrors.CodeOAuthExchangeFailed):
		status = http.StatusBadGateway
		code = "oauth_exchange_failed"
	case apperrors.IsCode(err, apperrors.CodeAccountLinkingDisabled):
		status = http.StatusConflict
		code = "account_linking_disabled"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}
