package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/launchpad/internal/web/service"
	"github.com/aussiebroadwan/launchpad/pkg/authsdk"
	"github.com/aussiebroadwan/launchpad/pkg/httpx"
)

// AuthHandler serves the password account endpoints under /api/auth.
type AuthHandler struct {
	AuthService   *service.AuthService
	SecureCookies bool
}

// HandleSignUp godoc
//
//	@Summary		Create an account
//	@Description	Creates a password account and signs it in by setting the session cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignUpRequest	true	"New account"
//	@Success		200		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"validation_error"
//	@Failure		409		{object}	authsdk.ErrorResponse	"already_exists"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/api/auth/signup [post]
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignUpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrValidation.WithMessage("Email and password are required").WriteError(w)
		return
	}

	res, err := h.AuthService.SignUp(r.Context(), service.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			authsdk.ErrValidation.WithMessage("Email and password are required, and passwords may not exceed 72 bytes").WriteError(w)
			return
		}
		writeServiceError(w, r, err, "sign up")
		return
	}

	setSessionCookie(w, res.Token, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthResponse{
		Success: true,
		Message: "User created successfully",
		User:    toUser(res.Account),
	})
}

// HandleSignIn godoc
//
//	@Summary		Sign in with a password
//	@Description	Checks the credentials and sets the session cookie. Unknown emails and wrong passwords get the same answer.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignInRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"validation_error"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/api/auth/signin [post]
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrValidation.WithMessage("Email and password are required").WriteError(w)
		return
	}

	res, err := h.AuthService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			authsdk.ErrValidation.WithMessage("Email and password are required").WriteError(w)
			return
		}
		writeServiceError(w, r, err, "sign in")
		return
	}

	setSessionCookie(w, res.Token, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthResponse{
		Success: true,
		Message: "Sign-in successful",
		User:    toUser(res.Account),
	})
}

// HandleVerify godoc
//
//	@Summary		Current session
//	@Description	Resolves the session cookie to its account.
//	@Tags			Auth
//	@Produce		json
//	@Security		SessionCookie
//	@Success		200	{object}	authsdk.AuthResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"no_token or invalid_token"
//	@Failure		404	{object}	authsdk.ErrorResponse	"user_not_found"
//	@Failure		500	{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/api/auth/verify [get]
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	acc, err := h.AuthService.Whoami(r.Context(), cookieValue(r, SessionCookie))
	if err != nil {
		writeServiceError(w, r, err, "verify session")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthResponse{
		Success: true,
		User:    toUser(acc),
	})
}

// HandleSignOut godoc
//
//	@Summary		Sign out
//	@Description	Clears the session cookie. The token itself stays valid until it expires.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse
//	@Router			/api/auth/signout [post]
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Success: true,
		Message: "Signed out successfully",
	})
}

// HandleForgotPassword godoc
//
//	@Summary		Request a password reset
//	@Description	Emails a one-hour reset link when the account exists. The answer is the same whether or not it does.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ForgotPasswordRequest	true	"Account email"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"validation_error"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/api/auth/forgot-password [post]
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ForgotPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrValidation.WithMessage("Email is required").WriteError(w)
		return
	}

	if err := h.AuthService.ForgotPassword(r.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrValidation) {
			authsdk.ErrValidation.WithMessage("Email is required").WriteError(w)
			return
		}
		writeServiceError(w, r, err, "request password reset")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Success: true,
		Message: "If the email exists, a reset link has been sent",
	})
}

// HandleResetPassword godoc
//
//	@Summary		Reset a password
//	@Description	Spends a reset token from the emailed link. Each token works once.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ResetPasswordRequest	true	"Token and new password"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"validation_error"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_or_expired_token"
//	@Failure		404		{object}	authsdk.ErrorResponse	"user_not_found"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/api/auth/reset-password [post]
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrValidation.WithMessage("Token and new password are required").WriteError(w)
		return
	}

	if err := h.AuthService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, service.ErrValidation) {
			authsdk.ErrValidation.WithMessage("Token and new password are required").WriteError(w)
			return
		}
		writeServiceError(w, r, err, "reset password")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Success: true,
		Message: "Password reset successfully",
	})
}
