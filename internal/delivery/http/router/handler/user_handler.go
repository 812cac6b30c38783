// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"accounts/internal/delivery/http/middleware"
	"accounts/internal/delivery/http/response"
	"accounts/internal/domain/entity"
	"accounts/internal/usecase"
)

// UserHandler holds dependencies for account-related handlers.
type UserHandler struct {
	accounts usecase.AccountUsecase
	auth     usecase.AuthUsecase
	logger   *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(accounts usecase.AccountUsecase, auth usecase.AuthUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		auth:     auth,
		logger:   logger,
	}
}

// --- Request DTOs ---

type addressRequest struct {
	Street     string `json:"street" validate:"max=120"`
	City       string `json:"city" validate:"max=60"`
	Country    string `json:"country" validate:"max=60"`
	PostalCode string `json:"postalCode" validate:"max=16"`
	Type       string `json:"type" validate:"max=20"`
}

type createUserRequest struct {
	FirstName string           `json:"firstName" validate:"required,max=50"`
	LastName  string           `json:"lastName" validate:"required,max=50"`
	Email     string           `json:"email" validate:"required,email,max=120"`
	Password  string           `json:"password" validate:"required"`
	Addresses []addressRequest `json:"addresses" validate:"dive"`
}

type updateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type passwordResetRequestRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type passwordResetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// --- Response DTOs ---

type addressResponse struct {
	AddressID  string `json:"addressId"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	Type       string `json:"type"`
}

type userResponse struct {
	UserID        string            `json:"userId"`
	FirstName     string            `json:"firstName"`
	LastName      string            `json:"lastName"`
	Email         string            `json:"email"`
	EmailVerified bool              `json:"emailVerified"`
	Roles         []string          `json:"roles"`
	Addresses     []addressResponse `json:"addresses"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

type loginResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         userResponse `json:"user"`
}

func toUserResponse(profile *usecase.Profile) userResponse {
	resp := userResponse{
		UserID:        profile.PublicID,
		FirstName:     profile.FirstName,
		LastName:      profile.LastName,
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		Roles:         profile.Roles,
		Addresses:     []addressResponse{},
		CreatedAt:     profile.CreatedAt,
		UpdatedAt:     profile.UpdatedAt,
	}
	for _, addr := range profile.Addresses {
		resp.Addresses = append(resp.Addresses, addressResponse{
			AddressID:  addr.PublicID,
			Street:     addr.Street,
			City:       addr.City,
			Country:    addr.Country,
			PostalCode: addr.PostalCode,
			Type:       addr.Type,
		})
	}

	return resp
}

// HealthCheck reports service liveness.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}

// CreateUser handles the registration request.
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	input := usecase.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}
	for _, addr := range req.Addresses {
		input.Addresses = append(input.Addresses, usecase.AddressInput{
			Street:     addr.Street,
			City:       addr.City,
			Country:    addr.Country,
			PostalCode: addr.PostalCode,
			Type:       addr.Type,
		})
	}

	profile, err := h.accounts.CreateUser(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toUserResponse(profile), "User registered successfully")
}

// GetUser returns one account by its external identifier.
func (h *UserHandler) GetUser(c echo.Context) error {
	profile, err := h.accounts.GetUserByPublicID(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(profile), "")
}

// ListUsers returns one page of accounts. Query parameters: page (1-based)
// and limit.
func (h *UserHandler) ListUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	profiles, err := h.accounts.ListUsers(c.Request().Context(), page, limit)
	if err != nil {
		return errors.WithStack(err)
	}

	users := make([]userResponse, 0, len(profiles))
	for _, profile := range profiles {
		users = append(users, toUserResponse(profile))
	}

	return response.Success(c, http.StatusOK, users, "")
}

// UpdateUser changes the caller's mutable profile fields. Only the account
// owner or an admin may update an account.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	if err := h.requireSelfOrAdmin(c); err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid update input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	profile, err := h.accounts.UpdateUser(c.Request().Context(), c.Param("userId"), usecase.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(profile), "User updated successfully")
}

// DeleteUser removes an account. Only the account owner or an admin may
// delete an account.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	if err := h.requireSelfOrAdmin(c); err != nil {
		return err
	}

	if err := h.accounts.DeleteUser(c.Request().Context(), c.Param("userId")); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "User deleted successfully")
}

func (h *UserHandler) requireSelfOrAdmin(c echo.Context) error {
	callerID, _ := c.Get(middleware.ContextKeyPublicID).(string)
	if callerID == c.Param("userId") {
		return nil
	}
	if roles, ok := c.Get(middleware.ContextKeyRoles).([]string); ok && slices.Contains(roles, entity.RoleAdmin) {
		return nil
	}

	return response.Forbidden(c, "FORBIDDEN", "You may only manage your own account")
}

// VerifyEmail consumes an email-verification token passed as a query parameter.
func (h *UserHandler) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Verification token is required")
	}

	ok, err := h.accounts.VerifyEmailToken(c.Request().Context(), token)
	if err != nil {
		return errors.WithStack(err)
	}
	if !ok {
		return response.BadRequest(c, "INVALID_OR_EXPIRED_TOKEN", "The token is invalid or has expired")
	}

	return response.Success(c, http.StatusOK, nil, "Email verified successfully")
}

// RequestPasswordReset starts the reset workflow. The response is identical
// for known and unknown emails so accounts cannot be enumerated.
func (h *UserHandler) RequestPasswordReset(c echo.Context) error {
	var req passwordResetRequestRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid password reset request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if _, err := h.accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil,
		"If the email address is registered, a reset link has been sent")
}

// ResetPassword completes the reset workflow with a token and a new password.
func (h *UserHandler) ResetPassword(c echo.Context) error {
	var req passwordResetRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid password reset input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ok, err := h.accounts.ResetPassword(c.Request().Context(), req.Token, req.NewPassword)
	if err != nil {
		return errors.WithStack(err)
	}
	if !ok {
		return response.BadRequest(c, "INVALID_OR_EXPIRED_TOKEN", "The token is invalid or has expired")
	}

	return response.Success(c, http.StatusOK, nil, "Password reset successfully")
}

// Login handles the login request.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.auth.Login(c.Request().Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, loginResponse{
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
		User:         toUserResponse(output.User),
	}, "Login successful")
}

// RefreshToken handles the token refresh request.
func (h *UserHandler) RefreshToken(c echo.Context) error {
	var req refreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid refresh token input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{
		"accessToken": output.AccessToken,
	}, "Token refreshed successfully")
}

// Logout handles the logout request.
func (h *UserHandler) Logout(c echo.Context) error {
	var req refreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid logout input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.auth.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Logout successful")
}

// CleanupSessions removes expired sessions. Admin only.
func (h *UserHandler) CleanupSessions(c echo.Context) error {
	if err := h.auth.CleanupExpiredSessions(c.Request().Context()); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Expired sessions removed")
}
