// Authentication HTTP handlers.
//
// This file exposes REST endpoints for account management:
//   - POST /auth/register  (create an account; role defaults to farmer)
//   - POST /auth/login     (verify credentials, mint a bearer token)
//   - GET  /auth/me        (profile of the authenticated caller)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrosage/go-plant-backend/internal/domain"
	"github.com/agrosage/go-plant-backend/internal/http/middleware"
)

// UserService defines account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type UserService interface {
	// Register creates an account; a blank role defaults to farmer.
	Register(ctx context.Context, username, password, role string) (*domain.User, error)
	// Login verifies credentials and returns the user plus a signed token.
	Login(ctx context.Context, username, password string) (*domain.User, string, error)
	// Me returns the profile for the given user id.
	Me(ctx context.Context, userID uint) (*domain.User, error)
}

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=1,max=100" example:"farmer1"`
	Password string `json:"password" binding:"required,min=6,max=128" example:"password123"`
	// Role is optional; farmer is assumed when empty.
	Role string `json:"role" example:"farmer"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"farmer1"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse carries the bearer token and the authenticated profile.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// RegisterUser godoc
// @ID          registerUser
// @Summary     Register a new account
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body body handlers.RegisterRequest true "Registration payload"
// @Success     201 {object} domain.User
// @Failure     400 {object} handlers.ErrorResponse "Bad request"
// @Failure     409 {object} handlers.ErrorResponse "Username taken"
// @Router      /auth/register [post]
func (h *Handlers) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// LoginUser godoc
// @ID          loginUser
// @Summary     Log in and receive a bearer token
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body body handlers.LoginRequest true "Login payload"
// @Success     200 {object} handlers.LoginResponse
// @Failure     401 {object} handlers.ErrorResponse "Invalid credentials"
// @Router      /auth/login [post]
func (h *Handlers) LoginUser(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, token, err := h.userSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, LoginResponse{Token: token, User: u})
}

// Me godoc
// @ID          me
// @Summary     Profile of the authenticated caller
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} domain.User
// @Failure     401 {object} handlers.ErrorResponse "Unauthorized"
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	id, okID := middleware.CurrentUserID(c)
	if !okID {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
		return
	}
	u, err := h.userSvc.Me(c.Request.Context(), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
