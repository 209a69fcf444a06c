package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/simplechat/internal/auth"
)

// APIHandlers provides HTTP handlers for account endpoints.
type APIHandlers struct {
	authService *auth.Service
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		log:         logger,
	}
}

// CredentialsRequest is the body of register and login requests.
type CredentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Register handles user registration.
// POST /api/user/register
func (h *APIHandlers) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.authService.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		fail(c, http.StatusConflict, "user already exists")
		return
	case errors.Is(err, auth.ErrInvalidUsername):
		fail(c, http.StatusBadRequest, "username must be 3-32 characters without spaces")
		return
	case errors.Is(err, auth.ErrInvalidPassword):
		fail(c, http.StatusBadRequest, "password must be 6 to 72 bytes long")
		return
	case err != nil:
		h.log.Error().Err(err).Str("username", req.Username).Msg("failed to register user")
		failInternal(c)
		return
	}

	h.log.Info().Str("username", session.User.Username).Msg("user registered")
	c.JSON(http.StatusCreated, authResponse(session))
}

// Login handles user login.
// POST /api/user/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("failed to login user")
		failInternal(c)
		return
	}

	h.log.Info().Str("username", session.User.Username).Msg("user logged in")
	c.JSON(http.StatusOK, authResponse(session))
}
