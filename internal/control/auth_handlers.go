package control

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bqm/internal/control/auth"
)

// AuthHandler exposes operator registration and JWT issuance.
type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register godoc
// @Summary Register a new operator
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.RegisterRequest true "Registration data"
// @Success 200 {object} Result
// @Failure 409 {object} Result
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err, "invalid request data")
		return
	}
	resp, err := h.svc.Register(req)
	if err != nil {
		if errors.Is(err, auth.ErrOperatorExists) {
			Fail(c, http.StatusConflict, err, "operator already exists")
			return
		}
		InternalError(c, err, "failed to register operator")
		return
	}
	Success(c, resp)
}

// Login godoc
// @Summary Authenticate an operator
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.LoginRequest true "Login credentials"
// @Success 200 {object} Result
// @Failure 401 {object} Result
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err, "invalid request data")
		return
	}
	resp, err := h.svc.Login(req)
	if err != nil {
		if errors.Is(err, auth.ErrOperatorNotFound) || errors.Is(err, auth.ErrInvalidPassword) {
			Unauthorized(c, errors.New("username or password is incorrect"), "invalid credentials")
			return
		}
		InternalError(c, err, "failed to login")
		return
	}
	Success(c, resp)
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken godoc
// @Summary Renew an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body refreshTokenRequest true "Refresh token"
// @Success 200 {object} Result
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err, "invalid request data")
		return
	}
	resp, err := h.svc.RefreshToken(req.RefreshToken)
	if err != nil {
		Unauthorized(c, err, "invalid or expired refresh token")
		return
	}
	Success(c, resp)
}

// Logout godoc
// @Summary Revoke a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body refreshTokenRequest true "Refresh token to revoke"
// @Success 200 {object} Result
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err, "invalid request data")
		return
	}
	if err := h.svc.RevokeRefreshToken(req.RefreshToken); err != nil {
		Unauthorized(c, err, "invalid refresh token")
		return
	}
	Success(c, nil)
}

// Me godoc
// @Summary Get the authenticated operator's identity from the bearer token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Result
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	operatorID, exists := c.Get("operator_id")
	if !exists {
		Unauthorized(c, errors.New("operator id not found in token"))
		return
	}
	Success(c, gin.H{"operator_id": operatorID, "username": c.GetString("username")})
}
