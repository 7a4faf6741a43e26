package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mhofstetter/schulplan-api/internal/middleware"
	"github.com/mhofstetter/schulplan-api/internal/service"
	"github.com/mhofstetter/schulplan-api/pkg/config"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
	"github.com/mhofstetter/schulplan-api/pkg/response"
)

// AuthHandler manages registration, login and logout.
type AuthHandler struct {
	service *service.AuthService
	session config.SessionConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(svc *service.AuthService, session config.SessionConfig) *AuthHandler {
	return &AuthHandler{service: svc, session: session}
}

// Register godoc
// @Summary Register an account
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body service.RegisterRequest true "Account payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Login godoc
// @Summary Log in and receive a session token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body service.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.SetCookie(h.session.CookieName, result.Token, int(h.session.TTL.Seconds()), "/", "", h.session.CookieSecure, true)
	response.JSON(c, http.StatusOK, result)
}

// Logout godoc
// @Summary Revoke the current session
// @Tags Auth
// @Success 204
// @Security SessionToken
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.Token(c)
	if err := h.service.Logout(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}
	c.SetCookie(h.session.CookieName, "", -1, "/", "", h.session.CookieSecure, true)
	response.NoContent(c)
}

// Me godoc
// @Summary Return the acting user
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Security SessionToken
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	response.JSON(c, http.StatusOK, middleware.User(c))
}
