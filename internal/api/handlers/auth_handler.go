package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teamdeck/teamdeck-backend/internal/models"
	"github.com/teamdeck/teamdeck-backend/internal/repository"
	"github.com/teamdeck/teamdeck-backend/internal/service"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService    service.AuthService
	contextService service.TeamContextService
	users          repository.UserRepository
}

// Register creates a new account
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.AuthResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// Login authenticates a user
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// Me returns the authenticated user together with their current team.
// Resolving the current team repairs a missing pointer on the fly.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	team, err := h.contextService.EnsureCurrentTeam(c.Request.Context(), user)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	resp := gin.H{"user": toUserResponse(user)}
	if team != nil {
		resp["current_team"] = toTeamResponse(team)
	}
	c.JSON(http.StatusOK, resp)
}
