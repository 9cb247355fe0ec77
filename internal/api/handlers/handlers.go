package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teamdeck/teamdeck-backend/internal/api/middleware"
	"github.com/teamdeck/teamdeck-backend/internal/models"
	"github.com/teamdeck/teamdeck-backend/internal/repository"
	"github.com/teamdeck/teamdeck-backend/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth       *AuthHandler
	Team       *TeamHandler
	Invitation *InvitationHandler
	Role       *RoleHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services, users repository.UserRepository) *Handlers {
	return &Handlers{
		Auth:       &AuthHandler{authService: services.AuthService, contextService: services.ContextService, users: users},
		Team:       &TeamHandler{teamService: services.TeamService, contextService: services.ContextService, users: users},
		Invitation: &InvitationHandler{teamService: services.TeamService, users: users},
		Role:       &RoleHandler{catalog: services.Catalog},
	}
}

// handleServiceError maps service errors to HTTP responses
func handleServiceError(c *gin.Context, err error) {
	if ve, ok := service.AsValidationError(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "The given data was invalid.",
			"bag":     ve.Bag,
			"errors":  ve.Fields,
		})
		return
	}

	switch err {
	case service.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case service.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case service.ErrUserNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case service.ErrUserExists:
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
	case service.ErrInvalidCredentials:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case service.ErrInvalidToken:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUser loads the authenticated user set by the auth middleware.
func currentUser(c *gin.Context, users repository.UserRepository) (*repository.User, bool) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return nil, false
	}

	user, err := users.FindByID(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}
	return user, true
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		CurrentTeamID: u.CurrentTeamID,
		CreatedAt:     u.CreatedAt,
	}
}

func toTeamResponse(t *repository.Team) models.TeamResponse {
	return models.TeamResponse{
		ID:           t.ID,
		Name:         t.Name,
		UserID:       t.UserID,
		PersonalTeam: t.PersonalTeam,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toTeamResponses(teams []*repository.Team) []models.TeamResponse {
	out := make([]models.TeamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, toTeamResponse(t))
	}
	return out
}

func toMemberResponse(m *repository.Membership) models.MemberResponse {
	resp := models.MemberResponse{
		UserID:      m.UserID,
		Role:        m.Role,
		InvitedByID: m.InvitedByID,
		JoinedAt:    m.CreatedAt,
	}
	if m.User != nil {
		resp.User = toUserResponse(m.User)
	}
	return resp
}

func toInvitationResponse(i *repository.TeamInvitation) models.InvitationResponse {
	return models.InvitationResponse{
		ID:          i.ID,
		TeamID:      i.TeamID,
		Email:       i.Email,
		Role:        i.Role,
		InvitedByID: i.InvitedByID,
		ExpiresAt:   i.ExpiresAt,
		CreatedAt:   i.CreatedAt,
	}
}
