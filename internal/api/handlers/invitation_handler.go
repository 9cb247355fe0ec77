package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teamdeck/teamdeck-backend/internal/models"
	"github.com/teamdeck/teamdeck-backend/internal/repository"
	"github.com/teamdeck/teamdeck-backend/internal/service"
)

// InvitationHandler handles team invitation HTTP requests
type InvitationHandler struct {
	teamService service.TeamService
	users       repository.UserRepository
}

// ListByTeam lists a team's pending invitations
func (h *InvitationHandler) ListByTeam(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	invitations, err := h.teamService.TeamInvitations(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	out := make([]models.InvitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		out = append(out, toInvitationResponse(inv))
	}
	c.JSON(http.StatusOK, out)
}

// Invite creates a pending invitation for an email address
func (h *InvitationHandler) Invite(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req models.InviteTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invitation, err := h.teamService.InviteTeamMember(c.Request.Context(), user, c.Param("id"), req.Email, req.Role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toInvitationResponse(invitation))
}

// Accept turns an invitation into a membership
func (h *InvitationHandler) Accept(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	if err := h.teamService.AcceptInvitation(c.Request.Context(), user, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation accepted"})
}

// Decline deletes a pending invitation addressed to the current user
func (h *InvitationHandler) Decline(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	if err := h.teamService.DeclineInvitation(c.Request.Context(), user, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation declined"})
}
