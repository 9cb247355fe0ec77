package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teamdeck/teamdeck-backend/internal/models"
	"github.com/teamdeck/teamdeck-backend/internal/repository"
	"github.com/teamdeck/teamdeck-backend/internal/service"
)

// TeamHandler handles team-related HTTP requests
type TeamHandler struct {
	teamService    service.TeamService
	contextService service.TeamContextService
	users          repository.UserRepository
}

// List lists every team the current user owns or has joined
func (h *TeamHandler) List(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	teams, err := h.contextService.AllTeams(c.Request.Context(), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeamResponses(teams))
}

// Create creates a new team
func (h *TeamHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req models.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.teamService.CreateTeam(c.Request.Context(), user, service.CreateTeamInput{
		Name:     req.Name,
		Personal: req.PersonalTeam,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTeamResponse(team))
}

// Get retrieves a team by ID
func (h *TeamHandler) Get(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	team, err := h.teamService.GetTeam(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeamResponse(team))
}

// UpdateName renames a team
func (h *TeamHandler) UpdateName(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req models.UpdateTeamNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.teamService.UpdateTeamName(c.Request.Context(), user, c.Param("id"), req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeamResponse(team))
}

// Delete deletes a team and everything attached to it
func (h *TeamHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	if err := h.teamService.DeleteTeam(c.Request.Context(), user, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Team deleted"})
}

// SwitchTeam changes the current user's active team
func (h *TeamHandler) SwitchTeam(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req models.SwitchTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.teamService.GetTeam(c.Request.Context(), user, req.TeamID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	switched, err := h.contextService.SwitchTeam(c.Request.Context(), user, team)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if !switched {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	c.JSON(http.StatusOK, toTeamResponse(team))
}

// ============================================
// Members
// ============================================

// ListMembers lists the team's members
func (h *TeamHandler) ListMembers(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	members, err := h.teamService.TeamMembers(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	out := make([]models.MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	c.JSON(http.StatusOK, out)
}

// AddMember attaches an existing user to the team
func (h *TeamHandler) AddMember(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req models.AddTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.teamService.AddTeamMember(c.Request.Context(), user, c.Param("id"), req.Email, req.Role); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Member added"})
}

// UpdateMemberRole changes a member's role
func (h *TeamHandler) UpdateMemberRole(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req models.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.teamService.UpdateMemberRole(c.Request.Context(), user, c.Param("id"), c.Param("userId"), req.Role); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}

// RemoveMember detaches a member from the team
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	if err := h.teamService.RemoveTeamMember(c.Request.Context(), user, c.Param("id"), c.Param("userId")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}
