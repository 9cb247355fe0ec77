package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teamdeck/teamdeck-backend/internal/models"
	"github.com/teamdeck/teamdeck-backend/internal/teams"
)

// RoleHandler exposes the assignable role catalog
type RoleHandler struct {
	catalog *teams.RoleCatalog
}

// List returns the registered roles in registration order
func (h *RoleHandler) List(c *gin.Context) {
	roles := h.catalog.Roles()

	out := make([]models.RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, models.RoleResponse{
			Key:         role.Key,
			Name:        role.Name,
			Permissions: role.Permissions,
			Description: role.Description,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Permissions returns the full permission universe across all roles
func (h *RoleHandler) Permissions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"permissions": h.catalog.Permissions()})
}
