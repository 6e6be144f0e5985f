package handlers

import (
	"net/http"

	"tourbook/internal/domain"
	"tourbook/internal/http/render"
	"tourbook/internal/repositories"

	"github.com/gin-gonic/gin"
)

// UserHandlers owns the self-service routes of the authenticated user. The
// admin CRUD routes come straight from the factory.
type UserHandlers struct {
	Users repositories.UsersRepository
}

// GET /api/v1/users/me
func (h UserHandlers) Me(c *gin.Context) {
	p, ok := domain.PrincipalFrom(c.Request.Context())
	if !ok {
		render.Error(c, domain.Internal("Me without principal", nil))
		return
	}
	user, err := h.Users.FindByID(c.Request.Context(), p.UserID)
	if err != nil {
		render.Error(c, err)
		return
	}
	render.Success(c, http.StatusOK, gin.H{"user": user})
}

// updateMeFields is the self-service allow-list; role changes stay admin-only.
var updateMeFields = []string{"name", "email", "photo"}

// PATCH /api/v1/users/updateMe
func (h UserHandlers) UpdateMe(c *gin.Context) {
	p, ok := domain.PrincipalFrom(c.Request.Context())
	if !ok {
		render.Error(c, domain.Internal("UpdateMe without principal", nil))
		return
	}

	doc, err := bindDoc(c)
	if err != nil {
		render.Error(c, err)
		return
	}
	if _, hasPwd := doc["password"]; hasPwd {
		render.Error(c, domain.BadRequest("This route is not for password updates. Please use /updateMyPassword."))
		return
	}
	if _, hasConfirm := doc["passwordConfirm"]; hasConfirm {
		render.Error(c, domain.BadRequest("This route is not for password updates. Please use /updateMyPassword."))
		return
	}

	filtered := map[string]any{}
	for _, f := range updateMeFields {
		if v, ok := doc[f]; ok {
			filtered[f] = v
		}
	}

	user, err := h.Users.UpdateByID(c.Request.Context(), p.UserID, filtered)
	if err != nil {
		render.Error(c, err)
		return
	}
	render.Success(c, http.StatusOK, gin.H{"user": user})
}

// DELETE /api/v1/users/deleteMe soft-deletes the account.
func (h UserHandlers) DeleteMe(c *gin.Context) {
	p, ok := domain.PrincipalFrom(c.Request.Context())
	if !ok {
		render.Error(c, domain.Internal("DeleteMe without principal", nil))
		return
	}
	if err := h.Users.Deactivate(c.Request.Context(), p.UserID); err != nil {
		render.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
