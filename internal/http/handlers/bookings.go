package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/http/middleware"
	"tourbook/internal/http/render"
	"tourbook/internal/pdfgen"
	"tourbook/internal/query"
	"tourbook/internal/repositories"
	"tourbook/internal/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandlers adds the caller-scoped listing and the invoice PDF on top
// of the factory CRUD.
type BookingHandlers struct {
	Bookings repositories.BookingsRepository
}

// MyBase scopes a listing to the principal's own bookings.
func (h BookingHandlers) MyBase(c *gin.Context) []query.Filter {
	p, _ := domain.PrincipalFrom(c.Request.Context())
	return h.Bookings.ByUser(strconv.FormatInt(p.UserID, 10))
}

// GET /api/v1/bookings/:id/invoice streams the booking invoice PDF. Owners
// and booking managers only.
func (h BookingHandlers) Invoice(c *gin.Context) {
	p, ok := domain.PrincipalFrom(c.Request.Context())
	if !ok {
		render.Error(c, domain.Internal("Invoice without principal", nil))
		return
	}
	id, err := parseID(c)
	if err != nil {
		render.Error(c, err)
		return
	}
	booking, err := h.Bookings.FindByID(c.Request.Context(), id)
	if err != nil {
		render.Error(c, err)
		return
	}
	if booking.UserID != p.UserID && p.Role != models.RoleAdmin && p.Role != models.RoleLeadGuide {
		render.Error(c, domain.Forbidden("You do not have permission to perform this action"))
		return
	}

	pdf, filename, err := pdfgen.BookingInvoice(booking)
	if err != nil {
		render.Error(c, domain.Internal("build invoice", err))
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "bookings", "invoice", fmt.Sprintf("booking_id=%d", booking.ID))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
