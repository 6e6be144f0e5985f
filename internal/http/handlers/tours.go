package handlers

import (
	"net/http"
	"strconv"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/http/render"
	"tourbook/internal/query"
	"tourbook/internal/repositories"

	"github.com/gin-gonic/gin"
)

// TourHandlers owns the tour routes that go beyond the generic factory:
// the top-5 alias preset and the two aggregate endpoints.
type TourHandlers struct {
	Tours repositories.ToursRepository
}

// ListBase hides secret tours from anonymous callers and plain users.
func (h TourHandlers) ListBase(c *gin.Context) []query.Filter {
	if p, ok := domain.PrincipalFrom(c.Request.Context()); ok {
		if p.Role == models.RoleAdmin || p.Role == models.RoleLeadGuide {
			return nil
		}
	}
	return h.Tours.PublicOnly()
}

// AliasTopTours presets the query parameters for the top-5-cheap listing and
// falls through to the regular getAll.
func (h TourHandlers) AliasTopTours(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("limit", "5")
	q.Set("sort", "-ratingsAverage,price")
	q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	c.Request.URL.RawQuery = q.Encode()
	c.Next()
}

// GET /api/v1/tours/stats
func (h TourHandlers) Stats(c *gin.Context) {
	stats, err := h.Tours.Stats(c.Request.Context())
	if err != nil {
		render.Error(c, err)
		return
	}
	render.Success(c, http.StatusOK, gin.H{"stats": stats})
}

// GET /api/v1/tours/monthly-plan/:year
func (h TourHandlers) MonthlyPlan(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1000 || year > 9999 {
		render.Error(c, domain.BadRequest("Please provide a valid year"))
		return
	}
	plan, err := h.Tours.MonthlyPlan(c.Request.Context(), year)
	if err != nil {
		render.Error(c, err)
		return
	}
	render.Success(c, http.StatusOK, gin.H{"plan": plan})
}
