package handlers

import (
	"net/http"
	"strconv"

	"tourbook/internal/domain"
	"tourbook/internal/http/render"
	"tourbook/internal/query"
	"tourbook/internal/repositories"
	"tourbook/internal/services"

	"github.com/gin-gonic/gin"
)

// ReviewHandlers adds the review-specific behavior around the factory:
// nested-route defaults on create, and rating recalculation after every
// mutation.
type ReviewHandlers struct {
	Reviews repositories.ReviewsRepository
	Ratings services.RatingService
}

// NestedBase scopes a listing to the tour named in the route, when nested.
func (h ReviewHandlers) NestedBase(c *gin.Context) []query.Filter {
	if tourID := c.Param("id"); tourID != "" {
		return h.Reviews.ByTour(tourID)
	}
	return nil
}

// POST /api/v1/tours/:id/reviews and POST /api/v1/reviews. Tour defaults
// from the route, user always from the principal.
func (h ReviewHandlers) Create(c *gin.Context) {
	p, ok := domain.PrincipalFrom(c.Request.Context())
	if !ok {
		render.Error(c, domain.Internal("review create without principal", nil))
		return
	}

	doc, err := bindDoc(c)
	if err != nil {
		render.Error(c, err)
		return
	}
	if _, present := doc["tour"]; !present {
		if tourID, err := strconv.ParseInt(c.Param("id"), 10, 64); err == nil {
			doc["tour"] = float64(tourID)
		}
	}
	doc["user"] = float64(p.UserID)

	review, err := h.Reviews.Create(c.Request.Context(), doc)
	if err != nil {
		render.Error(c, err)
		return
	}
	if err := h.Ratings.Recalculate(c.Request.Context(), review.TourID); err != nil {
		render.Error(c, err)
		return
	}
	render.Success(c, http.StatusCreated, gin.H{"review": review})
}

// PATCH /api/v1/reviews/:id — factory update semantics plus recalculation.
func (h ReviewHandlers) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		render.Error(c, err)
		return
	}
	patch, err := bindDoc(c)
	if err != nil {
		render.Error(c, err)
		return
	}
	review, err := h.Reviews.UpdateByID(c.Request.Context(), id, patch)
	if err != nil {
		render.Error(c, err)
		return
	}
	if err := h.Ratings.Recalculate(c.Request.Context(), review.TourID); err != nil {
		render.Error(c, err)
		return
	}
	render.Success(c, http.StatusOK, gin.H{"review": review})
}

// DELETE /api/v1/reviews/:id — factory delete semantics plus recalculation.
func (h ReviewHandlers) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		render.Error(c, err)
		return
	}
	tourID, err := h.Reviews.TourID(c.Request.Context(), id)
	if err != nil {
		render.Error(c, err)
		return
	}
	if err := h.Reviews.DeleteByID(c.Request.Context(), id); err != nil {
		render.Error(c, err)
		return
	}
	if err := h.Ratings.Recalculate(c.Request.Context(), tourID); err != nil {
		render.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
