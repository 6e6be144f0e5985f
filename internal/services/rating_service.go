package services

import (
	"context"

	"tourbook/internal/repositories"
	"tourbook/internal/utils"
)

// RatingService recalculates a tour's ratingsAverage/ratingsQuantity from its
// reviews, run after every review create/update/delete.
type RatingService struct {
	Reviews repositories.ReviewsRepository
	Tours   repositories.ToursRepository
}

// fallbackAverage applies when a tour has no reviews left.
const fallbackAverage = 4.5

func (s RatingService) Recalculate(ctx context.Context, tourID int64) error {
	count, avg, err := s.Reviews.RatingSummary(ctx, tourID)
	if err != nil {
		return err
	}
	if count == 0 {
		avg = fallbackAverage
	}
	if err := s.Tours.UpdateRatings(ctx, tourID, avg, count); err != nil {
		return err
	}
	utils.LogEvent("", "reviews", "recalc_ratings", "tour ratings updated")
	return nil
}
