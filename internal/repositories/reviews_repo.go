package repositories

import (
	"context"
	"database/sql"
	"strings"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/query"
)

// ReviewsRepository persists reviews. Reads join the author so responses can
// carry the reviewer's name and photo, matching the expanded getOne form.
type ReviewsRepository struct {
	DB *sql.DB
}

var reviewFields = map[string]string{
	"review":    "r.review",
	"rating":    "r.rating",
	"tour":      "r.tour_id",
	"user":      "r.user_id",
	"createdAt": "r.created_at",
}

var reviewWritable = map[string]string{
	"review": "review",
	"rating": "rating",
}

const reviewColumns = `r.id, r.review, r.rating, r.tour_id, r.user_id,
	u.name, COALESCE(u.photo, ''), r.created_at`

func (r ReviewsRepository) Singular() string { return "review" }
func (r ReviewsRepository) Plural() string   { return "reviews" }

func (r ReviewsRepository) Allowed() query.Allowed {
	return query.Allowed{
		Fields:      reviewFields,
		DefaultSort: []query.SortKey{{Column: "r.created_at", Desc: true}},
	}
}

// ByTour is the base filter for nested "reviews of one tour" listings.
func (r ReviewsRepository) ByTour(tourID string) []query.Filter {
	return []query.Filter{{Column: "r.tour_id", Op: query.OpEq, Value: tourID}}
}

func scanReview(row interface{ Scan(...any) error }) (models.Review, error) {
	var rv models.Review
	err := row.Scan(&rv.ID, &rv.Review, &rv.Rating, &rv.TourID, &rv.UserID,
		&rv.UserName, &rv.UserPhoto, &rv.CreatedAt)
	return rv, err
}

func (r ReviewsRepository) Create(ctx context.Context, doc map[string]any) (models.Review, error) {
	text, _ := patchString(doc, "review")
	if text == "" {
		return models.Review{}, domain.Validation("review", "Review can not be empty")
	}
	rating, ok := patchNumber(doc, "rating")
	if !ok || rating < 1 || rating > 5 {
		return models.Review{}, domain.Validation("rating", "Rating must be between 1 and 5")
	}
	tourID, ok := patchNumber(doc, "tour")
	if !ok || tourID <= 0 {
		return models.Review{}, domain.Validation("tour", "Review must belong to a tour")
	}
	userID, ok := patchNumber(doc, "user")
	if !ok || userID <= 0 {
		return models.Review{}, domain.Validation("user", "Review must belong to a user")
	}

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO reviews (review, rating, tour_id, user_id, created_at)
		VALUES (?, ?, ?, ?, NOW())`,
		text, rating, int64(tourID), int64(userID))
	if err != nil {
		return models.Review{}, storeErr(err, "create review")
	}
	id, _ := res.LastInsertId()
	return r.FindByID(ctx, id)
}

func (r ReviewsRepository) FindByID(ctx context.Context, id int64) (models.Review, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r JOIN users u ON u.id = r.user_id
		WHERE r.id = ? LIMIT 1`, id)
	rv, err := scanReview(row)
	if err != nil {
		return models.Review{}, storeErr(err, "find review")
	}
	return rv, nil
}

func (r ReviewsRepository) UpdateByID(ctx context.Context, id int64, patch map[string]any) (models.Review, error) {
	if _, err := r.FindByID(ctx, id); err != nil {
		return models.Review{}, err
	}
	if rating, ok := patchNumber(patch, "rating"); ok && (rating < 1 || rating > 5) {
		return models.Review{}, domain.Validation("rating", "Rating must be between 1 and 5")
	}
	sets, args := patchAssignments(patch, reviewWritable)
	if len(sets) > 0 {
		args = append(args, id)
		q := `UPDATE reviews SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		if _, err := r.DB.ExecContext(ctx, q, args...); err != nil {
			return models.Review{}, storeErr(err, "update review")
		}
	}
	return r.FindByID(ctx, id)
}

func (r ReviewsRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return storeErr(err, "delete review")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNoDocument()
	}
	return nil
}

func (r ReviewsRepository) FindAll(ctx context.Context, spec query.Spec, base []query.Filter) ([]models.Review, error) {
	where, args := specClauses(spec, base)
	limit, limitArgs := spec.LimitClause()
	q := `SELECT ` + reviewColumns + `
		FROM reviews r JOIN users u ON u.id = r.user_id ` +
		where + ` ` + spec.OrderClause() + ` ` + limit
	rows, err := r.DB.QueryContext(ctx, q, append(args, limitArgs...)...)
	if err != nil {
		return nil, storeErr(err, "list reviews")
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, storeErr(err, "scan review")
		}
		reviews = append(reviews, rv)
	}
	return reviews, storeErr(rows.Err(), "list reviews")
}

func (r ReviewsRepository) Count(ctx context.Context, spec query.Spec, base []query.Filter) (int64, error) {
	where, args := specClauses(spec, base)
	var n int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews r `+where, args...).Scan(&n)
	return n, storeErr(err, "count reviews")
}

// TourID returns the owning tour of a review, for rating recalculation after
// factory-driven updates and deletes.
func (r ReviewsRepository) TourID(ctx context.Context, reviewID int64) (int64, error) {
	var tourID int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT tour_id FROM reviews WHERE id = ? LIMIT 1`, reviewID).Scan(&tourID)
	if err != nil {
		return 0, storeErr(err, "review tour id")
	}
	return tourID, nil
}

// RatingSummary aggregates review count and average rating for one tour.
func (r ReviewsRepository) RatingSummary(ctx context.Context, tourID int64) (int, float64, error) {
	var n int
	var avg sql.NullFloat64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(rating) FROM reviews WHERE tour_id = ?`, tourID).
		Scan(&n, &avg)
	if err != nil {
		return 0, 0, storeErr(err, "rating summary")
	}
	return n, avg.Float64, nil
}
