package repositories

import (
	"context"
	"database/sql"
	"strings"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/query"
	"tourbook/internal/utils"
)

// ToursRepository persists tours and their start dates.
type ToursRepository struct {
	DB *sql.DB
}

var tourFields = map[string]string{
	"name":            "name",
	"slug":            "slug",
	"duration":        "duration",
	"maxGroupSize":    "max_group_size",
	"difficulty":      "difficulty",
	"ratingsAverage":  "ratings_average",
	"ratingsQuantity": "ratings_quantity",
	"price":           "price",
	"priceDiscount":   "price_discount",
	"summary":         "summary",
	"createdAt":       "created_at",
}

var tourWritable = map[string]string{
	"name":          "name",
	"duration":      "duration",
	"maxGroupSize":  "max_group_size",
	"difficulty":    "difficulty",
	"price":         "price",
	"priceDiscount": "price_discount",
	"summary":       "summary",
	"description":   "description",
	"imageCover":    "image_cover",
	"secretTour":    "secret_tour",
}

const tourColumns = `id, name, slug, duration, max_group_size, difficulty,
	ratings_average, ratings_quantity, price, COALESCE(price_discount, 0),
	COALESCE(summary, ''), COALESCE(description, ''), COALESCE(image_cover, ''),
	secret_tour, created_at, updated_at`

func (r ToursRepository) Singular() string { return "tour" }
func (r ToursRepository) Plural() string   { return "tours" }

func (r ToursRepository) Allowed() query.Allowed {
	return query.Allowed{
		Fields:      tourFields,
		DefaultSort: []query.SortKey{{Column: "created_at", Desc: true}},
	}
}

// PublicOnly is the base filter hiding secret tours from listings.
func (r ToursRepository) PublicOnly() []query.Filter {
	return []query.Filter{{Column: "secret_tour", Op: query.OpEq, Value: "0"}}
}

func scanTour(row interface{ Scan(...any) error }) (models.Tour, error) {
	var t models.Tour
	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize, &t.Difficulty,
		&t.RatingsAverage, &t.RatingsQuantity, &t.Price, &t.PriceDiscount,
		&t.Summary, &t.Description, &t.ImageCover,
		&t.SecretTour, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r ToursRepository) Create(ctx context.Context, doc map[string]any) (models.Tour, error) {
	name, _ := patchString(doc, "name")
	if name == "" {
		return models.Tour{}, domain.Validation("name", "A tour must have a name")
	}
	price, ok := patchNumber(doc, "price")
	if !ok || price <= 0 {
		return models.Tour{}, domain.Validation("price", "A tour must have a price")
	}
	difficulty, _ := patchString(doc, "difficulty")
	if difficulty == "" {
		difficulty = "medium"
	}
	if !models.TourDifficulties[difficulty] {
		return models.Tour{}, domain.Validation("difficulty", "Difficulty is either: easy, medium, difficult")
	}

	duration, _ := patchNumber(doc, "duration")
	groupSize, _ := patchNumber(doc, "maxGroupSize")
	discount, _ := patchNumber(doc, "priceDiscount")
	if discount >= price && discount > 0 {
		return models.Tour{}, domain.Validation("priceDiscount", "Discount price should be below regular price")
	}
	summary, _ := patchString(doc, "summary")
	description, _ := patchString(doc, "description")
	imageCover, _ := patchString(doc, "imageCover")
	secret, _ := patchBool(doc, "secretTour")

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO tours
			(name, slug, duration, max_group_size, difficulty, ratings_average,
			 ratings_quantity, price, price_discount, summary, description,
			 image_cover, secret_tour, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 4.5, 0, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		name, utils.Slugify(name), int(duration), int(groupSize), difficulty,
		price, discount, summary, description, imageCover, secret,
	)
	if err != nil {
		return models.Tour{}, storeErr(err, "create tour")
	}
	id, _ := res.LastInsertId()

	if dates, ok := doc["startDates"].([]any); ok {
		if err := r.replaceStartDates(ctx, id, dates); err != nil {
			return models.Tour{}, err
		}
	}
	return r.FindByID(ctx, id)
}

func (r ToursRepository) FindByID(ctx context.Context, id int64) (models.Tour, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+tourColumns+` FROM tours WHERE id = ? LIMIT 1`, id)
	t, err := scanTour(row)
	if err != nil {
		return models.Tour{}, storeErr(err, "find tour")
	}
	t.StartDates, err = r.startDates(ctx, id)
	if err != nil {
		return models.Tour{}, err
	}
	return t, nil
}

func (r ToursRepository) UpdateByID(ctx context.Context, id int64, patch map[string]any) (models.Tour, error) {
	if _, err := r.FindByID(ctx, id); err != nil {
		return models.Tour{}, err
	}
	if difficulty, ok := patchString(patch, "difficulty"); ok && !models.TourDifficulties[difficulty] {
		return models.Tour{}, domain.Validation("difficulty", "Difficulty is either: easy, medium, difficult")
	}

	sets, args := patchAssignments(patch, tourWritable)
	if name, ok := patchString(patch, "name"); ok && name != "" {
		sets = append(sets, "slug = ?")
		args = append(args, utils.Slugify(name))
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = NOW()")
		args = append(args, id)
		q := `UPDATE tours SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		if _, err := r.DB.ExecContext(ctx, q, args...); err != nil {
			return models.Tour{}, storeErr(err, "update tour")
		}
	}
	if dates, ok := patch["startDates"].([]any); ok {
		if err := r.replaceStartDates(ctx, id, dates); err != nil {
			return models.Tour{}, err
		}
	}
	return r.FindByID(ctx, id)
}

func (r ToursRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tours WHERE id = ?`, id)
	if err != nil {
		return storeErr(err, "delete tour")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNoDocument()
	}
	_, err = r.DB.ExecContext(ctx, `DELETE FROM tour_dates WHERE tour_id = ?`, id)
	return storeErr(err, "delete tour dates")
}

func (r ToursRepository) FindAll(ctx context.Context, spec query.Spec, base []query.Filter) ([]models.Tour, error) {
	where, args := specClauses(spec, base)
	limit, limitArgs := spec.LimitClause()
	q := `SELECT ` + tourColumns + ` FROM tours ` + where + ` ` + spec.OrderClause() + ` ` + limit
	rows, err := r.DB.QueryContext(ctx, q, append(args, limitArgs...)...)
	if err != nil {
		return nil, storeErr(err, "list tours")
	}
	defer rows.Close()

	var tours []models.Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, storeErr(err, "scan tour")
		}
		tours = append(tours, t)
	}
	return tours, storeErr(rows.Err(), "list tours")
}

func (r ToursRepository) Count(ctx context.Context, spec query.Spec, base []query.Filter) (int64, error) {
	where, args := specClauses(spec, base)
	var n int64
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tours `+where, args...).Scan(&n)
	return n, storeErr(err, "count tours")
}

func (r ToursRepository) startDates(ctx context.Context, tourID int64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT DATE_FORMAT(start_date, '%Y-%m-%dT%H:%i:%sZ') FROM tour_dates WHERE tour_id = ? ORDER BY start_date`, tourID)
	if err != nil {
		return nil, storeErr(err, "tour dates")
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, storeErr(err, "scan tour date")
		}
		dates = append(dates, d)
	}
	return dates, storeErr(rows.Err(), "tour dates")
}

func (r ToursRepository) replaceStartDates(ctx context.Context, tourID int64, dates []any) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM tour_dates WHERE tour_id = ?`, tourID); err != nil {
		return storeErr(err, "clear tour dates")
	}
	for _, d := range dates {
		s, ok := d.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		if _, err := r.DB.ExecContext(ctx,
			`INSERT INTO tour_dates (tour_id, start_date) VALUES (?, ?)`, tourID, s); err != nil {
			return storeErr(err, "insert tour date")
		}
	}
	return nil
}

// UpdateRatings writes the recalculated review aggregate onto a tour.
func (r ToursRepository) UpdateRatings(ctx context.Context, tourID int64, avg float64, quantity int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE tours SET ratings_average = ?, ratings_quantity = ?, updated_at = NOW() WHERE id = ?`,
		avg, quantity, tourID)
	return storeErr(err, "update tour ratings")
}

// Stats aggregates rating and price figures per difficulty, public tours only.
func (r ToursRepository) Stats(ctx context.Context) ([]models.TourStats, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT difficulty, COUNT(*), COALESCE(SUM(ratings_quantity), 0),
			COALESCE(AVG(ratings_average), 0), COALESCE(AVG(price), 0),
			COALESCE(MIN(price), 0), COALESCE(MAX(price), 0)
		FROM tours
		WHERE secret_tour = 0
		GROUP BY difficulty
		ORDER BY AVG(price)`)
	if err != nil {
		return nil, storeErr(err, "tour stats")
	}
	defer rows.Close()

	var stats []models.TourStats
	for rows.Next() {
		var s models.TourStats
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings,
			&s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, storeErr(err, "scan tour stats")
		}
		stats = append(stats, s)
	}
	return stats, storeErr(rows.Err(), "tour stats")
}

// MonthlyPlan counts tour starts per month of the given year, busiest first.
func (r ToursRepository) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlanEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT MONTH(d.start_date), COUNT(*),
			GROUP_CONCAT(t.name ORDER BY t.name SEPARATOR '|')
		FROM tour_dates d
		JOIN tours t ON t.id = d.tour_id
		WHERE YEAR(d.start_date) = ?
		GROUP BY MONTH(d.start_date)
		ORDER BY COUNT(*) DESC, MONTH(d.start_date)`, year)
	if err != nil {
		return nil, storeErr(err, "monthly plan")
	}
	defer rows.Close()

	var plan []models.MonthlyPlanEntry
	for rows.Next() {
		var e models.MonthlyPlanEntry
		var names string
		if err := rows.Scan(&e.Month, &e.NumTourStarts, &names); err != nil {
			return nil, storeErr(err, "scan monthly plan")
		}
		if names != "" {
			e.Tours = strings.Split(names, "|")
		}
		plan = append(plan, e)
	}
	return plan, storeErr(rows.Err(), "monthly plan")
}
