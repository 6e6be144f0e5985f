package repositories

import (
	"context"
	"database/sql"
	"strings"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/query"
)

// BookingsRepository persists bookings. Reads join the tour and buyer so the
// invoice endpoint and admin listings get names without extra lookups.
type BookingsRepository struct {
	DB *sql.DB
}

var bookingFields = map[string]string{
	"tour":      "b.tour_id",
	"user":      "b.user_id",
	"price":     "b.price",
	"paid":      "b.paid",
	"createdAt": "b.created_at",
}

var bookingWritable = map[string]string{
	"price": "price",
	"paid":  "paid",
}

const bookingColumns = `b.id, b.tour_id, b.user_id, b.price, b.paid,
	t.name, u.email, b.created_at`

func (r BookingsRepository) Singular() string { return "booking" }
func (r BookingsRepository) Plural() string   { return "bookings" }

func (r BookingsRepository) Allowed() query.Allowed {
	return query.Allowed{
		Fields:      bookingFields,
		DefaultSort: []query.SortKey{{Column: "b.created_at", Desc: true}},
	}
}

// ByUser scopes listings to one buyer, for /bookings/my.
func (r BookingsRepository) ByUser(userID string) []query.Filter {
	return []query.Filter{{Column: "b.user_id", Op: query.OpEq, Value: userID}}
}

func scanBooking(row interface{ Scan(...any) error }) (models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.TourID, &b.UserID, &b.Price, &b.Paid,
		&b.TourName, &b.UserEmail, &b.CreatedAt)
	return b, err
}

func (r BookingsRepository) Create(ctx context.Context, doc map[string]any) (models.Booking, error) {
	tourID, ok := patchNumber(doc, "tour")
	if !ok || tourID <= 0 {
		return models.Booking{}, domain.Validation("tour", "Booking must belong to a tour")
	}
	userID, ok := patchNumber(doc, "user")
	if !ok || userID <= 0 {
		return models.Booking{}, domain.Validation("user", "Booking must belong to a user")
	}
	price, ok := patchNumber(doc, "price")
	if !ok || price <= 0 {
		return models.Booking{}, domain.Validation("price", "Booking must have a price")
	}
	paid, ok := patchBool(doc, "paid")
	if !ok {
		paid = true
	}

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO bookings (tour_id, user_id, price, paid, created_at)
		VALUES (?, ?, ?, ?, NOW())`,
		int64(tourID), int64(userID), price, paid)
	if err != nil {
		return models.Booking{}, storeErr(err, "create booking")
	}
	id, _ := res.LastInsertId()
	return r.FindByID(ctx, id)
}

func (r BookingsRepository) FindByID(ctx context.Context, id int64) (models.Booking, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings b
		JOIN tours t ON t.id = b.tour_id
		JOIN users u ON u.id = b.user_id
		WHERE b.id = ? LIMIT 1`, id)
	b, err := scanBooking(row)
	if err != nil {
		return models.Booking{}, storeErr(err, "find booking")
	}
	return b, nil
}

func (r BookingsRepository) UpdateByID(ctx context.Context, id int64, patch map[string]any) (models.Booking, error) {
	if _, err := r.FindByID(ctx, id); err != nil {
		return models.Booking{}, err
	}
	sets, args := patchAssignments(patch, bookingWritable)
	if len(sets) > 0 {
		args = append(args, id)
		q := `UPDATE bookings SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		if _, err := r.DB.ExecContext(ctx, q, args...); err != nil {
			return models.Booking{}, storeErr(err, "update booking")
		}
	}
	return r.FindByID(ctx, id)
}

func (r BookingsRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return storeErr(err, "delete booking")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNoDocument()
	}
	return nil
}

func (r BookingsRepository) FindAll(ctx context.Context, spec query.Spec, base []query.Filter) ([]models.Booking, error) {
	where, args := specClauses(spec, base)
	limit, limitArgs := spec.LimitClause()
	q := `SELECT ` + bookingColumns + `
		FROM bookings b
		JOIN tours t ON t.id = b.tour_id
		JOIN users u ON u.id = b.user_id ` +
		where + ` ` + spec.OrderClause() + ` ` + limit
	rows, err := r.DB.QueryContext(ctx, q, append(args, limitArgs...)...)
	if err != nil {
		return nil, storeErr(err, "list bookings")
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, storeErr(err, "scan booking")
		}
		bookings = append(bookings, b)
	}
	return bookings, storeErr(rows.Err(), "list bookings")
}

func (r BookingsRepository) Count(ctx context.Context, spec query.Spec, base []query.Filter) (int64, error) {
	where, args := specClauses(spec, base)
	var n int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings b `+where, args...).Scan(&n)
	return n, storeErr(err, "count bookings")
}
