package repositories

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/query"
)

// UsersRepository persists accounts. Password and reset-token columns are
// only touched by the dedicated credential methods, never by generic CRUD.
type UsersRepository struct {
	DB *sql.DB
}

var userFields = map[string]string{
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
}

var userWritable = map[string]string{
	"name":  "name",
	"email": "email",
	"photo": "photo",
	"role":  "role",
}

const userColumns = `id, name, email, COALESCE(photo, ''), role, active,
	created_at, updated_at`

func (r UsersRepository) Singular() string { return "user" }
func (r UsersRepository) Plural() string   { return "users" }

func (r UsersRepository) Allowed() query.Allowed {
	return query.Allowed{
		Fields:      userFields,
		DefaultSort: []query.SortKey{{Column: "created_at", Desc: true}},
	}
}

// ActiveOnly hides soft-deleted accounts from listings.
func (r UsersRepository) ActiveOnly() []query.Filter {
	return []query.Filter{{Column: "active", Op: query.OpEq, Value: "1"}}
}

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role, &u.Active,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create exists to satisfy Store; account creation goes through Signup. The
// admin POST /users route intentionally refuses service.
func (r UsersRepository) Create(ctx context.Context, doc map[string]any) (models.User, error) {
	return models.User{}, &domain.AppError{
		Code:        http.StatusInternalServerError,
		Message:     "This route is not yet defined! Please use /signup instead.",
		Operational: true,
	}
}

func (r UsersRepository) FindByID(ctx context.Context, id int64) (models.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id)
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, storeErr(err, "find user")
	}
	return u, nil
}

func (r UsersRepository) UpdateByID(ctx context.Context, id int64, patch map[string]any) (models.User, error) {
	if _, err := r.FindByID(ctx, id); err != nil {
		return models.User{}, err
	}
	if role, ok := patchString(patch, "role"); ok && !models.ValidRole(role) {
		return models.User{}, domain.Validation("role", "Role is either: user, guide, lead-guide, admin")
	}
	sets, args := patchAssignments(patch, userWritable)
	if len(sets) > 0 {
		sets = append(sets, "updated_at = NOW()")
		args = append(args, id)
		q := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		if _, err := r.DB.ExecContext(ctx, q, args...); err != nil {
			return models.User{}, storeErr(err, "update user")
		}
	}
	return r.FindByID(ctx, id)
}

func (r UsersRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return storeErr(err, "delete user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNoDocument()
	}
	return nil
}

func (r UsersRepository) FindAll(ctx context.Context, spec query.Spec, base []query.Filter) ([]models.User, error) {
	where, args := specClauses(spec, base)
	limit, limitArgs := spec.LimitClause()
	q := `SELECT ` + userColumns + ` FROM users ` + where + ` ` + spec.OrderClause() + ` ` + limit
	rows, err := r.DB.QueryContext(ctx, q, append(args, limitArgs...)...)
	if err != nil {
		return nil, storeErr(err, "list users")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storeErr(err, "scan user")
		}
		users = append(users, u)
	}
	return users, storeErr(rows.Err(), "list users")
}

func (r UsersRepository) Count(ctx context.Context, spec query.Spec, base []query.Filter) (int64, error) {
	where, args := specClauses(spec, base)
	var n int64
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users `+where, args...).Scan(&n)
	return n, storeErr(err, "count users")
}

// Signup inserts a fresh account with a hashed password.
func (r UsersRepository) Signup(ctx context.Context, name, email, passwordHash, role string) (models.User, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, NOW(), NOW())`,
		name, email, passwordHash, role)
	if err != nil {
		if isDuplicate(err) {
			return models.User{}, domain.BadRequest("This email is already registered")
		}
		return models.User{}, storeErr(err, "signup")
	}
	id, _ := res.LastInsertId()
	return r.FindByID(ctx, id)
}

// FindByEmail loads an active account with its password hash, for login.
func (r UsersRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, email, COALESCE(photo, ''), role, active, password_hash,
			created_at, updated_at
		FROM users WHERE email = ? AND active = 1 LIMIT 1`, email)
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role, &u.Active,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, storeErr(err, "find user by email")
	}
	return u, nil
}

// Credentials loads what the auth gate needs to resolve and staleness-check a
// token subject: the account plus its password-changed timestamp.
func (r UsersRepository) Credentials(ctx context.Context, id int64) (models.User, time.Time, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, email, COALESCE(photo, ''), role, active, password_hash,
			COALESCE(password_changed_at, '1970-01-01'), created_at, updated_at
		FROM users WHERE id = ? AND active = 1 LIMIT 1`, id)
	var u models.User
	var changedAt time.Time
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role, &u.Active,
		&u.PasswordHash, &changedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, time.Time{}, storeErr(err, "load credentials")
	}
	return u, changedAt, nil
}

// UpdatePassword stores a new hash and bumps password_changed_at so that
// previously issued tokens go stale.
func (r UsersRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, password_changed_at = NOW(),
			password_reset_token = NULL, password_reset_expires = NULL,
			updated_at = NOW()
		WHERE id = ?`, passwordHash, id)
	return storeErr(err, "update password")
}

// SetResetToken stores the hashed reset token with its expiry.
func (r UsersRepository) SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET password_reset_token = ?, password_reset_expires = ?, updated_at = NOW()
		WHERE id = ?`, tokenHash, expires, id)
	return storeErr(err, "set reset token")
}

// ClearResetToken drops a stored reset token, used when the email cannot be
// delivered.
func (r UsersRepository) ClearResetToken(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET password_reset_token = NULL, password_reset_expires = NULL, updated_at = NOW()
		WHERE id = ?`, id)
	return storeErr(err, "clear reset token")
}

// FindByResetToken resolves an unexpired hashed reset token to its account.
func (r UsersRepository) FindByResetToken(ctx context.Context, tokenHash string) (models.User, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE password_reset_token = ? AND password_reset_expires > NOW() AND active = 1
		LIMIT 1`, tokenHash)
	u, err := scanUser(row)
	if err != nil {
		if domain.IsNotFound(storeErr(err, "")) {
			return models.User{}, domain.BadRequest("Token is invalid or has expired")
		}
		return models.User{}, storeErr(err, "find by reset token")
	}
	return u, nil
}

// Deactivate soft-deletes the account.
func (r UsersRepository) Deactivate(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET active = 0, updated_at = NOW() WHERE id = ?`, id)
	return storeErr(err, "deactivate user")
}
