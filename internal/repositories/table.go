// Package repositories implements MySQL persistence for every resource kind.
// Each repository wraps hand-written parameterized SQL behind the Store
// capability surface consumed by the generic handler factory.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"tourbook/internal/domain"
	"tourbook/internal/query"

	"github.com/go-sql-driver/mysql"
)

// Store is the capability set the handler factory needs from a resource.
// Documents cross the boundary as key-presence patch maps on the way in and
// typed structs on the way out.
type Store[T any] interface {
	Create(ctx context.Context, doc map[string]any) (T, error)
	FindByID(ctx context.Context, id int64) (T, error)
	UpdateByID(ctx context.Context, id int64, patch map[string]any) (T, error)
	DeleteByID(ctx context.Context, id int64) error
	FindAll(ctx context.Context, spec query.Spec, base []query.Filter) ([]T, error)
	Count(ctx context.Context, spec query.Spec, base []query.Filter) (int64, error)

	// Singular and Plural name the resource in response envelopes.
	Singular() string
	Plural() string
	Allowed() query.Allowed
}

func whereSQL(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conds, " AND ")
}

// specClauses merges repository base filters with the caller's Spec into a
// WHERE fragment and args.
func specClauses(spec query.Spec, base []query.Filter) (string, []any) {
	conds, args := query.Spec{Filters: base}.Conditions()
	specConds, specArgs := spec.Conditions()
	conds = append(conds, specConds...)
	args = append(args, specArgs...)
	return whereSQL(conds), args
}

// patchAssignments renders "col = ?" fragments for the patch keys present in
// writable, in deterministic order. API (json) names map to SQL columns.
func patchAssignments(patch map[string]any, writable map[string]string) ([]string, []any) {
	names := make([]string, 0, len(patch))
	for name := range patch {
		if _, ok := writable[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	for _, name := range names {
		sets = append(sets, writable[name]+" = ?")
		args = append(args, patch[name])
	}
	return sets, args
}

// isDuplicate reports a MySQL unique-key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func duplicateError() *domain.AppError {
	return domain.BadRequest("Duplicate field value: please use another value.")
}

// storeErr maps low-level sql errors onto the app taxonomy. ErrNoRows is the
// uniform not-found; everything else is a server fault.
func storeErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrNoDocument()
	case isDuplicate(err):
		return duplicateError()
	default:
		return domain.Internal(fmt.Sprintf("store: %s", op), err)
	}
}

// Patch field coercion helpers. JSON-decoded bodies carry float64 numbers
// and untyped strings; repositories normalize them before binding.

func patchString(patch map[string]any, key string) (string, bool) {
	v, ok := patch[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return strings.TrimSpace(s), ok
}

func patchNumber(patch map[string]any, key string) (float64, bool) {
	v, ok := patch[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func patchBool(patch map[string]any, key string) (bool, bool) {
	v, ok := patch[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
