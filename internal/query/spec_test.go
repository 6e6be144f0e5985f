package query

import (
	"net/url"
	"testing"

	"tourbook/internal/domain"
)

var testAllowed = Allowed{
	Fields: map[string]string{
		"name":      "name",
		"price":     "price",
		"duration":  "duration",
		"createdAt": "created_at",
	},
	DefaultSort: []SortKey{{Column: "created_at", Desc: true}},
}

func mustParse(t *testing.T, raw string) Spec {
	t.Helper()
	values, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("bad query %q: %v", raw, err)
	}
	spec, err := ParseSpec(values, testAllowed)
	if err != nil {
		t.Fatalf("ParseSpec(%q): %v", raw, err)
	}
	return spec
}

func TestParseSpecDefaults(t *testing.T) {
	spec := mustParse(t, "")
	if spec.Page != 1 || spec.Limit != 100 {
		t.Fatalf("expected page 1 limit 100, got %d/%d", spec.Page, spec.Limit)
	}
	if spec.PageSet {
		t.Fatalf("page should not be marked explicit")
	}
	if got := spec.OrderClause(); got != "ORDER BY created_at DESC" {
		t.Fatalf("default sort wrong: %q", got)
	}
}

func TestParseSpecNonNumericPagination(t *testing.T) {
	spec := mustParse(t, "page=abc&limit=-3")
	if spec.Page != 1 || spec.Limit != 100 {
		t.Fatalf("non-numeric values must fall back to defaults, got %d/%d", spec.Page, spec.Limit)
	}
	if !spec.PageSet {
		t.Fatalf("page was supplied, PageSet must be true")
	}
}

func TestParseSpecComparisonOperators(t *testing.T) {
	spec := mustParse(t, "price[gte]=100&price[lt]=500&duration=5")
	conds, args := spec.Conditions()
	if len(conds) != 3 {
		t.Fatalf("expected 3 conditions, got %v", conds)
	}
	want := []string{"duration = ?", "price >= ?", "price < ?"}
	for i, c := range conds {
		if c != want[i] {
			t.Fatalf("condition %d = %q, want %q", i, c, want[i])
		}
	}
	if args[1] != "100" || args[2] != "500" {
		t.Fatalf("args wrong: %v", args)
	}
}

func TestParseSpecUnknownFilterField(t *testing.T) {
	values, _ := url.ParseQuery("secret_column=1")
	_, err := ParseSpec(values, testAllowed)
	if err == nil {
		t.Fatalf("expected error for unknown field")
	}
	app := domain.Wrap(err)
	if app.Code != 400 || !app.Operational {
		t.Fatalf("unknown field must be an operational 400, got %+v", app)
	}
}

func TestSortDirections(t *testing.T) {
	desc := mustParse(t, "sort=-price")
	asc := mustParse(t, "sort=price")
	if desc.OrderClause() != "ORDER BY price DESC" {
		t.Fatalf("desc clause wrong: %q", desc.OrderClause())
	}
	if asc.OrderClause() != "ORDER BY price ASC" {
		t.Fatalf("asc clause wrong: %q", asc.OrderClause())
	}
}

func TestMultiKeySort(t *testing.T) {
	spec := mustParse(t, "sort=-price,name")
	if got := spec.OrderClause(); got != "ORDER BY price DESC, name ASC" {
		t.Fatalf("multi sort wrong: %q", got)
	}
}

func TestSkipComputation(t *testing.T) {
	spec := mustParse(t, "page=3&limit=20")
	if spec.Skip() != 40 {
		t.Fatalf("skip = %d, want 40", spec.Skip())
	}
	_, args := spec.LimitClause()
	if args[0] != 20 || args[1] != 40 {
		t.Fatalf("limit args wrong: %v", args)
	}
}

func TestProjectionFields(t *testing.T) {
	spec := mustParse(t, "fields=name,price")
	doc := struct {
		ID     int64   `json:"id"`
		Name   string  `json:"name"`
		Price  float64 `json:"price"`
		Secret string  `json:"secret"`
	}{42, "The Forest Hiker", 397, "hidden"}

	got, ok := spec.Project(doc).(map[string]any)
	if !ok {
		t.Fatalf("expected projected map, got %T", spec.Project(doc))
	}
	if got["name"] != "The Forest Hiker" || got["price"] != float64(397) {
		t.Fatalf("projected values wrong: %v", got)
	}
	if _, leaked := got["secret"]; leaked {
		t.Fatalf("unselected field leaked through projection")
	}
	if got["id"] != float64(42) {
		t.Fatalf("id must always survive projection, got %v", got["id"])
	}
}

func TestProjectionAbsentPassesThrough(t *testing.T) {
	spec := mustParse(t, "")
	doc := struct{ Name string }{"x"}
	if _, same := spec.Project(doc).(struct{ Name string }); !same {
		t.Fatalf("without fields the document must pass through unchanged")
	}
}

func TestUnknownBracketOperatorIsRejected(t *testing.T) {
	// price[foo] is not a recognized operator, so the whole key counts as an
	// unknown field name.
	values, _ := url.ParseQuery("price[foo]=1")
	if _, err := ParseSpec(values, testAllowed); err == nil {
		t.Fatalf("expected unknown-field error for bad operator suffix")
	}
}
