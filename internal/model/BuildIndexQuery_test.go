package model

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"TabQueryAPI/internal/filter"
)

func toSQL(t *testing.T, m *Model, opts *filter.FindOptions) (string, []any) {
	t.Helper()
	sb, err := m.BuildIndexQuery(opts)
	if err != nil {
		t.Fatalf("BuildIndexQuery: %v", err)
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	return sql, args
}

func TestBuildIndexQuery(t *testing.T) {
	m := loadPeople(t)

	cases := []struct {
		name     string
		req      filter.Request
		wantSQL  string
		wantArgs []any
	}{
		{
			name: "defaults",
			req:  filter.Request{},
			wantSQL: "SELECT main.* FROM people AS main " +
				"ORDER BY main.id ASC LIMIT 50",
		},
		{
			name: "columns and pagination",
			req: filter.Request{
				Filter: []filter.SingleFilter{
					{Field: "name", Type: filter.Ilike, Value: "Max"},
					{Field: "id", Type: filter.In, Value: []any{"1", "2"}},
				},
				Order: []filter.SingleOrder{{Field: "id", Dir: filter.Desc}},
				Limit: intp(10),
				Page:  intp(2),
			},
			wantSQL: "SELECT main.* FROM people AS main " +
				"WHERE (main.name ILIKE $1 AND main.id IN ($2,$3)) " +
				"ORDER BY main.id DESC LIMIT 10 OFFSET 10",
			wantArgs: []any{"%Max%", int64(1), int64(2)},
		},
		{
			name: "has_many relation",
			req: filter.Request{
				Filter: []filter.SingleFilter{{Field: "role", Type: filter.Eq, Value: "admin"}},
			},
			wantSQL: "SELECT main.* FROM people AS main " +
				"WHERE EXISTS (SELECT 1 FROM roles AS r1 WHERE r1.person_id = main.id AND r1.name = $1) " +
				"ORDER BY main.id ASC LIMIT 50",
			wantArgs: []any{"admin"},
		},
		{
			name: "nested belongs_to with escaped pattern",
			req: filter.Request{
				Filter: []filter.SingleFilter{
					{Field: "company", Type: filter.Contains, Value: "a_b%"},
					{Field: "country", Type: filter.EqString, Value: "DE"},
				},
			},
			wantSQL: "SELECT main.* FROM people AS main " +
				"WHERE EXISTS (SELECT 1 FROM companies AS r1 WHERE r1.id = main.company_id AND " +
				"(r1.name LIKE $1 AND EXISTS (SELECT 1 FROM countries AS r2 WHERE r2.id = r1.country_id AND r2.code = $2))) " +
				"ORDER BY main.id ASC LIMIT 50",
			wantArgs: []any{`%a\_b\%%`, "DE"},
		},
		{
			name: "order by to-one relation",
			req: filter.Request{
				Sort: []filter.SingleOrder{{Field: "company", Dir: filter.Asc}},
			},
			wantSQL: "SELECT main.* FROM people AS main " +
				"ORDER BY (SELECT o1.name FROM companies AS o1 WHERE o1.id = main.company_id LIMIT 1) ASC, main.id ASC LIMIT 50",
		},
		{
			name: "cursor follows order direction",
			req: filter.Request{
				Order:  []filter.SingleOrder{{Field: "id", Dir: filter.Desc}},
				Cursor: &filter.Cursor{Field: "id", Value: "7"},
				Limit:  intp(5),
			},
			wantSQL: "SELECT main.* FROM people AS main " +
				"WHERE main.id <= $1 ORDER BY main.id DESC LIMIT 5",
			wantArgs: []any{int64(7)},
		},
		{
			name: "select columns",
			req: filter.Request{
				Select: []string{"id", "name", "roles.name"},
				Limit:  intp(100),
			},
			wantSQL: "SELECT main.id, main.name FROM people AS main " +
				"ORDER BY main.id ASC LIMIT 50",
		},
		{
			name: "null and array operators",
			req: filter.Request{
				Filter: []filter.SingleFilter{
					{Field: "email", Type: filter.NeNull},
					{Field: "tags", Type: filter.HasSome, Value: []any{"1", "a"}},
				},
			},
			wantSQL: "SELECT main.* FROM people AS main " +
				"WHERE (main.email IS NOT NULL AND main.tags::text[] && $1::text[]) " +
				"ORDER BY main.id ASC LIMIT 50",
			wantArgs: []any{[]string{"1", "a"}},
		},
		{
			name: "json array operators",
			req: filter.Request{
				Filter: []filter.SingleFilter{
					{Field: "settings", Type: filter.ArrayContains, Value: []any{"x", "2"}},
					{Field: "tags", Type: filter.ArrayEndsWith, Value: "true"},
				},
			},
			wantSQL: "SELECT main.* FROM people AS main " +
				"WHERE (main.settings::jsonb @> $1::jsonb AND (main.tags::jsonb -> -1) = $2::jsonb) " +
				"ORDER BY main.id ASC LIMIT 50",
			wantArgs: []any{`["x",2]`, "true"},
		},
		{
			name: "virtual field is skipped",
			req: filter.Request{
				Filter: []filter.SingleFilter{{Field: "fullName", Type: filter.Contains, Value: "x"}},
				Offset: intp(3),
			},
			wantSQL: "SELECT main.* FROM people AS main " +
				"ORDER BY main.id ASC LIMIT 50 OFFSET 3",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sql, args := toSQL(t, m, generate(t, m, tc.req))
			if sql != tc.wantSQL {
				t.Fatalf("sql mismatch\n got: %s\nwant: %s", sql, tc.wantSQL)
			}
			if diff := cmp.Diff(tc.wantArgs, args); diff != "" && !(len(tc.wantArgs) == 0 && len(args) == 0) {
				t.Fatalf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRelationListOperators(t *testing.T) {
	m := loadPeople(t)

	where := filter.TreeFromMap(map[string]any{
		"roles": map[string]any{
			"every": map[string]any{"name": map[string]any{"equals": "x"}},
		},
	})
	sql, args := toSQL(t, m, &filter.FindOptions{Where: where})
	want := "SELECT main.* FROM people AS main " +
		"WHERE NOT EXISTS (SELECT 1 FROM roles AS r1 WHERE r1.person_id = main.id AND NOT (r1.name = $1)) LIMIT 50"
	if sql != want {
		t.Fatalf("every\n got: %s\nwant: %s", sql, want)
	}
	if diff := cmp.Diff([]any{"x"}, args); diff != "" {
		t.Fatalf("args (-want +got):\n%s", diff)
	}

	where = filter.TreeFromMap(map[string]any{
		"company": map[string]any{"isNot": map[string]any{"name": map[string]any{"equals": "ACME"}}},
	})
	sql, _ = toSQL(t, m, &filter.FindOptions{Where: where})
	want = "SELECT main.* FROM people AS main " +
		"WHERE NOT EXISTS (SELECT 1 FROM companies AS r1 WHERE r1.id = main.company_id AND r1.name = $1) LIMIT 50"
	if sql != want {
		t.Fatalf("isNot\n got: %s\nwant: %s", sql, want)
	}
}

func TestBuildIndexQueryErrors(t *testing.T) {
	m := loadPeople(t)
	country := Registry["country"]

	cases := []struct {
		name  string
		model *Model
		opts  *filter.FindOptions
	}{
		{"invalid column", country, generate(t, country, filter.Request{
			Filter: []filter.SingleFilter{{Field: "code;drop", Type: filter.Eq, Value: "x"}},
		})},
		{"order by to-many", m, &filter.FindOptions{OrderBy: []*filter.Tree{
			filter.TreeFromMap(map[string]any{"roles": map[string]any{"name": "asc"}}),
		}}},
		{"cursor on relation", m, &filter.FindOptions{Cursor: filter.TreeFromMap(map[string]any{
			"company": map[string]any{"name": "x"},
		})}},
		{"list operator on to-one", m, &filter.FindOptions{Where: filter.TreeFromMap(map[string]any{
			"company": map[string]any{"every": map[string]any{"name": map[string]any{"equals": "x"}}},
		})}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.model.BuildIndexQuery(tc.opts)
			if !errors.Is(err, ErrUnsupportedQuery) {
				t.Fatalf("expected ErrUnsupportedQuery, got %v", err)
			}
		})
	}
}

func TestBuildCountQuery(t *testing.T) {
	m := loadPeople(t)
	opts := generate(t, m, filter.Request{
		Filter: []filter.SingleFilter{{Field: "email", Type: filter.EqNull}},
		Limit:  intp(10),
		Page:   intp(3),
		Order:  []filter.SingleOrder{{Field: "name", Dir: filter.Asc}},
	})
	sb, err := m.BuildCountQuery(opts)
	if err != nil {
		t.Fatal(err)
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		t.Fatal(err)
	}
	if want := "SELECT COUNT(*) FROM people AS main WHERE main.email IS NULL"; sql != want {
		t.Fatalf("got %s, want %s", sql, want)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestEffectiveLimit(t *testing.T) {
	m := &Model{MaxLimit: 20}
	for _, tc := range []struct {
		take *int
		want int
	}{
		{nil, 20},
		{intp(0), 20},
		{intp(5), 5},
		{intp(500), 20},
	} {
		if got := m.EffectiveLimit(tc.take); got != tc.want {
			t.Fatalf("EffectiveLimit(%v) = %d, want %d", tc.take, got, tc.want)
		}
	}
	if got := (&Model{}).EffectiveLimit(nil); got != 0 {
		t.Fatalf("unlimited model got %d", got)
	}
}
