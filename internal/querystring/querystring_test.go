package querystring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TabQueryAPI/internal/filter"
)

func intp(v int) *int { return &v }

func TestSplitBracketParameter(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		splitted, err := splitBracketParameter("[0][value][1]")
		require.NoError(t, err)
		assert.Equal(t, []string{"0", "value", "1"}, splitted)
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, s := range []string{"[no][closing", "]justclosing", "[doubleopen[]", "[doubleclose]]", "[[a]"} {
			_, err := splitBracketParameter(s)
			assert.Error(t, err, s)
			assert.True(t, errors.Is(err, ErrInvalidQuery), s)
		}
	})

	t.Run("Key", func(t *testing.T) {
		base, segments, err := splitKey("filter[2][field]")
		require.NoError(t, err)
		assert.Equal(t, "filter", base)
		assert.Equal(t, []string{"2", "field"}, segments)

		base, segments, err = splitKey("limit")
		require.NoError(t, err)
		assert.Equal(t, "limit", base)
		assert.Empty(t, segments)

		_, _, err = splitKey("limit]")
		assert.Error(t, err)
	})
}

func TestEncode(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, "", Encode(filter.Request{}))
	})

	t.Run("Order of parts", func(t *testing.T) {
		req := filter.Request{
			Cursor: &filter.Cursor{Field: "id", Value: 12},
			Sort:   []filter.SingleOrder{{Field: "b", Dir: filter.Desc}},
			Order:  []filter.SingleOrder{{Field: "a", Dir: filter.Asc}},
			Filter: []filter.SingleFilter{{Field: "name", Type: filter.Ilike, Value: "Max"}},
			Select: []string{"id", "roles.name"},
			Skip:   intp(3),
			Page:   intp(2),
			Limit:  intp(10),
			Offset: intp(50),
		}
		want := "?offset=50&limit=10&page=2&skip=3&select=id,roles.name" +
			"&filter[0][field]=name&filter[0][type]=ilike&filter[0][value]=Max" +
			"&order[0][field]=a&order[0][dir]=asc" +
			"&sort[0][field]=b&sort[0][dir]=desc" +
			"&cursor[field]=id&cursor[value]=12"
		assert.Equal(t, want, Encode(req))
	})

	t.Run("Array values", func(t *testing.T) {
		req := filter.Request{Filter: []filter.SingleFilter{
			{Field: "id", Type: filter.In, Value: []any{1, "b c"}},
			{Field: "tags", Type: filter.HasSome, Value: []string{}},
		}}
		want := "?filter[0][field]=id&filter[0][type]=in&filter[0][value][0]=1&filter[0][value][1]=b%20c" +
			"&filter[1][field]=tags&filter[1][type]=has_some&filter[1][value]="
		assert.Equal(t, want, Encode(req))
	})

	t.Run("Escaping", func(t *testing.T) {
		req := filter.Request{Filter: []filter.SingleFilter{{Field: "a&b", Type: filter.Gte, Value: "x=y/ü"}}}
		assert.Equal(t, "?filter[0][field]=a%26b&filter[0][type]=%3E%3D&filter[0][value]=x%3Dy%2F%C3%BC", Encode(req))
		assert.Equal(t, "-_.!~*'()", EscapeComponent("-_.!~*'()"))
	})
}

func TestDecode(t *testing.T) {
	t.Run("Full request", func(t *testing.T) {
		req, err := Parse("?offset=50&limit=10&page=2&skip=3&select=id,roles.name" +
			"&filter[0][field]=name&filter[0][type]=ilike&filter[0][value]=Max" +
			"&filter[1][field]=id&filter[1][type]=in&filter[1][value][1]=2&filter[1][value][0]=1" +
			"&order[0][field]=a&order[0][dir]=asc&sort[0][field]=b&sort[0][dir]=desc" +
			"&cursor[field]=id&cursor[value]=12&unrelated=1")
		require.NoError(t, err)

		assert.Equal(t, intp(50), req.Offset)
		assert.Equal(t, intp(10), req.Limit)
		assert.Equal(t, intp(2), req.Page)
		assert.Equal(t, intp(3), req.Skip)
		assert.Equal(t, []string{"id", "roles.name"}, req.Select)
		assert.Equal(t, []filter.SingleFilter{
			{Field: "name", Type: filter.Ilike, Value: "Max"},
			{Field: "id", Type: filter.In, Value: []any{"1", "2"}},
		}, req.Filter)
		assert.Equal(t, []filter.SingleOrder{{Field: "a", Dir: filter.Asc}}, req.Order)
		assert.Equal(t, []filter.SingleOrder{{Field: "b", Dir: filter.Desc}}, req.Sort)
		assert.Equal(t, &filter.Cursor{Field: "id", Value: "12"}, req.Cursor)
	})

	t.Run("Round trip", func(t *testing.T) {
		in := filter.Request{
			Limit:  intp(40),
			Page:   intp(3),
			Filter: []filter.SingleFilter{{Field: "email", Type: filter.IContains, Value: "a&b@c.de"}},
			Order:  []filter.SingleOrder{{Field: "id", Dir: filter.Desc}},
		}
		out, err := Parse(Encode(in))
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("Absent select stays nil", func(t *testing.T) {
		req, err := Parse("limit=5")
		require.NoError(t, err)
		assert.Nil(t, req.Select)
		assert.Nil(t, req.Filter)
		assert.Nil(t, req.Cursor)
	})

	t.Run("Legacy string cursor", func(t *testing.T) {
		req, err := Parse("cursor=id:7")
		require.NoError(t, err)
		assert.Equal(t, &filter.Cursor{Field: "id", Value: "7"}, req.Cursor)
	})

	t.Run("Errors", func(t *testing.T) {
		for _, q := range []string{
			"limit=ten",
			"order[0][field]=id&order[0][dir]=up",
			"filter[0][field]=a&filter[0][bogus]=1",
			"filter[0][value]=a&filter[0][value][0]=b",
			"filter[0[field]=a",
			"cursor=nofield",
		} {
			_, err := Parse(q)
			assert.Error(t, err, q)
			assert.True(t, errors.Is(err, ErrInvalidQuery), q)
		}
	})
}

func TestDecodedRequestGeneratesOptions(t *testing.T) {
	g := filter.MustGenerator(filter.Config{Mapping: filter.Mapping{"test": "test"}})
	req, err := Parse("filter[0][field]=test&filter[0][type]=in&filter[0][value][0]=1&filter[0][value][1]=2&filter[0][value][2]=3.5")
	require.NoError(t, err)

	opts, err := g.Generate(req)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"test": map[string]any{"in": []any{1.0, 2.0, 3.5}}}, opts.Where.Map())
}
