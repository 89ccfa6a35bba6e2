package querystring

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"TabQueryAPI/internal/filter"
)

// ErrInvalidQuery classifies malformed filter query strings.
var ErrInvalidQuery = errors.New("invalid query")

// known top level parameters; everything else in the query is ignored
var requestParams = map[string]bool{
	"filter": true,
	"order":  true,
	"sort":   true,
	"offset": true,
	"limit":  true,
	"page":   true,
	"skip":   true,
	"select": true,
	"cursor": true,
}

// Parse decodes a raw query string, with or without the leading '?'.
func Parse(raw string) (filter.Request, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return filter.Request{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return Decode(values)
}

// Decode turns bracketed query parameters into a filter request:
//
//	filter[0][field]=name&filter[0][type]=in&filter[0][value][0]=a&order[0][field]=id&order[0][dir]=desc&limit=10
//
// Positional indexes become slices ordered by index. select is split on
// commas. Pagination knobs must be integers and directions asc or desc;
// field names and operator tokens are checked by the generator.
func Decode(values url.Values) (filter.Request, error) {
	tree := map[string]any{}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		base, segments, err := splitKey(key)
		if err != nil {
			return filter.Request{}, err
		}
		if !requestParams[base] {
			continue
		}
		vals := values[key]
		var v any = vals[len(vals)-1]
		if base == "select" && len(segments) == 0 {
			v = strings.Join(vals, ",")
		}
		if err := insert(tree, append([]string{base}, segments...), v); err != nil {
			return filter.Request{}, err
		}
	}

	normalized := listify(tree).(map[string]any)

	if sel, ok := normalized["select"]; ok {
		fields, err := splitSelect(sel)
		if err != nil {
			return filter.Request{}, err
		}
		normalized["select"] = fields
	}
	if c, ok := normalized["cursor"].(string); ok {
		cursor, err := filter.ParseCursor(c)
		if err != nil {
			return filter.Request{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		normalized["cursor"] = map[string]any{"field": cursor.Field, "value": cursor.Value}
	}

	var req filter.Request
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &req,
		TagName:          "mapstructure",
	})
	if err != nil {
		return filter.Request{}, err
	}
	if err := dec.Decode(normalized); err != nil {
		return filter.Request{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	for _, group := range [][]filter.SingleOrder{req.Order, req.Sort} {
		for _, o := range group {
			if !o.Dir.Valid() {
				return filter.Request{}, fmt.Errorf("%w: order direction %q of %s must be asc or desc", ErrInvalidQuery, o.Dir, o.Field)
			}
		}
	}
	return req, nil
}

// insert stores v at path, creating nested maps on demand.
func insert(tree map[string]any, path []string, v any) error {
	cur := tree
	for i, seg := range path {
		if i == len(path)-1 {
			if _, exists := cur[seg].(map[string]any); exists {
				return fmt.Errorf("%w: %s is both a value and a group", ErrInvalidQuery, strings.Join(path, "."))
			}
			cur[seg] = v
			return nil
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			if _, isValue := cur[seg]; isValue {
				return fmt.Errorf("%w: %s is both a value and a group", ErrInvalidQuery, strings.Join(path[:i+1], "."))
			}
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	return nil
}

// listify converts maps keyed only by non-negative integers into slices
// ordered by index. Gaps are closed.
func listify(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, child := range m {
		m[k] = listify(child)
	}
	if len(m) == 0 {
		return m
	}
	idx := make([]int, 0, len(m))
	byIdx := make(map[int]any, len(m))
	for k, child := range m {
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 || strconv.Itoa(n) != k {
			return m
		}
		idx = append(idx, n)
		byIdx[n] = child
	}
	sort.Ints(idx)
	out := make([]any, len(idx))
	for i, n := range idx {
		out[i] = byIdx[n]
	}
	return out
}

func splitSelect(v any) ([]string, error) {
	var raw []string
	switch s := v.(type) {
	case string:
		raw = []string{s}
	case []any:
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: select entries must be strings", ErrInvalidQuery)
			}
			raw = append(raw, str)
		}
	default:
		return nil, fmt.Errorf("%w: select must be a comma separated list, got %s", ErrInvalidQuery, reflect.TypeOf(v))
	}
	fields := []string{}
	for _, r := range raw {
		fields = append(fields, strings.Split(r, ",")...)
	}
	return fields, nil
}
