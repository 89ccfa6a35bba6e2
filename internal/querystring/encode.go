package querystring

import (
	"fmt"
	"strconv"
	"strings"

	"TabQueryAPI/internal/filter"
)

// Encode builds the query string for req, including the leading '?'.
// Parts are written in a fixed order: offset, limit, page, skip, select,
// filter, order, sort, cursor. An empty request encodes to "".
//
//	?offset=50&filter[0][field]=name&filter[0][type]=ilike&filter[0][value]=Max
func Encode(req filter.Request) string {
	var parts []string

	for _, knob := range []struct {
		name  string
		value *int
	}{
		{"offset", req.Offset},
		{"limit", req.Limit},
		{"page", req.Page},
		{"skip", req.Skip},
	} {
		if knob.value != nil {
			parts = append(parts, knob.name+"="+strconv.Itoa(*knob.value))
		}
	}

	if req.Select != nil {
		fields := make([]string, len(req.Select))
		for i, f := range req.Select {
			fields[i] = EscapeComponent(f)
		}
		parts = append(parts, "select="+strings.Join(fields, ","))
	}

	if req.Filter != nil {
		var rows []string
		for i, f := range req.Filter {
			rows = append(rows, encodeRow("filter", i, "field", f.Field)...)
			rows = append(rows, encodeRow("filter", i, "type", string(f.Type))...)
			rows = append(rows, encodeRow("filter", i, "value", f.Value)...)
		}
		if len(rows) > 0 {
			parts = append(parts, strings.Join(rows, "&"))
		}
	}
	for _, group := range []struct {
		name string
		rows []filter.SingleOrder
	}{
		{"order", req.Order},
		{"sort", req.Sort},
	} {
		var rows []string
		for i, o := range group.rows {
			rows = append(rows, encodeRow(group.name, i, "field", o.Field)...)
			rows = append(rows, encodeRow(group.name, i, "dir", string(o.Dir))...)
		}
		if len(rows) > 0 {
			parts = append(parts, strings.Join(rows, "&"))
		}
	}

	if req.Cursor != nil {
		parts = append(parts,
			"cursor[field]="+EscapeComponent(req.Cursor.Field)+
				"&cursor[value]="+EscapeComponent(formatScalar(req.Cursor.Value)))
	}

	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

// encodeRow renders name[i][key]=value. Slices are written positionally as
// name[i][key][y]=v; an empty slice keeps the key with an empty value.
func encodeRow(name string, i int, key string, value any) []string {
	prefix := EscapeComponent(name) + "[" + strconv.Itoa(i) + "][" + EscapeComponent(key) + "]"
	items, ok := asSlice(value)
	if !ok {
		return []string{prefix + "=" + EscapeComponent(formatScalar(value))}
	}
	if len(items) == 0 {
		return []string{prefix + "="}
	}
	out := make([]string, len(items))
	for y, item := range items {
		out[y] = prefix + "[" + strconv.Itoa(y) + "]=" + EscapeComponent(formatScalar(item))
	}
	return out
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	case []bool:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	}
	return nil, false
}

// formatScalar renders a value the way a JavaScript client would; nil is "".
func formatScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}

const upperhex = "0123456789ABCDEF"

// EscapeComponent percent-encodes s like JavaScript's encodeURIComponent:
// everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ) is escaped.
func EscapeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
