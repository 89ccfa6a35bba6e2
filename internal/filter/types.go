package filter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Direction is an ordering direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Valid reports whether d is asc or desc.
func (d Direction) Valid() bool {
	return d == Asc || d == Desc
}

// Request is the client filter request, usually decoded from the query string.
// Pointer knobs are nil when absent.
type Request struct {
	Filter []SingleFilter `json:"filter,omitempty" mapstructure:"filter"`
	Order  []SingleOrder  `json:"order,omitempty" mapstructure:"order"`
	// Sort is the legacy alias of Order. Its entries are appended after Order.
	Sort   []SingleOrder `json:"sort,omitempty" mapstructure:"sort"`
	Offset *int          `json:"offset,omitempty" mapstructure:"offset"`
	Limit  *int          `json:"limit,omitempty" mapstructure:"limit"`
	Page   *int          `json:"page,omitempty" mapstructure:"page"`
	Skip   *int          `json:"skip,omitempty" mapstructure:"skip"`
	// Select is nil when absent. An empty non-nil slice still selects.
	Select []string `json:"select,omitempty" mapstructure:"select"`
	Cursor *Cursor  `json:"cursor,omitempty" mapstructure:"cursor"`
}

// SingleFilter is one filter row.
type SingleFilter struct {
	Field string        `json:"field" mapstructure:"field"`
	Type  OperationType `json:"type" mapstructure:"type"`
	Value any           `json:"value" mapstructure:"value"`
}

// SingleOrder is one ordering row.
type SingleOrder struct {
	Field string    `json:"field" mapstructure:"field"`
	Dir   Direction `json:"dir" mapstructure:"dir"`
}

// Cursor positions the result at the record whose field equals value.
type Cursor struct {
	Field string `json:"field" mapstructure:"field"`
	Value any    `json:"value" mapstructure:"value"`
}

// UnmarshalJSON accepts {"field":..,"value":..} and the older "field:value" form.
func (c *Cursor) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseCursor(s)
		if err != nil {
			return err
		}
		*c = *parsed
		return nil
	}
	type plain Cursor
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Cursor(p)
	return nil
}

// ParseCursor parses the "field:value" cursor form.
func ParseCursor(s string) (*Cursor, error) {
	field, value, ok := strings.Cut(s, ":")
	if !ok || field == "" {
		return nil, newError(ErrInvalidValueShape, fmt.Sprintf("cursor %q must have the form field:value", s))
	}
	return &Cursor{Field: field, Value: value}, nil
}

// Mapping maps client field names to storage paths. A value starting with
// '!' marks a virtual field: accepted, but never queried.
type Mapping map[string]string

// FindOptions is the generated query-options object.
type FindOptions struct {
	Where   *Tree
	Skip    int
	Take    *int
	OrderBy []*Tree
	// Select and Include are nil when the default shape should be fetched.
	Select  *Tree
	Include *Tree
	Cursor  *Tree
}

// MarshalJSON renders nil select/include as false and omits nil take/cursor.
func (o *FindOptions) MarshalJSON() ([]byte, error) {
	out := struct {
		Where   *Tree   `json:"where"`
		Skip    int     `json:"skip"`
		Take    *int    `json:"take,omitempty"`
		OrderBy []*Tree `json:"orderBy"`
		Select  any     `json:"select"`
		Include any     `json:"include"`
		Cursor  *Tree   `json:"cursor,omitempty"`
	}{
		Where:   o.Where,
		Skip:    o.Skip,
		Take:    o.Take,
		OrderBy: o.OrderBy,
		Select:  false,
		Include: false,
		Cursor:  o.Cursor,
	}
	if out.Where == nil {
		out.Where = NewTree()
	}
	if out.OrderBy == nil {
		out.OrderBy = []*Tree{}
	}
	if o.Select != nil {
		out.Select = o.Select
	}
	if o.Include != nil {
		out.Include = o.Include
	}
	return json.Marshal(out)
}
