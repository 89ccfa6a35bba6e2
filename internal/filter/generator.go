package filter

import (
	"fmt"

	"github.com/mitchellh/copystructure"
)

// Config is the immutable generator configuration.
type Config struct {
	// Mapping declares the usable fields. Dotted targets traverse relations.
	Mapping Mapping `yaml:"fields"`
	// AllowAllFields lets every undeclared top level field through. Only use
	// it when the caller may read every column of the model.
	AllowAllFields bool `yaml:"allow_all_fields"`
	// DefaultOrder rows are appended to orderBy unless the request already
	// orders by their top level key. Example: {"id": "asc"}.
	DefaultOrder []map[string]any `yaml:"default_order"`
	// DefaultInclude lists relation paths ("roles" or "roles.permissions")
	// included when the request has no select.
	DefaultInclude []string `yaml:"default_include"`
}

// Generator turns filter requests into find options. It is safe for
// concurrent use.
type Generator struct {
	mapper         *FieldMapper
	defaultOrder   []map[string]any
	defaultInclude []string
}

// NewGenerator snapshots cfg, so later changes to the caller's maps and
// slices do not leak into generated options.
func NewGenerator(cfg Config) (*Generator, error) {
	copied, err := copystructure.Copy(cfg)
	if err != nil {
		return nil, fmt.Errorf("copy generator config: %w", err)
	}
	snapshot := copied.(Config)

	for i, row := range snapshot.DefaultOrder {
		if err := validateOrderRow(row); err != nil {
			return nil, fmt.Errorf("default order row %d: %w", i, err)
		}
	}
	return &Generator{
		mapper:         NewFieldMapper(snapshot.Mapping, snapshot.AllowAllFields),
		defaultOrder:   snapshot.DefaultOrder,
		defaultInclude: snapshot.DefaultInclude,
	}, nil
}

// MustGenerator is NewGenerator for static configuration.
func MustGenerator(cfg Config) *Generator {
	g, err := NewGenerator(cfg)
	if err != nil {
		panic(err)
	}
	return g
}

// Generate builds the find options for req. Any invalid field, operator or
// value fails the whole call.
//
// orderBy keeps the request order, so ties are broken by later entries.
// Clients paginating over non unique keys should add a unique trailing
// order entry (e.g. id).
func (g *Generator) Generate(req Request) (*FindOptions, error) {
	if req.Filter == nil {
		req.Filter = []SingleFilter{}
	}
	order := make([]SingleOrder, 0, len(req.Order)+len(req.Sort))
	order = append(order, req.Order...)
	order = append(order, req.Sort...)

	where, err := g.buildWhere(req.Filter)
	if err != nil {
		return nil, err
	}
	orderBy, err := g.buildOrderBy(order)
	if err != nil {
		return nil, err
	}
	cursor, err := g.buildCursor(req.Cursor)
	if err != nil {
		return nil, err
	}
	sel, inc := g.buildSelectInclude(req.Select)

	var take *int
	if req.Limit != nil {
		v := *req.Limit
		take = &v
	}
	return &FindOptions{
		Where:   where,
		Skip:    CalculateSkip(req.Limit, req.Page, req.Offset, req.Skip),
		Take:    take,
		OrderBy: orderBy,
		Select:  sel,
		Include: inc,
		Cursor:  cursor,
	}, nil
}

func validateOrderRow(row map[string]any) error {
	if len(row) == 0 {
		return fmt.Errorf("empty row")
	}
	for k, v := range row {
		switch x := v.(type) {
		case string:
			if !Direction(x).Valid() {
				return fmt.Errorf("%s: direction %q is neither asc nor desc", k, x)
			}
		case map[string]any:
			if err := validateOrderRow(x); err != nil {
				return fmt.Errorf("%s.%w", k, err)
			}
		default:
			return fmt.Errorf("%s: unexpected value %v", k, v)
		}
	}
	return nil
}
