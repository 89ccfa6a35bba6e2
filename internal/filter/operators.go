package filter

// OperationType is the filter operation token sent by the client.
type OperationType string

// Numeric operations.
const (
	Eq  OperationType = "="
	Lt  OperationType = "<"
	Lte OperationType = "<="
	Gt  OperationType = ">"
	Gte OperationType = ">="
	Ne  OperationType = "!="
)

// String operations.
const (
	// Like is kept for old clients; use Contains.
	Like OperationType = "like"
	// Ilike is kept for old clients; use IContains.
	Ilike       OperationType = "ilike"
	Contains    OperationType = "contains"
	IContains   OperationType = "icontains"
	Search      OperationType = "search"
	ISearch     OperationType = "isearch"
	StartsWith  OperationType = "startswith"
	IStartsWith OperationType = "istartswith"
	EndsWith    OperationType = "endswith"
	IEndsWith   OperationType = "iendswith"
	EqString    OperationType = "eqstring"
	NeString    OperationType = "nestring"
)

// Array and null operations.
const (
	In              OperationType = "in"
	NotIn           OperationType = "notin"
	InStrings       OperationType = "instrings"
	NotInStrings    OperationType = "notinstrings"
	EqNull          OperationType = "eqnull"
	NeNull          OperationType = "nenull"
	ArrayContains   OperationType = "array_contains"
	ArrayStartsWith OperationType = "array_starts_with"
	ArrayEndsWith   OperationType = "array_ends_with"
	Has             OperationType = "has"
	HasString       OperationType = "has_string"
	HasSome         OperationType = "has_some"
	HasSomeString   OperationType = "has_some_string"
	HasEvery        OperationType = "has_every"
	HasEveryString  OperationType = "has_every_string"
)

// Operator keys emitted into the where tree.
const (
	KeyEquals          = "equals"
	KeyNot             = "not"
	KeyLt              = "lt"
	KeyLte             = "lte"
	KeyGt              = "gt"
	KeyGte             = "gte"
	KeyContains        = "contains"
	KeySearch          = "search"
	KeyStartsWith      = "startsWith"
	KeyEndsWith        = "endsWith"
	KeyIn              = "in"
	KeyNotIn           = "notIn"
	KeyArrayContains   = "array_contains"
	KeyArrayStartsWith = "array_starts_with"
	KeyArrayEndsWith   = "array_ends_with"
	KeyHas             = "has"
	KeyHasSome         = "hasSome"
	KeyHasEvery        = "hasEvery"
	KeyMode            = "mode"

	ModeInsensitive = "insensitive"
)

// coercion decides how a raw value is turned into the predicate value.
type coercion int

const (
	coerceNumeric   coercion = iota // numeric if possible
	coerceEquality                  // "true"/"false" to bool, then numeric
	coerceString                    // never coerced
	coercePrimitive                 // bool, numeric or string
	coerceNull                      // value ignored, null
)

// operatorDef describes one entry of the closed operator table.
type operatorDef struct {
	key         string
	coerce      coercion
	arrays      bool // slices are accepted
	wrap        bool // a scalar is wrapped into a one element slice
	insensitive bool
}

var operators = map[OperationType]operatorDef{
	Eq:  {key: KeyEquals, coerce: coerceEquality},
	Ne:  {key: KeyNot, coerce: coerceEquality},
	Lt:  {key: KeyLt, coerce: coerceNumeric},
	Lte: {key: KeyLte, coerce: coerceNumeric},
	Gt:  {key: KeyGt, coerce: coerceNumeric},
	Gte: {key: KeyGte, coerce: coerceNumeric},

	Like:        {key: KeyContains, coerce: coerceString},
	Ilike:       {key: KeyContains, coerce: coerceString, insensitive: true},
	Contains:    {key: KeyContains, coerce: coerceString},
	IContains:   {key: KeyContains, coerce: coerceString, insensitive: true},
	Search:      {key: KeySearch, coerce: coerceString},
	ISearch:     {key: KeySearch, coerce: coerceString, insensitive: true},
	StartsWith:  {key: KeyStartsWith, coerce: coerceString},
	IStartsWith: {key: KeyStartsWith, coerce: coerceString, insensitive: true},
	EndsWith:    {key: KeyEndsWith, coerce: coerceString},
	IEndsWith:   {key: KeyEndsWith, coerce: coerceString, insensitive: true},
	EqString:    {key: KeyEquals, coerce: coerceString},
	NeString:    {key: KeyNot, coerce: coerceString},

	In:           {key: KeyIn, coerce: coerceNumeric, arrays: true},
	NotIn:        {key: KeyNotIn, coerce: coerceNumeric, arrays: true},
	InStrings:    {key: KeyIn, coerce: coerceString, arrays: true},
	NotInStrings: {key: KeyNotIn, coerce: coerceString, arrays: true},

	EqNull: {key: KeyEquals, coerce: coerceNull},
	NeNull: {key: KeyNot, coerce: coerceNull},

	ArrayContains:   {key: KeyArrayContains, coerce: coercePrimitive, arrays: true, wrap: true},
	ArrayStartsWith: {key: KeyArrayStartsWith, coerce: coercePrimitive},
	ArrayEndsWith:   {key: KeyArrayEndsWith, coerce: coercePrimitive},
	Has:             {key: KeyHas, coerce: coercePrimitive},
	HasString:       {key: KeyHas, coerce: coerceString},
	HasSome:         {key: KeyHasSome, coerce: coercePrimitive, arrays: true, wrap: true},
	HasSomeString:   {key: KeyHasSome, coerce: coerceString, arrays: true, wrap: true},
	HasEvery:        {key: KeyHasEvery, coerce: coercePrimitive, arrays: true, wrap: true},
	HasEveryString:  {key: KeyHasEvery, coerce: coerceString, arrays: true, wrap: true},
}

// aliases lets clients spell the comparison tokens as words.
var aliases = map[OperationType]OperationType{
	"eq":  Eq,
	"ne":  Ne,
	"lt":  Lt,
	"lte": Lte,
	"gt":  Gt,
	"gte": Gte,
}

func lookupOperator(t OperationType) (operatorDef, bool) {
	if canonical, ok := aliases[t]; ok {
		t = canonical
	}
	op, ok := operators[t]
	return op, ok
}

// Valid reports whether t belongs to the operator set.
func (t OperationType) Valid() bool {
	_, ok := lookupOperator(t)
	return ok
}

