package feed

// Kind discriminates the three shapes a record node can take.
type Kind int

const (
	// KindValue is a leaf node holding a scalar string.
	KindValue Kind = iota
	// KindMap is a node holding named children.
	KindMap
	// KindList is a node holding an ordered sequence of children.
	KindList
)

// Record is a source-native feed node: a leaf value, a map of named child
// nodes, or a list of nodes. Parsers produce one Record per logical product
// (or stock/price row); normalizers pattern-match on the Kind instead of
// doing ad hoc type assertions on interface{} trees.
//
// Records are ephemeral: they live for one parse pass and are never
// persisted.
type Record struct {
	kind   Kind
	value  string
	fields map[string]*Record
	items  []*Record
}

// Value creates a leaf record.
func Value(s string) *Record {
	return &Record{kind: KindValue, value: s}
}

// Map creates an empty map record.
func Map() *Record {
	return &Record{kind: KindMap, fields: make(map[string]*Record)}
}

// List creates a list record from the given items.
func List(items ...*Record) *Record {
	return &Record{kind: KindList, items: items}
}

// Kind returns the shape of this record.
func (r *Record) Kind() Kind {
	if r == nil {
		return KindValue
	}
	return r.kind
}

// Text returns the scalar value of a leaf record. For map records it returns
// the empty string; normalizers rely on this being total.
func (r *Record) Text() string {
	if r == nil {
		return ""
	}
	return r.value
}

// Set adds or replaces a named child on a map record. Setting the same name
// twice promotes the field to a list, mirroring how repeated XML elements
// collapse into arrays.
func (r *Record) Set(name string, child *Record) {
	if r.kind != KindMap {
		return
	}
	existing, ok := r.fields[name]
	if !ok {
		r.fields[name] = child
		return
	}
	if existing.kind == KindList {
		existing.items = append(existing.items, child)
		return
	}
	r.fields[name] = List(existing, child)
}

// Get returns the named child of a map record, or nil if absent (or if the
// record is not a map).
func (r *Record) Get(name string) *Record {
	if r == nil || r.kind != KindMap {
		return nil
	}
	return r.fields[name]
}

// Str returns the text of the named child, or "" when the child is absent.
func (r *Record) Str(name string) string {
	return r.Get(name).Text()
}

// Items returns the children of a list record. A non-list record is treated
// as a single-element list, which matches the XML convention where one
// repeated element and many are indistinguishable to the normalizer.
func (r *Record) Items() []*Record {
	if r == nil {
		return nil
	}
	if r.kind == KindList {
		return r.items
	}
	return []*Record{r}
}

// Fields returns the child names of a map record.
func (r *Record) Fields() []string {
	if r == nil || r.kind != KindMap {
		return nil
	}
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	return names
}

// Len returns the number of children for map and list records.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	switch r.kind {
	case KindMap:
		return len(r.fields)
	case KindList:
		return len(r.items)
	default:
		return 0
	}
}

// FromRow builds a map record from CSV-style header/value pairs.
func FromRow(header []string, row []string) *Record {
	rec := Map()
	for i, name := range header {
		if i >= len(row) {
			break
		}
		rec.Set(name, Value(row[i]))
	}
	return rec
}

// FromJSON converts a decoded JSON value (map[string]any / []any / scalars)
// into a Record tree. REST clients decode pages with encoding/json and hand
// the items here.
func FromJSON(v any) *Record {
	switch t := v.(type) {
	case map[string]any:
		rec := Map()
		for name, child := range t {
			rec.Set(name, FromJSON(child))
		}
		return rec
	case []any:
		items := make([]*Record, 0, len(t))
		for _, child := range t {
			items = append(items, FromJSON(child))
		}
		return List(items...)
	case nil:
		return Value("")
	case string:
		return Value(t)
	case bool:
		if t {
			return Value("true")
		}
		return Value("false")
	case float64:
		return Value(formatJSONNumber(t))
	default:
		return Value("")
	}
}
