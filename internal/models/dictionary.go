package models

// FieldDictionary maps field names to dictionary entries and back.
// It is built once per lookup and not mutated afterwards.
type FieldDictionary struct {
	byName map[string]Field
	byID   map[int64]Field
	order  []Field
}

// NewFieldDictionary indexes fields by name and by id. Later duplicates of a
// name replace earlier ones.
func NewFieldDictionary(fields []Field) *FieldDictionary {
	d := &FieldDictionary{
		byName: make(map[string]Field, len(fields)),
		byID:   make(map[int64]Field, len(fields)),
		order:  make([]Field, 0, len(fields)),
	}
	for _, f := range fields {
		if _, dup := d.byName[f.Name]; !dup {
			d.order = append(d.order, f)
		}
		d.byName[f.Name] = f
		d.byID[f.ID] = f
	}
	return d
}

// Lookup returns the field with the given name.
func (d *FieldDictionary) Lookup(name string) (Field, bool) {
	if d == nil {
		return Field{}, false
	}
	f, ok := d.byName[name]
	return f, ok
}

// ByID returns the field with the given identifier.
func (d *FieldDictionary) ByID(id int64) (Field, bool) {
	if d == nil {
		return Field{}, false
	}
	f, ok := d.byID[id]
	return f, ok
}

// IDs returns the name to identifier mapping.
func (d *FieldDictionary) IDs() map[string]int64 {
	out := make(map[string]int64)
	if d == nil {
		return out
	}
	for name, f := range d.byName {
		out[name] = f.ID
	}
	return out
}

// Fields returns the entries in the order they were first seen.
func (d *FieldDictionary) Fields() []Field {
	if d == nil {
		return nil
	}
	out := make([]Field, 0, len(d.order))
	for _, f := range d.order {
		out = append(out, d.byName[f.Name])
	}
	return out
}

// Len returns the number of distinct field names.
func (d *FieldDictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byName)
}
