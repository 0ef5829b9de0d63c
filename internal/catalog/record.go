package catalog

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// missingValue marks a field the tracker did not supply.
type missingValue struct{}

var missing = missingValue{}

// schema maps loader groups to the fields they populate.
type schema struct {
	kind    string
	groupOf map[string]string
	members map[string][]string
}

func newSchema(kind string, groups map[string][]string) *schema {
	s := &schema{
		kind:    kind,
		groupOf: make(map[string]string),
		members: make(map[string][]string, len(groups)),
	}
	for group, fields := range groups {
		for _, field := range fields {
			if prev, dup := s.groupOf[field]; dup {
				panic(fmt.Sprintf("catalog: %s field %q declared in groups %q and %q", kind, field, prev, group))
			}
			s.groupOf[field] = group
		}
		s.members[group] = slices.Clone(fields)
	}
	return s
}

// Groups returns the group names in sorted order.
func (s *schema) Groups() []string {
	return slices.Sorted(maps.Keys(s.members))
}

// Fields returns the fields populated by group.
func (s *schema) Fields(group string) []string {
	return slices.Clone(s.members[group])
}

type loader func(ctx context.Context) error

// record is the lazily populated field store shared by all entity kinds.
type record struct {
	schema  *schema
	id      string
	fields  map[string]any
	loaded  map[string]bool
	loaders map[string]loader
}

func newRecord(s *schema, id string) record {
	return record{
		schema:  s,
		id:      id,
		fields:  make(map[string]any),
		loaded:  make(map[string]bool),
		loaders: make(map[string]loader, len(s.members)),
	}
}

// ID returns the remote identifier.
func (r *record) ID() string {
	return r.id
}

// Get returns the named field, running its loader group on first access.
func (r *record) Get(ctx context.Context, name string) (any, error) {
	if v, ok := r.fields[name]; ok && v != nil {
		if v == missing {
			return nil, r.fieldError(name, ErrRemoteDataMissing)
		}
		return v, nil
	}
	group, ok := r.schema.groupOf[name]
	if !ok {
		return nil, r.fieldError(name, ErrUnknownField)
	}
	if !r.loaded[group] {
		if err := r.load(ctx, group); err != nil {
			return nil, err
		}
	}
	v, ok := r.fields[name]
	if !ok || v == nil || v == missing {
		return nil, r.fieldError(name, ErrRemoteDataMissing)
	}
	return v, nil
}

// Has reports whether name holds a real value without triggering a load.
func (r *record) Has(name string) bool {
	v, ok := r.fields[name]
	return ok && v != nil && v != missing
}

// Fields returns a copy of the populated fields. Sentinels are reported as nil.
func (r *record) Fields() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		if v == missing {
			v = nil
		}
		out[k] = v
	}
	return out
}

// Loaded reports whether group has already run.
func (r *record) Loaded(group string) bool {
	return r.loaded[group]
}

// String reads name as a string.
func (r *record) String(ctx context.Context, name string) (string, error) {
	v, err := r.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return toString(v), nil
}

// Int reads name as an integer.
func (r *record) Int(ctx context.Context, name string) (int64, error) {
	v, err := r.Get(ctx, name)
	if err != nil {
		return 0, err
	}
	n, err := toInt(v)
	if err != nil {
		return 0, r.fieldError(name, err)
	}
	return n, nil
}

// Bool reads name as a boolean.
func (r *record) Bool(ctx context.Context, name string) (bool, error) {
	v, err := r.Get(ctx, name)
	if err != nil {
		return false, err
	}
	b, err := toBool(v)
	if err != nil {
		return false, r.fieldError(name, err)
	}
	return b, nil
}

// Strings reads name as a list of strings.
func (r *record) Strings(ctx context.Context, name string) ([]string, error) {
	v, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return toStrings(v), nil
}

// Load runs the loader of group unless it already ran.
func (r *record) Load(ctx context.Context, group string) error {
	if _, ok := r.schema.members[group]; !ok {
		return fmt.Errorf("%s %s: unknown loader group %q", r.schema.kind, r.id, group)
	}
	if r.loaded[group] {
		return nil
	}
	return r.load(ctx, group)
}

func (r *record) load(ctx context.Context, group string) error {
	fn, ok := r.loaders[group]
	if !ok {
		return fmt.Errorf("%s %s: no loader registered for group %q", r.schema.kind, r.id, group)
	}
	if err := fn(ctx); err != nil {
		return err
	}
	r.finish(group)
	return nil
}

// finish marks group loaded and sentinels every member it left unset.
func (r *record) finish(group string) {
	r.loaded[group] = true
	for _, field := range r.schema.members[group] {
		if v, ok := r.fields[field]; !ok || v == nil {
			r.fields[field] = missing
		}
	}
}

// merge copies data into the record. Existing real values win so that values
// callers already hold stay stable.
func (r *record) merge(data map[string]any) {
	for k, v := range data {
		if v == nil {
			continue
		}
		if r.Has(k) {
			continue
		}
		r.fields[k] = v
	}
}

func (r *record) set(name string, value any) {
	r.fields[name] = value
}

func (r *record) fieldError(name string, err error) error {
	return &FieldError{Entity: r.schema.kind, ID: r.id, Field: name, Err: err}
}
