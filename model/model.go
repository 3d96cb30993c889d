// Package model maps handler output into typed values and layers CRUD sugar
// over a bound route.
//
// A model type is a plain struct with json tags that implements Mappable
// with a value receiver and embeds Tracked:
//
//	type Dog struct {
//		model.Tracked `json:"-"`
//
//		ID    int    `json:"id"`
//		Name  string `json:"name"`
//		Breed string `json:"breed"`
//	}
//
//	func (Dog) ModelFields() []string { return []string{"id", "name", "breed"} }
//
// Unknown fields in a response are ignored; declared fields missing from a
// response stay zero and are reported as unset, never an error.
package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Mappable is the capability a struct implements to take part in response
// mapping: it declares the ordered list of field names (json tag names) the
// remote API exchanges for this resource. Implement it with a value receiver
// so the field list is available on a zero value.
type Mappable interface {
	ModelFields() []string
}

// Tracked records what a value was decoded from. Embed it in model structs
// (tagged `json:"-"`) to get unset-field reporting and changed-field updates.
type Tracked struct {
	decoded map[string]any
	missing map[string]struct{}
}

// Fresh reports whether the value was never decoded from a response.
func (t *Tracked) Fresh() bool { return t.decoded == nil }

// Unset reports whether a declared field was absent from the response this
// value was decoded from.
func (t *Tracked) Unset(field string) bool {
	_, ok := t.missing[field]
	return ok
}

// UnsetFields returns the declared fields absent from the response, sorted.
func (t *Tracked) UnsetFields() []string {
	out := make([]string, 0, len(t.missing))
	for f := range t.missing {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (t *Tracked) record(decoded map[string]any, missing []string) {
	t.decoded = decoded
	t.missing = make(map[string]struct{}, len(missing))
	for _, f := range missing {
		t.missing[f] = struct{}{}
	}
}

func (t *Tracked) snapshot() map[string]any { return t.decoded }

// tracker is the private face of Tracked, reached through the embedding
// struct's pointer.
type tracker interface {
	record(decoded map[string]any, missing []string)
	snapshot() map[string]any
	Fresh() bool
	Unset(field string) bool
}

// Decode maps one response mapping into a model value. Fields not declared
// by the type are dropped; declared fields missing from the mapping stay
// zero and are recorded as unset.
func Decode[T Mappable](data any) (T, error) {
	var out T
	m, ok := data.(map[string]any)
	if !ok {
		return out, fmt.Errorf("%w: got %T", ErrNotMapping, data)
	}

	declared := out.ModelFields()
	filtered := make(map[string]any, len(declared))
	var missing []string
	for _, f := range declared {
		if v, present := m[f]; present {
			filtered[f] = v
		} else {
			missing = append(missing, f)
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := dec.Decode(filtered); err != nil {
		return out, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if tr, ok := any(&out).(tracker); ok {
		// Snapshot in JSON-normalized form so later change detection compares
		// like with like.
		snap, err := normalize(filtered)
		if err != nil {
			return out, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		tr.record(snap, missing)
	}
	return out, nil
}

// DecodeSlice maps a sequence of response mappings into model values. A
// single mapping yields a one-element slice, mirroring handlers that return
// either shape.
func DecodeSlice[T Mappable](data any) ([]T, error) {
	switch seq := data.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]T, 0, len(seq))
		for _, item := range seq {
			v, err := Decode[T](item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case []map[string]any:
		out := make([]T, 0, len(seq))
		for _, item := range seq {
			v, err := Decode[T](item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case map[string]any:
		v, err := Decode[T](seq)
		if err != nil {
			return nil, err
		}
		return []T{v}, nil
	}
	return nil, fmt.Errorf("%w: got %T", ErrNotSequence, data)
}

// Encode renders a model value as a mapping of its declared fields, in the
// JSON-normalized form the remote API exchanges.
func Encode[T Mappable](v T) (map[string]any, error) {
	var raw map[string]any
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &raw,
		TagName: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	out := make(map[string]any, len(raw))
	for _, f := range v.ModelFields() {
		if val, ok := raw[f]; ok {
			out[f] = val
		}
	}
	norm, err := normalize(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return norm, nil
}

// Sprint renders a model value for logs and debugging: the declared fields
// in order, with values as JSON. A trailing * on a field name marks a value
// changed since the decode; a ? value marks a field that was absent from the
// decoded response. Model types can implement fmt.Stringer with it:
//
//	func (d Dog) String() string { return model.Sprint(d) }
func Sprint[T Mappable](v T) string {
	fields, err := Encode(v)
	if err != nil {
		return fmt.Sprintf("<%T %v>", v, err)
	}

	var changed map[string]any
	unset := func(string) bool { return false }
	if tr, ok := any(&v).(tracker); ok {
		if !tr.Fresh() {
			changed = changedFields(tr.snapshot(), fields)
		}
		unset = tr.Unset
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<%T", v)
	for _, f := range v.ModelFields() {
		b.WriteByte(' ')
		b.WriteString(f)
		if unset(f) {
			b.WriteString("=?")
			continue
		}
		if _, ok := changed[f]; ok {
			b.WriteByte('*')
		}
		b.WriteByte('=')
		if enc, err := json.Marshal(fields[f]); err == nil {
			b.Write(enc)
		} else {
			fmt.Fprintf(&b, "%v", fields[f])
		}
	}
	b.WriteByte('>')
	return b.String()
}

// normalize round-trips a mapping through JSON so encoded values compare
// equal to decoded response values regardless of Go type.
func normalize(m map[string]any) (map[string]any, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
