package model

import (
	"context"
	"reflect"

	"github.com/okian/tether"
)

// Binding ties a model type to a route and exposes CRUD sugar: GET with the
// value's fields as URL args, POST with the serialized fields, PUT with
// changed fields only, DELETE with the value's fields as URL args. Each call
// builds a plain tether.Request underneath.
type Binding[T Mappable] struct {
	route *tether.Route
}

// Bind creates the binding for a route.
func Bind[T Mappable](route *tether.Route) *Binding[T] {
	return &Binding[T]{route: route}
}

// Route returns the bound route.
func (b *Binding[T]) Route() *tether.Route { return b.route }

// Get fetches one resource addressed by the given URL args.
func (b *Binding[T]) Get(ctx context.Context, urlargs map[string]any) (T, error) {
	var zero T
	out, err := b.route.Request().URLArgs(urlargs).Get(ctx)
	if err != nil {
		return zero, err
	}
	return Decode[T](out)
}

// List fetches a collection, passing params as query parameters.
func (b *Binding[T]) List(ctx context.Context, params map[string]any) ([]T, error) {
	out, err := b.route.Request().Params(params).Get(ctx)
	if err != nil {
		return nil, err
	}
	return DecodeSlice[T](out)
}

// Fetch re-reads the resource a value addresses, using its declared fields
// as URL args.
func (b *Binding[T]) Fetch(ctx context.Context, v T) (T, error) {
	var zero T
	fields, err := Encode(v)
	if err != nil {
		return zero, err
	}
	out, err := b.route.Request().URLArgs(fields).Get(ctx)
	if err != nil {
		return zero, err
	}
	return Decode[T](out)
}

// Create POSTs the value's declared fields. When the API echoes the created
// resource back, the echo is decoded and returned; a bodyless response
// returns the input unchanged.
func (b *Binding[T]) Create(ctx context.Context, v T) (T, error) {
	fields, err := Encode(v)
	if err != nil {
		return v, err
	}
	out, err := b.route.Request().URLArgs(fields).JSON(fields).Post(ctx)
	if err != nil {
		return v, err
	}
	if out == nil {
		return v, nil
	}
	return Decode[T](out)
}

// Update PUTs the fields that changed since the value was decoded. A value
// never decoded from a response sends all declared fields. A bodyless
// response returns the input unchanged.
func (b *Binding[T]) Update(ctx context.Context, v T) (T, error) {
	fields, err := Encode(v)
	if err != nil {
		return v, err
	}

	payload := fields
	if tr, ok := any(&v).(tracker); ok && !tr.Fresh() {
		payload = changedFields(tr.snapshot(), fields)
	}

	out, err := b.route.Request().URLArgs(fields).JSON(payload).Put(ctx)
	if err != nil {
		return v, err
	}
	if out == nil {
		return v, nil
	}
	return Decode[T](out)
}

// Delete issues a DELETE addressed by the value's declared fields.
func (b *Binding[T]) Delete(ctx context.Context, v T) error {
	fields, err := Encode(v)
	if err != nil {
		return err
	}
	_, err = b.route.Request().URLArgs(fields).Delete(ctx)
	return err
}

// changedFields returns the entries of current that differ from the decode
// snapshot. Both sides are JSON-normalized, so comparison is type-stable.
func changedFields(snapshot, current map[string]any) map[string]any {
	changed := make(map[string]any, len(current))
	for k, cur := range current {
		prev, ok := snapshot[k]
		if !ok || !reflect.DeepEqual(prev, cur) {
			changed[k] = cur
		}
	}
	return changed
}
