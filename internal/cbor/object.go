// Package cbor wraps github.com/fxamacker/cbor/v2 in the tree-shaped
// builder/reader the rest of the core is written against (spec.md §3,
// §4.B): one owner per subtree, child views that alias the root's
// storage and mark it dirty on mutation, and read paths that tolerate
// missing or mistyped keys by returning zero values instead of errors.
//
// Per the redesign note in spec.md §9, no CBOR tree ever aliases bytes
// belonging to another tree: Decode always copies its input, and there
// is no equivalent of the source's copyStrPtr borrowed-pointer path.
package cbor

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	decMode = mustDecMode()
	encMode = mustEncMode()
)

func mustDecMode() cbor.DecMode {
	m, err := cbor.DecOptions{
		IntDec:         cbor.IntDecConvertSigned, // retain sign; uint64 values decode as int64
		DefaultMapType: reflect.TypeOf(map[string]any{}),
		DupMapKey:      cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("cbor: build decode mode: " + err.Error())
	}
	return m
}

func mustEncMode() cbor.EncMode {
	m, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("cbor: build encode mode: " + err.Error())
	}
	return m
}

// root is the single owner of a tree's storage. Every Object and Array
// view descended from the same Decode/NewObject call shares one root and
// marks it dirty through it; the root never hands out its storage to
// another tree.
type root struct {
	dirty bool
}

func (r *root) markDirty() { r.dirty = true }

// Object is a CBOR map view: either the root of a tree (from NewObject or
// DecodeObject) or a non-owning child view obtained via Map/child access.
type Object struct {
	root *root
	data map[string]any
}

// NewObject creates a fresh, empty root Object.
func NewObject() *Object {
	return &Object{root: &root{}, data: map[string]any{}}
}

// DecodeObject decodes data as a CBOR map into a fresh root Object.
// wasReadSuccessful-style tolerance: a decode failure returns an empty
// root Object and the error, so callers that only check emptiness still
// get sane defaults.
func DecodeObject(data []byte) (*Object, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return NewObject(), err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return NewObject(), errNotAnObject
	}
	return &Object{root: &root{}, data: m}, nil
}

// Encode serializes the Object's subtree as a canonical CBOR map. Encode
// is always called on the tree's root in normal use; calling it on a
// child view encodes only that child's subtree.
func (o *Object) Encode() ([]byte, error) {
	return encMode.Marshal(o.data)
}

// Dirty reports whether any view descended from this Object's root has
// been mutated since creation/decode.
func (o *Object) Dirty() bool { return o.root.dirty }

// Has reports whether key is present, regardless of type.
func (o *Object) Has(key string) bool {
	_, ok := o.data[key]
	return ok
}

// Keys returns the map's keys in unspecified order (CBOR maps are
// unordered); callers needing stable order should sort.
func (o *Object) Keys() []string {
	out := make([]string, 0, len(o.data))
	for k := range o.data {
		out = append(out, k)
	}
	return out
}

// PutInt64 stores v under key and returns o for chaining.
func (o *Object) PutInt64(key string, v int64) *Object {
	o.data[key] = v
	o.root.markDirty()
	return o
}

// PutUint64 stores v under key as a signed int64, per spec.md §3's
// "uint64 stored as signed" rule, and returns o for chaining.
func (o *Object) PutUint64(key string, v uint64) *Object {
	o.data[key] = int64(v)
	o.root.markDirty()
	return o
}

// PutBool stores v under key and returns o for chaining.
func (o *Object) PutBool(key string, v bool) *Object {
	o.data[key] = v
	o.root.markDirty()
	return o
}

// PutText stores v under key and returns o for chaining.
func (o *Object) PutText(key string, v string) *Object {
	o.data[key] = v
	o.root.markDirty()
	return o
}

// PutBytes copies v and stores it under key, returning o for chaining.
func (o *Object) PutBytes(key string, v []byte) *Object {
	cp := make([]byte, len(v))
	copy(cp, v)
	o.data[key] = cp
	o.root.markDirty()
	return o
}

// GetInt64 returns the int64 at key, or 0 if absent or a different type.
func (o *Object) GetInt64(key string) int64 {
	v, _ := o.GetInt64Checked(key)
	return v
}

// GetInt64Checked returns the int64 at key and whether it was actually
// present with that type, distinguishing "absent" from "present but not
// numeric" for callers that need to warn on the latter rather than
// silently coerce to 0.
func (o *Object) GetInt64Checked(key string) (int64, bool) {
	v, ok := o.data[key].(int64)
	return v, ok
}

// GetUint64 returns the value at key reinterpreted as uint64, or 0 if
// absent or not an integer.
func (o *Object) GetUint64(key string) uint64 {
	return uint64(o.GetInt64(key))
}

// GetBool returns the bool at key, or false if absent or a different type.
func (o *Object) GetBool(key string) bool {
	v, _ := o.data[key].(bool)
	return v
}

// GetText returns the string at key, or "" if absent or a different type.
func (o *Object) GetText(key string) string {
	v, _ := o.data[key].(string)
	return v
}

// GetBytes returns a copy of the byte string at key, or nil if absent or
// a different type.
func (o *Object) GetBytes(key string) []byte {
	v, ok := o.data[key].([]byte)
	if !ok {
		return nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp
}

// Map returns a non-owning child view of the map at key, creating an
// empty one if absent or mistyped. Mutating the child marks this Object's
// root dirty.
func (o *Object) Map(key string) *Object {
	if m, ok := o.data[key].(map[string]any); ok {
		return &Object{root: o.root, data: m}
	}
	m := map[string]any{}
	o.data[key] = m
	o.root.markDirty()
	return &Object{root: o.root, data: m}
}

// Array returns a non-owning child view of the array at key, creating an
// empty one if absent or mistyped. Mutating the child marks this
// Object's root dirty.
func (o *Object) Array(key string) *Array {
	cur, _ := o.data[key].([]any)
	set := func(next []any) {
		o.data[key] = next
		o.root.markDirty()
	}
	return &Array{root: o.root, data: cur, set: set}
}

var errNotAnObject = objectDecodeError{}

type objectDecodeError struct{}

func (objectDecodeError) Error() string { return "cbor: top-level value is not a map" }
