package cbor

// Array is a CBOR array view: either a root (from NewArray/DecodeArray)
// or a non-owning child view obtained from Object.Array or Array.Array.
type Array struct {
	root *root
	data []any
	set  func([]any) // writes a grown/shrunk slice back to the owner; nil at a true root
}

// NewArray creates a fresh, empty root Array.
func NewArray() *Array {
	r := &root{}
	return &Array{root: r}
}

// DecodeArray decodes data as a CBOR array into a fresh root Array.
func DecodeArray(data []byte) (*Array, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return NewArray(), err
	}
	a, ok := v.([]any)
	if !ok {
		return NewArray(), errNotAnArray
	}
	return &Array{root: &root{}, data: a}, nil
}

// Encode serializes the Array's subtree as canonical CBOR.
func (a *Array) Encode() ([]byte, error) {
	return encMode.Marshal(a.data)
}

// Dirty reports whether any view descended from this Array's root has
// been mutated since creation/decode.
func (a *Array) Dirty() bool { return a.root.dirty }

// Len returns the element count.
func (a *Array) Len() int { return len(a.data) }

func (a *Array) push(v any) {
	a.data = append(a.data, v)
	if a.set != nil {
		a.set(a.data)
	}
	a.root.markDirty()
}

// AppendInt appends a signed integer and returns a for chaining.
func (a *Array) AppendInt(v int64) *Array {
	a.push(v)
	return a
}

// AppendText appends a string and returns a for chaining.
func (a *Array) AppendText(v string) *Array {
	a.push(v)
	return a
}

// AppendBytes copies and appends a byte string, returning a for chaining.
func (a *Array) AppendBytes(v []byte) *Array {
	cp := make([]byte, len(v))
	copy(cp, v)
	a.push(cp)
	return a
}

// AppendUint8s performs a typed bulk append of a u8 sequence (spec.md
// §4.F: GPIO registers serialize as arrays of pin numbers), returning a
// for chaining.
func (a *Array) AppendUint8s(vals []uint8) *Array {
	for _, v := range vals {
		a.data = append(a.data, int64(v))
	}
	if a.set != nil {
		a.set(a.data)
	}
	a.root.markDirty()
	return a
}

// AppendUint32s performs a typed bulk append of a u32 sequence (spec.md
// §4.F: object registers serialize as arrays of tags), returning a for
// chaining.
func (a *Array) AppendUint32s(vals []uint32) *Array {
	for _, v := range vals {
		a.data = append(a.data, int64(v))
	}
	if a.set != nil {
		a.set(a.data)
	}
	a.root.markDirty()
	return a
}

// GetInt64 returns the int64 at index i, or 0 if out of range or a
// different type.
func (a *Array) GetInt64(i int) int64 {
	if i < 0 || i >= len(a.data) {
		return 0
	}
	v, _ := a.data[i].(int64)
	return v
}

// GetText returns the string at index i, or "" if out of range or a
// different type.
func (a *Array) GetText(i int) string {
	if i < 0 || i >= len(a.data) {
		return ""
	}
	v, _ := a.data[i].(string)
	return v
}

// Array returns a non-owning child view of the nested array at index i,
// creating an empty one and extending this array if i is out of range.
func (a *Array) Array(i int) *Array {
	for i >= len(a.data) {
		a.data = append(a.data, []any(nil))
	}
	cur, _ := a.data[i].([]any)
	idx := i
	set := func(next []any) {
		a.data[idx] = next
		a.root.markDirty()
	}
	if a.set != nil {
		a.set(a.data)
	}
	return &Array{root: a.root, data: cur, set: set}
}

// Map returns a non-owning child view of the nested map at index i,
// creating an empty one and extending this array if i is out of range.
func (a *Array) Map(i int) *Object {
	for i >= len(a.data) {
		a.data = append(a.data, map[string]any(nil))
	}
	m, ok := a.data[i].(map[string]any)
	if !ok {
		m = map[string]any{}
		a.data[i] = m
		a.root.markDirty()
	}
	if a.set != nil {
		a.set(a.data)
	}
	return &Object{root: a.root, data: m}
}

var errNotAnArray = arrayDecodeError{}

type arrayDecodeError struct{}

func (arrayDecodeError) Error() string { return "cbor: top-level value is not an array" }
