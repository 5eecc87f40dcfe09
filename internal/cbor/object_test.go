package cbor

import "testing"

func TestObjectRoundTrip(t *testing.T) {
	root := NewObject()
	root.PutInt64("a", -7).PutUint64("b", 42).PutText("c", "hello").PutBool("d", true)
	root.PutBytes("e", []byte{1, 2, 3})
	child := root.Map("nested")
	child.PutInt64("x", 9)
	arr := root.Array("list")
	arr.AppendInt(1).AppendText("two").AppendUint8s([]uint8{3, 4})

	if !root.Dirty() {
		t.Fatal("expected root to be dirty after writes")
	}

	data, err := root.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	read, err := DecodeObject(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got := read.GetInt64("a"); got != -7 {
		t.Errorf("a: got %d want -7", got)
	}
	if got := read.GetUint64("b"); got != 42 {
		t.Errorf("b: got %d want 42", got)
	}
	if got := read.GetText("c"); got != "hello" {
		t.Errorf("c: got %q want hello", got)
	}
	if got := read.GetBool("d"); got != true {
		t.Errorf("d: got %v want true", got)
	}
	if got := read.GetBytes("e"); string(got) != "\x01\x02\x03" {
		t.Errorf("e: got %v want [1 2 3]", got)
	}
	if got := read.Map("nested").GetInt64("x"); got != 9 {
		t.Errorf("nested.x: got %d want 9", got)
	}
	readArr := read.Array("list")
	if readArr.Len() != 4 {
		t.Fatalf("list length: got %d want 4", readArr.Len())
	}
	if got := readArr.GetInt64(0); got != 1 {
		t.Errorf("list[0]: got %d want 1", got)
	}
	if got := readArr.GetText(1); got != "two" {
		t.Errorf("list[1]: got %q want two", got)
	}
	if got := readArr.GetInt64(2); got != 3 {
		t.Errorf("list[2]: got %d want 3", got)
	}
}

func TestObjectMissingKeyDefaults(t *testing.T) {
	o := NewObject()
	if got := o.GetInt64("missing"); got != 0 {
		t.Errorf("missing int64: got %d want 0", got)
	}
	if got := o.GetText("missing"); got != "" {
		t.Errorf("missing text: got %q want \"\"", got)
	}
	if got := o.GetBytes("missing"); got != nil {
		t.Errorf("missing bytes: got %v want nil", got)
	}
	if o.Has("missing") {
		t.Error("Has(missing) should be false")
	}
}

func TestChildViewMarksRootDirty(t *testing.T) {
	root := NewObject()
	if root.Dirty() {
		t.Fatal("fresh object should not be dirty")
	}
	child := root.Map("inner")
	child.PutInt64("v", 1)
	if !root.Dirty() {
		t.Error("mutating a child view must mark the root dirty")
	}
}
