package value

import "testing"

func TestCopyStringInterns(t *testing.T) {
	a := NewAllocator()
	first := a.CopyString("hello")
	second := a.CopyString("hello")
	if first != second {
		t.Error("CopyString should return the same pointer for byte-equal input")
	}

	other := a.CopyString("world")
	if other == first {
		t.Error("distinct content should not intern to the same object")
	}
}

func TestAllocatorDestroyClearsBookkeeping(t *testing.T) {
	a := NewAllocator()
	a.CopyString("x")
	a.Destroy()
	if a.objects != nil {
		t.Error("Destroy should clear the object list")
	}
	if a.strings.Len() != 0 {
		t.Error("Destroy should clear the intern table")
	}
}
