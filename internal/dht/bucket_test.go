package dht

import "testing"

func TestEntryListPushAndSwapRemove(t *testing.T) {
	var l entryList

	for i := 0; i < BucketCapacity; i++ {
		var id NodeId
		id[0] = byte(i)
		l.Push(RoutingEntry{Node: NodeContactInfo{ID: id}})
	}

	if !l.IsFull() {
		t.Fatal("expected list to be full")
	}
	if l.Len() != BucketCapacity {
		t.Fatalf("Len() = %d, want %d", l.Len(), BucketCapacity)
	}

	removed := l.SwapRemove(0)
	if removed.Node.ID[0] != 0 {
		t.Fatalf("SwapRemove(0) returned id[0]=%d, want 0", removed.Node.ID[0])
	}
	if l.Len() != BucketCapacity-1 {
		t.Fatalf("Len() after SwapRemove = %d, want %d", l.Len(), BucketCapacity-1)
	}
	// swap_remove semantics: the former last element now sits at index 0.
	if l.At(0).Node.ID[0] != byte(BucketCapacity-1) {
		t.Fatalf("At(0) after SwapRemove = %d, want %d", l.At(0).Node.ID[0], BucketCapacity-1)
	}
}

func TestEntryListPushPanicsWhenFull(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic pushing onto a full list")
		}
	}()

	var l entryList
	for i := 0; i < BucketCapacity; i++ {
		l.Push(RoutingEntry{})
	}
	l.Push(RoutingEntry{})
}

func TestEntryListAppend(t *testing.T) {
	var a, b entryList
	a.Push(RoutingEntry{})
	b.Push(RoutingEntry{})
	b.Push(RoutingEntry{})

	a.Append(&b)
	if a.Len() != 3 {
		t.Fatalf("Len() after Append = %d, want 3", a.Len())
	}
}

func TestEntryListIndexOf(t *testing.T) {
	var l entryList
	var id NodeId
	id[0] = 42
	l.Push(RoutingEntry{Node: NodeContactInfo{ID: id}})

	if i := l.IndexOf(id); i != 0 {
		t.Fatalf("IndexOf(id) = %d, want 0", i)
	}

	var other NodeId
	other[0] = 43
	if i := l.IndexOf(other); i != -1 {
		t.Fatalf("IndexOf(missing) = %d, want -1", i)
	}
}
