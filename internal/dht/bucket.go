package dht

// BucketCapacity is k, the maximum number of entries a single bucket may
// hold.
const BucketCapacity = 8

// entryList is a fixed-capacity, insertion-ordered container of at most
// BucketCapacity entries. It is the safe Go counterpart of the
// MaybeUninit-backed FixedVec this package is grounded on: an inline array
// plus a length avoids a heap allocation per bucket for the common k=8
// case, without resorting to unsafe code.
type entryList struct {
	items [BucketCapacity]RoutingEntry
	n     int
}

func (l *entryList) Len() int     { return l.n }
func (l *entryList) IsFull() bool { return l.n >= BucketCapacity }

func (l *entryList) At(i int) RoutingEntry     { return l.items[i] }
func (l *entryList) Set(i int, e RoutingEntry) { l.items[i] = e }

// Push appends e. The caller must ensure the list is not full.
func (l *entryList) Push(e RoutingEntry) {
	if l.IsFull() {
		panic("dht: push onto full bucket")
	}
	l.items[l.n] = e
	l.n++
}

// SwapRemove removes the entry at i, replacing it with the last entry in
// the list (order is not preserved, per the container's contract).
func (l *entryList) SwapRemove(i int) RoutingEntry {
	removed := l.items[i]
	l.n--
	l.items[i] = l.items[l.n]
	var zero RoutingEntry
	l.items[l.n] = zero
	return removed
}

// Append moves every entry of other onto l. The caller must ensure enough
// room exists.
func (l *entryList) Append(other *entryList) {
	if l.n+other.n > BucketCapacity {
		panic("dht: append would overflow bucket")
	}
	for i := 0; i < other.n; i++ {
		l.items[l.n] = other.items[i]
		l.n++
	}
}

// Entries returns a snapshot slice of the list's current contents, in
// insertion order.
func (l *entryList) Entries() []RoutingEntry {
	out := make([]RoutingEntry, l.n)
	copy(out, l.items[:l.n])
	return out
}

// IndexOf returns the index of the entry with the given id, or -1.
func (l *entryList) IndexOf(id NodeId) int {
	for i := 0; i < l.n; i++ {
		if l.items[i].Node.ID == id {
			return i
		}
	}
	return -1
}

// bucket is a group of at most BucketCapacity contacts sharing a
// common-prefix-length range relative to the table's self id.
type bucket struct {
	entries entryList
	lo, hi  int // prefix-length range [lo, hi)
}

func newBucket(lo, hi int) *bucket {
	return &bucket{lo: lo, hi: hi}
}

func (b *bucket) contains(prefixLen int) bool {
	return prefixLen >= b.lo && prefixLen < b.hi
}

// spansMultiplePrefixLengths reports whether b covers more than a single
// prefix length and can therefore be split.
func (b *bucket) spansMultiplePrefixLengths() bool {
	return b.hi-b.lo > 1
}
