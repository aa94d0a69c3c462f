package dht

import (
	"slices"
	"strconv"
)

// RoutingTable is a dynamic, prefix-partitioned Kademlia routing table. It
// is not safe for concurrent use: per the single-threaded net-actor model
// it is designed for, exactly one goroutine owns a table at a time and
// every mutation is totally ordered by the caller.
type RoutingTable struct {
	selfID  NodeId
	buckets []*bucket
	clock   Clock
}

// NewRoutingTable creates a table for selfID with one bucket covering the
// full [0, IDBits) prefix-length range.
func NewRoutingTable(selfID NodeId) *RoutingTable {
	return NewRoutingTableWithClock(selfID, systemClock{})
}

// NewRoutingTableWithClock is NewRoutingTable with an injected Clock, so
// rating transitions (§8's monotonicity property) can be tested
// deterministically without sleeping.
func NewRoutingTableWithClock(selfID NodeId, clock Clock) *RoutingTable {
	return &RoutingTable{
		selfID:  selfID,
		buckets: []*bucket{newBucket(0, IDBits)},
		clock:   clock,
	}
}

func (rt *RoutingTable) SelfID() NodeId { return rt.selfID }

// bucketFor returns the unique bucket whose range contains prefixLen.
// Every table state that satisfies the invariants in spec.md §3 has
// exactly one such bucket; failing to find one is a programming error.
func (rt *RoutingTable) bucketFor(prefixLen int) (int, *bucket) {
	for i, b := range rt.buckets {
		if b.contains(prefixLen) {
			return i, b
		}
	}
	panic("dht: no bucket covers prefix length " + strconv.Itoa(prefixLen) + " - routing table invariants violated")
}

// selfBucketHi is the upper bound a bucket must have to be "our own"
// bucket: the one whose range extends all the way to IDBits, and which
// therefore covers the (unreachable, since we never insert ourselves)
// prefix length of self_id against itself. Exactly one bucket has this
// property at all times — it starts as the sole [0, IDBits) bucket and,
// on every split, the half that retains the old upper bound keeps it.
func (b *bucket) isSelfBucket() bool { return b.hi == IDBits }

// FindNode locates the bucket covering id's prefix length and returns the
// contact with a matching id, if present.
func (rt *RoutingTable) FindNode(id NodeId) (NodeContactInfo, bool) {
	p := CommonPrefixLength(rt.selfID, id)
	_, b := rt.bucketFor(p)

	if i := b.entries.IndexOf(id); i >= 0 {
		return b.entries.At(i).Node, true
	}
	return NodeContactInfo{}, false
}

// FindClosest returns up to BucketCapacity contacts near id: the bucket
// covering id's prefix length, then adjacent buckets by index outward
// until enough are gathered or the table is exhausted. As spec.md notes,
// this is a best-effort candidate set — expanding by bucket index rather
// than recomputing XOR distance across the whole table can miss a closer
// contact that happens to live in a farther-indexed, sparser bucket.
func (rt *RoutingTable) FindClosest(id NodeId) []NodeContactInfo {
	p := CommonPrefixLength(rt.selfID, id)
	idx, _ := rt.bucketFor(p)

	result := make([]NodeContactInfo, 0, BucketCapacity)
	collect := func(bi int) {
		for _, e := range rt.buckets[bi].entries.Entries() {
			if len(result) >= BucketCapacity {
				return
			}
			result = append(result, e.Node)
		}
	}

	collect(idx)
	for offset := 1; len(result) < BucketCapacity && (idx-offset >= 0 || idx+offset < len(rt.buckets)); offset++ {
		if idx-offset >= 0 {
			collect(idx - offset)
		}
		if len(result) >= BucketCapacity {
			break
		}
		if idx+offset < len(rt.buckets) {
			collect(idx + offset)
		}
	}

	return result
}

// Update records an observation of node, as described in spec.md §4.5:
// refresh an existing entry in place, or else try, in order, a free slot,
// evicting a bad entry, splitting our own bucket, and finally silently
// discarding the observation.
func (rt *RoutingTable) Update(node NodeContactInfo, seenIn SeenIn) {
	p := CommonPrefixLength(rt.selfID, node.ID)
	idx, b := rt.bucketFor(p)

	if i := b.entries.IndexOf(node.ID); i >= 0 {
		e := b.entries.At(i)
		e.observe(rt.clock, node, seenIn)
		b.entries.Set(i, e)
		return
	}

	newEntry := newRoutingEntry(node)
	newEntry.observe(rt.clock, node, seenIn)

	// (a) free slot
	if !b.entries.IsFull() {
		b.entries.Push(newEntry)
		return
	}

	// (b) evict bad
	for i := 0; i < b.entries.Len(); i++ {
		if b.entries.At(i).Rating(rt.clock) == Bad {
			b.entries.Set(i, newEntry)
			return
		}
	}

	// (c) split: classical Kademlia rule — only the bucket covering our
	// own id may split. The source this table is grounded on splits any
	// full bucket with range > 1 regardless of ownership, which produces
	// degenerate one-prefix-length buckets far from self_id; spec.md
	// calls this out as a defect to fix, not to replicate.
	if b.spansMultiplePrefixLengths() && b.isSelfBucket() {
		rt.split(idx, b, p, newEntry)
		return
	}

	// (d) discard
}

func (rt *RoutingTable) split(idx int, b *bucket, p int, newEntry RoutingEntry) {
	lowHi := b.lo + 1
	highLo, highHi := lowHi, b.hi

	var drainedUpper entryList
	i := 0
	for i < b.entries.Len() {
		prefixLen := CommonPrefixLength(rt.selfID, b.entries.At(i).Node.ID)
		if prefixLen >= highLo && prefixLen < highHi {
			drainedUpper.Push(b.entries.SwapRemove(i))
		} else {
			i++
		}
	}

	lowHasSlot := !b.entries.IsFull()
	upperHasSlot := !drainedUpper.IsFull()

	switch {
	case lowHasSlot && p >= b.lo && p < lowHi:
		b.hi = lowHi
		upper := newBucket(highLo, highHi)
		upper.entries.Append(&drainedUpper)
		b.entries.Push(newEntry)
		rt.buckets = slices.Insert(rt.buckets, idx+1, upper)
	case upperHasSlot && p >= highLo && p < highHi:
		b.hi = lowHi
		upper := newBucket(highLo, highHi)
		upper.entries.Append(&drainedUpper)
		upper.entries.Push(newEntry)
		rt.buckets = slices.Insert(rt.buckets, idx+1, upper)
	default:
		// Neither half has room for the new entry: revert the drain and
		// discard it, leaving the bucket whole.
		b.entries.Append(&drainedUpper)
	}
}

// Size returns the total number of entries held across all buckets.
func (rt *RoutingTable) Size() int {
	total := 0
	for _, b := range rt.buckets {
		total += b.entries.Len()
	}
	return total
}

// BucketCount returns the number of buckets currently partitioning the id
// space. Exposed for tests asserting on split behavior.
func (rt *RoutingTable) BucketCount() int { return len(rt.buckets) }
