// Package alloc implements §4.7's host allocator: a bump-with-capacity
// allocator over a dedicated region of the guest's linear memory, with an
// exact (ptr, size, tag) debug table recording every live allocation.
package alloc

import "sync"

// DefaultHeapStart is §3.6's heap origin: memory below it is the null-trap
// page, the string pool, and the 64 KiB stack region.
const DefaultHeapStart = 0x10000

// entry is one live allocation's debug record.
type entry struct {
	size int32
	tag  string
}

// Bump is a bump-with-capacity allocator: it never reclaims freed space
// for reuse (the bump variant §4.7 calls "acceptable for scratch"), but it
// does track every live allocation exactly, so Free and the debug table
// are precise even though the arena itself never shrinks.
type Bump struct {
	mu       sync.Mutex
	start    int32
	capacity int32
	next     int32
	live     map[int32]entry
}

// New creates a Bump allocator spanning [start, start+capacity).
func New(start, capacity int32) *Bump {
	return &Bump{start: start, capacity: capacity, next: start, live: map[int32]entry{}}
}

// NewDefault creates a Bump rooted at DefaultHeapStart with capacity bytes.
func NewDefault(capacity int32) *Bump { return New(DefaultHeapStart, capacity) }

// Alloc implements hostabi.Allocator: returns (ptr, true) or (0, false) on
// failure (out of capacity); size ≤ 0 is the caller's (vudo_alloc's)
// responsibility to reject before reaching here.
func (b *Bump) Alloc(size int32) (int32, bool) {
	return b.allocTagged(size, "")
}

// AllocTagged is the same as Alloc but records tag in the debug table, for
// callers (record/tuple construction in internal/wasm's runtime harness,
// or a CLI --debug-memory flag) that want to label allocations by purpose.
func (b *Bump) AllocTagged(size int32, tag string) (int32, bool) {
	return b.allocTagged(size, tag)
}

func (b *Bump) allocTagged(size int32, tag string) (int32, bool) {
	if size <= 0 {
		return 0, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if int64(b.next)+int64(size) > int64(b.start)+int64(b.capacity) {
		return 0, false
	}
	ptr := b.next
	b.next += size
	b.live[ptr] = entry{size: size, tag: tag}
	return ptr, true
}

// Free removes ptr from the live table if size matches the recorded
// allocation (§4.6: "size must match allocation"); a mismatch is treated
// as a no-op rather than corrupting the table, since the bump arena
// itself is never reclaimed regardless.
func (b *Bump) Free(ptr, size int32) {
	if ptr == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.live[ptr]; ok && e.size == size {
		delete(b.live, ptr)
	}
}

// Realloc allocates a fresh block of newSize and then drops ptr's entry
// from the allocation table. It only manages the allocation-table
// bookkeeping and never touches guest bytes, so copying the old contents
// is left to the caller. Mirroring vudo_realloc's "on failure, original
// still valid" contract, the old entry is left untouched when the new
// allocation fails.
func (b *Bump) Realloc(ptr, oldSize, newSize int32) (int32, bool) {
	newPtr, ok := b.Alloc(newSize)
	if !ok {
		return 0, false
	}
	b.Free(ptr, oldSize)
	return newPtr, true
}

// LiveCount returns the number of currently-live allocations (§8 scenario
// S3: "the host allocator reports zero active allocations").
func (b *Bump) LiveCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

// DebugEntry is one row of the allocation debug table.
type DebugEntry struct {
	Ptr  int32
	Size int32
	Tag  string
}

// DebugTable returns every live allocation's (ptr, size, tag), unordered.
func (b *Bump) DebugTable() []DebugEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]DebugEntry, 0, len(b.live))
	for ptr, e := range b.live {
		out = append(out, DebugEntry{Ptr: ptr, Size: e.size, Tag: e.tag})
	}
	return out
}
