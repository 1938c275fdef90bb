// Package dedupe remembers recently used idempotency keys so a repeated
// request is applied at most once.
package dedupe

import (
	"context"
	"sync"
)

const (
	defaultMaxSize = 4096
	compactSlack   = 32
)

// Deduper records seen keys to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so it can be retried, e.g. after the action it
	// guarded was rejected for backpressure.
	Unrecord(ctx context.Context, key string)

	// Reset forgets every key.
	Reset(ctx context.Context)

	Size() int
}

// inMemoryDeduper keeps at most maxSize keys and evicts the oldest first.
// A maxSize of zero or less disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]uint64 // key -> insertion sequence
	order   []entry           // ring of insertions, oldest at head
	head    int
	maxSize int
	seq     uint64
}

type entry struct {
	key string
	seq uint64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]uint64)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 {
		for len(d.seen) >= d.maxSize {
			if !d.evictOldest() {
				break
			}
		}
	}
	d.seq++
	d.seen[key] = d.seq
	if d.maxSize > 0 {
		d.order = append(d.order, entry{key: key, seq: d.seq})
	}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// The ring slot stays behind; evictOldest skips it by sequence.
	delete(d.seen, key)
	d.compact()
}

func (d *inMemoryDeduper) Reset(_ context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]uint64)
	d.order = nil
	d.head = 0
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// evictOldest drops the oldest live key. Caller holds d.mu.
func (d *inMemoryDeduper) evictOldest() bool {
	defer d.compact()
	for d.head < len(d.order) {
		e := d.order[d.head]
		d.order[d.head] = entry{}
		d.head++
		if seq, ok := d.seen[e.key]; ok && seq == e.seq {
			delete(d.seen, e.key)
			return true
		}
	}
	return false
}

// compact rebuilds the ring from live keys once consumed or unrecorded
// slots outnumber them.
func (d *inMemoryDeduper) compact() {
	if len(d.order) <= 2*len(d.seen)+compactSlack {
		return
	}
	live := make([]entry, 0, len(d.seen))
	for _, e := range d.order[d.head:] {
		if seq, ok := d.seen[e.key]; ok && seq == e.seq {
			live = append(live, e)
		}
	}
	d.order = live
	d.head = 0
}
