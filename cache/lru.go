package cache

import (
	"context"
	"sync"
	"time"
)

// noNode marks an absent arena index.
const noNode = -1

// initialArena caps the arena capacity reserved up front.
const initialArena = 1024

// lruNode is an arena slot. prev and next are arena indices forming a
// circular doubly-linked recency list.
type lruNode struct {
	key   string
	value any
	prev  int
	next  int
}

// LRUStore is a bounded store that evicts the least recently used entry.
//
// Entries live in an arena addressed by index; the map holds indices and the
// recency list is a circular list of index links. head is the most recently
// used slot and nodes[head].prev is the least recently used one. Freed
// slots are recycled through a free list. Both Get and Set count as use.
type LRUStore struct {
	mu       sync.Mutex
	capacity int
	index    map[string]int
	nodes    []lruNode
	free     []int
	head     int
	size     int
	opts     storeOptions
	stats    *Stats
}

// NewLRUStore creates an LRU store holding at most capacity entries.
func NewLRUStore(capacity int, opts ...StoreOption) (*LRUStore, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &LRUStore{
		capacity: capacity,
		index:    make(map[string]int, min(capacity, initialArena)),
		nodes:    make([]lruNode, 0, min(capacity, initialArena)),
		head:     noNode,
		opts:     applyStoreOptions("lru", opts),
		stats:    NewStats(),
	}, nil
}

// Get returns the value for key and marks it most recently used.
func (c *LRUStore) Get(ctx context.Context, key string) (any, error) {
	value, err := c.lookup(ctx, key)
	if err != nil || !c.opts.deepCopy {
		return value, err
	}
	return deepCopy(value)
}

func (c *LRUStore) lookup(ctx context.Context, key string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[key]
	if !ok {
		c.record(ctx, OpMiss)
		return nil, ErrCacheMiss
	}

	c.promote(i)
	c.record(ctx, OpHit)
	return c.nodes[i].value, nil
}

// Set stores value under key and marks it most recently used, even when
// the value is unchanged. Inserting a new key into a full store evicts the
// least recently used entry first. ttl is ignored.
func (c *LRUStore) Set(ctx context.Context, key string, value any, _ time.Duration) error {
	if c.opts.deepCopy {
		copied, err := deepCopy(value)
		if err != nil {
			return err
		}
		value = copied
	}

	evicted, ok := c.store(ctx, key, value)
	if ok && c.opts.onEvict != nil {
		c.opts.onEvict(evicted.key, evicted.value)
	}
	return nil
}

func (c *LRUStore) store(ctx context.Context, key string, value any) (lruNode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.record(ctx, OpSet)

	if i, ok := c.index[key]; ok {
		c.nodes[i].value = value
		c.promote(i)
		return lruNode{}, false
	}

	var evicted lruNode
	full := c.size >= c.capacity
	if full {
		evicted = c.evict(ctx)
	}

	i := c.alloc(key, value)
	c.pushFront(i)
	c.index[key] = i
	c.size++
	c.stats.updateSize(c.size)
	return evicted, full
}

// Delete removes key. Returns ErrCacheMiss if key is not resident.
func (c *LRUStore) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[key]
	if !ok {
		return ErrCacheMiss
	}

	c.remove(i)
	c.stats.updateSize(c.size)
	c.record(ctx, OpDelete)
	return nil
}

// Flush removes all entries and releases every slot's value.
func (c *LRUStore) Flush(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.nodes)
	c.nodes = c.nodes[:0]
	c.free = c.free[:0]
	clear(c.index)
	c.head = noNode
	c.size = 0
	c.stats.updateSize(0)
	c.record(ctx, OpFlush)
}

// Len returns the number of entries.
func (c *LRUStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Cap returns the configured capacity.
func (c *LRUStore) Cap() int {
	return c.capacity
}

// Keys returns the resident keys from most to least recently used.
func (c *LRUStore) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.size)
	for i, n := c.head, 0; n < c.size; i, n = c.nodes[i].next, n+1 {
		keys = append(keys, c.nodes[i].key)
	}
	return keys
}

// Stats returns the store statistics.
func (c *LRUStore) Stats() *Stats {
	return c.stats
}

// evict removes the least recently used entry and returns a copy of it.
// Must be called with mu held and size > 0.
func (c *LRUStore) evict(ctx context.Context) lruNode {
	i := c.nodes[c.head].prev
	n := c.nodes[i]
	c.remove(i)
	c.record(ctx, OpEviction)
	return n
}

// remove unlinks slot i, drops it from the index and recycles it.
func (c *LRUStore) remove(i int) {
	c.unlink(i)
	delete(c.index, c.nodes[i].key)
	c.release(i)
	c.size--
}

// promote makes slot i the head.
func (c *LRUStore) promote(i int) {
	if c.size <= 1 || c.head == i {
		return
	}
	c.unlink(i)
	c.pushFront(i)
}

// unlink detaches slot i from the list, moving head to its successor when
// i was the head, or to noNode when i was the only slot.
func (c *LRUStore) unlink(i int) {
	n := &c.nodes[i]
	if n.next == i {
		c.head = noNode
	} else {
		if c.head == i {
			c.head = n.next
		}
		c.nodes[n.prev].next = n.next
		c.nodes[n.next].prev = n.prev
	}
	n.prev, n.next = noNode, noNode
}

// pushFront links slot i in front of the current head.
func (c *LRUStore) pushFront(i int) {
	if c.head == noNode {
		c.nodes[i].prev, c.nodes[i].next = i, i
		c.head = i
		return
	}
	tail := c.nodes[c.head].prev
	c.nodes[i].prev, c.nodes[i].next = tail, c.head
	c.nodes[tail].next = i
	c.nodes[c.head].prev = i
	c.head = i
}

func (c *LRUStore) alloc(key string, value any) int {
	node := lruNode{key: key, value: value, prev: noNode, next: noNode}
	if n := len(c.free); n > 0 {
		i := c.free[n-1]
		c.free = c.free[:n-1]
		c.nodes[i] = node
		return i
	}
	c.nodes = append(c.nodes, node)
	return len(c.nodes) - 1
}

func (c *LRUStore) release(i int) {
	c.nodes[i] = lruNode{prev: noNode, next: noNode}
	c.free = append(c.free, i)
}

func (c *LRUStore) record(ctx context.Context, op string) {
	c.stats.record(op)
	c.opts.recorder.Record(ctx, c.opts.name, op)
}

// Ensure LRUStore implements Store
var _ Store = (*LRUStore)(nil)
