// Package authcache implements the TTL-bound, refcounted authorization
// cache (spec §4.D): a map from (export-uuid, mount-uuid, host) to the
// export item that most recently granted access, so the authorizer can
// skip the full exports/netgroups walk on every repeated request.
package authcache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/exports"
)

// Result is the outcome of a Lookup.
type Result int

const (
	NotFound Result = iota
	Expired
	Found
)

// entry is one cached verdict. refcount tracks live references handed
// out by Lookup so that Purge can swap the map away and still let
// in-flight readers finish with the entry they already hold — nothing
// is ever mutated in place after construction, so there is nothing to
// race on beyond the refcount itself.
type entry struct {
	createdAt time.Time
	item      *exports.Item
	refcount  atomic.Int32
}

// Info is the caller-facing copy of a cache hit: the export item that
// granted access, plus when it was cached.
type Info struct {
	CreatedAt time.Time
	Item      *exports.Item
}

// Cache is one TTL-bound auth cache instance. The zero value is not
// usable; construct with New.
type Cache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

// New returns a Cache whose entries expire ttl after creation.
func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: make(map[string]*entry)}
}

func key(exportUUID, mountUUID uuid.UUID, host string) string {
	return fmt.Sprintf("%s:%s:%s", exportUUID, mountUUID, host)
}

// Lookup reports whether (exportUUID, mountUUID, host) has a live cached
// verdict. An entry whose age exceeds the cache's ttl is removed inline
// and reported as Expired rather than Found, so the caller always
// re-authorizes on expiry instead of serving a stale verdict.
func (c *Cache) Lookup(exportUUID, mountUUID uuid.UUID, host string) (Result, Info) {
	k := key(exportUUID, mountUUID, host)

	c.mu.Lock()
	e, ok := c.entries[k]
	if !ok {
		c.mu.Unlock()
		return NotFound, Info{}
	}

	if time.Since(e.createdAt) > c.ttl {
		delete(c.entries, k)
		c.mu.Unlock()
		e.refcount.Add(-1)
		return Expired, Info{}
	}

	e.refcount.Add(1)
	c.mu.Unlock()

	return Found, Info{CreatedAt: e.createdAt, Item: e.item}
}

// Insert records that host was granted access via item for
// (exportUUID, mountUUID). Idempotent: if a live entry already exists
// for this key, Insert is a no-op — it never refreshes the timestamp or
// replaces the item, matching spec §4.D's "if a live entry already
// exists, do nothing and return success".
func (c *Cache) Insert(exportUUID, mountUUID uuid.UUID, host string, item *exports.Item) {
	k := key(exportUUID, mountUUID, host)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[k]; ok && time.Since(e.createdAt) <= c.ttl {
		return
	}

	e := &entry{createdAt: time.Now(), item: item}
	e.refcount.Store(1)
	c.entries[k] = e
}

// Purge atomically swaps the underlying map to a new empty one. The old
// map's entries are released via refcount decrement outside the lock, so
// a Lookup that is mid-flight with a reference it already retrieved is
// never disturbed — only the shared map pointer moves.
func (c *Cache) Purge() {
	c.mu.Lock()
	old := c.entries
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	for _, e := range old {
		e.refcount.Add(-1)
	}
}

// Len reports the number of live entries, for tests and metrics-free
// log counters.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
