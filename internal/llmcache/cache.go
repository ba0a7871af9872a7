// Package llmcache is the bounded two-tier cache in front of the LLM client.
// Tier one is an in-memory LRU keyed by sha256(repo || prompt); tier two is an
// optional content-addressed LevelDB store that survives the process.
//
// LevelDB key prefix scheme, "|" as separator so slashes in repo names are safe:
//
//	c|<key>        → cache entry JSON       (primary record)
//	x|<repo>|<key> → nil                    (per-repository index for clears)
//
// Concurrency: one mutex serialises every mutator; the LRU reorder on hit and
// the evict-on-insert step are atomic relative to other callers.
package llmcache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	prefixEntry = "c|"
	prefixIdx   = "x|"
)

// Entry is one cached completion.
type Entry struct {
	Content    string    `json:"content"`
	TokensUsed int       `json:"tokens_used"`
	InsertedAt time.Time `json:"inserted_at"`
	AccessedAt time.Time `json:"accessed_at"`
}

// diskEntry wraps Entry with the owning repository so maintenance and
// per-repository clears can find the index record.
type diskEntry struct {
	Repo  string `json:"repo"`
	Entry Entry  `json:"entry"`
}

// Stats is a point-in-time snapshot of cache behaviour.
type Stats struct {
	Entries   int // live in-memory entries
	Hits      int
	Misses    int
	Evictions int // capacity evictions from the memory tier
	Expired   int // TTL evictions from Maintenance
}

// node is the LRU list payload.
type node struct {
	key   string
	repo  string
	entry Entry
}

// Cache is safe for concurrent use.
type Cache struct {
	capacity int
	ttl      time.Duration
	clock    func() time.Time

	mu     sync.Mutex
	order  *list.List               // front = most recently accessed
	items  map[string]*list.Element // key → element holding *node
	byRepo map[string]map[string]struct{}
	stats  Stats

	db *leveldb.DB // nil → memory-only
}

// Key computes the cache key: sha256(repo || prompt), hex-encoded.
func Key(repo, prompt string) string {
	sum := sha256.Sum256([]byte(repo + prompt))
	return hex.EncodeToString(sum[:])
}

// New creates a memory-only cache holding at most capacity entries. ttl ≤ 0
// disables age-based eviction in Maintenance.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 64
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		clock:    time.Now,
		order:    list.New(),
		items:    make(map[string]*list.Element),
		byRepo:   make(map[string]map[string]struct{}),
	}
}

// NewPersistent creates a cache with a LevelDB second tier at dir.
func NewPersistent(capacity int, ttl time.Duration, dir string) (*Cache, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	c := New(capacity, ttl)
	c.db = db
	return c, nil
}

// Close releases the disk tier, if any.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Get returns the cached entry for (repo, prompt). A memory hit refreshes the
// entry's access time and LRU position; a disk hit promotes the entry into
// the memory tier.
func (c *Cache) Get(repo, prompt string) (Entry, bool) {
	key := Key(repo, prompt)
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		n := el.Value.(*node)
		n.entry.AccessedAt = now
		c.order.MoveToFront(el)
		c.stats.Hits++
		return n.entry, true
	}

	if c.db != nil {
		raw, err := c.db.Get([]byte(prefixEntry+key), nil)
		if err == nil {
			var de diskEntry
			if json.Unmarshal(raw, &de) == nil {
				de.Entry.AccessedAt = now
				c.insertLocked(key, repo, de.Entry)
				c.stats.Hits++
				return de.Entry, true
			}
		}
	}

	c.stats.Misses++
	return Entry{}, false
}

// Put stores an entry under (repo, prompt), stamping insertion and access
// times when unset. Exceeding capacity evicts the least-recently-accessed
// memory entry; the disk copy of an evicted entry is kept.
func (c *Cache) Put(repo, prompt string, e Entry) {
	key := Key(repo, prompt)
	now := c.clock()
	if e.InsertedAt.IsZero() {
		e.InsertedAt = now
	}
	if e.AccessedAt.IsZero() {
		e.AccessedAt = now
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.insertLocked(key, repo, e)

	if c.db != nil {
		raw, err := json.Marshal(diskEntry{Repo: repo, Entry: e})
		if err != nil {
			slog.Warn("[LLMCACHE] marshal entry", "error", err)
			return
		}
		batch := new(leveldb.Batch)
		batch.Put([]byte(prefixEntry+key), raw)
		batch.Put([]byte(prefixIdx+repo+"|"+key), nil)
		if err := c.db.Write(batch, nil); err != nil {
			slog.Warn("[LLMCACHE] disk write", "error", err)
		}
	}
}

// insertLocked adds or refreshes a memory entry and applies capacity
// eviction. Caller holds c.mu.
func (c *Cache) insertLocked(key, repo string, e Entry) {
	if el, ok := c.items[key]; ok {
		el.Value.(*node).entry = e
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&node{key: key, repo: repo, entry: e})
	c.items[key] = el
	if c.byRepo[repo] == nil {
		c.byRepo[repo] = make(map[string]struct{})
	}
	c.byRepo[repo][key] = struct{}{}

	for c.order.Len() > c.capacity {
		c.evictLocked(c.order.Back())
		c.stats.Evictions++
	}
}

// evictLocked drops one memory entry. Caller holds c.mu.
func (c *Cache) evictLocked(el *list.Element) {
	if el == nil {
		return
	}
	n := el.Value.(*node)
	c.order.Remove(el)
	delete(c.items, n.key)
	if keys := c.byRepo[n.repo]; keys != nil {
		delete(keys, n.key)
		if len(keys) == 0 {
			delete(c.byRepo, n.repo)
		}
	}
}

// ClearRepository removes every entry for repo from both tiers.
func (c *Cache) ClearRepository(repo string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.byRepo[repo] {
		if el, ok := c.items[key]; ok {
			c.order.Remove(el)
			delete(c.items, key)
		}
	}
	delete(c.byRepo, repo)

	if c.db == nil {
		return
	}
	batch := new(leveldb.Batch)
	iter := c.db.NewIterator(util.BytesPrefix([]byte(prefixIdx+repo+"|")), nil)
	for iter.Next() {
		idxKey := string(iter.Key())
		key := idxKey[strings.LastIndex(idxKey, "|")+1:]
		batch.Delete([]byte(prefixEntry + key))
		batch.Delete(iter.Key())
	}
	iter.Release()
	if err := c.db.Write(batch, nil); err != nil {
		slog.Warn("[LLMCACHE] clear repository", "repo", repo, "error", err)
	}
}

// ClearAll empties both tiers.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)
	c.byRepo = make(map[string]map[string]struct{})

	if c.db == nil {
		return
	}
	batch := new(leveldb.Batch)
	iter := c.db.NewIterator(nil, nil)
	for iter.Next() {
		batch.Delete(iter.Key())
	}
	iter.Release()
	if err := c.db.Write(batch, nil); err != nil {
		slog.Warn("[LLMCACHE] clear all", "error", err)
	}
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.order.Len()
	return s
}

// Maintenance evicts entries older than the configured TTL from both tiers
// and returns the number removed. No-op when the TTL is unset.
func (c *Cache) Maintenance() int {
	if c.ttl <= 0 {
		return 0
	}
	cutoff := c.clock().Add(-c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*node).entry.InsertedAt.Before(cutoff) {
			c.evictLocked(el)
			removed++
		}
		el = prev
	}

	if c.db != nil {
		batch := new(leveldb.Batch)
		iter := c.db.NewIterator(util.BytesPrefix([]byte(prefixEntry)), nil)
		for iter.Next() {
			var de diskEntry
			if json.Unmarshal(iter.Value(), &de) != nil {
				continue
			}
			if de.Entry.InsertedAt.Before(cutoff) {
				key := strings.TrimPrefix(string(iter.Key()), prefixEntry)
				if _, live := c.items[key]; live {
					continue // still warm in memory; TTL check caught it above if due
				}
				batch.Delete(iter.Key())
				batch.Delete([]byte(prefixIdx + de.Repo + "|" + key))
				removed++
			}
		}
		iter.Release()
		if err := c.db.Write(batch, nil); err != nil {
			slog.Warn("[LLMCACHE] maintenance", "error", err)
		}
	}

	c.stats.Expired += removed
	return removed
}
