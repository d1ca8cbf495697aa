package magicmount

import (
	"os"

	"github.com/absfs/absfs"
)

// statCache memoizes lstat results for real paths during one pass. Both
// hits and misses (non-existent paths) are remembered; the tree is built
// once per boot so entries never expire.
type statCache struct {
	fsys     absfs.FileSystem
	enabled  bool
	entries  map[string]statCacheEntry
	hits     int
	misses   int
	negative int
}

type statCacheEntry struct {
	info os.FileInfo
	err  error
}

// CacheStats reports how the stat cache was used.
type CacheStats struct {
	Entries  int
	Hits     int
	Misses   int
	Negative int
}

func newStatCache(fsys absfs.FileSystem, enabled bool) *statCache {
	return &statCache{
		fsys:    fsys,
		enabled: enabled,
		entries: make(map[string]statCacheEntry),
	}
}

// lstat returns the cached result for name, consulting the filesystem on
// first use.
func (c *statCache) lstat(name string) (os.FileInfo, error) {
	if !c.enabled {
		return lstat(c.fsys, name)
	}
	if e, ok := c.entries[name]; ok {
		c.hits++
		return e.info, e.err
	}
	c.misses++
	info, err := lstat(c.fsys, name)
	if err != nil {
		c.negative++
	}
	c.entries[name] = statCacheEntry{info: info, err: err}
	return info, err
}

// Stats returns cache statistics.
func (c *statCache) Stats() CacheStats {
	return CacheStats{
		Entries:  len(c.entries),
		Hits:     c.hits,
		Misses:   c.misses,
		Negative: c.negative,
	}
}
