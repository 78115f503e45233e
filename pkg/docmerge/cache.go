package docmerge

import (
	"container/list"
	"encoding/hex"
	"sync"
	"time"

	"github.com/zeebo/blake3"
)

// CacheConfig contains configuration options for the package cache
type CacheConfig struct {
	// MaxSize is the maximum number of packages to cache. 0 or less disables caching.
	MaxSize int
	// TTL is the time-to-live for cached packages. 0 means no expiration.
	TTL time.Duration
}

// PackageCache keeps loaded packages keyed by the digest of their archive bytes, so a cover
// merged with many bodies, or once per version, is unzipped and parsed only once. Cached
// packages are never handed out directly: Load returns a clone the caller may mutate.
type PackageCache struct {
	mu     sync.Mutex
	cache  map[string]*cacheEntry
	lru    *list.List
	config CacheConfig
}

type cacheEntry struct {
	key     string
	pkg     *Package
	expiry  time.Time
	element *list.Element
}

// NewPackageCache creates a package cache from the global configuration
func NewPackageCache() *PackageCache {
	config := GetGlobalConfig()
	return NewPackageCacheWithConfig(CacheConfig{
		MaxSize: config.CacheMaxSize,
		TTL:     config.CacheTTL,
	})
}

// NewPackageCacheWithConfig creates a new package cache with the given configuration
func NewPackageCacheWithConfig(config CacheConfig) *PackageCache {
	return &PackageCache{
		cache:  make(map[string]*cacheEntry),
		lru:    list.New(),
		config: config,
	}
}

// Digest returns the hex BLAKE3 digest used as cache key.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Load returns a private copy of the package stored in data, loading and caching it on a miss.
func (pc *PackageCache) Load(data []byte, config *Config) (*Package, error) {
	if pc == nil || pc.config.MaxSize <= 0 {
		return LoadPackage(data, config)
	}

	key := Digest(data)
	if pkg, ok := pc.Get(key); ok {
		return pkg.Clone(), nil
	}

	pkg, err := LoadPackage(data, config)
	if err != nil {
		return nil, err
	}
	pc.Set(key, pkg)
	return pkg.Clone(), nil
}

// Get retrieves a cached package. The returned package is shared and must not be modified.
func (pc *PackageCache) Get(key string) (*Package, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	entry, exists := pc.cache[key]
	if !exists {
		return nil, false
	}

	// Check expiry
	if pc.config.TTL > 0 && time.Now().After(entry.expiry) {
		pc.removeLocked(entry)
		return nil, false
	}

	// Move to front of LRU
	pc.lru.MoveToFront(entry.element)
	return entry.pkg, true
}

// Set adds a package to the cache
func (pc *PackageCache) Set(key string, pkg *Package) {
	// Check if caching is disabled
	if pc.config.MaxSize <= 0 {
		return
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	expiry := time.Time{}
	if pc.config.TTL > 0 {
		expiry = time.Now().Add(pc.config.TTL)
	}

	// Check if key already exists
	if existing, exists := pc.cache[key]; exists {
		existing.pkg = pkg
		existing.expiry = expiry
		pc.lru.MoveToFront(existing.element)
		return
	}

	// Evict least recently used
	for pc.lru.Len() >= pc.config.MaxSize {
		oldest := pc.lru.Back()
		if oldest == nil {
			break
		}
		pc.removeLocked(oldest.Value.(*cacheEntry))
	}

	entry := &cacheEntry{
		key:    key,
		pkg:    pkg,
		expiry: expiry,
	}
	entry.element = pc.lru.PushFront(entry)
	pc.cache[key] = entry
}

// Remove removes a package from the cache
func (pc *PackageCache) Remove(key string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if entry, exists := pc.cache[key]; exists {
		pc.removeLocked(entry)
	}
}

func (pc *PackageCache) removeLocked(entry *cacheEntry) {
	delete(pc.cache, entry.key)
	pc.lru.Remove(entry.element)
}

// Clear removes all packages from the cache
func (pc *PackageCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache = make(map[string]*cacheEntry)
	pc.lru = list.New()
}

// Size returns the current number of cached packages
func (pc *PackageCache) Size() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return len(pc.cache)
}
