package cache

// Policy scores an entry for eviction preference: the lowest-scoring
// entries are evicted first. Ported from
// original_source/cache/eviction.py's EvictionTechnique enum.
type Policy func(e *Entry) float64

// LRU scores an entry by its mtime — the least-recently-used entries
// have the smallest mtime and sort first for eviction.
func LRU(e *Entry) float64 {
	return float64(e.mtime.UnixNano())
}
