package sqlforge

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

func secondsToDuration(s int64) time.Duration {
	if s <= 0 {
		return DefaultValidatorCacheTTL
	}
	return time.Duration(s) * time.Second
}

// validatorCache is the single process-wide piece of mutable state the core
// is allowed to carry (§5, §9): a size- and TTL-bounded, thread-safe cache
// of ValidationResults keyed by the xxhash of the template text plus the
// dialect name. Concurrent misses racing to populate the same key are
// benign — expirable.LRU's Add is itself safe for concurrent use, and two
// racing computations of the same key always produce identical values, so
// a lost update never loses correctness (§5's "at-most-once insert,
// concurrent map" requirement).
type validatorCache struct {
	lru *expirable.LRU[uint64, ValidationResult]
}

func newValidatorCache(size int, ttlSeconds int64) *validatorCache {
	return &validatorCache{
		lru: expirable.NewLRU[uint64, ValidationResult](size, nil, secondsToDuration(ttlSeconds)),
	}
}

func cacheKey(template string, dialect DialectName, strict bool) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(template)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.Itoa(int(dialect)))
	_, _ = h.WriteString("|")
	if strict {
		_, _ = h.WriteString("strict")
	}
	return h.Sum64()
}

// getOrValidate returns the memoized ValidationResult for template+dialect,
// computing and caching it on a miss. strict is part of the cache key (§9's
// strict-mode toggle changes which diagnostics are errors, so the same
// template text validates differently under each setting).
func (c *validatorCache) getOrValidate(template string, dialect DialectName, nodes []Node, strict bool) ValidationResult {
	key := cacheKey(template, dialect, strict)
	if v, ok := c.lru.Get(key); ok {
		LogDebug("validator cache hit", map[string]interface{}{"dialect": dialect.String(), "template": cleanTemplate(template)})
		return v
	}
	result := ValidateTemplate(template, nodes, strict)
	c.lru.Add(key, result)
	LogDebug("validator cache miss", map[string]interface{}{"dialect": dialect.String(), "template": cleanTemplate(template)})
	return result
}
