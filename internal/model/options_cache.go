package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"TabQueryAPI/internal/filter"
	"TabQueryAPI/internal/logger"
)

const (
	defaultOptionsCacheTTL = 7 * 24 * time.Hour
	optionsCacheSweepFreq  = time.Hour
	optionsCachePrefix     = "findopts:"
)

type optionsCacheEntry struct {
	payload   []byte
	lastUsed  time.Time
	createdAt time.Time
}

// optionsCache keeps rendered find options per model and request. Entries
// expire after ttl without use; maxBytes > 0 caps the summed payload size.
type optionsCache struct {
	mu         sync.Mutex
	items      map[string]*optionsCacheEntry
	lastSweep  time.Time
	totalBytes int64
	maxBytes   int64
	ttl        time.Duration
}

func newOptionsCache() *optionsCache {
	return &optionsCache{
		items: make(map[string]*optionsCacheEntry),
		ttl:   defaultOptionsCacheTTL,
	}
}

var globalOptionsCache = newOptionsCache()

// SetOptionsCacheLimits configures the in-memory cache. ttl <= 0 keeps
// the current TTL.
func SetOptionsCacheLimits(maxBytes int64, ttl time.Duration) {
	globalOptionsCache.mu.Lock()
	defer globalOptionsCache.mu.Unlock()
	globalOptionsCache.maxBytes = maxBytes
	if ttl > 0 {
		globalOptionsCache.ttl = ttl
	}
}

// ResetOptionsCache drops every in-memory entry.
func ResetOptionsCache() {
	globalOptionsCache.mu.Lock()
	defer globalOptionsCache.mu.Unlock()
	globalOptionsCache.items = make(map[string]*optionsCacheEntry)
	globalOptionsCache.totalBytes = 0
}

func (c *optionsCache) get(key string, now time.Time) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeSweepLocked(now)
	entry, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if now.Sub(entry.lastUsed) > c.ttl {
		delete(c.items, key)
		c.totalBytes -= entrySize(key, entry.payload)
		return nil, false
	}
	entry.lastUsed = now
	return entry.payload, true
}

func (c *optionsCache) set(key string, payload []byte, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeSweepLocked(now)

	sizeBytes := entrySize(key, payload)
	if c.maxBytes > 0 && sizeBytes > c.maxBytes {
		logger.Warn("options_cache_item_too_large", map[string]any{
			"item_bytes": sizeBytes,
			"max_bytes":  c.maxBytes,
		})
		return false
	}

	var replaced int64
	if existing, ok := c.items[key]; ok {
		replaced = entrySize(key, existing.payload)
	}
	if c.maxBytes > 0 && c.totalBytes-replaced+sizeBytes > c.maxBytes {
		logger.Warn("options_cache_memory_limit_exceeded", map[string]any{
			"item_bytes":  sizeBytes,
			"total_bytes": c.totalBytes,
			"max_bytes":   c.maxBytes,
		})
		logMemoryPressure()
		return false
	}

	c.items[key] = &optionsCacheEntry{
		payload:   payload,
		lastUsed:  now,
		createdAt: now,
	}
	c.totalBytes += sizeBytes - replaced
	return true
}

func (c *optionsCache) maybeSweepLocked(now time.Time) {
	if !c.lastSweep.IsZero() && now.Sub(c.lastSweep) < optionsCacheSweepFreq {
		return
	}
	for key, entry := range c.items {
		if now.Sub(entry.lastUsed) > c.ttl {
			delete(c.items, key)
			c.totalBytes -= entrySize(key, entry.payload)
		}
	}
	c.lastSweep = now
}

func (c *optionsCache) stats() (items int, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items), c.totalBytes
}

func entrySize(key string, payload []byte) int64 {
	return int64(len(key) + len(payload))
}

// optionsCacheKey hashes the model name and the canonical form of req, so
// equal requests share an entry regardless of map ordering.
func optionsCacheKey(modelName string, req filter.Request) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return "", err
	}
	// omitempty hides an empty select, which still differs from no select
	payload := map[string]any{
		"model":          modelName,
		"request":        plain,
		"select_present": req.Select != nil,
	}

	data, err := canonicalJSON(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return optionsCachePrefix + hex.EncodeToString(sum[:]), nil
}

func canonicalJSON(value any) ([]byte, error) {
	var b strings.Builder
	if err := encodeCanonical(&b, value); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func encodeCanonical(b *strings.Builder, value any) error {
	switch v := value.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if v {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string, float64:
		enc, _ := json.Marshal(v)
		b.Write(enc)
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encodeCanonical(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encKey, _ := json.Marshal(k)
			b.Write(encKey)
			b.WriteByte(':')
			if err := encodeCanonical(b, v[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("canonical json: unsupported type %T", value)
	}
	return nil
}
