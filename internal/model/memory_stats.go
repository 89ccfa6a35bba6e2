package model

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"TabQueryAPI/internal/logger"
)

func logMemoryPressure() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	logger.Error("options_cache_memory_pressure", map[string]any{
		"alloc_bytes": stats.Alloc,
		"heap_inuse":  stats.HeapInuse,
	})
}

// LogCacheBudget reports the configured cache budget against the memory
// limit of the process.
func LogCacheBudget() {
	limit, source := detectMemoryLimit()
	items, used := globalOptionsCache.stats()
	globalOptionsCache.mu.Lock()
	maxBytes := globalOptionsCache.maxBytes
	globalOptionsCache.mu.Unlock()

	fields := map[string]any{
		"models":          len(Registry),
		"cache_items":     items,
		"cache_bytes":     used,
		"cache_max_bytes": maxBytes,
		"heap_alloc":      formatBytes(readAllocBytes()),
		"memory_limit":    formatBytes(limit),
		"memory_source":   source,
	}
	if limit > 0 && maxBytes > 0 && uint64(maxBytes) > limit/2 {
		logger.Warn("options_cache_budget_high", fields)
		return
	}
	logger.Info("options_cache_budget", fields)
}

func readAllocBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

// memorySource is one place the process memory limit can be read from.
type memorySource struct {
	label string
	path  string
	parse func(string) (uint64, bool)
}

// checked in order, the first readable limit wins
var memorySources = []memorySource{
	{"cgroup v2 memory.max", "/sys/fs/cgroup/memory.max", parseLimitValue},
	{"cgroup v1 memory.limit_in_bytes", "/sys/fs/cgroup/memory/memory.limit_in_bytes", parseLimitValue},
	{"proc meminfo MemTotal", "/proc/meminfo", parseMemTotal},
}

func detectMemoryLimit() (uint64, string) {
	for _, src := range memorySources {
		data, err := os.ReadFile(src.path)
		if err != nil {
			continue
		}
		if v, ok := src.parse(string(data)); ok {
			return v, src.label
		}
	}
	return 0, "unknown"
}

// parseLimitValue reads a cgroup limit file; "max" means unlimited.
func parseLimitValue(raw string) (uint64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "max" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}

func parseMemTotal(raw string) (uint64, bool) {
	for _, ln := range strings.Split(raw, "\n") {
		rest, ok := strings.CutPrefix(ln, "MemTotal:")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return 0, false
		}
		kb, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return 0, false
		}
		return kb * 1024, true
	}
	return 0, false
}

var byteUnits = []struct {
	size uint64
	name string
}{
	{1 << 30, "GB"},
	{1 << 20, "MB"},
	{1 << 10, "KB"},
}

func formatBytes(v uint64) string {
	for _, u := range byteUnits {
		if v >= u.size {
			return strconv.FormatFloat(float64(v)/float64(u.size), 'f', 2, 64) + " " + u.name
		}
	}
	return strconv.FormatUint(v, 10) + " B"
}
