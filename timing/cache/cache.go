// Package cache provides the cache statistics model of the simulator.
//
// A Cache never holds data. It records which lines are resident and charges
// a hit or miss latency for each access. Two residency policies exist:
//   - PolicyTracking: every line ever touched stays resident for the run.
//     Capacity and associativity are ignored, so the model never reports
//     conflict or capacity misses.
//   - PolicySetAssociative: residency is kept in an Akita cache directory
//     with an LRU victim finder, so lines are evicted once a set fills up.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Policy selects how a cache decides which lines are resident.
type Policy string

// Residency policies.
const (
	PolicyTracking       Policy = "tracking"
	PolicySetAssociative Policy = "set-associative"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size"`
	// LineSize in bytes
	LineSize int `json:"line_size"`
	// Associativity (number of ways), used by PolicySetAssociative
	Associativity int `json:"associativity"`
	// HitLatency in cycles
	HitLatency uint64 `json:"hit_latency"`
	// MissLatency in cycles
	MissLatency uint64 `json:"miss_latency"`
	// Policy selects the residency model. Empty means PolicyTracking.
	Policy Policy `json:"policy,omitempty"`
}

// DefaultConfig returns the default configuration shared by the
// instruction-side and data-side caches: 1 KiB of 32-byte lines, 1-cycle
// hits, 10-cycle misses, non-evicting.
func DefaultConfig() Config {
	return Config{
		Size:          1024,
		LineSize:      32,
		Associativity: 1,
		HitLatency:    1,
		MissLatency:   10,
		Policy:        PolicyTracking,
	}
}

// NumLines returns the number of lines the configured capacity holds.
func (c Config) NumLines() int {
	if c.LineSize <= 0 {
		return 0
	}
	return c.Size / c.LineSize
}

// Validate checks that the geometry is usable by the configured policy.
func (c Config) Validate() error {
	if c.LineSize <= 0 || c.LineSize&(c.LineSize-1) != 0 {
		return fmt.Errorf("line_size must be a positive power of two, got %d", c.LineSize)
	}

	switch c.Policy {
	case "", PolicyTracking:
	case PolicySetAssociative:
		if c.Associativity <= 0 {
			return fmt.Errorf("associativity must be > 0")
		}
		if c.Size < c.LineSize*c.Associativity || c.Size%(c.LineSize*c.Associativity) != 0 {
			return fmt.Errorf("size %d is not a multiple of line_size*associativity", c.Size)
		}
	default:
		return fmt.Errorf("unknown cache policy %q", c.Policy)
	}

	return nil
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Evicted is true if a valid line was replaced.
	Evicted bool
	// EvictedAddr is the line-aligned address of the evicted line.
	EvictedAddr uint32
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads     uint64 `json:"reads"`
	Writes    uint64 `json:"writes"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Accesses returns the total number of reads and writes.
func (s Statistics) Accesses() uint64 {
	return s.Reads + s.Writes
}

// HitRate returns hits over accesses, or 0 before the first access.
func (s Statistics) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Cache is a line-presence model of one cache.
type Cache struct {
	config Config
	stats  Statistics

	// resident holds line indices for PolicyTracking.
	resident map[uint32]struct{}

	// directory holds tags for PolicySetAssociative.
	directory *akitacache.DirectoryImpl
}

// New creates a new cache with the given configuration. An invalid
// configuration falls back to the tracking policy with the default line
// size; callers validate configurations they read from users.
func New(config Config) *Cache {
	if config.Validate() != nil {
		def := DefaultConfig()
		config.LineSize = def.LineSize
		config.Policy = PolicyTracking
	}
	if config.Policy == "" {
		config.Policy = PolicyTracking
	}

	c := &Cache{config: config}

	if config.Policy == PolicySetAssociative {
		numSets := config.Size / (config.Associativity * config.LineSize)
		c.directory = akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.LineSize,
			akitacache.NewLRUVictimFinder(),
		)
	} else {
		c.resident = make(map[uint32]struct{})
	}

	return c
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics but keeps resident lines.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// Reset invalidates all lines and clears statistics.
func (c *Cache) Reset() {
	c.stats = Statistics{}
	if c.directory != nil {
		c.directory.Reset()
	} else {
		clear(c.resident)
	}
}

// LineIndex returns the line index of an address.
func (c *Cache) LineIndex(addr uint32) uint32 {
	return addr / uint32(c.config.LineSize)
}

// Read records a read access to addr.
func (c *Cache) Read(addr uint32) AccessResult {
	c.stats.Reads++
	return c.access(addr)
}

// Write records a write access to addr. Writes allocate on miss.
func (c *Cache) Write(addr uint32) AccessResult {
	c.stats.Writes++
	result := c.access(addr)

	if c.directory != nil {
		if block := c.directory.Lookup(0, c.lineAddr(addr)); block != nil {
			block.IsDirty = true
		}
	}

	return result
}

// Resident reports whether the line holding addr is resident, without
// recording an access.
func (c *Cache) Resident(addr uint32) bool {
	if c.directory != nil {
		block := c.directory.Lookup(0, c.lineAddr(addr))
		return block != nil && block.IsValid
	}

	_, ok := c.resident[c.LineIndex(addr)]
	return ok
}

// ResidentLines returns the number of resident lines.
func (c *Cache) ResidentLines() int {
	if c.directory == nil {
		return len(c.resident)
	}

	n := 0
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				n++
			}
		}
	}
	return n
}

func (c *Cache) lineAddr(addr uint32) uint64 {
	return uint64(c.LineIndex(addr)) * uint64(c.config.LineSize)
}

func (c *Cache) access(addr uint32) AccessResult {
	if c.directory != nil {
		return c.accessDirectory(addr)
	}

	line := c.LineIndex(addr)
	if _, ok := c.resident[line]; ok {
		c.stats.Hits++
		return AccessResult{Hit: true, Latency: c.config.HitLatency}
	}

	c.stats.Misses++
	c.resident[line] = struct{}{}
	return AccessResult{Latency: c.config.MissLatency}
}

func (c *Cache) accessDirectory(addr uint32) AccessResult {
	lineAddr := c.lineAddr(addr)

	block := c.directory.Lookup(0, lineAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return AccessResult{Hit: true, Latency: c.config.HitLatency}
	}

	c.stats.Misses++
	return c.handleMiss(lineAddr)
}

// handleMiss installs the line in the victim way of its set.
func (c *Cache) handleMiss(lineAddr uint64) AccessResult {
	result := AccessResult{Latency: c.config.MissLatency}

	victim := c.directory.FindVictim(lineAddr)
	if victim == nil {
		return result
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = uint32(victim.Tag)
	}

	victim.Tag = lineAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return result
}
