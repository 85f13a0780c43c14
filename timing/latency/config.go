package latency

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/rv32sim/timing/cache"
)

// Default memory layout.
const (
	DefaultMemorySize = 1 << 20 // 1 MiB
	DefaultTextBase   = 0x0
	DefaultDataBase   = 0x10000
)

// Config holds the simulated machine parameters: memory layout, cache
// geometry and per-class instruction latencies.
type Config struct {
	// MemorySize is the byte capacity of main memory. Default: 1 MiB.
	MemorySize uint32 `json:"memory_size"`

	// TextBase is the address the assembler places code at. Default: 0.
	TextBase uint32 `json:"text_base"`

	// DataBase is the address the assembler places static data at.
	// Default: 0x10000.
	DataBase uint32 `json:"data_base"`

	// ICache configures the instruction-side cache.
	ICache cache.Config `json:"icache"`

	// DCache configures the data-side cache.
	DCache cache.Config `json:"dcache"`

	// ALULatency is the base latency of register and immediate ALU
	// operations, LUI and AUIPC. Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// BranchLatency is the base latency of conditional branches, taken or
	// not. Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// JumpLatency is the base latency of JAL and JALR. Default: 1 cycle.
	JumpLatency uint64 `json:"jump_latency"`

	// LoadLatency is the base latency of loads, not counting the data
	// cache charge. Default: 1 cycle.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the base latency of stores, not counting the data
	// cache charge. Default: 1 cycle.
	StoreLatency uint64 `json:"store_latency"`
}

// DefaultConfig returns a Config that reproduces the reference model:
// 1 MiB of memory, 1 KiB non-evicting caches with 32-byte lines, and one
// base cycle per instruction.
func DefaultConfig() *Config {
	return &Config{
		MemorySize:    DefaultMemorySize,
		TextBase:      DefaultTextBase,
		DataBase:      DefaultDataBase,
		ICache:        cache.DefaultConfig(),
		DCache:        cache.DefaultConfig(),
		ALULatency:    1,
		BranchLatency: 1,
		JumpLatency:   1,
		LoadLatency:   1,
		StoreLatency:  1,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the memory layout, both cache configurations and that
// every latency is > 0.
func (c *Config) Validate() error {
	if c.MemorySize == 0 || c.MemorySize%4 != 0 {
		return fmt.Errorf("memory_size must be a positive multiple of 4")
	}
	if c.TextBase%4 != 0 {
		return fmt.Errorf("text_base must be 4-byte aligned")
	}
	if c.TextBase >= c.MemorySize {
		return fmt.Errorf("text_base 0x%x outside memory", c.TextBase)
	}
	if c.DataBase >= c.MemorySize {
		return fmt.Errorf("data_base 0x%x outside memory", c.DataBase)
	}
	if err := c.ICache.Validate(); err != nil {
		return fmt.Errorf("icache: %w", err)
	}
	if err := c.DCache.Validate(); err != nil {
		return fmt.Errorf("dcache: %w", err)
	}
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.JumpLatency == 0 {
		return fmt.Errorf("jump_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
