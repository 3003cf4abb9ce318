package engine

import "runtime"

// Config bounds the engine's concurrency and selects which rules run.
type Config struct {
	// Filter selects rules; a zero filter runs every enabled rule.
	Filter RuleFilter

	// MaxConcurrentDevices bounds how many device configurations a scan
	// evaluates in parallel.
	MaxConcurrentDevices int

	// MaxConcurrentBlocks bounds per-rule block evaluation inside the
	// advanced block checker.
	MaxConcurrentBlocks int
}

// DefaultConfig sizes concurrency to the machine.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	return Config{
		MaxConcurrentDevices: n,
		MaxConcurrentBlocks:  n,
	}
}

func (c *Config) normalize() {
	if c.MaxConcurrentDevices < 1 {
		c.MaxConcurrentDevices = 1
	}
	if c.MaxConcurrentBlocks < 1 {
		c.MaxConcurrentBlocks = 1
	}
}
