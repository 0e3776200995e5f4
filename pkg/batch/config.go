package batch

import (
	"log/slog"
	"time"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/netlist"
)

// Config controls how a Runner executes tasks.
type Config struct {
	// Execution
	Workers int // Number of tasks run in parallel (default: 1)

	// Parsing
	Strict bool // Fail a task on unrecognized component lines (default: false)

	// Output
	Generator string           // Provenance tag (default: netlist.DefaultGenerator)
	Now       func() time.Time // Clock for the provenance date (default: time.Now)
	FileMode  uint32           // Permission bits of written netlists (default: 0644)

	Logger *slog.Logger // default: slog.Default()
}

// DefaultConfig returns a Config that runs tasks one at a time.
func DefaultConfig() *Config {
	return &Config{
		Workers:   1,
		Strict:    false,
		Generator: netlist.DefaultGenerator,
		Now:       time.Now,
		FileMode:  0o644,
		Logger:    slog.Default(),
	}
}

// Validate fills in defaults for unset fields.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Generator == "" {
		c.Generator = netlist.DefaultGenerator
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.FileMode == 0 {
		c.FileMode = 0o644
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}
