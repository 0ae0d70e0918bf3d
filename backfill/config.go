package backfill

import (
	"fmt"
	"time"

	"github.com/poiesic/vecfill/core"
)

// Config holds configuration for a backfill run.
type Config struct {
	// PageSize is the number of rows fetched per round.
	PageSize int

	// Partition selects how instances divide the pending rows.
	Partition core.PartitionStrategy

	// RowDelay is the pause taken after every row, whether it succeeded or
	// failed. Zero disables the pause.
	RowDelay time.Duration

	// Dimensions is the expected embedding length. Zero learns it from the
	// first embedding of the run.
	Dimensions int

	// MaxRecordedErrors bounds Stats.Errors. Failures beyond it are only counted.
	MaxRecordedErrors int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PageSize:          100,
		Partition:         core.PartitionOffset,
		RowDelay:          20 * time.Millisecond,
		MaxRecordedErrors: 100,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: %d", core.ErrInvalidPageSize, c.PageSize)
	}
	if c.RowDelay < 0 {
		return fmt.Errorf("backfill config: RowDelay cannot be negative")
	}
	if c.Dimensions < 0 {
		return fmt.Errorf("backfill config: Dimensions cannot be negative")
	}
	if c.Partition != core.PartitionOffset && c.Partition != core.PartitionHash {
		return fmt.Errorf("%w: %v", core.ErrUnknownPartitionStrategy, c.Partition)
	}
	return nil
}
