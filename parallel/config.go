package parallel

import (
	"fmt"

	"github.com/arloliu/osmpbf/block"
	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/internal/options"
)

// DefaultBatchSize is the number of payloads a worker fetches at a time.
const DefaultBatchSize = 4

// Config holds Run settings.
type Config struct {
	batchSize int
	blockOpts []block.Option
}

func defaultConfig() *Config {
	return &Config{batchSize: DefaultBatchSize}
}

// Option configures Run.
type Option = options.Option[*Config]

// WithBatchSize sets how many payloads a worker takes per fetch.
func WithBatchSize(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: batch size %d", errs.ErrInvalidOption, n)
		}
		c.batchSize = n

		return nil
	})
}

// WithBlockOptions passes opts to every worker's block.New.
func WithBlockOptions(opts ...block.Option) Option {
	return options.NoError(func(c *Config) {
		c.blockOpts = append(c.blockOpts, opts...)
	})
}
