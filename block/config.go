package block

import (
	"fmt"

	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
	"github.com/arloliu/osmpbf/internal/options"
)

// Config holds Block settings.
type Config struct {
	denseUnpack bool
}

// Option configures a Block.
type Option = options.Option[*Config]

// WithDenseUnpack makes every Parse rewrite dense node columns to absolute
// values, trading one O(n) pass per block for O(1) random access.
func WithDenseUnpack(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.denseUnpack = enabled
	})
}

// EncoderConfig holds Encoder settings.
type EncoderConfig struct {
	granularity     int32
	dateGranularity int32
	latOffset       int64
	lonOffset       int64
}

func defaultEncoderConfig() *EncoderConfig {
	return &EncoderConfig{
		granularity:     format.DefaultGranularity,
		dateGranularity: format.DefaultDateGranularity,
	}
}

// EncoderOption configures an Encoder.
type EncoderOption = options.Option[*EncoderConfig]

// WithGranularity sets the coordinate resolution in nanodegrees.
func WithGranularity(nano int32) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if nano <= 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidGranularity, nano)
		}
		c.granularity = nano

		return nil
	})
}

// WithOffsets sets the latitude and longitude offsets in nanodegrees.
func WithOffsets(latNano, lonNano int64) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.latOffset = latNano
		c.lonOffset = lonNano
	})
}

// WithDateGranularity sets the timestamp resolution in milliseconds.
func WithDateGranularity(ms int32) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if ms <= 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidDateResolution, ms)
		}
		c.dateGranularity = ms

		return nil
	})
}
