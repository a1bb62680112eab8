package blob

import (
	"fmt"

	"github.com/arloliu/osmpbf/compress"
	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
	"github.com/arloliu/osmpbf/internal/options"
)

// ReaderConfig holds Reader settings.
type ReaderConfig struct {
	maxHeaderSize int
	maxBodySize   int
}

func defaultReaderConfig() *ReaderConfig {
	return &ReaderConfig{
		maxHeaderSize: DefaultMaxHeaderSize,
		maxBodySize:   DefaultMaxBodySize,
	}
}

// ReaderOption configures a Reader.
type ReaderOption = options.Option[*ReaderConfig]

// WithMaxHeaderSize sets the largest accepted BlobHeader length in bytes.
func WithMaxHeaderSize(n int) ReaderOption {
	return options.New(func(c *ReaderConfig) error {
		if n <= 0 {
			return fmt.Errorf("%w: max header size %d", errs.ErrInvalidOption, n)
		}
		c.maxHeaderSize = n

		return nil
	})
}

// WithMaxBodySize sets the largest accepted blob body, compressed or not.
func WithMaxBodySize(n int) ReaderOption {
	return options.New(func(c *ReaderConfig) error {
		if n <= 0 {
			return fmt.Errorf("%w: max body size %d", errs.ErrInvalidOption, n)
		}
		c.maxBodySize = n

		return nil
	})
}

// WriterConfig holds Writer settings.
type WriterConfig struct {
	compression   format.CompressionType
	maxHeaderSize int
	maxBodySize   int
}

func defaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		compression:   format.CompressionZlib,
		maxHeaderSize: DefaultMaxHeaderSize,
		maxBodySize:   DefaultMaxBodySize,
	}
}

// WriterOption configures a Writer.
type WriterOption = options.Option[*WriterConfig]

// WithCompression selects the codec used when WriteBlob is asked to compress.
// CompressionNone makes every blob raw.
func WithCompression(ct format.CompressionType) WriterOption {
	return options.New(func(c *WriterConfig) error {
		if _, err := compress.GetCodec(ct); err != nil {
			return err
		}
		c.compression = ct

		return nil
	})
}

// WithWriterMaxBodySize sets the largest body the Writer will emit.
func WithWriterMaxBodySize(n int) WriterOption {
	return options.New(func(c *WriterConfig) error {
		if n <= 0 {
			return fmt.Errorf("%w: max body size %d", errs.ErrInvalidOption, n)
		}
		c.maxBodySize = n

		return nil
	})
}
