package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type readerConfig struct {
	maxHeader int
	maxBody   int
	calls     []string
}

func withMaxHeader(n int) Option[*readerConfig] {
	return New(func(c *readerConfig) error {
		if n <= 0 {
			return errors.New("max header must be positive")
		}
		c.maxHeader = n
		c.calls = append(c.calls, "header")

		return nil
	})
}

func withMaxBody(n int) Option[*readerConfig] {
	return NoError(func(c *readerConfig) {
		c.maxBody = n
		c.calls = append(c.calls, "body")
	})
}

func TestApply(t *testing.T) {
	t.Run("applies in order", func(t *testing.T) {
		cfg := &readerConfig{}
		err := Apply(cfg, withMaxBody(10), withMaxHeader(20))
		require.NoError(t, err)
		require.Equal(t, 20, cfg.maxHeader)
		require.Equal(t, 10, cfg.maxBody)
		require.Equal(t, []string{"body", "header"}, cfg.calls)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &readerConfig{}
		err := Apply(cfg, withMaxHeader(-1), withMaxBody(10))
		require.Error(t, err)
		require.Contains(t, err.Error(), "must be positive")
		require.Zero(t, cfg.maxBody)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &readerConfig{}
		require.NoError(t, Apply(cfg, nil, withMaxBody(3)))
		require.Equal(t, 3, cfg.maxBody)
	})

	t.Run("no options", func(t *testing.T) {
		cfg := &readerConfig{}
		require.NoError(t, Apply[*readerConfig](cfg))
		require.Empty(t, cfg.calls)
	})
}
