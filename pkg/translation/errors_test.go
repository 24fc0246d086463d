package translation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
)

func TestTranslationError(t *testing.T) {
	chunk := Chunk{OwnerFile: "book.md", Index: 2, Total: 3}

	t.Run("chunk position in message", func(t *testing.T) {
		err := NewChunkError(chunk, errors.New("boom"))
		assert.Contains(t, err.Error(), "file book.md, chunk 2/3")
		assert.Contains(t, err.Error(), "boom")
		assert.Equal(t, ErrCodeLLM, err.Code)
		assert.False(t, err.IsRetryable())
	})

	t.Run("provider errors keep retry flag", func(t *testing.T) {
		cause := providers.NewHTTPError(429, "slow down", nil)
		err := NewChunkError(chunk, cause)
		assert.True(t, err.IsRetryable())

		var pe *providers.Error
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, providers.ErrCodeRateLimit, pe.Code)
	})

	t.Run("sentinel errors unwrap", func(t *testing.T) {
		err := NewChunkError(chunk, fmt.Errorf("call: %w", ErrEmptyResponse))
		assert.ErrorIs(t, err, ErrEmptyResponse)

		timeout := NewChunkError(chunk, ErrTimeout)
		assert.Equal(t, ErrCodeTimeout, timeout.Code)
		assert.True(t, timeout.IsRetryable())
	})

	t.Run("wrap", func(t *testing.T) {
		assert.Nil(t, WrapError(nil, ErrCodeConfig, "nothing"))

		inner := NewChunkError(chunk, ErrRateLimited)
		wrapped := WrapError(inner, ErrCodeUnknown, "file failed")
		assert.Equal(t, ErrCodeRateLimit, wrapped.Code)
		assert.Equal(t, "book.md", wrapped.File)
		assert.ErrorIs(t, wrapped, ErrRateLimited)

		plain := WrapError(errors.New("read: connection reset by peer"), ErrCodeNetwork, "read")
		assert.True(t, plain.IsRetryable())
	})
}
