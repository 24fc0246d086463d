package raw

import (
	"context"
	"testing"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Translate(t *testing.T) {
	p := New()

	resp, err := p.Translate(context.Background(), &providers.ProviderRequest{
		UserPrompt: "prompt with rules",
		Metadata:   map[string]interface{}{providers.MetadataSourceText: "## Source"},
	})
	require.NoError(t, err)
	assert.Equal(t, "## Source", resp.Text)
	assert.Zero(t, resp.TokensIn)

	resp, err = p.Translate(context.Background(), &providers.ProviderRequest{UserPrompt: "plain"})
	require.NoError(t, err)
	assert.Equal(t, "plain", resp.Text)
	assert.Equal(t, "raw", p.GetName())
}

func TestProvider_TranslateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Translate(ctx, &providers.ProviderRequest{UserPrompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
