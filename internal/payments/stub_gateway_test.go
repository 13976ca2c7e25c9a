package payments

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubGatewayAuthorize(t *testing.T) {
	g := NewStubGateway(nil)

	intentID, err := g.Authorize(context.Background(), 12000, "usd", "pm_card")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(intentID, "pi_stub_"), "intent id %q should carry stub prefix", intentID)
}

func TestStubGatewayCapture(t *testing.T) {
	g := NewStubGateway(nil)

	result, err := g.Capture(context.Background(), "pi_stub_abc", 15000, "checkout:b-1")
	require.NoError(t, err)
	assert.Equal(t, int64(15000), result.AmountReceived)
	assert.Equal(t, "succeeded", result.Status)
}

func TestStubGatewayCaptureMissingIntent(t *testing.T) {
	g := NewStubGateway(nil)

	_, err := g.Capture(context.Background(), "", 15000, "checkout:b-1")
	require.ErrorIs(t, err, ErrCaptureFailed)
}
