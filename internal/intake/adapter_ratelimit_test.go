package intake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/komposer-mcp/komposer/internal/komposition"
)

type stubAdapter struct {
	calls int
}

func (s *stubAdapter) Propose(ctx context.Context, brief string, catalog SourceCatalog) (komposition.Document, error) {
	s.calls++
	return komposition.Document{Metadata: komposition.Metadata{Title: brief}}, nil
}

func TestRateLimitedAdapterAllowsWithinBurst(t *testing.T) {
	stub := &stubAdapter{}
	a := NewRateLimitedAdapter(stub, 86400, 2, time.Second)

	_, err := a.Propose(context.Background(), "brief one", nil)
	require.NoError(t, err)
	_, err = a.Propose(context.Background(), "brief two", nil)
	require.NoError(t, err)
	require.Equal(t, 2, stub.calls)
}

func TestRateLimitedAdapterRefusesBeyondBurst(t *testing.T) {
	stub := &stubAdapter{}
	a := NewRateLimitedAdapter(stub, 1, 1, time.Second) // one token per day, burst of one

	_, err := a.Propose(context.Background(), "brief one", nil)
	require.NoError(t, err)

	_, err = a.Propose(context.Background(), "brief two", nil)
	require.Error(t, err)
	require.Equal(t, 1, stub.calls)
}
