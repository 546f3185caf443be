package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBareFlow(id string) *RequestFlow {
	return newRequestFlow(id, ListingRef{Type: ListingVenue, ID: "v-1"}, nil, nil, 0, nil)
}

func TestFlowRegistry_StoreAndGet(t *testing.T) {
	t.Parallel()

	registry := newFlowRegistry(time.Minute, 4, nil)
	flow := newBareFlow("flow-1")
	registry.Store(flow)

	got, ok := registry.Get("flow-1")
	require.True(t, ok)
	assert.Same(t, flow, got)

	_, ok = registry.Get("missing")
	assert.False(t, ok)
}

func TestFlowRegistry_SlidingExpiry(t *testing.T) {
	t.Parallel()

	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	registry := newFlowRegistry(time.Minute, 4, func() time.Time { return current })
	flow := newBareFlow("flow-1")
	registry.Store(flow)

	current = current.Add(50 * time.Second)
	_, ok := registry.Get("flow-1")
	require.True(t, ok, "access within the TTL should hit")

	current = current.Add(50 * time.Second)
	_, ok = registry.Get("flow-1")
	require.True(t, ok, "the previous access should have extended the TTL")

	current = current.Add(2 * time.Minute)
	_, ok = registry.Get("flow-1")
	assert.False(t, ok)
	assert.True(t, flow.closed, "expired flows are closed")
}

func TestFlowRegistry_EvictsOldest(t *testing.T) {
	t.Parallel()

	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	registry := newFlowRegistry(time.Hour, 2, func() time.Time { return current })

	first := newBareFlow("flow-1")
	registry.Store(first)
	current = current.Add(time.Second)
	registry.Store(newBareFlow("flow-2"))
	current = current.Add(time.Second)
	registry.Store(newBareFlow("flow-3"))

	assert.Equal(t, 2, registry.Len())
	_, ok := registry.Get("flow-1")
	assert.False(t, ok)
	assert.True(t, first.closed)
}

func TestFlowRegistry_Remove(t *testing.T) {
	t.Parallel()

	registry := newFlowRegistry(time.Minute, 4, time.Now)
	flow := newBareFlow("flow-1")
	registry.Store(flow)

	assert.True(t, registry.Remove("flow-1"))
	assert.False(t, registry.Remove("flow-1"))
	assert.True(t, flow.closed)
	assert.Equal(t, 0, registry.Len())
}
