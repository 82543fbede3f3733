package realtime

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

func event(orderID string, version int64) domain.StatusChanged {
	return domain.StatusChanged{Type: domain.EventOrderStatusChanged, OrderID: orderID, Version: version}
}

func drain(sub ports.Subscription) []int64 {
	var versions []int64
	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return versions
			}
			versions = append(versions, evt.Version)
		default:
			return versions
		}
	}
}

func TestHub_RoutesByScope(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	orderA, err := hub.Subscribe("c1", ports.OrderScope("a"))
	require.NoError(t, err)
	orderB, err := hub.Subscribe("c2", ports.OrderScope("b"))
	require.NoError(t, err)
	adminFeed, err := hub.Subscribe("c3", ports.AdminScope())
	require.NoError(t, err)

	require.NoError(t, hub.Publish(ctx, event("a", 2)))
	require.NoError(t, hub.Publish(ctx, event("b", 5)))

	assert.Equal(t, []int64{2}, drain(orderA))
	assert.Equal(t, []int64{5}, drain(orderB))
	assert.Equal(t, []int64{2, 5}, drain(adminFeed))
	assert.Equal(t, 3, hub.Connections())
}

func TestHub_DropsStaleVersions(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()
	sub, err := hub.Subscribe("c1", ports.OrderScope("a"))
	require.NoError(t, err)

	for _, v := range []int64{2, 3, 2, 3, 4} {
		require.NoError(t, hub.Publish(ctx, event("a", v)))
	}
	require.Equal(t, []int64{2, 3, 4}, drain(sub))
}

func TestHub_AdminTracksVersionsPerOrder(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()
	sub, err := hub.Subscribe("admin", ports.AdminScope())
	require.NoError(t, err)

	require.NoError(t, hub.Publish(ctx, event("a", 3)))
	require.NoError(t, hub.Publish(ctx, event("b", 1)))
	require.NoError(t, hub.Publish(ctx, event("a", 2)))
	require.Equal(t, []int64{3, 1}, drain(sub))
}

func TestHub_EvictsSlowConnection(t *testing.T) {
	hub := NewHub(WithBuffer(2))
	ctx := context.Background()
	slow, err := hub.Subscribe("slow", ports.OrderScope("a"))
	require.NoError(t, err)
	fast, err := hub.Subscribe("fast", ports.OrderScope("a"))
	require.NoError(t, err)

	for v := int64(1); v <= 3; v++ {
		require.NoError(t, hub.Publish(ctx, event("a", v)))
		if v < 3 {
			<-fast.Events()
		}
	}

	versions := []int64{}
	for evt := range slow.Events() {
		versions = append(versions, evt.Version)
	}
	require.Equal(t, []int64{1, 2}, versions)
	require.Equal(t, []int64{3}, drain(fast))
	require.Equal(t, 1, hub.Connections())

	_, err = hub.Subscribe("slow", ports.OrderScope("a"))
	require.NoError(t, err)
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe("c1", ports.OrderScope("a"))
	require.NoError(t, err)

	hub.Unsubscribe("c1")
	_, ok := <-sub.Events()
	require.False(t, ok)
	require.Zero(t, hub.Connections())

	sub.Close()
	require.NoError(t, hub.Publish(context.Background(), event("a", 1)))
}

func TestHub_RejectsDuplicateAndInvalidScopes(t *testing.T) {
	hub := NewHub()
	_, err := hub.Subscribe("c1", ports.OrderScope("a"))
	require.NoError(t, err)

	_, err = hub.Subscribe("c1", ports.AdminScope())
	require.ErrorIs(t, err, ErrDuplicateConn)
	_, err = hub.Subscribe("c2", ports.OrderScope(""))
	require.ErrorIs(t, err, ErrInvalidScope)
	_, err = hub.Subscribe("", ports.AdminScope())
	require.ErrorIs(t, err, ErrInvalidScope)
}

func TestHub_ConcurrentSubscribeAndPublish(t *testing.T) {
	hub := NewHub(WithBuffer(1024))
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub, err := hub.Subscribe(fmt.Sprintf("c%d", i), ports.OrderScope("a"))
			if err != nil {
				return
			}
			if i%2 == 0 {
				sub.Close()
			}
		}(i)
	}
	for v := int64(1); v <= 50; v++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			_ = hub.Publish(ctx, event("a", v))
		}(v)
	}
	wg.Wait()
	require.Equal(t, 10, hub.Connections())
	hub.Close()
	require.Zero(t, hub.Connections())
}
