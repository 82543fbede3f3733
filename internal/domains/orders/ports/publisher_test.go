package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
)

func TestFanOut_DeliversToAllAndJoinsErrors(t *testing.T) {
	var got []string
	record := func(name string, err error) Publisher {
		return PublisherFunc(func(_ context.Context, evt domain.StatusChanged) error {
			got = append(got, name+":"+evt.OrderID)
			return err
		})
	}
	errRelay := errors.New("relay down")

	err := FanOut(record("hub", nil), record("relay", errRelay), record("inbox", nil)).
		Publish(context.Background(), domain.StatusChanged{OrderID: "o1"})

	require.ErrorIs(t, err, errRelay)
	require.Equal(t, []string{"hub:o1", "relay:o1", "inbox:o1"}, got)
	require.NoError(t, FanOut().Publish(context.Background(), domain.StatusChanged{}))
}
