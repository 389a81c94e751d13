package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierwatch/courier-tracker/internal/model"
)

func TestNewCourierStats(t *testing.T) {
	t.Run("average of sessions", func(t *testing.T) {
		stats := model.NewCourierStats(2, 18)
		assert.Equal(t, model.CourierStats{Count: 2, Total: 18, Average: 9}, stats)
	})

	t.Run("zero sessions has zero average", func(t *testing.T) {
		stats := model.NewCourierStats(0, 0)
		assert.Equal(t, 0.0, stats.Average)
	})
}

func TestAggregator_Recompute(t *testing.T) {
	ctx := context.Background()

	setup := func() (*fakeStore, *Aggregator, *model.Courier) {
		store := newFakeStore()
		couriers := &fakeCourierRepo{store: store}
		sessions := &fakeSessionRepo{store: store}
		clock := tickingClock()

		courier, _ := couriers.FindOrCreate(ctx, "Иван", clock())
		return store, NewAggregator(couriers, sessions, clock), courier
	}

	t.Run("courier without sessions", func(t *testing.T) {
		store, aggregator, courier := setup()

		stats, err := aggregator.Recompute(ctx, courier.ID)
		require.NoError(t, err)
		assert.Equal(t, model.CourierStats{}, stats)
		assert.Equal(t, 0, store.couriers[0].Deliveries)
	})

	t.Run("writes aggregates back to the courier", func(t *testing.T) {
		store, aggregator, courier := setup()
		sessions := &fakeSessionRepo{store: store}
		_, _ = sessions.Create(ctx, model.CreateSessionParams{CourierID: courier.ID, RemainingMinutes: 15})
		_, _ = sessions.Create(ctx, model.CreateSessionParams{CourierID: courier.ID, RemainingMinutes: 3})
		before := store.couriers[0].LastUpdate

		stats, err := aggregator.Recompute(ctx, courier.ID)
		require.NoError(t, err)
		assert.Equal(t, model.CourierStats{Count: 2, Total: 18, Average: 9}, stats)

		stored := store.couriers[0]
		assert.Equal(t, 2, stored.Deliveries)
		assert.Equal(t, 18.0, stored.DelSum)
		assert.Equal(t, 9.0, stored.AvgTime)
		assert.True(t, stored.LastUpdate.After(before))
	})

	t.Run("stored null reads as zero", func(t *testing.T) {
		store, aggregator, courier := setup()
		store.sessions = append(store.sessions,
			model.Session{ID: 1, CourierID: courier.ID, RemainingMinutes: nil},
			model.Session{ID: 2, CourierID: courier.ID, RemainingMinutes: floatPtr(10)},
		)

		stats, err := aggregator.Recompute(ctx, courier.ID)
		require.NoError(t, err)
		assert.Equal(t, model.CourierStats{Count: 2, Total: 10, Average: 5}, stats)
	})

	t.Run("is idempotent", func(t *testing.T) {
		store, aggregator, courier := setup()
		sessions := &fakeSessionRepo{store: store}
		_, _ = sessions.Create(ctx, model.CreateSessionParams{CourierID: courier.ID, RemainingMinutes: 7})
		_, _ = sessions.Create(ctx, model.CreateSessionParams{CourierID: courier.ID, RemainingMinutes: 4})

		first, err := aggregator.Recompute(ctx, courier.ID)
		require.NoError(t, err)
		second, err := aggregator.Recompute(ctx, courier.ID)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 2, store.couriers[0].Deliveries)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		store, aggregator, courier := setup()
		store.failOn = "Totals"
		store.failErr = errStatement

		_, err := aggregator.Recompute(ctx, courier.ID)
		assert.ErrorIs(t, err, errStatement)
	})
}
