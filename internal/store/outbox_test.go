package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Teja-9024/black-bus/internal/models"
	"github.com/stretchr/testify/require"
)

func TestEnqueue_AssignsIncreasingIDs(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 4; i++ {
		id, err := s.Enqueue(ctx, models.OutboxJob{
			Method: "POST",
			URL:    "intakes/add-intake",
			Body:   json.RawMessage(`{"litres":100}`),
		})
		require.NoError(t, err)
		require.Greater(t, id, last)
		last = id
	}
}

func TestOldestBatch_FIFOAndBounded(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Enqueue(ctx, models.OutboxJob{Method: "POST", URL: "deliveries/create-delivery"})
		require.NoError(t, err)
	}

	batch, err := s.OldestBatch(ctx, 0, 3)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	for i := 1; i < len(batch); i++ {
		require.Greater(t, batch[i].ID, batch[i-1].ID)
	}
	require.NotEmpty(t, batch[0].CorrelationID)

	// Walking past the previous batch returns the remainder, still ascending.
	rest, err := s.OldestBatch(ctx, batch[2].ID, 10)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	require.Greater(t, rest[0].ID, batch[2].ID)

	empty, err := s.OldestBatch(ctx, rest[1].ID, 10)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestMarkDone_IdempotentAndIsolated(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	a, err := s.Enqueue(ctx, models.OutboxJob{Method: "POST", URL: "a"})
	require.NoError(t, err)
	b, err := s.Enqueue(ctx, models.OutboxJob{Method: "POST", URL: "b"})
	require.NoError(t, err)

	require.NoError(t, s.MarkDone(ctx, a))
	// Second delete of the same id, and a delete of a never-existing id,
	// must both be clean no-ops.
	require.NoError(t, s.MarkDone(ctx, a))
	require.NoError(t, s.MarkDone(ctx, 9999))

	batch, err := s.OldestBatch(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.Equal(t, b, batch[0].ID)
}

func TestMarkFailed_IncrementsTriesKeepsPending(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	id, err := s.Enqueue(ctx, models.OutboxJob{Method: "POST", URL: "fuel-rates/set-diesel-rate"})
	require.NoError(t, err)

	require.NoError(t, s.MarkFailed(ctx, id))
	require.NoError(t, s.MarkFailed(ctx, id))

	batch, err := s.OldestBatch(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.Equal(t, 2, batch[0].Tries)
	require.Equal(t, "pending", batch[0].Status)
}

func TestEnqueue_PreservesBodyAndHeaders(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	body := json.RawMessage(`{"vanNo":"V1","litres":100}`)
	headers := json.RawMessage(`{"Authorization":"Bearer tok-1"}`)

	_, err := s.Enqueue(ctx, models.OutboxJob{
		Entity:  models.EntityIntakes,
		LocalID: 7,
		Method:  "POST",
		URL:     "intakes/add-intake",
		Body:    body,
		Headers: headers,
	})
	require.NoError(t, err)

	batch, err := s.OldestBatch(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.JSONEq(t, string(body), string(batch[0].Body))
	require.JSONEq(t, string(headers), string(batch[0].Headers))
	require.Equal(t, models.EntityIntakes, batch[0].Entity)
	require.Equal(t, int64(7), batch[0].LocalID)
}

func TestPendingCount(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	n, err := s.PendingCount(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	id, err := s.Enqueue(ctx, models.OutboxJob{Method: "POST", URL: "x"})
	require.NoError(t, err)
	_, err = s.Enqueue(ctx, models.OutboxJob{Method: "POST", URL: "y"})
	require.NoError(t, err)

	n, err = s.PendingCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	require.NoError(t, s.MarkDone(ctx, id))
	n, err = s.PendingCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
