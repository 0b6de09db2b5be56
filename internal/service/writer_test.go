package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Teja-9024/black-bus/internal/models"
	"github.com/Teja-9024/black-bus/internal/remote"
	"github.com/Teja-9024/black-bus/internal/store"
	"github.com/stretchr/testify/require"
)

type stubNet struct{ online bool }

func (s stubNet) Online() bool { return s.online }

func testDeps(t *testing.T, baseURL string, online bool) Deps {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Deps{
		Store:  st,
		Remote: remote.NewClient(baseURL, 2*time.Second, logger),
		Net:    stubNet{online: online},
		Logger: logger,
	}
}

func intakePayload() models.IntakePayload {
	return models.IntakePayload{
		VanNo:    "V1",
		Litres:   100,
		Amount:   9000,
		DateTime: "2024-01-01T10:00:00Z",
	}
}

func TestCreateIntake_OfflineQueuesAndReturnsImmediately(t *testing.T) {
	deps := testDeps(t, "http://unreachable.test", false)
	ctx := context.Background()

	res, err := NewIntakeService(deps).Create(ctx, intakePayload(), "tok-1")
	require.NoError(t, err)
	require.True(t, res.Offline)
	require.Equal(t, int64(1), res.LocalID)

	rows, err := deps.Store.ListIntakes(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, models.SyncPending, rows[0].Status)
	require.Equal(t, int64(1), rows[0].LocalID)

	jobs, err := deps.Store.OldestBatch(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, http.MethodPost, jobs[0].Method)
	require.Equal(t, "intakes/add-intake", jobs[0].URL)
	require.Equal(t, models.EntityIntakes, jobs[0].Entity)
	require.Equal(t, int64(1), jobs[0].LocalID)

	// The queued body is exactly the request that would have been sent, and
	// the headers carry the token captured at enqueue time.
	var body models.IntakePayload
	require.NoError(t, json.Unmarshal(jobs[0].Body, &body))
	require.Equal(t, intakePayload(), body)

	var headers map[string]string
	require.NoError(t, json.Unmarshal(jobs[0].Headers, &headers))
	require.Equal(t, "Bearer tok-1", headers["Authorization"])
}

func TestCreateIntake_OnlineSuccessStoresSyncedCopy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/intakes/add-intake", r.URL.Path)
		w.Write([]byte(`{"_id":"srv-2"}`))
	}))
	defer srv.Close()

	deps := testDeps(t, srv.URL, true)
	ctx := context.Background()

	res, err := NewIntakeService(deps).Create(ctx, intakePayload(), "tok-1")
	require.NoError(t, err)
	require.False(t, res.Offline)
	require.Equal(t, "srv-2", res.ServerID)

	rows, err := deps.Store.ListIntakes(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, models.SyncSynced, rows[0].Status)
	require.Equal(t, "srv-2", rows[0].ServerID)

	jobs, err := deps.Store.OldestBatch(ctx, 0, 10)
	require.NoError(t, err)
	require.Empty(t, jobs)
}

func TestCreateIntake_NetworkFailureFallsBackToQueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	// Reachability says online, but the connection is refused mid-flight.
	// The write must be queued, never surfaced as an error.
	deps := testDeps(t, url, true)
	ctx := context.Background()

	res, err := NewIntakeService(deps).Create(ctx, intakePayload(), "tok-1")
	require.NoError(t, err)
	require.True(t, res.Offline)

	jobs, err := deps.Store.OldestBatch(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}

func TestCreateIntake_RejectionPropagatesNothingPersisted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"validation"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	deps := testDeps(t, srv.URL, true)
	ctx := context.Background()

	_, err := NewIntakeService(deps).Create(ctx, intakePayload(), "tok-1")
	require.Error(t, err)

	var rejection *remote.RejectionError
	require.ErrorAs(t, err, &rejection)
	require.Equal(t, http.StatusBadRequest, rejection.Status)

	rows, lerr := deps.Store.ListIntakes(ctx)
	require.NoError(t, lerr)
	require.Empty(t, rows)

	jobs, lerr := deps.Store.OldestBatch(ctx, 0, 10)
	require.NoError(t, lerr)
	require.Empty(t, jobs)
}

func TestCreateDelivery_OfflinePath(t *testing.T) {
	deps := testDeps(t, "http://unreachable.test", false)
	ctx := context.Background()

	p := models.DeliveryPayload{
		VanNo:    "V1",
		Supplier: "IOC",
		Customer: "Acme",
		Litres:   300,
		Amount:   27000,
		DateTime: "2024-01-02T08:00:00Z",
	}
	res, err := NewDeliveryService(deps).Create(ctx, p, "")
	require.NoError(t, err)
	require.True(t, res.Offline)

	jobs, err := deps.Store.OldestBatch(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "deliveries/create-delivery", jobs[0].URL)

	// No token supplied: no Authorization header frozen into the job.
	var headers map[string]string
	require.NoError(t, json.Unmarshal(jobs[0].Headers, &headers))
	require.NotContains(t, headers, "Authorization")
}

func TestSetRate_OfflineQueuesAndOverwritesCache(t *testing.T) {
	deps := testDeps(t, "http://unreachable.test", false)
	ctx := context.Background()

	applied, queued, err := NewFuelRateService(deps).SetRate(ctx, 92.5, "tok-1")
	require.NoError(t, err)
	require.True(t, queued)
	require.Equal(t, 92.5, applied)

	cached, err := deps.Store.FuelRate(ctx)
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Equal(t, 92.5, cached.Rate)

	jobs, err := deps.Store.OldestBatch(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "fuel-rates/set-diesel-rate", jobs[0].URL)
	require.Equal(t, models.EntityFuelRates, jobs[0].Entity)
	require.Zero(t, jobs[0].LocalID)
}

func TestSetRate_OnlineUsesServerConfirmedValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rate":93.0}`))
	}))
	defer srv.Close()

	deps := testDeps(t, srv.URL, true)
	ctx := context.Background()

	applied, queued, err := NewFuelRateService(deps).SetRate(ctx, 92.5, "tok-1")
	require.NoError(t, err)
	require.False(t, queued)
	require.Equal(t, 93.0, applied)

	cached, err := deps.Store.FuelRate(ctx)
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Equal(t, 93.0, cached.Rate)
}

func TestSetRate_RejectionPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	deps := testDeps(t, srv.URL, true)
	_, _, err := NewFuelRateService(deps).SetRate(context.Background(), 92.5, "expired")
	require.Error(t, err)
	require.False(t, remote.IsNetworkError(err))
}
