package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Teja-9024/black-bus/internal/models"
	"github.com/Teja-9024/black-bus/internal/remote"
	"github.com/Teja-9024/black-bus/internal/store"
	"github.com/Teja-9024/black-bus/pkg/metrics"
)

// timeLayout is the wire format for timestamps on mapped fallback items.
const timeLayout = "2006-01-02T15:04:05Z07:00"

// Requester defines the contract for issuing remote API requests.
type Requester interface {
	Do(ctx context.Context, method, path string, body []byte, headers map[string]string) ([]byte, error)
}

// Reachability defines the contract for the cached point-in-time online
// signal. Write paths consult it instead of probing the network, so checking
// adds no latency to a create call.
type Reachability interface {
	Online() bool
}

// Deps bundles the collaborators every entity service needs.
type Deps struct {
	Store  *store.Store
	Remote Requester
	Net    Reachability
	Logger *slog.Logger
}

// WriteResult is the outcome of a create call. Offline means the write was
// accepted locally and queued for replay; the caller sees success either way.
type WriteResult struct {
	Offline  bool
	LocalID  int64
	ServerID string
	Response json.RawMessage
}

// createHooks is the per-entity capability set the generic coordinator works
// through: how to persist a pending row and how to persist a confirmed one.
type createHooks[P any] struct {
	entity        string
	endpoint      string
	insertPending func(ctx context.Context, p P) (int64, error)
	insertSynced  func(ctx context.Context, p P, serverID string) (int64, error)
}

// createWithFallback is the single create path shared by all entity kinds.
//
// Offline, or online with a network-class failure: the write is persisted as
// a pending row, the exact request is queued, and the call reports success.
// A connectivity problem never surfaces as an error on a write.
//
// Online with a response received: success persists a synced copy locally and
// returns the server response; a rejection propagates unchanged and nothing
// is persisted or queued, since replaying an invalid request cannot succeed.
func createWithFallback[P any](ctx context.Context, d Deps, hooks createHooks[P], payload P, token string) (WriteResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return WriteResult{}, err
	}
	headers := remote.AuthHeaders(token)

	if !d.Net.Online() {
		return queueWrite(ctx, d, hooks, payload, body, headers)
	}

	respBody, err := d.Remote.Do(ctx, http.MethodPost, hooks.endpoint, body, headers)
	if err != nil {
		if remote.IsNetworkError(err) {
			d.Logger.Warn("Write hit a network failure, falling back to outbox",
				"entity", hooks.entity,
				"error", err,
			)
			return queueWrite(ctx, d, hooks, payload, body, headers)
		}
		return WriteResult{}, err
	}

	metrics.WritesDirect.WithLabelValues(hooks.entity).Inc()

	res := WriteResult{Response: respBody}
	if serverID := remote.ExtractServerID(respBody); serverID != "" {
		res.ServerID = serverID
		// Mirror the confirmed write locally so offline lists include it
		// before the next full refresh. The server already accepted the
		// write; a cache miss here must not turn it into a failure.
		localID, err := hooks.insertSynced(ctx, payload, serverID)
		if err != nil {
			d.Logger.Warn("Failed to mirror synced row locally",
				"entity", hooks.entity,
				"server_id", serverID,
				"error", err,
			)
		} else {
			res.LocalID = localID
		}
	}
	return res, nil
}

func queueWrite[P any](ctx context.Context, d Deps, hooks createHooks[P], payload P, body []byte, headers map[string]string) (WriteResult, error) {
	localID, err := hooks.insertPending(ctx, payload)
	if err != nil {
		return WriteResult{}, err
	}

	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return WriteResult{}, err
	}

	jobID, err := d.Store.Enqueue(ctx, models.OutboxJob{
		Entity:  hooks.entity,
		LocalID: localID,
		Method:  http.MethodPost,
		URL:     hooks.endpoint,
		Body:    body,
		Headers: headersJSON,
	})
	if err != nil {
		return WriteResult{}, err
	}

	metrics.WritesQueued.WithLabelValues(hooks.entity).Inc()
	d.Logger.Info("Write accepted offline",
		"entity", hooks.entity,
		"local_id", localID,
		"job_id", jobID,
	)

	return WriteResult{Offline: true, LocalID: localID}, nil
}

// decodeItems accepts both response shapes the API uses for lists: a bare
// JSON array or an envelope {"data": [...]}.
func decodeItems[T any](body []byte) []T {
	var direct []T
	if err := json.Unmarshal(body, &direct); err == nil {
		return direct
	}
	var wrapped struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		return wrapped.Data
	}
	return nil
}

// fetchItems is the remote half of the read path: one authorized GET, decoded
// into the shared wire shape.
func fetchItems[T any](ctx context.Context, r Requester, path, token string) ([]T, error) {
	body, err := r.Do(ctx, http.MethodGet, path, nil, remote.AuthHeaders(token))
	if err != nil {
		return nil, err
	}
	return decodeItems[T](body), nil
}
