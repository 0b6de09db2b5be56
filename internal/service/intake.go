package service

import (
	"context"
	"strconv"

	"github.com/Teja-9024/black-bus/internal/models"
)

// Endpoints on the remote API, relative to the configured base URL.
const (
	endpointAddIntake = "intakes/add-intake"
	endpointGetIntake = "intakes/get-intake"
)

// IntakeService records fuel intakes and lists them with local fallback.
type IntakeService struct {
	deps Deps
}

func NewIntakeService(d Deps) *IntakeService {
	return &IntakeService{deps: d}
}

// Create records one intake, online or offline.
func (s *IntakeService) Create(ctx context.Context, p models.IntakePayload, token string) (WriteResult, error) {
	return createWithFallback(ctx, s.deps, createHooks[models.IntakePayload]{
		entity:   models.EntityIntakes,
		endpoint: endpointAddIntake,
		insertPending: func(ctx context.Context, p models.IntakePayload) (int64, error) {
			return s.deps.Store.InsertPendingIntake(ctx, p)
		},
		insertSynced: func(ctx context.Context, p models.IntakePayload, serverID string) (int64, error) {
			return s.deps.Store.InsertSyncedIntake(ctx, p, serverID)
		},
	}, p, token)
}

// List prefers the remote API and serves the local store when the call fails.
// On remote success the synced copies are mirrored into the store so future
// offline lists include them; that refresh is best-effort.
func (s *IntakeService) List(ctx context.Context, token string) ([]models.IntakeItem, error) {
	items, err := fetchItems[models.IntakeItem](ctx, s.deps.Remote, endpointGetIntake, token)
	if err == nil {
		s.refreshCache(ctx, items)
		return items, nil
	}

	s.deps.Logger.Warn("Intake list falling back to local store", "error", err)
	local, lerr := s.deps.Store.ListIntakes(ctx)
	if lerr != nil {
		return nil, lerr
	}

	mapped := make([]models.IntakeItem, 0, len(local))
	for _, r := range local {
		mapped = append(mapped, intakeToItem(r))
	}
	return mapped, nil
}

func (s *IntakeService) refreshCache(ctx context.Context, items []models.IntakeItem) {
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		_, err := s.deps.Store.InsertSyncedIntake(ctx, models.IntakePayload{
			VanNo:      it.VanNo,
			PumpName:   it.PumpName,
			Litres:     it.Litres,
			Amount:     it.Amount,
			DateTime:   it.DateTime,
			WorkerName: it.WorkerName,
		}, it.ID)
		if err != nil {
			s.deps.Logger.Warn("Intake cache refresh failed", "server_id", it.ID, "error", err)
			return
		}
	}
}

// intakeToItem maps a local row into the wire shape so the caller cannot tell
// a fallback list from a remote one, minus fields the cache does not track
// (joined worker email/id).
func intakeToItem(r models.Intake) models.IntakeItem {
	id := r.ServerID
	if id == "" {
		id = strconv.FormatInt(r.LocalID, 10)
	}
	ts := r.UpdatedAt
	if ts.IsZero() {
		ts = r.CreatedAt
	}
	timestamp := r.DateTime
	if !ts.IsZero() {
		timestamp = ts.Format(timeLayout)
	}
	return models.IntakeItem{
		ID:         id,
		Van:        models.VanRef{ID: r.VanNo, VanNo: r.VanNo, Name: r.VanNo},
		VanNo:      r.VanNo,
		Worker:     models.WorkerRef{Name: r.WorkerName},
		WorkerName: r.WorkerName,
		PumpName:   r.PumpName,
		Litres:     r.Litres,
		Amount:     r.Amount,
		DateTime:   r.DateTime,
		Timestamp:  timestamp,
	}
}
