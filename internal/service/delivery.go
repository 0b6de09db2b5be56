package service

import (
	"context"
	"strconv"

	"github.com/Teja-9024/black-bus/internal/models"
)

const (
	endpointCreateDelivery = "deliveries/create-delivery"
	endpointGetDelivery    = "deliveries/get-delivery"
)

// DeliveryService records fuel deliveries and lists them with local fallback.
type DeliveryService struct {
	deps Deps
}

func NewDeliveryService(d Deps) *DeliveryService {
	return &DeliveryService{deps: d}
}

// Create records one delivery, online or offline.
func (s *DeliveryService) Create(ctx context.Context, p models.DeliveryPayload, token string) (WriteResult, error) {
	return createWithFallback(ctx, s.deps, createHooks[models.DeliveryPayload]{
		entity:   models.EntityDeliveries,
		endpoint: endpointCreateDelivery,
		insertPending: func(ctx context.Context, p models.DeliveryPayload) (int64, error) {
			return s.deps.Store.InsertPendingDelivery(ctx, p)
		},
		insertSynced: func(ctx context.Context, p models.DeliveryPayload, serverID string) (int64, error) {
			return s.deps.Store.InsertSyncedDelivery(ctx, p, serverID)
		},
	}, p, token)
}

// List prefers the remote API and serves the local store when the call fails.
func (s *DeliveryService) List(ctx context.Context, token string) ([]models.DeliveryItem, error) {
	items, err := fetchItems[models.DeliveryItem](ctx, s.deps.Remote, endpointGetDelivery, token)
	if err == nil {
		s.refreshCache(ctx, items)
		return items, nil
	}

	s.deps.Logger.Warn("Delivery list falling back to local store", "error", err)
	local, lerr := s.deps.Store.ListDeliveries(ctx)
	if lerr != nil {
		return nil, lerr
	}

	mapped := make([]models.DeliveryItem, 0, len(local))
	for _, r := range local {
		mapped = append(mapped, deliveryToItem(r))
	}
	return mapped, nil
}

func (s *DeliveryService) refreshCache(ctx context.Context, items []models.DeliveryItem) {
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		_, err := s.deps.Store.InsertSyncedDelivery(ctx, models.DeliveryPayload{
			VanNo:      it.VanNo,
			Supplier:   it.Supplier,
			Customer:   it.Customer,
			Litres:     it.Litres,
			Amount:     it.Amount,
			DateTime:   it.DateTime,
			WorkerName: it.WorkerName,
		}, it.ID)
		if err != nil {
			s.deps.Logger.Warn("Delivery cache refresh failed", "server_id", it.ID, "error", err)
			return
		}
	}
}

func deliveryToItem(r models.Delivery) models.DeliveryItem {
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
	return models.DeliveryItem{
		ID:         id,
		Van:        models.VanRef{ID: r.VanNo, VanNo: r.VanNo, Name: r.VanNo},
		VanNo:      r.VanNo,
		Worker:     models.WorkerRef{Name: r.WorkerName},
		WorkerName: r.WorkerName,
		Supplier:   r.Supplier,
		Customer:   r.Customer,
		Litres:     r.Litres,
		Amount:     r.Amount,
		DateTime:   r.DateTime,
		Timestamp:  timestamp,
	}
}
