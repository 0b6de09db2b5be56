package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Teja-9024/black-bus/internal/models"
	"github.com/Teja-9024/black-bus/internal/remote"
	"github.com/Teja-9024/black-bus/pkg/metrics"
)

const (
	endpointGetRate = "fuel-rates/get-diesel-rate"
	endpointSetRate = "fuel-rates/set-diesel-rate"
)

// FuelRateService reads and updates the diesel rate. The local side is a
// single-row read-through cache, overwritten wholesale; "no cached rate yet"
// is a nil result, never a zero.
type FuelRateService struct {
	deps Deps
}

func NewFuelRateService(d Deps) *FuelRateService {
	return &FuelRateService{deps: d}
}

// Rate returns the current rate, remote-preferred. A nil FuelRate with a nil
// error means no rate is known, locally or remotely.
func (s *FuelRateService) Rate(ctx context.Context, token string) (*models.FuelRate, error) {
	body, err := s.deps.Remote.Do(ctx, http.MethodGet, endpointGetRate, nil, remote.AuthHeaders(token))
	if err == nil {
		rate, ok := parseRateResponse(body)
		if !ok {
			s.deps.Logger.Warn("Unrecognized fuel rate response shape")
			return s.deps.Store.FuelRate(ctx)
		}
		when := time.Now()
		if cerr := s.deps.Store.SetFuelRate(ctx, rate, when); cerr != nil {
			s.deps.Logger.Warn("Fuel rate cache refresh failed", "error", cerr)
		}
		return &models.FuelRate{Rate: rate, UpdatedAt: when}, nil
	}

	s.deps.Logger.Warn("Fuel rate falling back to local cache", "error", err)
	return s.deps.Store.FuelRate(ctx)
}

// SetRate updates the diesel rate. Offline or on a network-class failure the
// POST is queued and the local cache is overwritten immediately so the device
// keeps quoting the new rate; the returned flag reports whether the update
// was queued rather than confirmed. A remote rejection propagates unchanged.
func (s *FuelRateService) SetRate(ctx context.Context, rate float64, token string) (float64, bool, error) {
	payload := models.RatePayload{Rate: rate}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, false, err
	}
	headers := remote.AuthHeaders(token)

	if !s.deps.Net.Online() {
		return s.queueRate(ctx, rate, body, headers)
	}

	respBody, err := s.deps.Remote.Do(ctx, http.MethodPost, endpointSetRate, body, headers)
	if err != nil {
		if remote.IsNetworkError(err) {
			s.deps.Logger.Warn("Rate update hit a network failure, falling back to outbox", "error", err)
			return s.queueRate(ctx, rate, body, headers)
		}
		return 0, false, err
	}

	metrics.WritesDirect.WithLabelValues(models.EntityFuelRates).Inc()

	applied := rate
	if v, ok := parseRateResponse(respBody); ok {
		applied = v
	}
	if cerr := s.deps.Store.SetFuelRate(ctx, applied, time.Now()); cerr != nil {
		s.deps.Logger.Warn("Fuel rate cache refresh failed", "error", cerr)
	}
	return applied, false, nil
}

func (s *FuelRateService) queueRate(ctx context.Context, rate float64, body []byte, headers map[string]string) (float64, bool, error) {
	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return 0, false, err
	}
	_, err = s.deps.Store.Enqueue(ctx, models.OutboxJob{
		Entity:  models.EntityFuelRates,
		Method:  http.MethodPost,
		URL:     endpointSetRate,
		Body:    body,
		Headers: headersJSON,
	})
	if err != nil {
		return 0, false, err
	}
	if cerr := s.deps.Store.SetFuelRate(ctx, rate, time.Now()); cerr != nil {
		return 0, false, cerr
	}
	metrics.WritesQueued.WithLabelValues(models.EntityFuelRates).Inc()
	return rate, true, nil
}

// parseRateResponse accepts every shape the API has been seen returning: a
// bare number, {"rate": n}, an array of rate records, or any of those inside
// a {"data": ...} envelope. Arrays resolve to the most recently updated
// record.
func parseRateResponse(body []byte) (float64, bool) {
	var n float64
	if err := json.Unmarshal(body, &n); err == nil {
		return n, true
	}

	var obj struct {
		Rate *float64        `json:"rate"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		if obj.Rate != nil {
			return *obj.Rate, true
		}
		if len(obj.Data) > 0 {
			return parseRateResponse(obj.Data)
		}
	}

	var records []struct {
		Rate      float64 `json:"rate"`
		UpdatedAt string  `json:"updatedAt"`
		CreatedAt string  `json:"createdAt"`
	}
	if err := json.Unmarshal(body, &records); err == nil && len(records) > 0 {
		best := records[0]
		bestAt := recordTime(best.UpdatedAt, best.CreatedAt)
		for _, r := range records[1:] {
			if at := recordTime(r.UpdatedAt, r.CreatedAt); at.After(bestAt) {
				best, bestAt = r, at
			}
		}
		return best.Rate, true
	}

	return 0, false
}

func recordTime(updatedAt, createdAt string) time.Time {
	for _, v := range []string{updatedAt, createdAt} {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
