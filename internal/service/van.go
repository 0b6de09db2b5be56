package service

import (
	"context"

	"github.com/Teja-9024/black-bus/internal/models"
)

const endpointGetVans = "vans/vans"

// VanService serves the read-only van roster: remote-preferred with the local
// mirror as fallback. There is no local write path for vans.
type VanService struct {
	deps Deps
}

func NewVanService(d Deps) *VanService {
	return &VanService{deps: d}
}

// List fetches the roster, refreshing the local mirror on success. When the
// remote call fails for any reason the cached roster is served instead.
func (s *VanService) List(ctx context.Context, token string) ([]models.Van, error) {
	vans, err := fetchItems[models.Van](ctx, s.deps.Remote, endpointGetVans, token)
	if err == nil {
		if cerr := s.deps.Store.UpsertVans(ctx, vans); cerr != nil {
			s.deps.Logger.Warn("Van cache refresh failed", "error", cerr)
		}
		return vans, nil
	}

	s.deps.Logger.Warn("Van list falling back to local cache", "error", err)
	return s.deps.Store.ListVans(ctx)
}
