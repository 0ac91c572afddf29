package local

import (
	"context"
	"time"

	"github.com/jaimegago/geoai/internal/geo"
	"golang.org/x/time/rate"
)

// PacedGeocoder spaces every lookup made through it by a minimum interval,
// whichever tool issues it. The public Nominatim service allows one request
// per second per application.
type PacedGeocoder struct {
	next    Geocoder
	limiter *rate.Limiter
}

// NewPacedGeocoder wraps next with one shared limiter. A zero or negative
// interval disables pacing.
func NewPacedGeocoder(next Geocoder, interval time.Duration) *PacedGeocoder {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &PacedGeocoder{next: next, limiter: rate.NewLimiter(limit, 1)}
}

// Forward waits for its turn, then delegates.
func (p *PacedGeocoder) Forward(ctx context.Context, placeName string) (geo.Place, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return geo.Place{}, err
	}
	return p.next.Forward(ctx, placeName)
}

// Reverse waits for its turn, then delegates.
func (p *PacedGeocoder) Reverse(ctx context.Context, coords geo.Coordinates) (geo.Place, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return geo.Place{}, err
	}
	return p.next.Reverse(ctx, coords)
}
