package publisher

import (
	"context"
	"errors"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

type EventPublisher interface {
	PublishGeofenceEvent(ctx context.Context, e *domain.GeofenceEvent) error
	PublishIncident(ctx context.Context, inc *domain.Incident) error
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []EventPublisher

func (f Fanout) PublishGeofenceEvent(ctx context.Context, e *domain.GeofenceEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishGeofenceEvent(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) PublishIncident(ctx context.Context, inc *domain.Incident) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishIncident(ctx, inc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
