package cache

import (
	"context"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

// StateMirror receives a copy of every vehicle state the detection cycle
// commits, for readers outside this process.
type StateMirror interface {
	MirrorState(ctx context.Context, state *domain.VehicleState) error
}

type NopMirror struct{}

func (NopMirror) MirrorState(context.Context, *domain.VehicleState) error { return nil }
