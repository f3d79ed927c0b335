// Package invalidation carries "campaign changed" signals from writers to every open editor of that campaign.
//
// A signal holds no payload beyond the campaign it concerns; receivers refetch
// whatever they display. Signals are idempotent, so a subscriber that is behind
// only needs to see one of several pending signals.
package invalidation

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("invalidation source closed")

// Signal announces that a campaign's sequences or workflows changed remotely.
type Signal struct {
	CampaignID string    `json:"campaignId"`
	Resource   string    `json:"resource,omitempty"`
	ResourceID string    `json:"resourceId,omitempty"`
	Origin     string    `json:"origin,omitempty"`
	At         time.Time `json:"at"`
}

// Source delivers signals for one campaign until ctx is cancelled or the
// source shuts down, at which point the channel is closed.
type Source interface {
	Subscribe(ctx context.Context, campaignID string) (<-chan Signal, error)
}

// Publisher emits signals after a write has been accepted.
type Publisher interface {
	Publish(ctx context.Context, signal Signal) error
}

// Status reports whether a subscription is still receiving signals.
type Status int

const (
	StatusLive Status = iota
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusLive:
		return "live"
	case StatusDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}
