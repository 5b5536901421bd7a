// Package join drives a loaded meeting page into the meeting room, one
// strategy per platform.
package join

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting"
)

// Joiner is a platform join flow. It returns the state the page ended in.
type Joiner interface {
	Join(ctx context.Context, page browser.Page, displayName string) (meeting.JoinState, error)
}

// Snapshotter captures a debug screenshot at a named step.
type Snapshotter interface {
	Take(ctx context.Context, page browser.Page, step string)
}

type nopSnapshotter struct{}

func (nopSnapshotter) Take(context.Context, browser.Page, string) {}

// ForPlatform returns the join flow for platform.
func ForPlatform(p meeting.Platform, logger *zap.Logger, snap Snapshotter) (Joiner, error) {
	if snap == nil {
		snap = nopSnapshotter{}
	}
	switch p {
	case meeting.PlatformMeet:
		return &Meet{Logger: logger, Snap: snap, Timings: DefaultMeetTimings()}, nil
	case meeting.PlatformZoom:
		return &Zoom{Logger: logger, Snap: snap, Timings: DefaultZoomTimings()}, nil
	}
	return nil, fmt.Errorf("%w: %s", meeting.ErrUnsupportedPlatform, p)
}
