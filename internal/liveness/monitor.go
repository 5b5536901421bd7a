// Package liveness decides when a meeting has ended by counting participant
// tiles on the page.
package liveness

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting"
)

const (
	DefaultInterval  = 10 * time.Second
	DefaultThreshold = 3
)

var participantSelectors = map[meeting.Platform]string{
	meeting.PlatformMeet: `div[data-participant-id]`,
	meeting.PlatformZoom: `.video-avatar__avatar, .participants-item__item-layout`,
}

// SelectorFor returns the participant indicator selector for p.
func SelectorFor(p meeting.Platform) string {
	return participantSelectors[p]
}

// Monitor counts participants on every tick. A count of one or less (only
// the bot) is a low reading; Threshold consecutive low readings end the
// meeting. A failed query ends it at once.
type Monitor struct {
	Page      browser.Page
	Selector  string
	Interval  time.Duration
	Threshold int
	Logger    *zap.Logger

	lows int
}

func New(page browser.Page, platform meeting.Platform, logger *zap.Logger) *Monitor {
	return &Monitor{
		Page:      page,
		Selector:  SelectorFor(platform),
		Interval:  DefaultInterval,
		Threshold: DefaultThreshold,
		Logger:    logger,
	}
}

// Check performs one reading and returns StopNone while the meeting is live.
func (m *Monitor) Check(ctx context.Context) meeting.StopReason {
	n, err := m.Page.Count(ctx, m.Selector)
	if err != nil {
		if ctx.Err() != nil {
			return meeting.StopNone
		}
		m.Logger.Warn("page not queryable, ending", zap.Error(err))
		return meeting.StopPageGone
	}
	if n > 1 {
		if m.lows > 0 {
			m.Logger.Debug("participants back", zap.Int("count", n))
		}
		m.lows = 0
		return meeting.StopNone
	}
	m.lows++
	m.Logger.Info("low participant count", zap.Int("count", n), zap.Int("consecutive", m.lows))
	if m.lows >= m.Threshold {
		return meeting.StopMeetingEnded
	}
	return meeting.StopNone
}

// Lows is the current consecutive low-reading count.
func (m *Monitor) Lows() int {
	return m.lows
}

// Run checks every Interval until a stop reason comes up or ctx is done.
// On ctx cancellation it returns StopNone.
func (m *Monitor) Run(ctx context.Context) meeting.StopReason {
	t := time.NewTicker(m.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return meeting.StopNone
		case <-t.C:
			if r := m.Check(ctx); r != meeting.StopNone {
				m.Logger.Info("meeting ended", zap.String("reason", string(r)))
				return r
			}
		}
	}
}
