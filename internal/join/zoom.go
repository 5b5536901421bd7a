package join

import (
	"context"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting"
)

type ZoomTimings struct {
	NameFieldWait time.Duration
	Settle        time.Duration
}

func DefaultZoomTimings() ZoomTimings {
	return ZoomTimings{
		NameFieldWait: 15 * time.Second,
		Settle:        10 * time.Second,
	}
}

var (
	zoomNameFields = []Strategy{
		CSS("input-for-name", `#input-for-name`),
		CSS("text-input", `input[type="text"]`),
	}
	zoomJoinButtons = []Strategy{
		CSS("preview-join", `button.preview-join-button`),
		ButtonText("join-text", "join", "присоединиться", "beitreten", "unirse"),
	}
	zoomRoomIndicators = []Strategy{
		CSS("footer", `#wc-footer`),
		AriaLabel("Leave"),
		CSS("participants", `.participants-section-container`),
	}
)

var zoomInvitePath = regexp.MustCompile(`^/j/(\d+)/?$`)

// ZoomWebClientURL turns an invite link (/j/<id>) into the web client join
// page, which has the name field and join button. Other URLs are returned
// unchanged. The query, including pwd, is kept.
func ZoomWebClientURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	m := zoomInvitePath.FindStringSubmatch(u.Path)
	if m == nil {
		return raw
	}
	u.Path = "/wc/join/" + m[1]
	return u.String()
}

// EntryURL is the address to open for a meeting on platform p.
func EntryURL(p meeting.Platform, raw string) string {
	if p == meeting.PlatformZoom {
		return ZoomWebClientURL(raw)
	}
	return raw
}

// Zoom joins the Zoom web client. After the join click it waits a fixed
// settle time and reports in_meeting without verification; the room check
// afterwards only logs.
type Zoom struct {
	Logger  *zap.Logger
	Snap    Snapshotter
	Timings ZoomTimings
}

func (z *Zoom) Join(ctx context.Context, page browser.Page, displayName string) (meeting.JoinState, error) {
	state := meeting.JoinNotStarted
	z.Snap.Take(ctx, page, "zoom_loaded")

	if field, ok := z.waitNameField(ctx, page); ok {
		if err := field.Input(ctx, page, displayName); err != nil {
			z.Logger.Warn("typing display name failed", zap.Error(err))
		} else {
			state = meeting.JoinNameEntered
			z.Logger.Info("display name entered", zap.String("name", displayName))
		}
	} else {
		current, _ := page.URL(ctx)
		z.Logger.Warn("zoom name field not found, the page may not be the web client join form",
			zap.String("url", current))
	}
	z.Snap.Take(ctx, page, "zoom_name")

	if match, ok := FirstVisible(ctx, page, zoomJoinButtons); ok {
		if err := match.Click(ctx, page); err != nil {
			z.Logger.Warn("join click failed", zap.Error(err))
		} else {
			state = meeting.JoinClicked
			z.Logger.Info("clicked", zap.String("control", "join"), zap.String("strategy", match.Strategy.Name))
		}
	}

	if err := browser.Sleep(ctx, z.Timings.Settle); err != nil {
		return state, err
	}
	z.Snap.Take(ctx, page, "zoom_settled")

	if AnyVisible(ctx, page, zoomRoomIndicators) {
		z.Logger.Info("zoom room indicator present")
	} else {
		z.Logger.Warn("zoom room indicator not found after settle, recording anyway")
	}
	return meeting.JoinInMeeting, nil
}

// waitNameField polls the name field candidates until one is visible or the
// wait elapses.
func (z *Zoom) waitNameField(ctx context.Context, page browser.Page) (Match, bool) {
	deadline := time.Now().Add(z.Timings.NameFieldWait)
	for {
		if m, ok := FirstVisible(ctx, page, zoomNameFields); ok {
			return m, true
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return Match{}, false
		}
		if err := browser.Sleep(ctx, 500*time.Millisecond); err != nil {
			return Match{}, false
		}
	}
}
