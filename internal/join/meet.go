package join

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting"
)

// MeetTimings bound every wait in the Meet flow.
type MeetTimings struct {
	NameFieldWait time.Duration
	ClickSettle   time.Duration
	PollInterval  time.Duration
	JoinCeiling   time.Duration
}

func DefaultMeetTimings() MeetTimings {
	return MeetTimings{
		NameFieldWait: 10 * time.Second,
		ClickSettle:   time.Second,
		PollInterval:  2 * time.Second,
		JoinCeiling:   2 * time.Minute,
	}
}

const meetNameField = `input[type="text"]`

var (
	meetCameraOff = []Strategy{
		AriaLabel("Turn off camera"),
		AriaLabel("Выключить камеру"),
		CSS("camera-div", `div[role="button"][aria-label*="camera" i][data-is-muted="false"]`),
	}
	meetMicOff = []Strategy{
		AriaLabel("Turn off microphone"),
		AriaLabel("Выключить микрофон"),
		CSS("mic-div", `div[role="button"][aria-label*="microphone" i][data-is-muted="false"]`),
	}
	meetJoinButtons = []Strategy{
		CSS("jsname", `button[jsname="Qx7uuf"]`),
		CSS("container", `div[jscontroller] > button[data-promo-anchor-id]`),
		AriaLabel("Join now"),
		AriaLabel("Ask to join"),
		AriaLabel("Присоединиться"),
		AriaLabel("Попросить"),
		ButtonText("join-text",
			"join now", "ask to join", "join",
			"присоединиться", "попросить",
			"teilnehmen", "beitreten",
			"unirse", "solicitar unirse",
		),
	}
	meetRoomIndicators = []Strategy{
		CSS("participant", `div[data-participant-id]`),
		CSS("allocation", `div[data-allocation-index]`),
		CSS("self-name", `div[data-self-name]`),
		CSS("call-controls", `div[jsname="HzV7m"]`),
		AriaLabel("Leave call"),
		AriaLabel("Покинуть видеовстречу"),
	}
)

// waitingPhrases appear while the host has not admitted the bot yet.
var waitingPhrases = []string{
	"asking to be let in",
	"waiting for the host",
	"someone will let you in",
	"ожидание организатора",
	"вас скоро впустят",
	"ожидайте",
}

// Meet joins Google Meet. Entry into the room is verified.
type Meet struct {
	Logger  *zap.Logger
	Snap    Snapshotter
	Timings MeetTimings
}

func (m *Meet) Join(ctx context.Context, page browser.Page, displayName string) (meeting.JoinState, error) {
	state := meeting.JoinNotStarted
	m.Snap.Take(ctx, page, "meet_loaded")

	if m.enterName(ctx, page, displayName) == Done {
		state = m.transition(state, meeting.JoinNameEntered)
	}
	m.Snap.Take(ctx, page, "meet_name")

	m.clickFirst(ctx, page, "camera off", meetCameraOff)
	m.clickFirst(ctx, page, "microphone off", meetMicOff)
	m.Snap.Take(ctx, page, "meet_muted")

	if m.clickFirst(ctx, page, "join", meetJoinButtons) == Done {
		state = m.transition(state, meeting.JoinClicked)
	} else {
		m.Logger.Warn("no join control found, assuming page is past the lobby")
	}
	m.Snap.Take(ctx, page, "meet_join_clicked")

	return m.awaitRoom(ctx, page, state)
}

func (m *Meet) enterName(ctx context.Context, page browser.Page, name string) Outcome {
	if err := page.WaitVisible(ctx, meetNameField, m.Timings.NameFieldWait); err != nil {
		m.Logger.Info("name field not shown, continuing", zap.Error(err))
		return Skipped
	}
	if err := page.Input(ctx, meetNameField, 0, name); err != nil {
		m.Logger.Warn("typing display name failed", zap.Error(err))
		return Skipped
	}
	m.Logger.Info("display name entered", zap.String("name", name))
	return Done
}

func (m *Meet) clickFirst(ctx context.Context, page browser.Page, what string, strategies []Strategy) Outcome {
	match, ok := FirstVisible(ctx, page, strategies)
	if !ok {
		m.Logger.Debug("control not found", zap.String("control", what))
		return Skipped
	}
	if err := match.Click(ctx, page); err != nil {
		m.Logger.Warn("click failed", zap.String("control", what), zap.String("strategy", match.Strategy.Name), zap.Error(err))
		return Skipped
	}
	m.Logger.Info("clicked", zap.String("control", what), zap.String("strategy", match.Strategy.Name), zap.String("text", match.Text))
	_ = browser.Sleep(ctx, m.Timings.ClickSettle)
	return Done
}

// awaitRoom polls for any room indicator until the ceiling elapses.
func (m *Meet) awaitRoom(ctx context.Context, page browser.Page, state meeting.JoinState) (meeting.JoinState, error) {
	ceiling := time.NewTimer(m.Timings.JoinCeiling)
	defer ceiling.Stop()
	tick := time.NewTicker(m.Timings.PollInterval)
	defer tick.Stop()

	for {
		if match, ok := FirstVisible(ctx, page, meetRoomIndicators); ok {
			m.Logger.Info("in meeting room", zap.String("indicator", match.Strategy.Name))
			return m.transition(state, meeting.JoinInMeeting), nil
		}
		if ctx.Err() != nil {
			return state, ctx.Err()
		}
		if state != meeting.JoinWaitingForAdmission && waitingForHost(ctx, page) {
			m.Logger.Info("waiting for host to admit")
			state = m.transition(state, meeting.JoinWaitingForAdmission)
		}

		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-ceiling.C:
			m.Snap.Take(ctx, page, "meet_join_timeout")
			m.transition(state, meeting.JoinFailed)
			return meeting.JoinFailed, meeting.ErrJoinTimeout
		case <-tick.C:
		}
	}
}

func (m *Meet) transition(from, to meeting.JoinState) meeting.JoinState {
	m.Logger.Debug("join state", zap.String("from", string(from)), zap.String("to", string(to)))
	return to
}

func waitingForHost(ctx context.Context, page browser.Page) bool {
	body, err := page.Text(ctx)
	if err != nil {
		return false
	}
	body = strings.ToLower(body)
	for _, p := range waitingPhrases {
		if strings.Contains(body, p) {
			return true
		}
	}
	return false
}
