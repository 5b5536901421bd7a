package join

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser/browsertest"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting"
)

type recordingSnap struct {
	mu    sync.Mutex
	steps []string
}

func (r *recordingSnap) Take(_ context.Context, _ browser.Page, step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

func fastMeet(logger *zap.Logger, snap Snapshotter) *Meet {
	return &Meet{
		Logger: logger,
		Snap:   snap,
		Timings: MeetTimings{
			NameFieldWait: time.Millisecond,
			ClickSettle:   time.Millisecond,
			PollInterval:  5 * time.Millisecond,
			JoinCeiling:   60 * time.Millisecond,
		},
	}
}

func TestFirstVisible_PriorityOrder(t *testing.T) {
	page := browsertest.NewPage()
	page.Set(`#b`, browsertest.Visible("b"))
	page.Set(`#a`, browsertest.Visible("a"))

	m, ok := FirstVisible(context.Background(), page, []Strategy{CSS("a", "#a"), CSS("b", "#b")})
	require.True(t, ok)
	assert.Equal(t, "a", m.Strategy.Name)

	m, ok = FirstVisible(context.Background(), page, []Strategy{CSS("missing", "#x"), CSS("b", "#b")})
	require.True(t, ok)
	assert.Equal(t, "b", m.Strategy.Name)
}

func TestFirstVisible_SkipsHidden(t *testing.T) {
	page := browsertest.NewPage()
	page.Set(`#a`, browsertest.Hidden("a"), browsertest.Visible("a2"))

	m, ok := FirstVisible(context.Background(), page, []Strategy{CSS("a", "#a")})
	require.True(t, ok)
	assert.Equal(t, 1, m.Index)
	assert.Equal(t, "a2", m.Text)

	page.Set(`#a`, browsertest.Hidden("a"))
	_, ok = FirstVisible(context.Background(), page, []Strategy{CSS("a", "#a")})
	assert.False(t, ok)
}

func TestButtonText_CaseInsensitiveScan(t *testing.T) {
	page := browsertest.NewPage()
	page.Set(buttonSelector,
		browsertest.Visible("Cancel"),
		browsertest.Hidden("Join now"),
		browsertest.Visible("  ПРИСОЕДИНИТЬСЯ "),
	)

	m, ok := FirstVisible(context.Background(), page, []Strategy{ButtonText("join", "join now", "присоединиться")})
	require.True(t, ok)
	assert.Equal(t, 2, m.Index)
	assert.Equal(t, "ПРИСОЕДИНИТЬСЯ", m.Text)

	require.NoError(t, m.Click(context.Background(), page))
	assert.Equal(t, []browsertest.Call{{Selector: buttonSelector, Index: 2}}, page.Clicks)
}

func TestAriaLabel_Selector(t *testing.T) {
	s := AriaLabel("Join now")
	assert.Equal(t, KindAriaLabel, s.Kind)
	assert.Contains(t, s.Selector(), `button[aria-label*="Join now"]`)
	assert.Contains(t, s.Selector(), `[role="button"][aria-label*="Join now"]`)
	assert.Equal(t, "aria-label", s.Kind.String())
}

func TestMeet_JoinsRoom(t *testing.T) {
	page := browsertest.NewPage()
	page.Set(meetNameField, browsertest.Visible(""))
	page.Set(AriaLabel("Turn off camera").Selector(), browsertest.Visible(""))
	page.Set(AriaLabel("Join now").Selector(), browsertest.Visible("Join now"))
	page.Set(`div[data-allocation-index]`, browsertest.Visible(""))
	snap := &recordingSnap{}

	state, err := fastMeet(zap.NewNop(), snap).Join(context.Background(), page, "HR Recorder")
	require.NoError(t, err)
	assert.Equal(t, meeting.JoinInMeeting, state)

	require.Len(t, page.Inputs, 1)
	assert.Equal(t, "HR Recorder", page.Inputs[0].Text)
	assert.Equal(t, []string{
		AriaLabel("Turn off camera").Selector(),
		AriaLabel("Join now").Selector(),
	}, page.ClickedSelectors())
	assert.Contains(t, snap.steps, "meet_join_clicked")
}

func TestMeet_FallsBackToButtonText(t *testing.T) {
	page := browsertest.NewPage()
	page.Set(buttonSelector, browsertest.Visible("Settings"), browsertest.Visible("Teilnehmen"))
	page.Set(`div[data-participant-id]`, browsertest.Visible(""))

	state, err := fastMeet(zap.NewNop(), &recordingSnap{}).Join(context.Background(), page, "bot")
	require.NoError(t, err)
	assert.Equal(t, meeting.JoinInMeeting, state)
	assert.Equal(t, []browsertest.Call{{Selector: buttonSelector, Index: 1}}, page.Clicks)
	assert.Empty(t, page.Inputs, "absent name field is tolerated")
}

func TestMeet_JoinTimeout(t *testing.T) {
	page := browsertest.NewPage()
	snap := &recordingSnap{}

	state, err := fastMeet(zap.NewNop(), snap).Join(context.Background(), page, "bot")
	assert.ErrorIs(t, err, meeting.ErrJoinTimeout)
	assert.Equal(t, meeting.JoinFailed, state)
	assert.Contains(t, snap.steps, "meet_join_timeout")
}

func TestMeet_WaitingForHostIsLoggedOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	page := browsertest.NewPage()
	page.Body = "Asking to be let in..."

	var polls int
	var mu sync.Mutex
	page.QueryFn = func(selector string) ([]browser.Element, error) {
		if selector != `div[data-participant-id]` {
			return nil, nil
		}
		mu.Lock()
		defer mu.Unlock()
		polls++
		if polls > 3 {
			return []browser.Element{browsertest.Visible("")}, nil
		}
		return nil, nil
	}

	state, err := fastMeet(zap.New(core), &recordingSnap{}).Join(context.Background(), page, "bot")
	require.NoError(t, err)
	assert.Equal(t, meeting.JoinInMeeting, state)
	assert.Equal(t, 1, logs.FilterMessage("waiting for host to admit").Len())
}

func TestMeet_CancelledContext(t *testing.T) {
	page := browsertest.NewPage()
	m := fastMeet(zap.NewNop(), &recordingSnap{})
	m.Timings.JoinCeiling = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := m.Join(ctx, page, "bot")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestZoom_SettlesWithoutVerification(t *testing.T) {
	page := browsertest.NewPage()
	page.Set(`#input-for-name`, browsertest.Visible(""))
	page.Set(`button.preview-join-button`, browsertest.Visible("Join"))
	z := &Zoom{
		Logger:  zap.NewNop(),
		Snap:    &recordingSnap{},
		Timings: ZoomTimings{NameFieldWait: time.Millisecond, Settle: time.Millisecond},
	}

	state, err := z.Join(context.Background(), page, "HR Recorder")
	require.NoError(t, err)
	assert.Equal(t, meeting.JoinInMeeting, state)
	assert.Equal(t, []browsertest.Call{{Selector: `#input-for-name`, Text: "HR Recorder"}}, page.Inputs)
	assert.Equal(t, []string{`button.preview-join-button`}, page.ClickedSelectors())
}

func TestZoom_CancelledDuringSettle(t *testing.T) {
	z := &Zoom{
		Logger:  zap.NewNop(),
		Snap:    &recordingSnap{},
		Timings: ZoomTimings{NameFieldWait: time.Millisecond, Settle: time.Minute},
	}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := z.Join(ctx, browsertest.NewPage(), "bot")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestZoom_MissingNameFieldIsLogged(t *testing.T) {
	page := browsertest.NewPage()
	page.CurrentURL = "https://us02web.zoom.us/j/123456789"
	core, logs := observer.New(zap.WarnLevel)
	z := &Zoom{
		Logger:  zap.New(core),
		Snap:    &recordingSnap{},
		Timings: ZoomTimings{NameFieldWait: time.Millisecond, Settle: time.Millisecond},
	}

	_, err := z.Join(context.Background(), page, "bot")
	require.NoError(t, err)
	entries := logs.FilterMessageSnippet("zoom name field not found").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "https://us02web.zoom.us/j/123456789", entries[0].ContextMap()["url"])
}

func TestZoomWebClientURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://us02web.zoom.us/j/123456789", "https://us02web.zoom.us/wc/join/123456789"},
		{"https://zoom.us/j/123456789/?pwd=abc", "https://zoom.us/wc/join/123456789?pwd=abc"},
		{"https://zoom.us/wc/join/123456789?pwd=abc", "https://zoom.us/wc/join/123456789?pwd=abc"},
		{"https://zoom.us/my/someone", "https://zoom.us/my/someone"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ZoomWebClientURL(tt.in), tt.in)
	}

	assert.Equal(t, "https://meet.google.com/abc-defg-hij", EntryURL(meeting.PlatformMeet, "https://meet.google.com/abc-defg-hij"))
	assert.Equal(t, "https://zoom.us/wc/join/1", EntryURL(meeting.PlatformZoom, "https://zoom.us/j/1"))
}

func TestForPlatform(t *testing.T) {
	j, err := ForPlatform(meeting.PlatformMeet, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.IsType(t, &Meet{}, j)

	j, err = ForPlatform(meeting.PlatformZoom, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.IsType(t, &Zoom{}, j)

	_, err = ForPlatform(meeting.Platform("teams"), zap.NewNop(), nil)
	assert.ErrorIs(t, err, meeting.ErrUnsupportedPlatform)
}
