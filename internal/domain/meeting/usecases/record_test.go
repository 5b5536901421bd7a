package usecases

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser/browsertest"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/capture"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/join"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/snapshot"
)

type fakeSession struct {
	page   *browsertest.Page
	closes atomic.Int32
	grants []string
}

func (s *fakeSession) Page() browser.Page { return s.page }

func (s *fakeSession) GrantMediaPermissions(_ context.Context, origin string) error {
	s.grants = append(s.grants, origin)
	return nil
}

func (s *fakeSession) Close() error {
	s.closes.Add(1)
	return nil
}

type fakeLauncher struct {
	sess     *fakeSession
	err      error
	launches int
}

func (l *fakeLauncher) Launch(context.Context) (browser.Session, error) {
	l.launches++
	if l.err != nil {
		return nil, l.err
	}
	return l.sess, nil
}

type fakeAuth struct {
	calls int
	fn    func(ctx context.Context, page browser.Page) bool
}

func (a *fakeAuth) SignIn(ctx context.Context, page browser.Page) bool {
	a.calls++
	if a.fn != nil {
		return a.fn(ctx, page)
	}
	return true
}

type joinerFunc func(ctx context.Context, page browser.Page, name string) (meeting.JoinState, error)

func (f joinerFunc) Join(ctx context.Context, page browser.Page, name string) (meeting.JoinState, error) {
	return f(ctx, page, name)
}

type fakeCapture struct {
	stops  atomic.Int32
	failed chan struct{}
	bytes  int64
}

func (c *fakeCapture) Stop(context.Context) error {
	c.stops.Add(1)
	return nil
}
func (c *fakeCapture) Failed() <-chan struct{} { return c.failed }
func (c *fakeCapture) Err() error              { return errors.New("disk full") }
func (c *fakeCapture) BytesWritten() int64     { return c.bytes }

type monitorFunc func(ctx context.Context) meeting.StopReason

func (f monitorFunc) Run(ctx context.Context) meeting.StopReason { return f(ctx) }

type fakeUploader struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (u *fakeUploader) Upload(_ context.Context, localPath, key string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.paths = append(u.paths, localPath)
	if u.err != nil {
		return "", u.err
	}
	return "s3://calls/" + key, nil
}

type harness struct {
	rec      *Record
	sess     *fakeSession
	launcher *fakeLauncher
	auth     *fakeAuth
	capt     *fakeCapture
	joins    atomic.Int32
	captures atomic.Int32
	params   meeting.Params
}

func newHarness(t *testing.T, meetingURL string) *harness {
	t.Helper()
	h := &harness{
		sess: &fakeSession{page: browsertest.NewPage()},
		auth: &fakeAuth{},
		capt: &fakeCapture{bytes: 128},
	}
	h.launcher = &fakeLauncher{sess: h.sess}

	params, err := meeting.NewParams(meetingURL, filepath.Join(t.TempDir(), "calls", "out.webm"), "", "42")
	require.NoError(t, err)
	h.params = params

	h.rec = &Record{
		Launcher: h.launcher,
		Components: Components{
			Authenticator: func(meeting.Credentials, *zap.Logger, *snapshot.Recorder) Authenticator { return h.auth },
			Joiner: func(meeting.Platform, *zap.Logger, *snapshot.Recorder) (join.Joiner, error) {
				return joinerFunc(func(context.Context, browser.Page, string) (meeting.JoinState, error) {
					h.joins.Add(1)
					return meeting.JoinInMeeting, nil
				}), nil
			},
			Capture: func(context.Context, browser.Page, string, *zap.Logger) (Capture, error) {
				h.captures.Add(1)
				return h.capt, nil
			},
			Monitor: func(browser.Page, meeting.Platform, *zap.Logger) Monitor {
				return monitorFunc(func(context.Context) meeting.StopReason { return meeting.StopMeetingEnded })
			},
		},
		DebugDir:        t.TempDir(),
		Store:           &StateStore{Dir: t.TempDir()},
		Logger:          zap.NewNop(),
		PollInterval:    5 * time.Millisecond,
		TeardownTimeout: time.Second,
	}
	return h
}

func (h *harness) withJoin(fn joinerFunc) {
	h.rec.Components.Joiner = func(meeting.Platform, *zap.Logger, *snapshot.Recorder) (join.Joiner, error) {
		return joinerFunc(func(ctx context.Context, page browser.Page, name string) (meeting.JoinState, error) {
			h.joins.Add(1)
			return fn(ctx, page, name)
		}), nil
	}
}

const meetURL = "https://meet.google.com/abc-defg-hij"

func TestRecord_MonitorEndsMeeting(t *testing.T) {
	h := newHarness(t, meetURL)

	res, err := h.rec.Execute(context.Background(), h.params)
	require.NoError(t, err)
	assert.Equal(t, meeting.StopMeetingEnded, res.Reason)
	assert.Equal(t, meeting.PlatformMeet, res.Platform)
	assert.EqualValues(t, 128, res.Bytes)

	assert.EqualValues(t, 1, h.sess.closes.Load())
	assert.GreaterOrEqual(t, h.capt.stops.Load(), int32(1))
	assert.Equal(t, []string{"https://meet.google.com"}, h.sess.grants)
	assert.Equal(t, []string{meetURL}, h.sess.page.Navigations)
	assert.DirExists(t, filepath.Dir(h.params.OutputPath))

	states, err := h.rec.Store.List()
	require.NoError(t, err)
	assert.Empty(t, states, "state file removed at exit")
}

func TestRecord_SignalMidCapture(t *testing.T) {
	h := newHarness(t, meetURL)
	h.rec.Components.Monitor = func(browser.Page, meeting.Platform, *zap.Logger) Monitor {
		return monitorFunc(func(ctx context.Context) meeting.StopReason {
			<-ctx.Done()
			return meeting.StopNone
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.rec.Components.Capture = func(context.Context, browser.Page, string, *zap.Logger) (Capture, error) {
		time.AfterFunc(20*time.Millisecond, cancel)
		return h.capt, nil
	}

	res, err := h.rec.Execute(ctx, h.params)
	require.NoError(t, err)
	assert.Equal(t, meeting.StopSignal, res.Reason)
	assert.EqualValues(t, 1, h.sess.closes.Load())
	assert.GreaterOrEqual(t, h.capt.stops.Load(), int32(1))
}

func TestRecord_StateFileWhileRunning(t *testing.T) {
	h := newHarness(t, meetURL)
	var seen []meeting.RecordingState
	h.rec.Components.Monitor = func(browser.Page, meeting.Platform, *zap.Logger) Monitor {
		return monitorFunc(func(context.Context) meeting.StopReason {
			seen, _ = h.rec.Store.List()
			return meeting.StopMeetingEnded
		})
	}

	res, err := h.rec.Execute(context.Background(), h.params)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, "42-"+res.RunID[:8], seen[0].Key)
	assert.Equal(t, "42", seen[0].CallID)
	assert.Equal(t, meeting.PlatformMeet, seen[0].Platform)
	assert.Positive(t, seen[0].PID)
}

func TestRecord_JoinTimeout(t *testing.T) {
	h := newHarness(t, meetURL)
	h.withJoin(func(context.Context, browser.Page, string) (meeting.JoinState, error) {
		return meeting.JoinFailed, meeting.ErrJoinTimeout
	})

	_, err := h.rec.Execute(context.Background(), h.params)
	assert.ErrorIs(t, err, meeting.ErrJoinTimeout)
	assert.EqualValues(t, 1, h.sess.closes.Load())
	assert.Zero(t, h.captures.Load())
	assert.Equal(t, 1, h.sess.page.Screenshots, "final error snapshot")
}

func TestRecord_ErrorDuringSignIn(t *testing.T) {
	h := newHarness(t, meetURL)
	h.rec.Credentials = meeting.Credentials{Email: "bot@example.com", Password: "pw"}
	h.auth.fn = func(context.Context, browser.Page) bool {
		// The browser died mid-login; the meeting page cannot be opened.
		h.sess.page.NavigateFn = func(string) error { return errors.New("target crashed") }
		return false
	}

	_, err := h.rec.Execute(context.Background(), h.params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target crashed")
	assert.Equal(t, 1, h.auth.calls)
	assert.EqualValues(t, 1, h.sess.closes.Load())
	assert.Zero(t, h.joins.Load())
}

func TestRecord_SignInFailureContinuesAsGuest(t *testing.T) {
	h := newHarness(t, meetURL)
	h.rec.Credentials = meeting.Credentials{Email: "bot@example.com", Password: "pw"}
	h.auth.fn = func(context.Context, browser.Page) bool { return false }

	res, err := h.rec.Execute(context.Background(), h.params)
	require.NoError(t, err)
	assert.Equal(t, meeting.StopMeetingEnded, res.Reason)
	assert.EqualValues(t, 1, h.joins.Load())
}

func TestRecord_NoCredentialsSkipsSignIn(t *testing.T) {
	h := newHarness(t, meetURL)
	h.rec.Credentials = meeting.Credentials{Email: "bot@example.com"}

	_, err := h.rec.Execute(context.Background(), h.params)
	require.NoError(t, err)
	assert.Zero(t, h.auth.calls)
}

func TestRecord_ZoomSkipsSignIn(t *testing.T) {
	h := newHarness(t, "https://us02web.zoom.us/j/123456789")
	h.rec.Credentials = meeting.Credentials{Email: "bot@example.com", Password: "pw"}

	res, err := h.rec.Execute(context.Background(), h.params)
	require.NoError(t, err)
	assert.Equal(t, meeting.PlatformZoom, res.Platform)
	assert.Zero(t, h.auth.calls)
	assert.Equal(t, []string{"https://us02web.zoom.us/wc/join/123456789"}, h.sess.page.Navigations)
}

func TestRecord_UnsupportedPlatformAfterNavigation(t *testing.T) {
	h := newHarness(t, "https://teams.microsoft.com/l/meetup-join/xyz")

	_, err := h.rec.Execute(context.Background(), h.params)
	assert.ErrorIs(t, err, meeting.ErrUnsupportedPlatform)
	assert.Len(t, h.sess.page.Navigations, 1)
	assert.Zero(t, h.joins.Load())
	assert.EqualValues(t, 1, h.sess.closes.Load())
}

func TestRecord_CaptureStartFailure(t *testing.T) {
	h := newHarness(t, meetURL)
	h.rec.Components.Capture = func(context.Context, browser.Page, string, *zap.Logger) (Capture, error) {
		return nil, meeting.ErrCaptureNotStarted
	}

	_, err := h.rec.Execute(context.Background(), h.params)
	assert.ErrorIs(t, err, meeting.ErrCaptureNotStarted)
	assert.EqualValues(t, 1, h.sess.closes.Load())
}

func TestRecord_CaptureFailureMidRun(t *testing.T) {
	h := newHarness(t, meetURL)
	h.capt.failed = make(chan struct{})
	close(h.capt.failed)
	h.rec.Components.Monitor = func(browser.Page, meeting.Platform, *zap.Logger) Monitor {
		return monitorFunc(func(ctx context.Context) meeting.StopReason {
			<-ctx.Done()
			return meeting.StopNone
		})
	}

	res, err := h.rec.Execute(context.Background(), h.params)
	require.Error(t, err)
	assert.Equal(t, meeting.StopCaptureFailed, res.Reason)
	assert.EqualValues(t, 1, h.sess.closes.Load())
}

func TestRecord_SignalDuringJoinExitsCleanly(t *testing.T) {
	h := newHarness(t, meetURL)
	ctx, cancel := context.WithCancel(context.Background())
	h.withJoin(func(ctx context.Context, _ browser.Page, _ string) (meeting.JoinState, error) {
		cancel()
		return meeting.JoinClicked, ctx.Err()
	})

	res, err := h.rec.Execute(ctx, h.params)
	require.NoError(t, err)
	assert.Equal(t, meeting.StopSignal, res.Reason)
	assert.Zero(t, h.sess.page.Screenshots)
	assert.EqualValues(t, 1, h.sess.closes.Load())
}

func TestRecord_SignalDuringCaptureStartExitsCleanly(t *testing.T) {
	h := newHarness(t, meetURL)
	ctx, cancel := context.WithCancel(context.Background())
	h.sess.page.EvalFn = func(string) (string, error) {
		cancel()
		return "", context.Canceled
	}
	h.rec.Components.Capture = func(ctx context.Context, page browser.Page, path string, logger *zap.Logger) (Capture, error) {
		s, err := capture.Start(ctx, page, path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	res, err := h.rec.Execute(ctx, h.params)
	require.NoError(t, err)
	assert.Equal(t, meeting.StopSignal, res.Reason)
	assert.Zero(t, h.sess.page.Screenshots)
	assert.EqualValues(t, 1, h.sess.closes.Load())
}

func TestRecord_LaunchFailure(t *testing.T) {
	h := newHarness(t, meetURL)
	h.launcher.err = errors.New("no chrome")

	_, err := h.rec.Execute(context.Background(), h.params)
	assert.EqualError(t, err, "no chrome")
	assert.Zero(t, h.sess.closes.Load())
}

func TestRecord_Upload(t *testing.T) {
	h := newHarness(t, meetURL)
	up := &fakeUploader{}
	h.rec.Uploader = up

	res, err := h.rec.Execute(context.Background(), h.params)
	require.NoError(t, err)
	assert.Equal(t, "s3://calls/42", res.UploadURL)
	assert.Equal(t, []string{h.params.OutputPath}, up.paths)
}

func TestRecord_UploadFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, meetURL)
	h.rec.Uploader = &fakeUploader{err: errors.New("bucket gone")}

	res, err := h.rec.Execute(context.Background(), h.params)
	require.NoError(t, err)
	assert.Empty(t, res.UploadURL)
}

func TestOriginOf(t *testing.T) {
	assert.Equal(t, "https://meet.google.com", originOf(meetURL))
	assert.Equal(t, "", originOf("not a url"))
}
