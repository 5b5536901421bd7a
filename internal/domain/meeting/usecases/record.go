package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/capture"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/join"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/liveness"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/logging"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/signin"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/snapshot"
)

const (
	DefaultPollInterval    = time.Second
	DefaultTeardownTimeout = 15 * time.Second
)

type Launcher interface {
	Launch(ctx context.Context) (browser.Session, error)
}

type Authenticator interface {
	SignIn(ctx context.Context, page browser.Page) bool
}

// Capture is a running audio capture.
type Capture interface {
	Stop(ctx context.Context) error
	Failed() <-chan struct{}
	Err() error
	BytesWritten() int64
}

type Monitor interface {
	Run(ctx context.Context) meeting.StopReason
}

type Uploader interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// Components build the per-job pieces. Each receives the job logger and
// the job's snapshot recorder.
type Components struct {
	Authenticator func(creds meeting.Credentials, logger *zap.Logger, snap *snapshot.Recorder) Authenticator
	Joiner        func(p meeting.Platform, logger *zap.Logger, snap *snapshot.Recorder) (join.Joiner, error)
	Capture       func(ctx context.Context, page browser.Page, path string, logger *zap.Logger) (Capture, error)
	Monitor       func(page browser.Page, p meeting.Platform, logger *zap.Logger) Monitor
}

func DefaultComponents() Components {
	return Components{
		Authenticator: func(creds meeting.Credentials, logger *zap.Logger, snap *snapshot.Recorder) Authenticator {
			return signin.NewGoogle(creds, logger, snap)
		},
		Joiner: func(p meeting.Platform, logger *zap.Logger, snap *snapshot.Recorder) (join.Joiner, error) {
			return join.ForPlatform(p, logger, snap)
		},
		Capture: func(ctx context.Context, page browser.Page, path string, logger *zap.Logger) (Capture, error) {
			s, err := capture.Start(ctx, page, path, logger)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		Monitor: func(page browser.Page, p meeting.Platform, logger *zap.Logger) Monitor {
			return liveness.New(page, p, logger)
		},
	}
}

// Record runs one capture job from launch to teardown.
type Record struct {
	Launcher    Launcher
	Components  Components
	Credentials meeting.Credentials
	DebugDir    string
	Store       *StateStore // nil disables the state file
	Uploader    Uploader    // nil disables upload
	Logger      *zap.Logger

	PollInterval    time.Duration
	TeardownTimeout time.Duration
}

// Result describes a finished job.
type Result struct {
	RunID     string
	Platform  meeting.Platform
	Reason    meeting.StopReason
	Output    string
	Bytes     int64
	Duration  time.Duration
	UploadURL string
}

// Execute runs the job until the meeting ends, ctx is cancelled or a fatal
// error occurs. Cancellation of ctx is a graceful stop and returns a nil
// error. The browser is closed exactly once on every path.
func (r *Record) Execute(ctx context.Context, params meeting.Params) (*Result, error) {
	runID := uuid.NewString()
	logger := logging.ForJob(r.Logger, params.CallID, runID)
	res := &Result{RunID: runID, Output: params.OutputPath}

	if err := params.EnsureOutputDir(); err != nil {
		return res, err
	}

	started := time.Now()
	err := r.run(ctx, logger, params, res)
	res.Duration = time.Since(started)

	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		logger.Info("stopped by signal during setup")
		res.Reason = meeting.StopSignal
		err = nil
	}
	if err != nil {
		return res, err
	}

	logger.Info("job finished",
		zap.String("reason", string(res.Reason)),
		zap.Int64("bytes", res.Bytes),
		zap.Duration("duration", res.Duration),
	)
	r.upload(ctx, logger, params, res)
	return res, nil
}

func (r *Record) run(ctx context.Context, logger *zap.Logger, params meeting.Params, res *Result) (err error) {
	snap := snapshot.New(r.DebugDir, params.SnapshotKey(), logger)
	platform, platformErr := meeting.DetectPlatform(params.MeetingURL)
	res.Platform = platform

	sess, err := r.Launcher.Launch(ctx)
	if err != nil {
		logger.Error("browser launch failed", zap.Error(err))
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Warn("closing browser", zap.Error(cerr))
		}
	}()
	page := sess.Page()

	defer func() {
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		logger.Error("job failed", zap.Error(err))
		tctx, cancel := r.teardownContext(ctx)
		defer cancel()
		snap.Take(tctx, page, "error")
	}()

	if r.Store != nil {
		state := &meeting.RecordingState{
			Key:        stateKey(params.CallID, res.RunID),
			PID:        os.Getpid(),
			CallID:     params.CallID,
			MeetingURL: params.MeetingURL,
			Platform:   platform,
			OutputPath: params.OutputPath,
			StartedAt:  time.Now(),
		}
		if werr := r.Store.Write(state); werr != nil {
			logger.Warn("writing job state", zap.Error(werr))
		} else {
			defer r.Store.Remove(state.Key)
		}
	}

	if platformErr == nil && platform.RequiresSignIn() && r.Credentials.Present() {
		auth := r.Components.Authenticator(r.Credentials, logger, snap)
		if !auth.SignIn(ctx, page) {
			logger.Warn("continuing as guest")
		}
	}

	if origin := originOf(params.MeetingURL); origin != "" {
		if gerr := sess.GrantMediaPermissions(ctx, origin); gerr != nil {
			logger.Warn("granting media permissions", zap.Error(gerr))
		}
	}

	target := params.MeetingURL
	if platformErr == nil {
		target = join.EntryURL(platform, params.MeetingURL)
	}
	logger.Info("opening meeting", zap.String("url", target))
	if err := page.Navigate(ctx, target); err != nil {
		return fmt.Errorf("opening meeting: %w", err)
	}
	if platformErr != nil {
		return platformErr
	}

	joiner, err := r.Components.Joiner(platform, logger, snap)
	if err != nil {
		return err
	}
	state, err := joiner.Join(ctx, page, params.DisplayName)
	if err != nil {
		return err
	}
	logger.Info("joined meeting", zap.String("platform", string(platform)), zap.String("state", string(state)))

	capt, err := r.Components.Capture(ctx, page, params.OutputPath, logger)
	if err != nil {
		return err
	}
	stopCapture := func() error {
		tctx, cancel := r.teardownContext(ctx)
		defer cancel()
		return capt.Stop(tctx)
	}
	defer func() { _ = stopCapture() }()

	job := meeting.NewJob()
	r.wait(ctx, job, capt, r.Components.Monitor(page, platform, logger))
	res.Reason = job.Reason()

	if serr := stopCapture(); serr != nil {
		logger.Warn("finalizing output", zap.Error(serr))
	}
	res.Bytes = capt.BytesWritten()

	if res.Reason == meeting.StopCaptureFailed {
		return fmt.Errorf("capture failed: %w", capt.Err())
	}
	return nil
}

// wait blocks until the job stops. The monitor runs alongside a loop that
// polls the job flag and turns ctx cancellation or a capture failure into
// a stop.
func (r *Record) wait(ctx context.Context, job *meeting.Job, capt Capture, mon Monitor) {
	interval := r.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	monCtx, cancelMon := context.WithCancel(ctx)
	defer cancelMon()
	g, gctx := errgroup.WithContext(monCtx)

	g.Go(func() error {
		if reason := mon.Run(gctx); reason != meeting.StopNone {
			job.Stop(reason)
		}
		return nil
	})
	g.Go(func() error {
		defer cancelMon()
		t := time.NewTicker(interval)
		defer t.Stop()
		for job.Running() {
			select {
			case <-ctx.Done():
				job.Stop(meeting.StopSignal)
			case <-capt.Failed():
				job.Stop(meeting.StopCaptureFailed)
			case <-t.C:
			}
		}
		return nil
	})
	_ = g.Wait()
}

// teardownContext outlives a cancelled job context so that cleanup can
// still reach the browser.
func (r *Record) teardownContext(ctx context.Context) (context.Context, context.CancelFunc) {
	d := r.TeardownTimeout
	if d <= 0 {
		d = DefaultTeardownTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}

func (r *Record) upload(ctx context.Context, logger *zap.Logger, params meeting.Params, res *Result) {
	if r.Uploader == nil || res.Bytes == 0 {
		return
	}
	// The job may have ended by signal; the upload still runs.
	u, err := r.Uploader.Upload(context.WithoutCancel(ctx), params.OutputPath, jobName(params.CallID, res.RunID))
	if err != nil {
		logger.Warn("upload failed, recording kept locally", zap.Error(err))
		return
	}
	res.UploadURL = u
	logger.Info("recording uploaded", zap.String("url", u))
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
