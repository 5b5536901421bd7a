package meeting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDisplayName is typed into the meeting's name field when --name is not given.
const DefaultDisplayName = "HR Recorder"

var (
	ErrMissingURL          = errors.New("missing required --url")
	ErrMissingOutput       = errors.New("missing required --output")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrJoinTimeout         = errors.New("could not join meeting - timed out waiting for meeting room")
	ErrCaptureNotStarted   = errors.New("audio capture did not start")
)

// Params are the invocation parameters of one capture job. Immutable once built.
type Params struct {
	MeetingURL  string
	OutputPath  string
	DisplayName string
	CallID      string // optional, namespaces debug snapshots only
}

// NewParams validates the required fields and fills defaults.
func NewParams(meetingURL, outputPath, displayName, callID string) (Params, error) {
	meetingURL = strings.TrimSpace(meetingURL)
	outputPath = strings.TrimSpace(outputPath)
	if meetingURL == "" {
		return Params{}, ErrMissingURL
	}
	if outputPath == "" {
		return Params{}, ErrMissingOutput
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = DefaultDisplayName
	}
	return Params{
		MeetingURL:  meetingURL,
		OutputPath:  outputPath,
		DisplayName: displayName,
		CallID:      strings.TrimSpace(callID),
	}, nil
}

// EnsureOutputDir creates the parent directory of OutputPath if missing.
func (p Params) EnsureOutputDir() error {
	dir := filepath.Dir(p.OutputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return nil
}

// Credentials for the identity provider. Sourced from the environment, never persisted.
type Credentials struct {
	Email    string
	Password string
}

// Present reports whether both halves are set.
func (c Credentials) Present() bool {
	return c.Email != "" && c.Password != ""
}

// Platform identifies which join strategy drives the page.
type Platform string

const (
	PlatformMeet Platform = "meet"
	PlatformZoom Platform = "zoom"
)

// RequiresSignIn reports whether the platform needs a separate identity sign-in.
func (p Platform) RequiresSignIn() bool {
	return p == PlatformMeet
}

// DetectPlatform maps a meeting URL to its platform by host substring.
func DetectPlatform(meetingURL string) (Platform, error) {
	u := strings.ToLower(meetingURL)
	switch {
	case strings.Contains(u, "meet.google.com"):
		return PlatformMeet, nil
	case strings.Contains(u, "zoom.us"):
		return PlatformZoom, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, meetingURL)
}

// JoinState is the per-platform join state machine position.
type JoinState string

const (
	JoinNotStarted          JoinState = "not_started"
	JoinNameEntered         JoinState = "name_entered"
	JoinClicked             JoinState = "join_clicked"
	JoinWaitingForAdmission JoinState = "waiting_for_admission"
	JoinInMeeting           JoinState = "in_meeting"
	JoinFailed              JoinState = "join_failed"
)

// StopReason says why a running job wound down.
type StopReason string

const (
	StopNone          StopReason = ""
	StopMeetingEnded  StopReason = "meeting_ended"
	StopPageGone      StopReason = "page_unqueryable"
	StopSignal        StopReason = "signal"
	StopCaptureFailed StopReason = "capture_failed"
)

// Job is the shared run state of one capture job. The main loop polls
// Running; the liveness monitor and the signal path call Stop.
type Job struct {
	running atomic.Bool

	mu     sync.Mutex
	reason StopReason
}

// NewJob returns a job in the running state.
func NewJob() *Job {
	j := &Job{}
	j.running.Store(true)
	return j
}

func (j *Job) Running() bool {
	return j.running.Load()
}

// Stop flips the job to not running. The first reason wins.
func (j *Job) Stop(reason StopReason) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.reason == StopNone {
		j.reason = reason
	}
	j.running.Store(false)
}

func (j *Job) Reason() StopReason {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.reason
}

// RecordingState is persisted while a job runs so that `recorder stop` and
// `recorder list` can find it.
type RecordingState struct {
	Key        string    `json:"key"`
	PID        int       `json:"pid"`
	CallID     string    `json:"call_id,omitempty"`
	MeetingURL string    `json:"meeting_url"`
	Platform   Platform  `json:"platform,omitempty"`
	OutputPath string    `json:"output_path"`
	StartedAt  time.Time `json:"started_at"`
}

// SnapshotKey namespaces debug snapshots. Empty disables them.
func (p Params) SnapshotKey() string {
	return p.CallID
}
