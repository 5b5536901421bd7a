// Package capture records the meeting's audio from the page into a file.
//
// The page-side recorder (see HookScript) produces WebM/Opus chunks; each
// chunk crosses into Go as base64 through an exposed binding and is appended
// to the output file in arrival order.
package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting"
)

const (
	BindingName = "__hrCaptureChunk"
	MimeType    = "audio/webm;codecs=opus"
	Timeslice   = time.Second
)

// Session is one running capture. The zero value and nil are valid stopped
// sessions.
type Session struct {
	page    browser.Page
	file    *os.File
	path    string
	logger  *zap.Logger
	unbind  func() error
	started bool

	mu      sync.Mutex
	written int64
	chunks  int

	active   atomic.Bool
	failed   chan struct{}
	failOnce sync.Once
	failErr  error

	stopOnce sync.Once
	stopErr  error
}

// Start opens path for writing and starts the page recorder. The file is
// created or truncated.
func Start(ctx context.Context, page browser.Page, path string, logger *zap.Logger) (*Session, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening output file: %w", err)
	}
	s := &Session{
		page:    page,
		file:    f,
		path:    path,
		logger:  logger,
		failed:  make(chan struct{}),
		started: true,
	}

	unbind, err := page.Expose(ctx, BindingName, s.onChunk)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("exposing chunk binding: %w", err)
	}
	s.unbind = unbind
	s.active.Store(true)

	js := fmt.Sprintf(`() => window.__hrCapture ? window.__hrCapture.start(%q, %q, %d) : "missing"`,
		BindingName, MimeType, Timeslice.Milliseconds())
	st, err := page.Eval(ctx, js)
	if err == nil && st != "recording" {
		err = fmt.Errorf("recorder state %q", st)
	}
	if err != nil {
		s.active.Store(false)
		_ = unbind()
		_ = f.Close()
		return nil, fmt.Errorf("%w: %w", meeting.ErrCaptureNotStarted, err)
	}

	logger.Info("audio capture started", zap.String("path", path), zap.String("mime", MimeType))
	return s, nil
}

func (s *Session) onChunk(payload string) error {
	if !s.active.Load() {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		s.fail(fmt.Errorf("decoding chunk: %w", err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	n, err := s.file.Write(data)
	s.written += int64(n)
	s.chunks++
	if err != nil {
		s.fail(fmt.Errorf("writing chunk: %w", err))
		return err
	}
	return nil
}

func (s *Session) fail(err error) {
	s.failOnce.Do(func() {
		s.failErr = err
		s.logger.Error("audio capture failed", zap.Error(err))
		close(s.failed)
	})
}

// Failed is closed when a chunk could not be written.
func (s *Session) Failed() <-chan struct{} {
	if s == nil || s.failed == nil {
		return nil
	}
	return s.failed
}

// Err returns the first write failure, if any.
func (s *Session) Err() error {
	if s == nil {
		return nil
	}
	select {
	case <-s.failed:
		return s.failErr
	default:
		return nil
	}
}

func (s *Session) Active() bool {
	return s != nil && s.active.Load()
}

func (s *Session) BytesWritten() int64 {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Stop asks the page recorder to flush and stop, then closes the file. It
// runs once; later calls return the first result. Calling it on a nil or
// never-started session is a no-op.
func (s *Session) Stop(ctx context.Context) error {
	if s == nil || !s.started {
		return nil
	}
	s.stopOnce.Do(func() {
		if s.page != nil {
			if _, err := s.page.Eval(ctx, `() => window.__hrCapture ? window.__hrCapture.stop() : "inactive"`); err != nil {
				s.logger.Warn("stopping page recorder", zap.Error(err))
			}
		}
		s.active.Store(false)
		if s.unbind != nil {
			if err := s.unbind(); err != nil {
				s.logger.Debug("removing chunk binding", zap.Error(err))
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.file.Sync(); err != nil {
			s.stopErr = fmt.Errorf("syncing output file: %w", err)
		}
		if err := s.file.Close(); err != nil && s.stopErr == nil {
			s.stopErr = fmt.Errorf("closing output file: %w", err)
		}
		s.file = nil
		s.logger.Info("audio capture stopped",
			zap.String("path", s.path),
			zap.Int64("bytes", s.written),
			zap.Int("chunks", s.chunks),
		)
	})
	return s.stopErr
}
