// Package snapshot saves numbered debug screenshots of the meeting page.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Recorder writes <Dir>/<key>_<NN>_<step>.png. With an empty key it does
// nothing. Failures are logged and otherwise ignored.
type Recorder struct {
	dir    string
	key    string
	logger *zap.Logger

	mu  sync.Mutex
	seq int
}

func New(dir, key string, logger *zap.Logger) *Recorder {
	return &Recorder{dir: dir, key: unsafeChars.ReplaceAllString(key, "_"), logger: logger}
}

func (r *Recorder) Enabled() bool {
	return r != nil && r.key != "" && r.dir != ""
}

// Take captures the page under the next sequence number.
func (r *Recorder) Take(ctx context.Context, page browser.Page, step string) {
	if !r.Enabled() || page == nil {
		return
	}
	r.mu.Lock()
	r.seq++
	name := fmt.Sprintf("%s_%02d_%s.png", r.key, r.seq, unsafeChars.ReplaceAllString(step, "_"))
	r.mu.Unlock()

	path := filepath.Join(r.dir, name)
	if err := r.write(ctx, page, path); err != nil {
		r.logger.Debug("snapshot skipped", zap.String("step", step), zap.Error(err))
		return
	}
	r.logger.Debug("snapshot saved", zap.String("path", path))
}

func (r *Recorder) write(ctx context.Context, page browser.Page, path string) error {
	img, err := page.Screenshot(ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, img, 0o644)
}
