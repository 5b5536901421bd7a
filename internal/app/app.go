package app

import (
	"go.uber.org/zap"

	"github.com/alex4udak-blip/HR-bot--sub007/config"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/capture"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting/usecases"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/upload"
)

type App struct {
	Record         *usecases.Record
	StopRecording  *usecases.StopRecording
	ListRecordings *usecases.ListRecordings
}

// BrowserOptions derives the launch options from cfg. The capture hook is
// always installed.
func BrowserOptions(cfg *config.Config) browser.Options {
	return browser.Options{
		Bin:         cfg.ChromePath,
		Headless:    cfg.Headless,
		UserAgent:   cfg.UserAgent,
		Width:       cfg.ViewportWidth,
		Height:      cfg.ViewportHeight,
		InitScripts: []string{capture.HookScript},
	}
}

func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	store := &usecases.StateStore{Dir: cfg.StateDir}

	record := &usecases.Record{
		Launcher:    browser.NewLauncher(BrowserOptions(cfg), logger),
		Components:  usecases.DefaultComponents(),
		Credentials: cfg.Credentials,
		DebugDir:    cfg.DebugDir,
		Store:       store,
		Logger:      logger,
	}

	// A bad upload target must not cost the recording; the file stays local.
	if cfg.S3.Enabled() {
		s3, err := upload.NewS3(cfg.S3)
		if err != nil {
			logger.Warn("s3 upload disabled", zap.String("endpoint", cfg.S3.Endpoint), zap.Error(err))
		} else {
			record.Uploader = s3
		}
	}

	return &App{
		Record:         record,
		StopRecording:  &usecases.StopRecording{Store: store},
		ListRecordings: &usecases.ListRecordings{Store: store},
	}, nil
}
