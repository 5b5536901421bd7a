package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultWidth     = 1280
	DefaultHeight    = 720
)

// Options configure the browser launch.
type Options struct {
	Bin         string // empty uses rod's resolved browser
	Headless    bool
	UserAgent   string
	Width       int
	Height      int
	Evasions    Evasions
	InitScripts []string // injected on every new document after the evasions
}

// Session owns one browser process and exactly one page.
type Session interface {
	Page() Page
	GrantMediaPermissions(ctx context.Context, origin string) error
	Close() error
}

// Launcher starts browser sessions.
type Launcher struct {
	opts   Options
	logger *zap.Logger
}

func NewLauncher(opts Options, logger *zap.Logger) *Launcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Width == 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height == 0 {
		opts.Height = DefaultHeight
	}
	if opts.Evasions == nil {
		opts.Evasions = DefaultEvasions()
	}
	return &Launcher{opts: opts, logger: logger}
}

// Flags returns the command-line switches the browser is started with.
func (l *Launcher) Flags() map[string]string {
	return map[string]string{
		"no-sandbox":                       "",
		"disable-setuid-sandbox":           "",
		"disable-dev-shm-usage":            "",
		"use-fake-ui-for-media-stream":     "",
		"use-fake-device-for-media-stream": "",
		"autoplay-policy":                  "no-user-gesture-required",
		"disable-gpu":                      "",
		"disable-blink-features":           "AutomationControlled",
		"disable-infobars":                 "",
		"window-size":                      fmt.Sprintf("%d,%d", l.opts.Width, l.opts.Height),
		"lang":                             "en-US",
	}
}

// Launch spawns the browser process and prepares its single page. The
// process is not tied to ctx; callers release it with Session.Close.
func (l *Launcher) Launch(ctx context.Context) (Session, error) {
	ln := launcher.New().Headless(l.opts.Headless).Leakless(true)
	for name, value := range l.Flags() {
		if value == "" {
			ln = ln.Set(flags.Flag(name))
		} else {
			ln = ln.Set(flags.Flag(name), value)
		}
	}
	if l.opts.Bin != "" {
		ln = ln.Bin(l.opts.Bin)
	}

	controlURL, err := ln.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	s := &rodSession{launcher: ln, logger: l.logger}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	s.browser = b

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("opening page: %w", err)
	}
	// Drop the launch ctx so the page outlives it.
	page = page.Context(context.Background())

	if err := l.preparePage(page); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.page = page

	l.logger.Info("browser launched",
		zap.Bool("headless", l.opts.Headless),
		zap.Strings("evasions", l.opts.Evasions.Names()),
	)
	return s, nil
}

func (l *Launcher) preparePage(page *rod.Page) error {
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      l.opts.UserAgent,
		AcceptLanguage: "en-US,en;q=0.9",
	}); err != nil {
		return fmt.Errorf("setting user agent: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             l.opts.Width,
		Height:            l.opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("setting viewport: %w", err)
	}
	if _, err := page.EvalOnNewDocument(l.opts.Evasions.Script()); err != nil {
		return fmt.Errorf("installing evasions: %w", err)
	}
	for _, script := range l.opts.InitScripts {
		if _, err := page.EvalOnNewDocument(script); err != nil {
			return fmt.Errorf("installing init script: %w", err)
		}
	}
	return nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

func (s *rodSession) Page() Page {
	return &rodPage{page: s.page}
}

func (s *rodSession) GrantMediaPermissions(ctx context.Context, origin string) error {
	err := proto.BrowserGrantPermissions{
		Origin: origin,
		Permissions: []proto.BrowserPermissionType{
			proto.BrowserPermissionTypeAudioCapture,
			proto.BrowserPermissionTypeVideoCapture,
			proto.BrowserPermissionTypeNotifications,
		},
	}.Call(s.browser.Context(ctx))
	if err != nil {
		return fmt.Errorf("granting media permissions for %s: %w", origin, err)
	}
	return nil
}

// Close terminates the browser process. Safe to call more than once.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		if s.launcher != nil {
			s.launcher.Kill()
			s.launcher.Cleanup()
		}
		s.logger.Info("browser closed")
	})
	return s.closeErr
}
