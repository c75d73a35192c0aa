package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/anthropics/linkedin-agent-bridge/internal/conf"
)

// Session owns a single Chromium instance and the one page all LinkedIn
// operations run on. The profile directory is persistent so cookies survive
// restarts and a manual login carries over between runs.
type Session struct {
	cfg conf.BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

// NewSession creates a session manager. The browser is launched lazily on the
// first Page call.
func NewSession(cfg conf.BrowserConfig) *Session {
	return &Session{cfg: cfg}
}

// Page returns the active page, launching or relaunching the browser if the
// previous instance died.
func (s *Session) Page() (*rod.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil && s.alive() {
		return s.page, nil
	}
	if s.browser != nil {
		fmt.Printf("[Browser] Existing instance is unresponsive, relaunching\n")
		s.closeLocked()
	}
	if err := s.startLocked(); err != nil {
		return nil, err
	}
	return s.page, nil
}

// Restart force-closes the current instance and launches a fresh one. The
// profile directory is kept, so the session cookies survive.
func (s *Session) Restart() (*rod.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()
	if err := s.startLocked(); err != nil {
		return nil, err
	}
	return s.page, nil
}

// ClearSiteData wipes cookies and the HTTP cache for the whole browser
// instance. Used by sign-out so the next navigation lands on the guest page.
func (s *Session) ClearSiteData() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page == nil {
		return nil
	}
	if err := (proto.NetworkClearBrowserCookies{}).Call(s.page); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	if err := (proto.NetworkClearBrowserCache{}).Call(s.page); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Printf("[Browser] Cleared cookies and cache\n")
	return nil
}

// Stop closes the browser. Safe to call multiple times.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) startLocked() error {
	var controlURL string

	if s.cfg.ObserverURL != "" {
		// Attach to an externally managed Chrome instead of launching our own.
		controlURL = s.cfg.ObserverURL
		fmt.Printf("[Browser] Connecting to external instance at %s\n", controlURL)
	} else {
		if err := os.MkdirAll(s.cfg.UserDataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create profile dir: %w", err)
		}
		cleanupStaleLocks(s.cfg.UserDataDir)

		l := launcher.New().
			UserDataDir(s.cfg.UserDataDir).
			Headless(s.cfg.Headless).
			Set("disable-dev-shm-usage").
			Set("disable-blink-features", "AutomationControlled").
			Set("window-size", fmt.Sprintf("%d,%d", s.cfg.WindowWidth, s.cfg.WindowHeight)).
			Set("no-sandbox") // required when running as root in a container
		if s.cfg.Bin != "" {
			l = l.Bin(s.cfg.Bin)
		}

		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		browser.Close()
		return fmt.Errorf("failed to open stealth page: %w", err)
	}

	if s.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.cfg.UserAgent}); err != nil {
			fmt.Printf("[Browser] Warning: failed to override user agent: %v\n", err)
		}
	}
	if s.cfg.WindowWidth > 0 && s.cfg.WindowHeight > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             s.cfg.WindowWidth,
			Height:            s.cfg.WindowHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			fmt.Printf("[Browser] Warning: failed to set viewport: %v\n", err)
		}
	}

	s.browser = browser
	s.page = page
	fmt.Printf("[Browser] Ready (headless=%v, profile=%s)\n", s.cfg.Headless, s.cfg.UserDataDir)
	return nil
}

// alive probes the CDP connection. Wrapped in a recover because rod panics
// when the underlying client is already gone.
func (s *Session) alive() bool {
	if s.browser == nil {
		return false
	}
	ok := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		_, err := s.browser.Call(nil, "", "Browser.getVersion", nil)
		return err == nil
	}()
	return ok
}

func (s *Session) closeLocked() {
	if s.browser == nil {
		return
	}
	if s.cfg.ObserverURL == "" {
		func() {
			defer func() { recover() }()
			s.browser.Close()
		}()
	}
	s.browser = nil
	s.page = nil
}

// cleanupStaleLocks removes Chromium lock files left behind by crashed
// sessions. Chromium refuses to start while they exist.
func cleanupStaleLocks(profileDir string) {
	lockFiles := []string{
		"SingletonLock",
		"SingletonCookie",
		"SingletonSocket",
	}
	for _, lockFile := range lockFiles {
		lockPath := filepath.Join(profileDir, lockFile)
		if _, err := os.Stat(lockPath); err == nil {
			if err := os.Remove(lockPath); err != nil {
				fmt.Printf("[Browser] Warning: failed to remove stale lock %s: %v\n", lockPath, err)
			} else {
				fmt.Printf("[Browser] Removed stale lock %s\n", lockPath)
			}
		}
	}
}
