// Package browser manages a shared headless Chrome process for page rendering.
package browser

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/investor-scout/internal/config"
)

// RenderedPage is the outcome of a single navigation.
type RenderedPage struct {
	HTML   string
	Title  string
	Status int
}

// Manager owns one Chrome process. Each Render call opens a fresh tab with
// its own user-agent, so target sites see rotating client identities while
// the process (and its startup cost) is paid once per batch.
type Manager struct {
	cfg config.BrowserConfig

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	started       bool
	closed        bool
}

// NewManager creates a Manager. Chrome is launched lazily on first Render.
func NewManager(cfg config.BrowserConfig) *Manager {
	return &Manager{cfg: cfg}
}

// ensure launches the Chrome process if it is not running yet.
// Callers must hold m.mu.
func (m *Manager) ensure() error {
	if m.closed {
		return eris.New("browser: manager is closed")
	}
	if m.started {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("disable-features", "VizDisplayCompositor"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-software-rasterizer", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(m.cfg.WindowWidth, m.cfg.WindowHeight),
		chromedp.Flag("lang", m.cfg.Locale),
	)
	if m.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(m.cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// A Run with no actions starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return eris.Wrap(err, "browser: launch chrome")
	}

	m.allocCancel = allocCancel
	m.browserCtx = browserCtx
	m.browserCancel = browserCancel
	m.started = true

	zap.L().Info("browser: chrome started",
		zap.Bool("headless", m.cfg.Headless),
		zap.Int("width", m.cfg.WindowWidth),
		zap.Int("height", m.cfg.WindowHeight),
	)
	return nil
}

// Render navigates to url in a fresh tab and returns the serialized DOM
// after the page settles. The document HTTP status is captured from the
// network layer; callers decide whether a >= 400 status is fatal.
func (m *Manager) Render(ctx context.Context, url string, navTimeout, settle time.Duration) (*RenderedPage, error) {
	m.mu.Lock()
	if err := m.ensure(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	browserCtx := m.browserCtx
	m.mu.Unlock()

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()

	// Propagate caller cancellation into the tab.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var status int64
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			if resp.Type == network.ResourceTypeDocument {
				atomic.CompareAndSwapInt64(&status, 0, resp.Response.Status)
			}
		}
	})

	navCtx, navCancel := context.WithTimeout(tabCtx, navTimeout)
	defer navCancel()

	actions := []chromedp.Action{network.Enable()}
	if ua := m.pickUserAgent(); ua != "" {
		actions = append(actions,
			emulation.SetUserAgentOverride(ua).WithAcceptLanguage(m.cfg.Locale))
	}
	if m.cfg.Timezone != "" {
		actions = append(actions, emulation.SetTimezoneOverride(m.cfg.Timezone))
	}
	if m.cfg.WindowWidth > 0 && m.cfg.WindowHeight > 0 {
		actions = append(actions, emulation.SetDeviceMetricsOverride(
			int64(m.cfg.WindowWidth), int64(m.cfg.WindowHeight), 1, false))
	}
	actions = append(actions,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)

	if err := chromedp.Run(navCtx, actions...); err != nil {
		return nil, eris.Wrapf(err, "browser: navigate %s", url)
	}

	// Settle delay lets late JS (cookie banners, deferred content) finish
	// before the DOM is serialized.
	var page RenderedPage
	if err := chromedp.Run(tabCtx,
		chromedp.Sleep(settle),
		chromedp.Title(&page.Title),
		chromedp.OuterHTML("html", &page.HTML, chromedp.ByQuery),
	); err != nil {
		return nil, eris.Wrapf(err, "browser: capture %s", url)
	}

	page.Status = int(atomic.LoadInt64(&status))
	return &page, nil
}

func (m *Manager) pickUserAgent() string {
	if len(m.cfg.UserAgents) == 0 {
		return ""
	}
	return m.cfg.UserAgents[rand.IntN(len(m.cfg.UserAgents))]
}

// Close shuts down the Chrome process. Safe to call multiple times and
// before the first Render.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	if !m.started {
		return nil
	}

	// Graceful browser shutdown before tearing down the allocator.
	if err := chromedp.Cancel(m.browserCtx); err != nil {
		zap.L().Warn("browser: graceful shutdown failed", zap.Error(err))
	}
	m.browserCancel()
	m.allocCancel()
	m.started = false

	zap.L().Info("browser: chrome stopped")
	return nil
}
