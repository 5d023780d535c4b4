package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"homesite_sync/config"
)

// BrowserFetcher loads pages in headless Chromium for when the site starts
// refusing plain HTTP clients. The browser starts lazily on first use.
type BrowserFetcher struct {
	cfg config.ScraperConfig

	mu          sync.Mutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	context     playwright.BrowserContext
	initialized bool
	lastFetch   time.Time
}

func NewBrowserFetcher(cfg config.ScraperConfig) *BrowserFetcher {
	return &BrowserFetcher{cfg: cfg}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.ensureBrowser(); err != nil {
		return nil, err
	}
	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	page, err := f.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(f.timeoutMS())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if resp != nil && (resp.Status() < 200 || resp.Status() > 299) {
		return nil, &StatusError{URL: url, StatusCode: resp.Status()}
	}

	// JSON endpoints render as text; take the raw body rather than the DOM.
	if resp != nil && strings.Contains(resp.Headers()["content-type"], "json") {
		return resp.Body()
	}

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", url, err)
	}
	return []byte(html), nil
}

func (f *BrowserFetcher) wait(ctx context.Context) error {
	delay := f.cfg.Delay() - time.Since(f.lastFetch)
	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	f.lastFetch = time.Now()
	return nil
}

func (f *BrowserFetcher) timeoutMS() int {
	if f.cfg.TimeoutMS > 0 {
		return f.cfg.TimeoutMS
	}
	return 60000
}

func (f *BrowserFetcher) ensureBrowser() error {
	if f.initialized {
		return nil
	}

	var err error
	f.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(f.cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}
	if f.cfg.ProxyURL != "" {
		launch.Proxy = &playwright.Proxy{Server: f.cfg.ProxyURL}
	}

	f.browser, err = f.pw.Chromium.Launch(launch)
	if err != nil {
		f.pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	f.context, err = f.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(f.cfg.UserAgent),
	})
	if err != nil {
		f.browser.Close()
		f.pw.Stop()
		return fmt.Errorf("failed to create browser context: %w", err)
	}

	f.initialized = true
	return nil
}

func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		return nil
	}
	if f.context != nil {
		f.context.Close()
	}
	if f.browser != nil {
		f.browser.Close()
	}
	f.initialized = false
	return f.pw.Stop()
}
