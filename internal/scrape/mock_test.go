package scrape

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hotelintel/pricewatcher/internal/browser"
)

// mockPage is a scripted browser.Page for navigator tests.
type mockPage struct {
	html     string
	captures []browser.Capture
	navErr   error
	counts   map[string]int

	navigated []string
	clicks    []click
	closed    bool
}

type click struct {
	selector string
	index    int
}

func (p *mockPage) Navigate(url string) error {
	p.navigated = append(p.navigated, url)
	return p.navErr
}

func (p *mockPage) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.html))
}

func (p *mockPage) Click(selector string, index int) (bool, error) {
	p.clicks = append(p.clicks, click{selector, index})
	return p.counts[selector] > index, nil
}

func (p *mockPage) Count(selector string) (int, error) {
	return p.counts[selector], nil
}

func (p *mockPage) Captures() []browser.Capture {
	return p.captures
}

func (p *mockPage) Close() error {
	p.closed = true
	return nil
}

// mockLauncher hands out a fixed page.
type mockLauncher struct {
	page *mockPage
	err  error
}

func (l *mockLauncher) NewPage(ctx context.Context, capturePattern string) (browser.Page, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.page, nil
}

// mockPublisher records published messages.
type mockPublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

func (p *mockPublisher) Publish(key string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
	return nil
}

func (p *mockPublisher) TrimStreams() error { return nil }
func (p *mockPublisher) Close() error       { return nil }

// mockCache is a map-backed cache.CacheService.
type mockCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{items: make(map[string][]byte)}
}

type cacheMiss struct{}

func (cacheMiss) Error() string { return "cache miss" }

func (c *mockCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.items[key]
	if !ok {
		return nil, cacheMiss{}
	}
	return value, nil
}

func (c *mockCache) Set(key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *mockCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}
