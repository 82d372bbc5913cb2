package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"hotelintel/pricewatcher/config"
	"hotelintel/pricewatcher/logger"
	"hotelintel/pricewatcher/pkg/errors"
)

// ChromeLauncher launches headless Chrome pages via the DevTools protocol.
type ChromeLauncher struct {
	cfg config.Config
}

// NewChromeLauncher creates a launcher from the application configuration.
func NewChromeLauncher(cfg config.Config) *ChromeLauncher {
	return &ChromeLauncher{cfg: cfg}
}

// NewPage starts a fresh browser instance. Each page gets its own allocator
// so a crashed visit cannot poison the next one. The response listener is
// registered here, before any navigation happens, so early responses are
// never missed.
func (l *ChromeLauncher) NewPage(ctx context.Context, capturePattern string) (Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.cfg.ChromeHeadless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(l.cfg.UserAgent),
		chromedp.WindowSize(1280, 800),
	)
	if l.cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(l.cfg.ProxyURL))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	pageCtx, pageCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}),
	)

	p := &chromePage{
		ctx:         pageCtx,
		cancel:      pageCancel,
		allocCancel: allocCancel,
		navTimeout:  l.cfg.NavigationTimeout,
		pattern:     capturePattern,
		pending:     make(map[network.RequestID]*network.Response),
		log:         logger.ForVisit(""),
	}
	p.listen()

	if err := chromedp.Run(pageCtx, network.Enable()); err != nil {
		p.Close()
		return nil, errors.NewNavigation("", "failed to start browser", err)
	}

	return p, nil
}

type chromePage struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	navTimeout  time.Duration
	pattern     string
	log         *logger.Logger

	mu       sync.Mutex
	pending  map[network.RequestID]*network.Response
	captures []Capture
	bodies   sync.WaitGroup
}

// listen wires the DevTools event stream into the capture buffer. Response
// headers arrive with EventResponseReceived; the body is only safe to read
// after EventLoadingFinished, and has to be fetched on the target executor.
func (p *chromePage) listen() {
	chromedp.ListenTarget(p.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			if p.pattern == "" || !strings.Contains(e.Response.URL, p.pattern) {
				return
			}
			p.mu.Lock()
			p.pending[e.RequestID] = e.Response
			p.mu.Unlock()
		case *network.EventLoadingFinished:
			p.mu.Lock()
			resp, ok := p.pending[e.RequestID]
			delete(p.pending, e.RequestID)
			p.mu.Unlock()
			if !ok {
				return
			}
			p.bodies.Add(1)
			go p.fetchBody(e.RequestID, resp)
		}
	})
}

func (p *chromePage) fetchBody(id network.RequestID, resp *network.Response) {
	defer p.bodies.Done()

	c := chromedp.FromContext(p.ctx)
	body, err := network.GetResponseBody(id).Do(cdp.WithExecutor(p.ctx, c.Target))
	if err != nil {
		p.log.Debug().Err(err).Str("response_url", resp.URL).Msg("Failed to read intercepted body")
		return
	}

	// Non-JSON payloads on the matched endpoint are noise
	if !json.Valid(body) {
		return
	}

	p.mu.Lock()
	p.captures = append(p.captures, Capture{
		URL:    resp.URL,
		Status: resp.Status,
		Body:   json.RawMessage(body),
	})
	p.mu.Unlock()
}

func (p *chromePage) Navigate(url string) error {
	p.log = logger.ForVisit(url)

	navCtx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return errors.NewNavigation(url, "navigation failed", err)
	}
	return nil
}

func (p *chromePage) Document() (*goquery.Document, error) {
	var html string
	if err := chromedp.Run(p.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("failed to serialize page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}
	return doc, nil
}

func (p *chromePage) Count(selector string) (int, error) {
	sel, err := json.Marshal(selector)
	if err != nil {
		return 0, err
	}
	var count int
	script := fmt.Sprintf(`document.querySelectorAll(%s).length`, sel)
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, &count)); err != nil {
		return 0, fmt.Errorf("failed to count elements: %w", err)
	}
	return count, nil
}

func (p *chromePage) Click(selector string, index int) (bool, error) {
	sel, err := json.Marshal(selector)
	if err != nil {
		return false, err
	}
	var clicked bool
	script := fmt.Sprintf(`(() => {
		const els = document.querySelectorAll(%s);
		if (els.length <= %d) { return false; }
		els[%d].click();
		return true;
	})()`, sel, index, index)
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, fmt.Errorf("failed to click element: %w", err)
	}
	return clicked, nil
}

func (p *chromePage) Captures() []Capture {
	// Let in-flight body fetches land before reading
	p.bodies.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Capture, len(p.captures))
	copy(out, p.captures)
	return out
}

func (p *chromePage) Close() error {
	p.cancel()
	p.allocCancel()
	return nil
}
