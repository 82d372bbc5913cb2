package browser

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"hotelintel/pricewatcher/helpers"
	"hotelintel/pricewatcher/pkg/errors"
)

// StaticLauncher fetches pages over plain HTTP and parses the server-rendered
// HTML. It cannot execute scripts, so pages carry no captures and Click
// always reports that nothing was clicked. Useful where Chrome is
// unavailable; pricing then falls back to whatever the markup carries.
type StaticLauncher struct{}

// NewStaticLauncher creates a launcher for the degraded HTTP backend.
func NewStaticLauncher() *StaticLauncher {
	return &StaticLauncher{}
}

func (l *StaticLauncher) NewPage(ctx context.Context, capturePattern string) (Page, error) {
	return &staticPage{ctx: ctx}, nil
}

type staticPage struct {
	ctx context.Context
	doc *goquery.Document
}

func (p *staticPage) Navigate(url string) error {
	if err := p.ctx.Err(); err != nil {
		return errors.NewNavigation(url, "context cancelled", err)
	}

	body, err := helpers.FetchWithRandomHeaders(url)
	if err != nil {
		if scrapeErr, ok := err.(*errors.ScrapeError); ok {
			return scrapeErr
		}
		return errors.NewNavigation(url, "fetch failed", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return errors.NewNavigation(url, "failed to parse HTML", err)
	}
	p.doc = doc
	return nil
}

func (p *staticPage) Document() (*goquery.Document, error) {
	if p.doc == nil {
		return nil, errors.NewNavigation("", "document not loaded", nil)
	}
	return p.doc, nil
}

func (p *staticPage) Click(selector string, index int) (bool, error) {
	// Static HTML cannot be interacted with
	return false, nil
}

func (p *staticPage) Count(selector string) (int, error) {
	if p.doc == nil {
		return 0, nil
	}
	return p.doc.Find(selector).Length(), nil
}

func (p *staticPage) Captures() []Capture {
	return nil
}

func (p *staticPage) Close() error {
	return nil
}
