package scrape

import (
	"context"
	"time"

	"hotelintel/pricewatcher/config"
	"hotelintel/pricewatcher/internal/browser"
	"hotelintel/pricewatcher/internal/store"
	"hotelintel/pricewatcher/logger"
	"hotelintel/pricewatcher/pkg/errors"
)

// VisitState tracks how far a hotel visit progressed.
type VisitState string

const (
	StateIdle              VisitState = "idle"
	StateNavigating        VisitState = "navigating"
	StateDetailsExtracted  VisitState = "details_extracted"
	StateCalendarTriggered VisitState = "calendar_triggered"
	StateCaptured          VisitState = "captured"
	StateDone              VisitState = "done"
	StateFailed            VisitState = "failed"
)

// Visit is the outcome of one end-to-end hotel page visit.
type Visit struct {
	URL          string
	State        VisitState
	Metadata     Metadata
	Observations []store.Observation
}

// Navigator drives one hotel visit at a time: open the page, extract
// metadata, provoke the pricing-calendar call, wait for captures, extract
// pricing. The page session is exclusively owned by the visit and always
// released, whatever state it ended in.
type Navigator struct {
	launcher   browser.Launcher
	endpoint   string
	settleWait time.Duration
	currency   string
}

// NewNavigator creates a navigator over the given browser backend.
func NewNavigator(launcher browser.Launcher, cfg config.Config) *Navigator {
	return &Navigator{
		launcher:   launcher,
		endpoint:   cfg.PricingEndpoint,
		settleWait: cfg.SettleWait,
		currency:   cfg.DefaultCurrency,
	}
}

// Visit runs the state machine for one hotel URL.
func (n *Navigator) Visit(ctx context.Context, url string) (*Visit, error) {
	log := logger.ForVisit(url)
	visit := &Visit{URL: url, State: StateIdle}

	page, err := n.launcher.NewPage(ctx, n.endpoint)
	if err != nil {
		visit.State = StateFailed
		return visit, err
	}
	defer page.Close()

	visit.State = StateNavigating
	if err := page.Navigate(url); err != nil {
		visit.State = StateFailed
		return visit, err
	}

	doc, err := page.Document()
	if err != nil {
		visit.State = StateFailed
		return visit, errors.NewNavigation(url, "failed to read document", err)
	}
	visit.Metadata = ExtractMetadata(doc, url)
	visit.State = StateDetailsExtracted
	log.Debug().Str("name", visit.Metadata.Name).Msg("Metadata extracted")

	clicked := n.triggerCalendar(page, log)
	visit.State = StateCalendarTriggered
	if !clicked {
		log.Debug().Msg("No date control found, capture degraded")
	}

	// Let the interaction's network calls land
	if err := sleepCtx(ctx, n.settleWait); err != nil {
		visit.State = StateFailed
		return visit, errors.NewNavigation(url, "visit cancelled", err)
	}

	visit.State = StateCaptured
	observations := ObservationsFromCaptures(page.Captures(), n.currency)
	if len(observations) == 0 {
		// Fall back to visible price text on the settled page
		if settled, err := page.Document(); err == nil {
			doc = settled
		}
		observations = ObservationsFromDocument(doc, n.currency)
	}
	visit.Observations = DedupeObservations(observations)

	visit.State = StateDone
	log.Info().
		Int("observations", len(visit.Observations)).
		Msg("Visit complete")
	return visit, nil
}

// triggerCalendar clicks the date-selection control. When the selector
// matches several controls the second one is preferred; on this site's
// layout the first occurrence is a decorative duplicate.
func (n *Navigator) triggerCalendar(page browser.Page, log *logger.Logger) bool {
	for _, selector := range dateControlSelectors {
		count, err := page.Count(selector)
		if err != nil || count == 0 {
			continue
		}
		index := 0
		if count > 1 {
			index = 1
		}
		clicked, err := page.Click(selector, index)
		if err != nil {
			log.Debug().Err(err).Str("selector", selector).Msg("Click failed")
			continue
		}
		if clicked {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
