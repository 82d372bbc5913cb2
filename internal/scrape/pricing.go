package scrape

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hotelintel/pricewatcher/internal/browser"
	"hotelintel/pricewatcher/internal/store"
)

const defaultRoomCategory = "Standard"

// calendarDay is one per-day entry from the pricing endpoint. The endpoint
// serves several payload shapes; field names cover all of them.
type calendarDay struct {
	Checkin           string          `json:"checkin"`
	Date              string          `json:"date"`
	Available         *bool           `json:"available"`
	AvgPriceFormatted string          `json:"avgPriceFormatted"`
	Price             json.RawMessage `json:"price"`
	MinLengthOfStay   int             `json:"minLengthOfStay"`
	RoomCategory      string          `json:"roomCategory"`
}

type pricingPayload struct {
	Data struct {
		AvailabilityCalendar struct {
			Days []calendarDay `json:"days"`
		} `json:"availabilityCalendar"`
		Availability struct {
			Availability []calendarDay `json:"availability"`
		} `json:"availability"`
		Calendar []calendarDay `json:"calendar"`
	} `json:"data"`
	Calendar []calendarDay `json:"calendar"`
}

// days returns the per-day entries from the first payload shape that carries
// any, in the fixed fallback order.
func (p *pricingPayload) days() []calendarDay {
	if len(p.Data.AvailabilityCalendar.Days) > 0 {
		return p.Data.AvailabilityCalendar.Days
	}
	if len(p.Data.Availability.Availability) > 0 {
		return p.Data.Availability.Availability
	}
	if len(p.Data.Calendar) > 0 {
		return p.Data.Calendar
	}
	return p.Calendar
}

// ObservationsFromCaptures parses intercepted pricing payloads into price
// observations. Days explicitly marked unavailable are skipped; days whose
// price does not normalize to a positive number are dropped individually.
func ObservationsFromCaptures(captures []browser.Capture, currency string) []store.Observation {
	var observations []store.Observation
	for _, capture := range captures {
		var payload pricingPayload
		if err := json.Unmarshal(capture.Body, &payload); err != nil {
			continue
		}
		for _, day := range payload.days() {
			if day.Available != nil && !*day.Available {
				continue
			}
			date := day.Checkin
			if date == "" {
				date = day.Date
			}
			if date == "" {
				continue
			}
			price, ok := ParsePrice(day.priceText())
			if !ok || price <= 0 {
				continue
			}
			category := day.RoomCategory
			if category == "" {
				category = defaultRoomCategory
			}
			observations = append(observations, store.Observation{
				Date:         date,
				Price:        price,
				Currency:     currency,
				Available:    true,
				RoomCategory: category,
				MinStay:      day.MinLengthOfStay,
				Source:       store.SourceCalendar,
			})
		}
	}
	return observations
}

func (d *calendarDay) priceText() string {
	if d.AvgPriceFormatted != "" {
		return d.AvgPriceFormatted
	}
	if len(d.Price) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(d.Price, &asString); err == nil {
		return asString
	}
	var asNumber float64
	if err := json.Unmarshal(d.Price, &asNumber); err == nil {
		return fmt.Sprintf("%g", asNumber)
	}
	return ""
}

// ObservationsFromDocument is the low-confidence fallback used when nothing
// was captured: visible price-like text, dated today, tagged as page-sourced.
func ObservationsFromDocument(doc *goquery.Document, currency string) []store.Observation {
	today := time.Now().Format("2006-01-02")
	for _, selector := range priceSelectors {
		var observations []store.Observation
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			price, ok := FirstPriceToken(s.Text())
			if !ok || price <= 0 {
				return
			}
			observations = append(observations, store.Observation{
				Date:         today,
				Price:        price,
				Currency:     currency,
				Available:    true,
				RoomCategory: defaultRoomCategory,
				Source:       store.SourcePage,
			})
		})
		if len(observations) > 0 {
			return observations
		}
	}
	return nil
}

// DedupeObservations collapses candidates with identical (date, price)
// within one visit, keeping the first occurrence.
func DedupeObservations(observations []store.Observation) []store.Observation {
	type key struct {
		date  string
		price float64
	}
	seen := make(map[key]bool, len(observations))
	out := observations[:0]
	for _, obs := range observations {
		k := key{obs.Date, obs.Price}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, obs)
	}
	return out
}
