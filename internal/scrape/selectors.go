package scrape

import "regexp"

// The target site's markup changes frequently. Every lookup the pipeline does
// is driven by the ordered lists below, so updating a selector never touches
// pipeline logic. Order matters: earlier entries are higher confidence.

// scriptNamePatterns match the hotel name inside the page's bootstrap JSON
// and embedded structured data.
var scriptNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"b_hotel_name":\s*'([^']+)'`),
	regexp.MustCompile(`"b_hotel_name":\s*"([^"]+)"`),
	regexp.MustCompile(`b_hotel_name_en_with_translation:\s*'([^']+)'`),
	regexp.MustCompile(`"hotel_name":\s*"([^"]+)"`),
	regexp.MustCompile(`"propertyName":\s*"([^"]+)"`),
	regexp.MustCompile(`"name":\s*"([^"]+)"[^{}]*"@type":\s*"Hotel"`),
	regexp.MustCompile(`"@type":\s*"Hotel"[^{}]*"name":\s*"([^"]+)"`),
}

var nameSelectors = []string{
	`h2[data-testid="title"]`,
	`h2.pp-header__title`,
	`#hp_hotel_name`,
	`h1`,
	`h2`,
}

var addressSelectors = []string{
	`[data-testid="address"]`,
	`.hp_address_subtitle`,
	`span.hp_address_subtitle`,
	`[data-node_tt_id="location_score_tooltip"]`,
}

var userRatingSelectors = []string{
	`[data-testid="review-score-right-component"]`,
	`[data-testid="review-score-component"]`,
	`.review-score-badge`,
	`.bui-review-score__badge`,
}

var reviewCountSelectors = []string{
	`[data-testid="review-score-right-component"]`,
	`.bui-review-score__text`,
	`.review-score-widget__subtext`,
}

var descriptionSelectors = []string{
	`[data-testid="property-description"]`,
	`#property_description_content`,
	`.hp__hotel-description`,
}

var amenitySelectors = []string{
	`[data-testid="property-most-popular-facilities-wrapper"] li`,
	`.hotel-facilities-group .bui-list__description`,
	`.hp_desc_important_facilities .important_facility`,
}

var imageSelectors = []string{
	`[data-testid="property-gallery"] img`,
	`#photo_wrapper img`,
	`.bh-photo-grid img`,
}

var starRatingSelectors = []string{
	`div[data-testid="rating-stars"] > span`,
	`span[data-testid="rating-stars"] > span`,
	`.bui-rating--smaller > span`,
}

// dateControlSelectors locate the date-picker control that provokes the
// pricing-calendar network call when clicked.
var dateControlSelectors = []string{
	`[data-testid="searchbox-dates-container"]`,
	`[data-testid="date-display-field-start"]`,
	`.xp__dates-inner`,
}

// priceSelectors feed the low-confidence DOM fallback when no calendar
// payload was captured.
var priceSelectors = []string{
	`[data-testid="price-and-discounted-price"]`,
	`.prco-valign-middle-helper`,
	`.bui-price-display__value`,
	`.prc-no-css`,
	`span.price`,
}

// nameCleanupPatterns strip boilerplate fragments from an extracted name:
// parenthetical marketing text, embedded date ranges, star glyphs and
// trailing site suffixes.
var nameCleanupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s*\([^)]*\)`),
	regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{1,2}\s*[-–]\s*(?:[a-z]+\s+)?\d{1,2}\b`),
	regexp.MustCompile(`[★☆]+`),
	regexp.MustCompile(`(?i)\s*[-–—|]\s*(?:booking\.com|updated prices|deals?|official site).*$`),
	regexp.MustCompile(`(?i),\s*(?:germany|deutschland|france|spain|italy|austria|netherlands)\s*$`),
}

// hotelNameKeywords drive the last-resort heading scan.
var hotelNameKeywords = []string{"hotel", "hostel", "inn"}
