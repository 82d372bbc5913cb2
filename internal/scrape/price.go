package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

var currencySymbols = strings.NewReplacer(
	"€", "",
	"$", "",
	"£", "",
	"¥", "",
	"₩", "",
	",", "",
	" ", "",
	" ", "",
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePrice converts locale-formatted price text into a numeric value.
// Magnitude suffixes K and M scale by a thousand and a million. The boolean
// is false when no number could be extracted; malformed input never panics.
func ParsePrice(raw string) (float64, bool) {
	s := currencySymbols.Replace(raw)
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return 0, false
	}

	scale := 1.0
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		scale = 1_000
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		scale = 1_000_000
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return value * scale, true
}

// FirstPriceToken extracts the first price-like number from free text, e.g.
// "from € 129 per night" yields 129.
func FirstPriceToken(text string) (float64, bool) {
	match := numberPattern.FindString(strings.ReplaceAll(text, ",", ""))
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
