package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"hotelintel/pricewatcher/helpers"
)

// UnknownField marks a name or city that no tier could resolve.
const UnknownField = "Unknown"

// maxImages caps how many gallery images are kept per hotel.
const maxImages = 5

// Metadata is the best-effort identity extracted from one hotel page.
// Fields that every tier failed to produce stay at their zero value, except
// Name and City which fall back to UnknownField.
type Metadata struct {
	Name        string
	Address     string
	City        string
	StarRating  int
	UserRating  float64
	ReviewCount int
	Description string
	Amenities   []string
	Images      []string
}

var (
	floatPattern   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	intPattern     = regexp.MustCompile(`\d[\d,]*`)
	reviewPattern  = regexp.MustCompile(`(?i)(\d[\d,]*)\s*reviews?`)
	urlCityPattern = regexp.MustCompile(`/hotel/[a-z]{2}/([^/.?#]+)`)
	postalPattern  = regexp.MustCompile(`\b\d{4,6}\b`)
)

// ExtractMetadata runs the tiered extraction pipeline against a rendered
// document.
func ExtractMetadata(doc *goquery.Document, pageURL string) Metadata {
	meta := Metadata{
		Name:        UnknownField,
		City:        UnknownField,
		Address:     firstSelectorText(doc, addressSelectors),
		Description: firstSelectorText(doc, descriptionSelectors),
		StarRating:  extractStarRating(doc),
		Amenities:   extractAmenities(doc),
		Images:      extractImages(doc),
	}

	if name := runNameTiers(doc, nameTiers); name != "" {
		meta.Name = CleanHotelName(name)
	}

	if city := extractCity(pageURL, meta.Address); city != "" {
		meta.City = city
	}

	if text := firstSelectorText(doc, userRatingSelectors); text != "" {
		if match := floatPattern.FindString(text); match != "" {
			meta.UserRating, _ = strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
		}
	}

	if text := firstSelectorText(doc, reviewCountSelectors); text != "" {
		match := ""
		if m := reviewPattern.FindStringSubmatch(text); m != nil {
			match = m[1]
		} else {
			match = intPattern.FindString(text)
		}
		if match != "" {
			meta.ReviewCount, _ = strconv.Atoi(strings.ReplaceAll(match, ",", ""))
		}
	}

	return meta
}

// nameTier is one strategy for resolving the hotel name. Tiers run in order
// and later tiers are only tried when earlier ones produced nothing usable.
type nameTier func(doc *goquery.Document) string

var nameTiers = []nameTier{
	nameFromScripts,
	nameFromSelectors,
	nameFromHeadings,
}

func runNameTiers(doc *goquery.Document, tiers []nameTier) string {
	for _, tier := range tiers {
		if name := strings.TrimSpace(tier(doc)); len(name) > 3 {
			return name
		}
	}
	return ""
}

// nameFromScripts scans embedded script content for known bootstrap-JSON and
// structured-data patterns.
func nameFromScripts(doc *goquery.Document) string {
	var name string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		content := s.Text()
		for _, pattern := range scriptNamePatterns {
			if m := pattern.FindStringSubmatch(content); m != nil {
				candidate := strings.TrimSpace(m[1])
				if len(candidate) > 3 {
					name = candidate
					return false
				}
			}
		}
		return true
	})
	return name
}

func nameFromSelectors(doc *goquery.Document) string {
	return firstSelectorText(doc, nameSelectors)
}

// nameFromHeadings is the last resort: any heading whose text mentions a
// hotel-indicative keyword.
func nameFromHeadings(doc *goquery.Document) string {
	var name string
	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := helpers.CollapseWhitespace(s.Text())
		lower := strings.ToLower(text)
		for _, keyword := range hotelNameKeywords {
			if strings.Contains(lower, keyword) {
				name = text
				return false
			}
		}
		return true
	})
	return name
}

// CleanHotelName strips boilerplate fragments from an extracted name and
// collapses whitespace.
func CleanHotelName(name string) string {
	for _, pattern := range nameCleanupPatterns {
		name = pattern.ReplaceAllString(name, "")
	}
	return helpers.CollapseWhitespace(name)
}

// extractCity resolves the city from the canonical URL first, then from the
// last segment of the address.
func extractCity(pageURL, address string) string {
	if m := urlCityPattern.FindStringSubmatch(pageURL); m != nil {
		return helpers.CollapseWhitespace(strings.ReplaceAll(m[1], "-", " "))
	}
	if address != "" {
		parts := strings.Split(address, ",")
		last := parts[len(parts)-1]
		last = postalPattern.ReplaceAllString(last, "")
		if city := helpers.CollapseWhitespace(last); city != "" {
			return city
		}
	}
	return ""
}

// extractStarRating counts the star glyph spans in the rating widget.
func extractStarRating(doc *goquery.Document) int {
	for _, selector := range starRatingSelectors {
		if count := doc.Find(selector).Length(); count > 0 {
			return count
		}
	}
	return 0
}

func extractAmenities(doc *goquery.Document) []string {
	for _, selector := range amenitySelectors {
		var amenities []string
		seen := make(map[string]bool)
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := helpers.CollapseWhitespace(s.Text())
			if text != "" && !seen[text] {
				seen[text] = true
				amenities = append(amenities, text)
			}
		})
		if len(amenities) > 0 {
			return amenities
		}
	}
	return nil
}

func extractImages(doc *goquery.Document) []string {
	for _, selector := range imageSelectors {
		var images []string
		seen := make(map[string]bool)
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src, ok := s.Attr("src")
			if !ok || src == "" {
				src, _ = s.Attr("data-src")
			}
			if src != "" && !seen[src] {
				seen[src] = true
				images = append(images, src)
			}
			return len(images) < maxImages
		})
		if len(images) > 0 {
			return images
		}
	}
	return nil
}

// firstSelectorText returns the text of the first selector in the ranked
// list that matches a non-empty element.
func firstSelectorText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		if text := helpers.CollapseWhitespace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
