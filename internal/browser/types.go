package browser

import (
	"context"
	"encoding/json"

	"github.com/PuerkitoBio/goquery"
)

// Capture is a network response intercepted during a page visit. Body holds
// the raw payload, which is always valid JSON.
type Capture struct {
	URL    string
	Status int64
	Body   json.RawMessage
}

// Page is a single browsing session against one URL. Implementations that
// cannot interact with the page report that through Click and return no
// captures.
type Page interface {
	// Navigate loads the given URL and waits for the document to be ready.
	Navigate(url string) error

	// Document returns the current DOM serialized into a goquery document.
	Document() (*goquery.Document, error)

	// Click clicks the index-th element matching the selector. It returns
	// false when no such element exists or the backend cannot interact.
	Click(selector string, index int) (bool, error)

	// Count returns how many elements match the selector.
	Count(selector string) (int, error)

	// Captures returns the network responses intercepted so far whose URL
	// matched the capture pattern the page was opened with.
	Captures() []Capture

	// Close releases the page and its browser resources.
	Close() error
}

// Launcher opens pages. capturePattern is a substring matched against
// response URLs; matching JSON responses are collected into Captures.
type Launcher interface {
	NewPage(ctx context.Context, capturePattern string) (Page, error)
}
