package httpsrc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// maxDocumentBytes caps how much of a remote document is read; anything
// larger is unreasonable for a claim bill.
const maxDocumentBytes = 50 << 20

// Client loads document bytes from plain https:// locations. It implements
// port.DocumentLoader.
type Client struct {
	http *http.Client
}

// NewClient creates an HTTPS document loader.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Load downloads the document behind an https:// location.
func (c *Client) Load(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "https://") {
		return nil, fmt.Errorf("%q: %w", location, domain.ErrUnsupportedLocation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", location, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", location, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}
	if len(data) > maxDocumentBytes {
		return nil, fmt.Errorf("document %s exceeds %d bytes", location, maxDocumentBytes)
	}
	return data, nil
}
