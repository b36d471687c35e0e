// Package localfs loads documents from the local filesystem, for CLI runs
// against file:// locations.
package localfs

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Client loads documents from local paths.
type Client struct{}

// NewClient creates a local filesystem loader.
func NewClient() *Client {
	return &Client{}
}

// Load reads the file named by location. Both file:///path and bare /path
// forms are accepted.
func (c *Client) Load(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(location, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
