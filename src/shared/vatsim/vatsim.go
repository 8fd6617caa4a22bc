// Package vatsim talks to the public VATSIM datafeed and the VATUSA API.
package vatsim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DatafeedURL = "https://data.vatsim.net/v3/vatsim-data.json"

// Controller is one online position from the datafeed.
type Controller struct {
	CID       int    `json:"cid"`
	Name      string `json:"name"`
	Callsign  string `json:"callsign"`
	Frequency string `json:"frequency"`
	Rating    int    `json:"rating"`
	LogonTime string `json:"logon_time"`
}

// Datafeed is the subset of the v3 feed this bot reads.
type Datafeed struct {
	Controllers []Controller `json:"controllers"`
}

// Client fetches the datafeed.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL: DatafeedURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithURL is used by tests to point the client at a local server.
func NewClientWithURL(url string) *Client {
	c := NewClient()
	c.baseURL = url
	return c
}

func (c *Client) Fetch(ctx context.Context) (*Datafeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vatsim datafeed returned status %d", resp.StatusCode)
	}

	var feed Datafeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode vatsim datafeed: %w", err)
	}
	return &feed, nil
}

// ParseLogonTime parses the datafeed's logon timestamps, which carry
// nanosecond fractions Go's RFC3339 parser handles but whose fractional part
// can exceed six digits. The fraction is truncated to microseconds and the
// value is treated as UTC, matching the feed.
func ParseLogonTime(s string) (time.Time, error) {
	trimmed := strings.TrimSuffix(s, "Z")
	main, frac, hasFrac := strings.Cut(trimmed, ".")
	if hasFrac {
		if len(frac) > 6 {
			frac = frac[:6]
		}
		trimmed = main + "." + frac
	} else {
		trimmed = main
	}
	return time.Parse("2006-01-02T15:04:05.999999Z07:00", trimmed+"+00:00")
}
