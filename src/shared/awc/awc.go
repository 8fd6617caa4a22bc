// Package awc talks to the NOAA Aviation Weather Center data API for METAR
// reports.
package awc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DataURL = "https://aviationweather.gov/api/data/metar"

// ErrNoReport is returned when the API answers but has no METAR for the
// requested station.
var ErrNoReport = errors.New("awc: no report available")

// Cloud is one cloud layer of a report.
type Cloud struct {
	Cover string      `json:"cover"`
	Base  interface{} `json:"base"`
}

// Metar is the subset of an AWC METAR record the bot renders. Several
// numeric fields arrive as numbers or as annotated strings ("VRB", "10+"),
// so they stay loosely typed and are normalized at render time.
type Metar struct {
	RawOb      string      `json:"rawOb"`
	ReportTime string      `json:"reportTime"`
	Temp       interface{} `json:"temp"`
	Dewp       interface{} `json:"dewp"`
	Altim      interface{} `json:"altim"`
	Wdir       interface{} `json:"wdir"`
	Wspd       interface{} `json:"wspd"`
	Gust       interface{} `json:"gust"`
	Visib      interface{} `json:"visib"`
	Cover      string      `json:"cover"`
	WxString   string      `json:"wxString"`
	FltCat     string      `json:"fltCat"`
	Clouds     []Cloud     `json:"clouds"`
}

// Client fetches METAR reports.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL: DataURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithURL is used by tests to point the client at a local server.
func NewClientWithURL(url string) *Client {
	c := NewClient()
	c.baseURL = url
	return c
}

// Metar returns the most recent report for an ICAO station code.
func (c *Client) Metar(ctx context.Context, icao string) (*Metar, error) {
	q := url.Values{}
	q.Set("ids", strings.ToUpper(strings.TrimSpace(icao)))
	q.Set("format", "json")
	q.Set("taf", "false")
	q.Set("hours", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("awc: metar request returned status %d", resp.StatusCode)
	}

	var reports []Metar
	if err := json.NewDecoder(resp.Body).Decode(&reports); err != nil {
		return nil, fmt.Errorf("awc: decode metar response: %w", err)
	}
	if len(reports) == 0 {
		return nil, ErrNoReport
	}
	return &reports[0], nil
}

// HpaToInHg converts a QNH pressure in hectopascals to inches of mercury,
// rounded to two decimals.
func HpaToInHg(hpa float64) float64 {
	const inhgPerHpa = 0.029529983071445
	return math.Round(hpa*inhgPerHpa*100) / 100
}

// CategoryColor maps a flight category to its embed color. Unknown and
// missing categories render grey.
func CategoryColor(category string) int {
	switch strings.ToUpper(strings.TrimSpace(category)) {
	case "VFR":
		return 0x2ECC71
	case "MVFR":
		return 0x3498DB
	case "IFR":
		return 0xE74C3C
	case "LIFR":
		return 0xEB459E
	default:
		return 0x607D8B
	}
}
