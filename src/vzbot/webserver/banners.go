package webserver

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vzdc-artcc/discord-bot/src/shared/fsx"
)

var bannerClient = &http.Client{Timeout: 30 * time.Second}

// resolveImageURL resolves banner paths sent as bare paths against the
// configured image base URL. Absolute URLs pass through unchanged.
func (h *Handlers) resolveImageURL(raw string) string {
	if raw == "" || h.ImageBase == "" || strings.Contains(raw, "://") {
		return raw
	}
	return strings.TrimRight(h.ImageBase, "/") + "/" + strings.TrimLeft(raw, "/")
}

// fetchBanner downloads an event banner into the on-disk cache and returns
// the cached path. A previously downloaded banner for the same event and URL
// is reused without refetching.
func (h *Handlers) fetchBanner(eventID, bannerURL string) (string, error) {
	if h.BannerDir == "" || bannerURL == "" {
		return "", fmt.Errorf("no banner to fetch")
	}
	path := fsx.BannerCachePath(h.BannerDir, eventID, bannerURL)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	resp, err := bannerClient.Get(bannerURL)
	if err != nil {
		return "", fmt.Errorf("failed to download banner %s: %w", bannerURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("banner download returned status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(h.BannerDir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(h.BannerDir, ".tmp_banner_")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}
