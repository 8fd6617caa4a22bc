package fsx

import (
	"fmt"
	"path/filepath"

	"github.com/OneOfOne/xxhash"
)

// BannerCacheFilename returns a stable filename for a downloaded event
// banner. The hash keeps distinct source URLs for the same event from
// colliding.
func BannerCacheFilename(eventID, bannerURL string) string {
	h := xxhash.ChecksumString64(eventID + "|" + bannerURL)
	return fmt.Sprintf("banner-%s-%016x.png", eventID, h)
}

// BannerCachePath joins the cache directory and the banner filename.
func BannerCachePath(cacheDir, eventID, bannerURL string) string {
	return filepath.Join(cacheDir, BannerCacheFilename(eventID, bannerURL))
}
