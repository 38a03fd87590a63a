// Package classifier maps what is playing on a page to a content-type label.
//
// Signals are checked from most to least reliable: a live stream is
// recognised by its infinite duration, portrait media by its aspect ratio,
// and only then is the duration consulted, since some short-form platforms
// report inflated durations.
package classifier

import (
	"math"
	"net/url"
	"strings"
)

const (
	LiveStream    = "Live Stream"
	YouTubeShorts = "YouTube Shorts"
	Reels         = "Reels"
	TikTok        = "TikTok"
	ShortVideo    = "Short Video"
	LongForm      = "Long Form"

	BackgroundSuffix = " (Background)"

	portraitRatio   = 0.9
	shortFormLength = 90.0
)

type Visibility string

const (
	Visible Visibility = "visible"
	Hidden  Visibility = "hidden"
)

// MediaInfo describes the element that is playing. Duration is +Inf for live
// streams and NaN while metadata is not loaded yet.
type MediaInfo struct {
	Duration float64
	Width    int
	Height   int
	PageURL  string
}

func Classify(media *MediaInfo, visibility Visibility) string {
	label := classify(media)
	if visibility == Hidden {
		label += BackgroundSuffix
	}
	return label
}

func classify(media *MediaInfo) string {
	if media == nil {
		return LongForm
	}
	if math.IsInf(media.Duration, 1) {
		return LiveStream
	}
	if media.Width > 0 && media.Height > 0 && float64(media.Width)/float64(media.Height) < portraitRatio {
		return shortForm(media.PageURL)
	}
	if !math.IsNaN(media.Duration) && !math.IsInf(media.Duration, 0) && media.Duration < shortFormLength {
		return shortForm(media.PageURL)
	}
	return LongForm
}

func shortForm(pageURL string) string {
	switch {
	case strings.Contains(pageURL, "/shorts/"):
		return YouTubeShorts
	case strings.Contains(pageURL, "/reels/"), strings.Contains(pageURL, "/reel/"):
		return Reels
	case isTikTok(pageURL):
		return TikTok
	}
	return ShortVideo
}

func isTikTok(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "tiktok.com" || strings.HasSuffix(host, ".tiktok.com")
}

// IsBackground reports whether a label was produced for a hidden page.
func IsBackground(label string) bool {
	return strings.HasSuffix(label, BackgroundSuffix)
}
