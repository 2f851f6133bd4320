package tune

import (
	"strings"
)

// ClassifyURL infers the Format of a tune URL from its scheme/extension,
// per the fixed lookup table: manifest extension wins over everything
// else, then the handful of special non-core schemes, then the
// progressive-file extensions, falling through to Unknown.
func ClassifyURL(rawURL string) Format {
	lower := strings.ToLower(rawURL)

	switch {
	case strings.Contains(lower, ".mpd"):
		return FormatDASH
	case strings.Contains(lower, ".m3u8"):
		return FormatHLS
	case strings.Contains(lower, "recordedurl=") && strings.Contains(lower, ".mpd"):
		return FormatDASH
	case strings.Contains(lower, "recordedurl=") && strings.Contains(lower, ".m3u8"):
		return FormatHLS
	}

	for _, scheme := range []string{"hdmiin:", "cvbsin:", "live:", "tune:", "mr:"} {
		if strings.HasPrefix(lower, scheme) {
			return FormatExternalSource
		}
	}

	if strings.HasPrefix(lower, "ocap://") {
		return FormatRMF
	}

	for _, ext := range []string{".mp4", ".mkv", ".ts"} {
		if strings.HasSuffix(stripQuery(lower), ext) {
			return FormatProgressive
		}
	}
	if strings.HasPrefix(lower, "srt:") {
		return FormatProgressive
	}

	return FormatUnknown
}

func stripQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
