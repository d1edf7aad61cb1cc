package fetcher

import (
	"math/rand/v2"
	"net/http"
	"time"
)

// browserUserAgents is the rotation of desktop browser identifications sent with page requests.
var browserUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

var searchReferers = []string{
	"https://www.google.com/",
	"https://www.bing.com/",
	"https://www.yahoo.com/",
	"https://duckduckgo.com/",
}

// browserHeaders are sent on every page request in addition to User-Agent and Referer.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "cross-site",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
}

// BrowserUserAgents returns the User-Agent rotation.
func BrowserUserAgents() []string {
	return append([]string(nil), browserUserAgents...)
}

// SearchReferers returns the referrer choices.
func SearchReferers() []string {
	return append([]string(nil), searchReferers...)
}

// applyIdentity sets a randomly chosen browser identity on h.
func applyIdentity(h *http.Header) {
	for k, v := range browserHeaders {
		h.Set(k, v)
	}
	h.Set("User-Agent", browserUserAgents[rand.IntN(len(browserUserAgents))])
	h.Set("Referer", searchReferers[rand.IntN(len(searchReferers))])
}

// randomDelay draws a duration uniformly from [lo, hi].
func randomDelay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}
