package client

import (
	"regexp"
	"strings"
)

// linkEntry matches one Link header entry: <https://...>; rel="next"
var linkEntry = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="([^"]+)"`)

// parseLinkHeader parses a GitHub Link header into a rel -> url mapping.
//
//	<https://api.github.com/...page=2>; rel="next", <...>; rel="last"
func parseLinkHeader(link string) map[string]string {
	out := map[string]string{}
	if link == "" {
		return out
	}
	for _, part := range strings.Split(link, ",") {
		if m := linkEntry.FindStringSubmatch(strings.TrimSpace(part)); m != nil {
			out[m[2]] = m[1]
		}
	}
	return out
}

// nextPageURL returns the rel="next" URL from a Link header, or "".
func nextPageURL(link string) string {
	return parseLinkHeader(link)["next"]
}

// lastPageURL returns the rel="last" URL from a Link header, or "".
func lastPageURL(link string) string {
	return parseLinkHeader(link)["last"]
}
