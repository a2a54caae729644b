package site

import (
	"net/url"
	"regexp"
	"strings"
)

// sizeSegment matches the thumbnail size directory, e.g. /c/240x480 or /c/250x250_80_a2.
var sizeSegment = regexp.MustCompile(`/c/[^/]+`)

// RankingOriginal maps a ranking thumbnail URL to its full-size original.
func RankingOriginal(thumb, origin string) string {
	return rewrite(thumb, origin, func(p string) string {
		p = sizeSegment.ReplaceAllString(p, "")
		p = strings.Replace(p, "/img-master/", "/img-original/", 1)
		return strings.Replace(p, "_master1200", "", 1)
	})
}

// AuthorOriginal maps an author listing thumbnail URL to its full-size original.
func AuthorOriginal(thumb, origin string) string {
	return rewrite(thumb, origin, func(p string) string {
		p = sizeSegment.ReplaceAllString(p, "")
		p = strings.Replace(p, "/custom-thumb", "/img-original", 1)
		p = strings.Replace(p, "/img-master", "/img-original", 1)
		p = strings.Replace(p, "_square1200", "", 1)
		return strings.Replace(p, "_custom1200", "", 1)
	})
}

// rewrite swaps the host for origin and applies fn to the path. Unparseable
// input is returned unchanged so the download stage can report it.
func rewrite(raw, origin string, fn func(string) string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if o, err := url.Parse(origin); err == nil && o.Host != "" {
		u.Scheme = o.Scheme
		u.Host = o.Host
	}
	u.Path = fn(u.Path)
	u.RawPath = ""
	return u.String()
}
