package utils

import (
	"net/url"
	"path"
	"strings"
)

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}

// ReplaceExt swaps the extension of the path component of rawURL for ext
// (given with its leading dot). A URL without an extension gets ext appended.
func ReplaceExt(rawURL, ext string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL
	}
	old := path.Ext(u.Path)
	u.Path = strings.TrimSuffix(u.Path, old) + ext
	u.RawPath = ""
	return u.String()
}
