package annotation

import (
	"net/url"
	"strings"
)

// PathKey normalizes a page address to its path: no query, fragment or
// trailing slash. The root path is "/".
func PathKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return trimPath(stripSuffixes(rawURL))
	}
	return trimPath(u.EscapedPath())
}

// URLKey normalizes a page address to the full URL without scheme,
// fragment or the path's trailing slash. The query is kept.
func URLKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		s := rawURL
		if i := strings.IndexByte(s, '#'); i != -1 {
			s = s[:i]
		}
		if i := strings.Index(s, "://"); i != -1 {
			s = s[i+3:]
		}
		path, query, _ := strings.Cut(s, "?")
		return withQuery(strings.TrimRight(path, "/"), query)
	}
	return withQuery(u.Host+strings.TrimRight(u.EscapedPath(), "/"), u.RawQuery)
}

func withQuery(s, query string) string {
	if query == "" {
		return s
	}
	return s + "?" + query
}

func stripSuffixes(s string) string {
	if i := strings.IndexAny(s, "?#"); i != -1 {
		s = s[:i]
	}
	return s
}

func trimPath(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
