// Package urlpath holds the string-level URL helpers used to map pages onto the
// local filesystem and to resolve references found in markup.
//
// Everything here is textual: no network access and no existence checks.
package urlpath

import (
	"errors"
	"net/url"
	"strings"
)

// ErrAboveRoot is returned by ResolveStrict when a reference has more ".."
// segments than its base has path components.
var ErrAboveRoot = errors.New("urlpath: reference climbs above the site root")

// Filename returns the part of rawURL after the last "/" and before the last
// "?". Fragments and percent-encoded characters are kept as they are.
func Filename(rawURL string) string {
	start := strings.LastIndex(rawURL, "/") + 1
	end := strings.LastIndex(rawURL, "?")
	if end < 0 {
		end = len(rawURL)
	}
	if end < start {
		return ""
	}
	return rawURL[start:end]
}

// Pathname returns the directory part of the URL path, without the filename
// and without a trailing slash: "http://abc.com/a/b/c.png" gives "/a/b".
func Pathname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := u.EscapedPath()
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}
	return p[:i]
}

// RootContext returns the directory URL that relative references on the page
// resolve against. A URL not ending in .htm or .html is treated as a
// directory itself.
func RootContext(rawURL string) string {
	if strings.HasSuffix(rawURL, ".htm") || strings.HasSuffix(rawURL, ".html") {
		return rawURL[:strings.LastIndex(rawURL, "/")+1]
	}
	if !strings.HasSuffix(rawURL, "/") {
		rawURL += "/"
	}
	return rawURL
}

// Normalize trims surrounding whitespace and drops the fragment. It returns ""
// for input that does not parse as a URL.
func Normalize(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		rawURL = rawURL[:i]
	}
	if rawURL == "" {
		return ""
	}
	if _, err := url.Parse(rawURL); err != nil {
		return ""
	}
	return rawURL
}

// Origin returns "scheme://host/" for an absolute URL, or "" when rawURL has
// no scheme.
func Origin(rawURL string) string {
	i := strings.Index(rawURL, "://")
	if i <= 0 {
		return ""
	}
	authority := i + len("://")
	j := strings.IndexAny(rawURL[authority:], "/?#")
	if j < 0 {
		return rawURL + "/"
	}
	return rawURL[:authority+j] + "/"
}

// Resolve turns ref into an absolute URL using base as the directory context.
// Surplus ".." segments stop at the origin of base.
func Resolve(base, ref string) string {
	resolved, _ := resolve(base, ref)
	return resolved
}

// ResolveStrict is Resolve, but reports ErrAboveRoot instead of silently
// stopping at the origin.
func ResolveStrict(base, ref string) (string, error) {
	resolved, err := resolve(base, ref)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func resolve(base, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	if HasScheme(ref) {
		return ref, nil
	}
	if strings.HasPrefix(ref, "//") {
		if i := strings.Index(base, "://"); i > 0 {
			return base[:i+1] + ref, nil
		}
		return ref, nil
	}

	floor := Origin(base)
	acc := base
	if strings.HasPrefix(ref, "/") && floor != "" {
		acc = floor
		ref = strings.TrimLeft(ref, "/")
	}
	if !strings.HasSuffix(acc, "/") {
		acc += "/"
	}

	var err error
	segments := strings.Split(ref, "/")
	for _, seg := range segments[:len(segments)-1] {
		switch seg {
		case ".":
		case "..":
			up := parent(acc)
			if len(up) < len(floor) {
				up = floor
				err = ErrAboveRoot
			}
			acc = up
		default:
			acc += seg + "/"
		}
	}
	return acc + Filename(ref), err
}

// parent pops one path component off a directory URL that ends in "/".
func parent(dir string) string {
	dir = strings.TrimSuffix(dir, "/")
	return dir[:strings.LastIndex(dir, "/")+1]
}

// HasScheme reports whether ref starts with a URL scheme such as "http:" or
// "mailto:".
func HasScheme(ref string) bool {
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' || c == '+' || c == '-' || c == '.':
			if i == 0 {
				return false
			}
		case c == ':':
			return i > 0
		default:
			return false
		}
	}
	return false
}
