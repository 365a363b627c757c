// Package scrape turns raw search hits from many sources into a ranked,
// de-duplicated and enriched list of resources.
package scrape

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
)

// trackingParams are dropped from every URL. Entries ending in "_" match by prefix.
var trackingParams = []string{"utm_", "fbclid", "gclid", "dclid", "msclkid", "mc_cid", "mc_eid", "ref_src", "igshid", "si"}

// Canonicalize normalizes a URL so the same page found through different
// sources maps to one key. It unwraps known redirectors, lowercases the
// scheme and host, drops default ports, fragments and tracking parameters,
// and sorts the remaining query.
func Canonicalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize %q: %w", raw, err)
	}
	if inner, ok := unwrapRedirect(u); ok {
		return Canonicalize(inner)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("canonicalize %q: unsupported scheme %q", raw, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("canonicalize %q: missing host", raw)
	}
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}

	if host == "youtu.be" {
		id := strings.Trim(u.Path, "/")
		q := u.Query()
		q.Set("v", id)
		u.Path = "/watch"
		u.RawQuery = q.Encode()
		host = "www.youtube.com"
	}
	if host == "youtube.com" || host == "m.youtube.com" {
		host = "www.youtube.com"
	}

	if port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else {
		u.Host = host
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	if u.Path == "" {
		u.Path = "/"
	}

	q := u.Query()
	for key := range q {
		if isTracking(key) {
			q.Del(key)
		}
	}
	u.RawQuery = encodeSorted(q)
	return u.String(), nil
}

func isTracking(key string) bool {
	k := strings.ToLower(key)
	for _, p := range trackingParams {
		if strings.HasSuffix(p, "_") {
			if strings.HasPrefix(k, p) {
				return true
			}
			continue
		}
		if k == p {
			return true
		}
	}
	return false
}

func encodeSorted(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// unwrapRedirect returns the target of a search-engine redirect link.
func unwrapRedirect(u *url.URL) (string, bool) {
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.HasSuffix(host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/"):
		if t := u.Query().Get("uddg"); t != "" {
			return t, true
		}
	case (host == "google.com" || strings.HasSuffix(host, ".google.com")) && u.Path == "/url":
		q := u.Query()
		if t := q.Get("q"); t != "" {
			return t, true
		}
		if t := q.Get("url"); t != "" {
			return t, true
		}
	}
	return "", false
}

// ResourceID derives the stable resource key from a canonical URL.
func ResourceID(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:16])
}
