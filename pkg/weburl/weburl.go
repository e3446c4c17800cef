// Package weburl detects URL-like search input and normalizes it into an
// absolute URL that can be handed to a browser.
package weburl

import (
	"net"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/publicsuffix"
)

// Match is a successful validation.
type Match struct {
	// URL is absolute and always carries an http or https scheme.
	URL string
	// Display is the user's input, trimmed but otherwise untouched.
	Display string
}

var (
	// webURL is the general grammar: optional scheme and userinfo, a dotted
	// host, optional port, then anything that starts a path, query or fragment.
	webURL = regexp.MustCompile(`(?i)^(?:(https?)://)?(?:[^\s/?#@:]+(?::[^\s/?#@]*)?@)?([a-z0-9\p{L}](?:[a-z0-9\p{L}.-]*[a-z0-9\p{L}])?)(?::(\d{1,5}))?(?:[/?#]\S*)?$`)

	// permissive accepts any domain-looking token with an alphabetic top-level label.
	permissive = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*\.[A-Za-z]{2,}(/.*)?$`)

	hostLabel = regexp.MustCompile(`(?i)^[a-z0-9\p{L}](?:[a-z0-9\p{L}-]{0,61}[a-z0-9\p{L}])?$`)
)

// Validate reports whether raw looks like a URL.
//
// Input with any whitespace is never a URL. Explicit http/https schemes and
// "www." inputs are checked against the general grammar first, then bare input
// like "example.com/path" is. Hosts must end in a recognised top-level domain
// or be an IPv4 address. When the grammar rejects the input a permissive
// domain pattern is tried so newly delegated TLDs still work.
func Validate(raw string) (Match, bool) {
	input := strings.TrimSpace(raw)
	if input == "" || strings.IndexFunc(input, unicode.IsSpace) >= 0 {
		return Match{}, false
	}

	scheme, rest := splitScheme(input)
	candidate := input
	if scheme == "" {
		candidate = "https://" + input
	} else {
		candidate = scheme + "://" + rest
	}

	if matchesGrammar(candidate) {
		return Match{URL: candidate, Display: input}, true
	}

	if permissive.MatchString(rest) {
		return Match{URL: candidate, Display: input}, true
	}

	return Match{}, false
}

// splitScheme separates a leading http:// or https:// (any case) from the input.
// The returned scheme is lowercased; it is empty when there is none.
func splitScheme(input string) (string, string) {
	for _, s := range []string{"https", "http"} {
		prefix := s + "://"
		if len(input) >= len(prefix) && strings.EqualFold(input[:len(prefix)], prefix) {
			return s, input[len(prefix):]
		}
	}
	return "", input
}

func matchesGrammar(u string) bool {
	m := webURL.FindStringSubmatch(u)
	if m == nil {
		return false
	}
	host := strings.ToLower(m[2])
	if port := m[3]; port != "" && !validPort(port) {
		return false
	}
	return validHost(host)
}

func validPort(p string) bool {
	n := 0
	for _, r := range p {
		n = n*10 + int(r-'0')
	}
	return n > 0 && n <= 65535
}

func validHost(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.To4() != nil && strings.Count(host, ".") == 3
	}
	if !strings.Contains(host, ".") || strings.Contains(host, "..") {
		return false
	}
	labels := strings.Split(host, ".")
	for _, l := range labels {
		if !hostLabel.MatchString(l) {
			return false
		}
	}
	tld := labels[len(labels)-1]
	if strings.IndexFunc(tld, unicode.IsDigit) >= 0 {
		return false
	}
	return KnownTLD(tld)
}

// KnownTLD reports whether tld is an ICANN-managed top-level domain.
func KnownTLD(tld string) bool {
	tld = strings.ToLower(strings.TrimPrefix(tld, "."))
	if tld == "" || strings.Contains(tld, ".") {
		return false
	}
	suffix, icann := publicsuffix.PublicSuffix(tld)
	return icann && suffix == tld
}
