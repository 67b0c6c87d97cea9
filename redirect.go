package unfurl

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// normalizationFlags are the purell flags applied to every URL placed in a
// preview page.
//
// See https://godoc.org/github.com/PuerkitoBio/purell#NormalizationFlags
var normalizationFlags = (purell.FlagsSafe |
	purell.FlagRemoveDotSegments |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagRemoveUnnecessaryHostDots |
	purell.FlagRemoveEmptyPortSeparator)

// expandTemplate fills the {id} placeholder of a URL template.
func expandTemplate(tmpl, id string) string {
	return strings.ReplaceAll(tmpl, "{id}", url.PathEscape(id))
}

// absoluteURL resolves raw against base and returns a normalized, absolute
// http(s) URL that is safe to interpolate into the page.
func absoluteURL(raw, base string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}

	u = baseURL.ResolveReference(u)
	if !u.IsAbs() || u.Host == "" || !(u.Scheme == "http" || u.Scheme == "https") {
		return "", fmt.Errorf("not an absolute http url: %q", u.String())
	}
	return unsafeURLChars.Replace(purell.NormalizeURL(u, normalizationFlags)), nil
}

// redirectURL picks the first usable URL among candidates, falling back to
// fallback, which must itself be absolute.
func redirectURL(fallback string, candidates ...string) (string, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if u, err := absoluteURL(c, fallback); err == nil {
			return u, nil
		}
	}
	return absoluteURL(fallback, fallback)
}
