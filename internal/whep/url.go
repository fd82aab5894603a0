package whep

import (
	"net/url"
	"strings"
)

// Schemes rewritten to plain http before any request is made.
var customSchemes = []string{"whep://", "whip://"}

// NormalizeURL maps a whep:// or whip:// URL onto http:// and passes http and
// https URLs through unchanged. The remainder after the scheme is preserved
// byte for byte. Any other scheme fails with KindInvalidArgument.
func NormalizeURL(raw string) (string, error) {
	return normalizeURL("normalize", raw)
}

func normalizeURL(op, raw string) (string, error) {
	for _, scheme := range customSchemes {
		if strings.HasPrefix(raw, scheme) {
			return "http://" + raw[len(scheme):], nil
		}
	}
	if strings.HasPrefix(raw, "http") {
		return strings.Clone(raw), nil
	}
	return "", newError(op, KindInvalidArgument, nil, "unsupported URL scheme in %q", raw)
}

// resolveLocator resolves a Location value against the endpoint it came from.
// Absolute locators are returned untouched.
func resolveLocator(endpoint, location string) (string, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return location, nil
	}
	base, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
