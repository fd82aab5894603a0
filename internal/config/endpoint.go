package config

import (
	"fmt"
	"net/url"

	"github.com/RenatoCabral2022/whipwhep/internal/whep"
)

const maxURLLength = 2048

// ValidateEndpoint checks a user-supplied endpoint URL before any engine
// work starts:
//   - max length 2048 characters
//   - scheme must be whep, whip, http or https
//   - no embedded credentials (user:pass@host); use a bearer token
//   - hostname must be present
func ValidateEndpoint(rawURL string) error {
	if len(rawURL) > maxURLLength {
		return fmt.Errorf("URL too long (%d chars, max %d)", len(rawURL), maxURLLength)
	}

	normalized, err := whep.NormalizeURL(rawURL)
	if err != nil {
		return err
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.User != nil {
		return fmt.Errorf("URLs with embedded credentials are not allowed")
	}
	if u.Hostname() == "" {
		return fmt.Errorf("URL has no hostname")
	}
	return nil
}
