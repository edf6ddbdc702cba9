package security

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// BaseURLPolicy controls which API base URLs the completion client accepts.
type BaseURLPolicy struct {
	// AllowInsecure permits plain http and hosts on the local network, for
	// proxies and test servers.
	AllowInsecure bool
}

// ValidateBaseURL rejects base URLs the API key should not be sent to.
// IP literals are checked without DNS lookups.
func ValidateBaseURL(rawURL string, policy BaseURLPolicy) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, "invalid base URL")
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !policy.AllowInsecure {
			return errors.Errorf("base URL %q uses plain http", rawURL)
		}
	default:
		return errors.Errorf("base URL %q has unsupported scheme %q", rawURL, parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return errors.Errorf("base URL %q has no host", rawURL)
	}
	if policy.AllowInsecure {
		return nil
	}

	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return errors.Errorf("base URL %q points to a local host", rawURL)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		addr = addr.Unmap()
		switch {
		case addr.Zone() != "",
			addr.IsUnspecified(),
			addr.IsMulticast(),
			addr.IsLoopback(),
			addr.IsPrivate(),
			addr.IsLinkLocalUnicast(),
			addr.IsLinkLocalMulticast():
			return errors.Errorf("base URL %q points to a local or reserved address", rawURL)
		}
	}

	return nil
}
