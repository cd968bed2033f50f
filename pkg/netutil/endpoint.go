// Package netutil validates network endpoints taken from configuration.
package netutil

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

const (
	maxDomainNameSize = 253
)

var (
	// HTTPSchemes are the schemes accepted for JSON-RPC endpoints
	HTTPSchemes = []string{"http", "https"}

	// WebsocketSchemes are the schemes accepted for pubsub endpoints
	WebsocketSchemes = []string{"ws", "wss"}
)

// ValidateEndpoint checks that value is an absolute URL using one of schemes,
// with a host that's an IP address or a valid domain name and an optional
// numeric port.
func ValidateEndpoint(value string, schemes ...string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return errors.Wrap(err, "invalid url")
	}

	scheme := strings.ToLower(parsed.Scheme)
	allowed := false
	for _, s := range schemes {
		if scheme == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.Errorf("url scheme must be one of %s", strings.Join(schemes, ", "))
	}

	if len(parsed.Host) == 0 {
		return errors.New("host component missing")
	}

	if port := parsed.Port(); port != "" {
		if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
			return errors.Errorf("invalid port %q", port)
		}
	}

	return validateHost(parsed.Hostname())
}

// validateHost accepts IP addresses and registrable domain names, including
// internationalized ones.
func validateHost(hostname string) error {
	if net.ParseIP(hostname) != nil {
		return nil
	}

	switch {
	case len(hostname) == 0:
		return errors.New("host is empty")
	case len(hostname) > maxDomainNameSize:
		return errors.New("host length exceeds domain name limit")
	}

	if _, err := idna.Registration.ToASCII(hostname); err != nil {
		return errors.Wrap(err, "host is not a valid domain name")
	}
	return nil
}
