// Package config resolves asnlook settings from flags, environment variables
// (ASNLOOK_*), the YAML config file and built-in defaults, in that order.
package config

import "time"

// Dataset locations used when none are configured.
const (
	DefaultRegistryURL = "https://ftp.ripe.net/ripe/asnames/asn.txt"
	DefaultIPv4URL     = "https://thyme.apnic.net/current/data-raw-table"
	DefaultIPv6URL     = "https://thyme.apnic.net/current/ipv6-raw-table"
)

// Config is the fully resolved configuration.
type Config struct {
	// ConfigFile is the path the settings were read from.
	ConfigFile string

	Verbose     bool
	Output      string
	Proxy       string
	UserAgent   string
	Concurrency int

	RegistryURL string
	IPv4URL     string
	IPv6URL     string

	// IPv4Delimiter and IPv6Delimiter are delimiter names or literals as
	// accepted by ranges.ParseDelimiter.
	IPv4Delimiter string
	IPv6Delimiter string

	// CacheDir holds downloaded datasets. Empty disables the cache.
	CacheDir string
	Offline  bool

	FetchTimeout time.Duration

	// RefreshInterval is how often serve reloads the datasets.
	RefreshInterval time.Duration

	// RateLimit caps dataset requests per second. Zero disables the limit.
	RateLimit float64

	// Listen is the HTTP address for serve.
	Listen string
}
