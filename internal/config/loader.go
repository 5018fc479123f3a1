package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tbckr/asnlook/internal/appdir"
	"github.com/tbckr/asnlook/internal/output"
	"github.com/tbckr/asnlook/internal/ranges"
)

// ErrUnknownKey is returned for config keys asnlook does not know.
var ErrUnknownKey = errors.New("unknown config key")

// envPrefix prefixes every environment variable override, e.g.
// ASNLOOK_CACHE_DIR.
const envPrefix = "ASNLOOK"

type keyKind int

const (
	kindString keyKind = iota
	kindBool
	kindInt
	kindFloat
	kindDuration
	kindURL
	kindOutput
	kindDelimiter
)

// keyDef describes one persisted setting. The flag name is the key with
// underscores replaced by hyphens.
type keyDef struct {
	key   string
	kind  keyKind
	short string
	usage string
}

var keyDefs = []keyDef{
	{key: "verbose", kind: kindBool, short: "v", usage: "enable debug logging"},
	{key: "output", kind: kindOutput, short: "o", usage: "output format: table, json, plain"},
	{key: "proxy", kind: kindString, usage: "proxy URL for dataset downloads (http, https, socks5)"},
	{key: "user_agent", kind: kindString, usage: "User-Agent for dataset downloads"},
	{key: "concurrency", kind: kindInt, short: "c", usage: "parallel lookups for bulk input"},
	{key: "registry_url", kind: kindURL, usage: "AS-name registry URL"},
	{key: "ipv4_url", kind: kindURL, usage: "IPv4 routing table URL"},
	{key: "ipv6_url", kind: kindURL, usage: "IPv6 routing table URL"},
	{key: "ipv4_delimiter", kind: kindDelimiter, usage: "field delimiter of the IPv4 table (tab, space, comma, pipe or a literal)"},
	{key: "ipv6_delimiter", kind: kindDelimiter, usage: "field delimiter of the IPv6 table"},
	{key: "cache_dir", kind: kindString, usage: "dataset cache directory; empty disables caching"},
	{key: "offline", kind: kindBool, usage: "use cached datasets only"},
	{key: "fetch_timeout", kind: kindDuration, usage: "timeout for one dataset refresh"},
	{key: "refresh_interval", kind: kindDuration, usage: "dataset refresh interval for serve"},
	{key: "rate_limit", kind: kindFloat, usage: "dataset requests per second; 0 disables"},
	{key: "listen", kind: kindString, usage: "listen address for serve"},
}

func defaults() map[string]any {
	cacheDir, err := appdir.CacheDir()
	if err != nil {
		cacheDir = ""
	}
	return map[string]any{
		"verbose":          false,
		"output":           string(output.FormatTable),
		"proxy":            "",
		"user_agent":       "",
		"concurrency":      10,
		"registry_url":     DefaultRegistryURL,
		"ipv4_url":         DefaultIPv4URL,
		"ipv6_url":         DefaultIPv6URL,
		"ipv4_delimiter":   "tab",
		"ipv6_delimiter":   "space",
		"cache_dir":        cacheDir,
		"offline":          false,
		"fetch_timeout":    2 * time.Minute,
		"refresh_interval": 6 * time.Hour,
		"rate_limit":       2.0,
		"listen":           "127.0.0.1:8080",
	}
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// RegisterFlags registers --config and one flag per config key on flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default <user-config-dir>/asnlook/config.yaml)")

	defs := defaults()
	for _, d := range keyDefs {
		name := flagName(d.key)
		switch v := defs[d.key].(type) {
		case bool:
			flags.BoolP(name, d.short, v, d.usage)
		case int:
			flags.IntP(name, d.short, v, d.usage)
		case float64:
			flags.Float64P(name, d.short, v, d.usage)
		case time.Duration:
			flags.DurationP(name, d.short, v, d.usage)
		case string:
			flags.StringP(name, d.short, v, d.usage)
		}
	}
}

// DefaultConfigPath returns <user-config-dir>/asnlook/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := appdir.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load resolves the configuration for flags, which must have been set up
// with RegisterFlags. The config file is created (empty, 0600) when missing.
func Load(flags *pflag.FlagSet) (*Config, error) {
	cfgFile, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if cfgFile == "" {
		if cfgFile, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}
	if err := appdir.EnsureFile(cfgFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(cfgFile)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, val := range defaults() {
		v.SetDefault(key, val)
	}
	for _, d := range keyDefs {
		if f := flags.Lookup(flagName(d.key)); f != nil {
			if err := v.BindPFlag(d.key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", f.Name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
	}

	return &Config{
		ConfigFile:      cfgFile,
		Verbose:         v.GetBool("verbose"),
		Output:          v.GetString("output"),
		Proxy:           v.GetString("proxy"),
		UserAgent:       v.GetString("user_agent"),
		Concurrency:     v.GetInt("concurrency"),
		RegistryURL:     v.GetString("registry_url"),
		IPv4URL:         v.GetString("ipv4_url"),
		IPv6URL:         v.GetString("ipv6_url"),
		IPv4Delimiter:   v.GetString("ipv4_delimiter"),
		IPv6Delimiter:   v.GetString("ipv6_delimiter"),
		CacheDir:        v.GetString("cache_dir"),
		Offline:         v.GetBool("offline"),
		FetchTimeout:    v.GetDuration("fetch_timeout"),
		RefreshInterval: v.GetDuration("refresh_interval"),
		RateLimit:       v.GetFloat64("rate_limit"),
		Listen:          v.GetString("listen"),
	}, nil
}

// ValidKeys returns every key accepted by config get/set.
func ValidKeys() []string {
	keys := make([]string, len(keyDefs))
	for i, d := range keyDefs {
		keys[i] = d.key
	}
	return keys
}

func lookupKey(key string) (keyDef, error) {
	key = strings.ReplaceAll(key, "-", "_")
	i := slices.IndexFunc(keyDefs, func(d keyDef) bool { return d.key == key })
	if i < 0 {
		return keyDef{}, fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(ValidKeys(), ", "))
	}
	return keyDefs[i], nil
}

// ValidateKey reports whether key (hyphens or underscores) is known.
func ValidateKey(key string) error {
	_, err := lookupKey(key)
	return err
}

// ParseValue converts value to the type stored for key in the config file
// and validates it.
func ParseValue(key, value string) (any, error) {
	d, err := lookupKey(key)
	if err != nil {
		return nil, err
	}

	switch d.kind {
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s: expected true or false, got %q", d.key, value)
		}
		return b, nil
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%s: expected a positive integer, got %q", d.key, value)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("%s: expected a non-negative number, got %q", d.key, value)
		}
		return f, nil
	case kindDuration:
		dur, err := time.ParseDuration(value)
		if err != nil || dur <= 0 {
			return nil, fmt.Errorf("%s: expected a positive duration such as 30s or 6h, got %q", d.key, value)
		}
		return dur.String(), nil
	case kindURL:
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%s: expected an http or https URL, got %q", d.key, value)
		}
		return value, nil
	case kindOutput:
		f, err := output.ParseFormat(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
		return string(f), nil
	case kindDelimiter:
		if _, err := ranges.ParseDelimiter(value); err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
		return value, nil
	default:
		return value, nil
	}
}

// KeyCompletions returns value suggestions for key, or nil for free-form keys.
func KeyCompletions(key string) []string {
	d, err := lookupKey(key)
	if err != nil {
		return nil
	}
	switch d.kind {
	case kindBool:
		return []string{"true", "false"}
	case kindOutput:
		return formatNames()
	case kindDelimiter:
		return ranges.DelimiterNames()
	default:
		return nil
	}
}

func formatNames() []string {
	names := make([]string, len(output.Formats))
	for i, f := range output.Formats {
		names[i] = string(f)
	}
	return names
}
