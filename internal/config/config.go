// Package config provides functionality for managing configuration options
// for the server using command-line flags, a config file and environment
// variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration read from strings such as "15m" in flags,
// JSON and TOML.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Options holds the configuration values for the server.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string `json:"address" toml:"address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" toml:"database_dsn"`

	// Config is the path to the config file. A .toml suffix selects TOML,
	// anything else is read as JSON.
	Config string `json:"-" toml:"-"`

	// ChecksumSecret keys the request checksum.
	ChecksumSecret string `json:"checksum_secret" toml:"checksum_secret"`

	// JWTSecret signs session tokens; TokenTTL is their lifetime.
	JWTSecret string   `json:"jwt_secret" toml:"jwt_secret"`
	TokenTTL  Duration `json:"token_ttl" toml:"token_ttl"`

	// RedisURL enables the field dictionary cache when set.
	RedisURL        string   `json:"redis_url" toml:"redis_url"`
	CacheTTL        Duration `json:"cache_ttl" toml:"cache_ttl"`
	RefreshInterval Duration `json:"refresh_interval" toml:"refresh_interval"`

	SimilarityThreshold float64 `json:"similarity_threshold" toml:"similarity_threshold"`

	// TLS material. Without TLSCert and TLSKey the server speaks plain HTTP.
	TLSCert string `json:"tls_cert" toml:"tls_cert"`
	TLSKey  string `json:"tls_key" toml:"tls_key"`
	CACert  string `json:"ca_cert" toml:"ca_cert"`
	CAKey   string `json:"ca_key" toml:"ca_key"`

	ProviderLogo string `json:"provider_logo" toml:"provider_logo"`
	LogLevel     string `json:"log_level" toml:"log_level"`
}

// Parse reads the options from the process arguments and environment.
func Parse() (*Options, error) {
	return Load(os.Args[1:], os.Getenv)
}

// Load reads flags from args, then the config file, then environment
// variables from getenv. Later sources override earlier ones.
func Load(args []string, getenv func(string) string) (*Options, error) {
	o := &Options{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&o.Address, "a", "localhost:8443", "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&o.Config, "config", "config.json", "path to config file")
	fs.StringVar(&o.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&o.ChecksumSecret, "checksum-secret", "", "secret keying request checksums")
	fs.StringVar(&o.JWTSecret, "jwt-secret", "", "secret signing session tokens")
	fs.TextVar(&o.TokenTTL, "token-ttl", Duration{time.Hour}, "session token lifetime")
	fs.StringVar(&o.RedisURL, "redis", "", "redis URL for the field dictionary cache")
	fs.TextVar(&o.CacheTTL, "cache-ttl", Duration{10 * time.Minute}, "field dictionary cache TTL")
	fs.TextVar(&o.RefreshInterval, "refresh-interval", Duration{5 * time.Minute}, "field dictionary refresh interval")
	fs.Float64Var(&o.SimilarityThreshold, "similarity-threshold", 0.85, "minimum text similarity for a match")
	fs.StringVar(&o.TLSCert, "tls-cert", "certs/server.crt", "server TLS certificate")
	fs.StringVar(&o.TLSKey, "tls-key", "certs/server.key", "server TLS key")
	fs.StringVar(&o.CACert, "ca-cert", "certs/ca.crt", "CA certificate")
	fs.StringVar(&o.CAKey, "ca-key", "certs/ca.key", "CA private key")
	fs.StringVar(&o.ProviderLogo, "provider-logo", "/img/przelewy24.svg", "Przelewy24 logo URL")
	fs.StringVar(&o.LogLevel, "log-level", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}
	if err := o.readFile(); err != nil {
		return nil, err
	}
	if err := o.applyEnv(getenv); err != nil {
		return nil, err
	}
	return o, o.Validate()
}

func (o *Options) readFile() error {
	if o.Config == "" {
		return nil
	}
	if _, err := os.Stat(o.Config); err != nil {
		return nil
	}
	data, err := os.ReadFile(o.Config)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if strings.HasSuffix(strings.ToLower(o.Config), ".toml") {
		err = toml.Unmarshal(data, o)
	} else {
		err = json.Unmarshal(data, o)
	}
	if err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func (o *Options) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":  &o.Address,
		"DATABASE_DSN":    &o.DatabaseDSN,
		"CHECKSUM_SECRET": &o.ChecksumSecret,
		"JWT_SECRET":      &o.JWTSecret,
		"REDIS_URL":       &o.RedisURL,
		"TLS_CERT":        &o.TLSCert,
		"TLS_KEY":         &o.TLSKey,
		"CA_CERT":         &o.CACert,
		"CA_KEY":          &o.CAKey,
		"PROVIDER_LOGO":   &o.ProviderLogo,
		"LOG_LEVEL":       &o.LogLevel,
	}
	for name, dst := range strs {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	durations := map[string]*Duration{
		"TOKEN_TTL":        &o.TokenTTL,
		"CACHE_TTL":        &o.CacheTTL,
		"REFRESH_INTERVAL": &o.RefreshInterval,
	}
	for name, dst := range durations {
		if v := getenv(name); v != "" {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}

	if v := getenv("SIMILARITY_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SIMILARITY_THRESHOLD: %w", err)
		}
		o.SimilarityThreshold = f
	}
	return nil
}

// Validate reports missing required options.
func (o *Options) Validate() error {
	var errs []error
	if o.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is required"))
	}
	if o.ChecksumSecret == "" {
		errs = append(errs, errors.New("checksum secret is required"))
	}
	if o.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if o.RefreshInterval.Duration <= 0 {
		errs = append(errs, errors.New("refresh interval must be positive"))
	}
	return errors.Join(errs...)
}

// TLSEnabled reports whether a server certificate is configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}
