package awsx

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Namespace is the configuration prefix all client settings live under
	Namespace = "aws"

	// DefaultKey holds the fallback profile for synchronous service keys
	DefaultKey = "default"

	// DefaultAsyncKey holds the fallback profile for asynchronous service keys
	DefaultAsyncKey = "default-async"

	// AsyncSuffix marks the asynchronous variant of a service key
	AsyncSuffix = "-async"

	// StorageServiceKey is the service key the StorageOverlay applies to
	StorageServiceKey = "s3"

	credentialsKey = "credentials"
	loggingKey     = "logging"
)

// IsAsync reports whether key names the asynchronous variant of a service.
func IsAsync(key string) bool {
	return strings.HasSuffix(normalizeKey(key), AsyncSuffix)
}

// BaseService strips the async suffix, so "sqs-async" and "sqs" both yield "sqs".
func BaseService(key string) string {
	return strings.TrimSuffix(normalizeKey(key), AsyncSuffix)
}

// DefaultKeyFor returns the default profile key a service key falls back to.
func DefaultKeyFor(key string) string {
	if IsAsync(key) {
		return DefaultAsyncKey
	}
	return DefaultKey
}

// IsDefaultProfile reports whether key is one of the reserved fallback profiles.
func IsDefaultProfile(key string) bool {
	k := normalizeKey(key)
	return k == DefaultKey || k == DefaultAsyncKey
}

func isReservedKey(key string) bool {
	k := normalizeKey(key)
	return k == credentialsKey || k == loggingKey
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// ClientSettings tunes the transport of a single client. The resolver passes
// it through untouched; the zero value means "not configured".
//
// When a client is built, every zero field takes the value of its default
// tag. An explicit 0 is therefore indistinguishable from unset: max-retries: 0
// still yields 3 attempts and request-timeout: 0 still yields 30s. Use
// max-retries: 1 for a single attempt.
type ClientSettings struct {
	// RequestTimeout bounds a whole HTTP round trip
	RequestTimeout time.Duration `mapstructure:"request-timeout" yaml:"request-timeout" default:"30s"`

	// ConnectTimeout bounds dialing a connection
	ConnectTimeout time.Duration `mapstructure:"connect-timeout" yaml:"connect-timeout" default:"10s"`

	// MaxRetries is the maximum number of attempts made by the retryer
	MaxRetries int `mapstructure:"max-retries" yaml:"max-retries" default:"3"`

	// RetryMode is either "standard" or "adaptive"
	RetryMode string `mapstructure:"retry-mode" yaml:"retry-mode" default:"standard"`

	// BackoffInitial is the initial backoff delay
	BackoffInitial time.Duration `mapstructure:"backoff-initial" yaml:"backoff-initial" default:"200ms"`

	// BackoffMax is the maximum backoff delay
	BackoffMax time.Duration `mapstructure:"backoff-max" yaml:"backoff-max" default:"5s"`

	// MaxConnections caps idle connections kept per client
	MaxConnections int `mapstructure:"max-connections" yaml:"max-connections" default:"50"`

	// ProxyURL routes requests through an HTTP proxy
	ProxyURL string `mapstructure:"proxy-url" yaml:"proxy-url"`

	// DisableSSL picks http:// for endpoints given without a scheme (development only)
	DisableSSL bool `mapstructure:"disable-ssl" yaml:"disable-ssl"`
}

// IsZero reports whether no transport property was configured.
func (c ClientSettings) IsZero() bool {
	return c == ClientSettings{}
}

// EndpointSettings is the raw endpoint block of a service.
type EndpointSettings struct {
	// ServiceEndpoint is the URL with or without scheme (e.g. sns.us-west-1.amazonaws.com)
	ServiceEndpoint string `mapstructure:"service-endpoint" yaml:"service-endpoint"`

	// SigningRegion is the region used for SigV4 signing
	SigningRegion string `mapstructure:"signing-region" yaml:"signing-region"`
}

// Endpoint is a resolved endpoint override.
type Endpoint struct {
	URL           string
	SigningRegion string
}

// resolve discards a signing region that comes without a service endpoint.
func (e EndpointSettings) resolve() (Endpoint, bool) {
	if e.ServiceEndpoint == "" {
		return Endpoint{}, false
	}
	return Endpoint{URL: e.ServiceEndpoint, SigningRegion: e.SigningRegion}, true
}

// ServiceSettings is the configuration block of one service key.
type ServiceSettings struct {
	Client   ClientSettings   `mapstructure:"client" yaml:"client"`
	Endpoint EndpointSettings `mapstructure:"endpoint" yaml:"endpoint"`

	// Region determines both endpoint and signing region; used only without an endpoint
	Region string `mapstructure:"region" yaml:"region"`

	// Enabled gates client construction; nil means enabled
	Enabled *bool `mapstructure:"enabled" yaml:"enabled"`
}

// ClientsConfig maps service keys to their settings. It is filled once by
// the loader and read-only afterwards.
type ClientsConfig map[string]ServiceSettings

// StorageOverlay holds the S3-only flags. A nil flag leaves the SDK default
// in place; false explicitly disables the feature.
type StorageOverlay struct {
	PathStyleAccessEnabled         *bool `mapstructure:"path-style-access-enabled" yaml:"path-style-access-enabled"`
	ChunkedEncodingDisabled        *bool `mapstructure:"chunked-encoding-disabled" yaml:"chunked-encoding-disabled"`
	AccelerateModeEnabled          *bool `mapstructure:"accelerate-mode-enabled" yaml:"accelerate-mode-enabled"`
	PayloadSigningEnabled          *bool `mapstructure:"payload-signing-enabled" yaml:"payload-signing-enabled"`
	DualstackEnabled               *bool `mapstructure:"dualstack-enabled" yaml:"dualstack-enabled"`
	ForceGlobalBucketAccessEnabled *bool `mapstructure:"force-global-bucket-access-enabled" yaml:"force-global-bucket-access-enabled"`
}

// CredentialsConfig selects the credential source shared by all clients.
type CredentialsConfig struct {
	AccessKey    string `mapstructure:"access-key" yaml:"access-key" validate:"required_with=SecretKey"`
	SecretKey    string `mapstructure:"secret-key" yaml:"secret-key" validate:"required_with=AccessKey"`
	SessionToken string `mapstructure:"session-token" yaml:"session-token"`

	// Profile selects a shared config/credentials profile
	Profile string `mapstructure:"profile" yaml:"profile"`

	// RoleARN is assumed via STS on top of the source credentials
	RoleARN         string `mapstructure:"role-arn" yaml:"role-arn" validate:"omitempty,rolearn"`
	ExternalID      string `mapstructure:"external-id" yaml:"external-id"`
	RoleSessionName string `mapstructure:"role-session-name" yaml:"role-session-name" validate:"omitempty,max=64"`
}

// LoggingConfig controls the zap logger provided by the module.
type LoggingConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Development bool   `mapstructure:"development" yaml:"development"`
	Level       string `mapstructure:"level" yaml:"level"`
}

// Config is everything loaded from the aws namespace.
type Config struct {
	Clients     ClientsConfig     `yaml:"clients"`
	Storage     StorageOverlay    `yaml:"storage"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Logging     LoggingConfig     `yaml:"logging"`

	ignored []string
}

// DefaultConfig returns an empty configuration: no services, every flag unset.
func DefaultConfig() *Config {
	return &Config{
		Clients: ClientsConfig{},
		Logging: LoggingConfig{Level: "info"},
	}
}

// IgnoredFields lists the fields that were present but unusable at load time.
func (c *Config) IgnoredFields() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.ignored...)
}

// String returns a safe string representation (redacts secrets)
func (c *Config) String() string {
	return fmt.Sprintf("Config{Clients:%d, Profile:%s, RoleARN:%s, Logging:%v}",
		len(c.Clients), c.Credentials.Profile, c.Credentials.RoleARN, c.Logging.Enabled)
}

// Bool returns a pointer to b, for filling tri-state fields.
func Bool(b bool) *bool { return &b }
