package awsx

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig indicates the configuration cannot be used at all
var ErrInvalidConfig = errors.New("awsx: invalid configuration")

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config field %q: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their configuration key rather than the Go name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("rolearn", func(fl validator.FieldLevel) bool {
		return isPlausibleRoleARN(fl.Field().String())
	})

	return v
}

// ValidateConfig checks the parts of cfg that cannot be ignored. Per-service
// blocks are never rejected; only the shared credentials are validated.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return &ValidationError{Field: "config", Message: "configuration cannot be nil"}
	}

	err := validate.Struct(cfg.Credentials)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate credentials: %w", err)
	}

	var msgs []string
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}

	return &ValidationError{
		Field:   Namespace + "." + credentialsKey,
		Message: strings.Join(msgs, "; "),
	}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required_with":
		return "both access-key and secret-key must be set together; do not provide only one"
	case "rolearn":
		return "role-arn looks invalid: must be a valid IAM role ARN (e.g., arn:aws:iam::123456789012:role/RoleName)"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
	}
}

// isPlausibleRoleARN performs a light-weight validation of an IAM role ARN
func isPlausibleRoleARN(arn string) bool {
	// Expected form: arn:partition:service:region:account-id:resource
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) != 6 {
		return false
	}
	if parts[0] != "arn" || parts[2] != "iam" {
		return false
	}
	acct := parts[4]
	if acct == "" {
		return false
	}
	for _, r := range acct {
		if r < '0' || r > '9' {
			return false
		}
	}
	return strings.HasPrefix(parts[5], "role/")
}

// Sanitize returns a cleaned copy without mutating the receiver: keys are
// lower-cased, endpoints and regions trimmed.
func (cfg *Config) Sanitize() *Config {
	if cfg == nil {
		return DefaultConfig()
	}

	sanitized := *cfg
	sanitized.ignored = append([]string(nil), cfg.ignored...)
	sanitized.Clients = make(ClientsConfig, len(cfg.Clients))

	for key, s := range cfg.Clients {
		s.Region = strings.TrimSpace(s.Region)
		s.Endpoint.SigningRegion = strings.TrimSpace(s.Endpoint.SigningRegion)
		s.Endpoint.ServiceEndpoint = strings.TrimSuffix(strings.TrimSpace(s.Endpoint.ServiceEndpoint), "/")
		s.Client.RetryMode = strings.ToLower(strings.TrimSpace(s.Client.RetryMode))
		s.Client.ProxyURL = strings.TrimSpace(s.Client.ProxyURL)
		sanitized.Clients[normalizeKey(key)] = s
	}

	sanitized.Credentials.Profile = strings.TrimSpace(cfg.Credentials.Profile)
	sanitized.Credentials.RoleARN = strings.TrimSpace(cfg.Credentials.RoleARN)

	return &sanitized
}

// ConfigSummary returns a safe summary of the configuration for logging
func (cfg *Config) ConfigSummary() map[string]any {
	if cfg == nil {
		return map[string]any{"error": "nil config"}
	}

	services := make([]string, 0, len(cfg.Clients))
	for key := range cfg.Clients {
		services = append(services, key)
	}
	slices.Sort(services)

	summary := map[string]any{
		"services":       services,
		"profile":        cfg.Credentials.Profile,
		"role_arn":       cfg.Credentials.RoleARN,
		"ignored_fields": len(cfg.ignored),
	}

	// Don't include sensitive information
	if cfg.Credentials.AccessKey != "" {
		summary["has_access_key"] = true
		summary["access_key_prefix"] = cfg.Credentials.AccessKey[:min(4, len(cfg.Credentials.AccessKey))] + "..."
	}
	if cfg.Credentials.SecretKey != "" {
		summary["has_secret_key"] = true
	}
	if cfg.Credentials.SessionToken != "" {
		summary["has_session_token"] = true
	}

	return summary
}
