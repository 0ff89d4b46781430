package awsx

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/gostratum/core/configx"
	"github.com/spf13/viper"
)

// setupViper configures viper with default settings
func setupViper(v *viper.Viper) {
	v.SetConfigName("awsx")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/awsx")
	v.AddConfigPath("$HOME/.config/awsx")

	v.SetDefault(Namespace+".logging.enabled", false)
	v.SetDefault(Namespace+".logging.level", "info")

	v.SetEnvPrefix("AWSX")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	// Try to read config file (ignore errors as it's optional)
	_ = v.ReadInConfig()
}

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// bindEnvVars binds environment variables for the keys whose names are known
// up front. Per-service keys are open-ended and come from config files only.
// Only aws.* keys are bound, so a caller's viper keeps its own env settings.
func bindEnvVars(v *viper.Viper) {
	keys := []string{
		"logging.enabled",
		"logging.development",
		"logging.level",
		"credentials.access-key",
		"credentials.secret-key",
		"credentials.session-token",
		"credentials.profile",
		"credentials.role-arn",
		"credentials.external-id",
		"credentials.role-session-name",
		StorageServiceKey + ".path-style-access-enabled",
		StorageServiceKey + ".chunked-encoding-disabled",
		StorageServiceKey + ".accelerate-mode-enabled",
		StorageServiceKey + ".payload-signing-enabled",
		StorageServiceKey + ".dualstack-enabled",
		StorageServiceKey + ".force-global-bucket-access-enabled",
	}
	for _, profile := range []string{DefaultKey, DefaultAsyncKey} {
		keys = append(keys,
			profile+".region",
			profile+".endpoint.service-endpoint",
			profile+".endpoint.signing-region",
		)
	}

	// AWSX_DEFAULT_REGION, AWSX_S3_PATH_STYLE_ACCESS_ENABLED, ...
	for _, key := range keys {
		_ = v.BindEnv(Namespace+"."+key, "AWSX_"+strings.ToUpper(envKeyReplacer.Replace(key)))
	}
}

// LoadConfig reads the aws namespace out of v. Values that cannot be decoded
// are skipped and reported through Config.IgnoredFields instead of failing.
func LoadConfig(v *viper.Viper) (*Config, error) {
	if v == nil {
		return nil, fmt.Errorf("viper instance cannot be nil")
	}

	raw, ok := v.AllSettings()[Namespace]
	if !ok {
		return DefaultConfig(), nil
	}
	return loadTree(raw), nil
}

// boundTree receives the aws namespace from a configx.Loader
type boundTree struct {
	Values map[string]any `mapstructure:",remain"`
}

// Prefix implements configx.Configurable
func (boundTree) Prefix() string { return Namespace }

// LoadConfigFromLoader reads the aws namespace through a core configx.Loader.
// Decoding past the namespace is as lenient as LoadConfig.
func LoadConfigFromLoader(loader configx.Loader) (*Config, error) {
	if loader == nil {
		return nil, fmt.Errorf("config loader cannot be nil")
	}

	var tree boundTree
	if err := loader.Bind(&tree); err != nil {
		return nil, fmt.Errorf("failed to bind %s namespace: %w", Namespace, err)
	}
	if len(tree.Values) == 0 {
		return DefaultConfig(), nil
	}
	return loadTree(tree.Values), nil
}

func loadTree(raw any) *Config {
	cfg := DefaultConfig()

	tree, ok := raw.(map[string]any)
	if !ok {
		cfg.ignore(Namespace, fmt.Errorf("expected a mapping, got %T", raw))
		return cfg
	}

	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		path := Namespace + "." + key
		block, ok := tree[key].(map[string]any)
		if !ok {
			cfg.ignore(path, fmt.Errorf("expected a mapping, got %T", tree[key]))
			continue
		}

		switch normalizeKey(key) {
		case credentialsKey:
			if err := decodeLenient(block, &cfg.Credentials); err != nil {
				cfg.ignore(path, err)
			}
			continue
		case loggingKey:
			if err := decodeLenient(block, &cfg.Logging); err != nil {
				cfg.ignore(path, err)
			}
			continue
		}

		var settings ServiceSettings
		if err := decodeLenient(block, &settings); err != nil {
			cfg.ignore(path, err)
		}
		cfg.Clients[normalizeKey(key)] = settings

		if normalizeKey(key) == StorageServiceKey {
			if err := decodeLenient(block, &cfg.Storage); err != nil {
				cfg.ignore(path, err)
			}
		}
	}

	return cfg
}

// decodeLenient decodes what it can into out. mapstructure keeps decoding the
// remaining fields after a failure, so out is usable even when err != nil.
func decodeLenient(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func (c *Config) ignore(path string, err error) {
	c.ignored = append(c.ignored, fmt.Sprintf("%s: %v", path, err))
}
