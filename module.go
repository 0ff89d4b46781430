package awsx

import (
	"context"
	"fmt"

	"github.com/gostratum/core/configx"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module is the Fx module that provides configuration, the resolver and a
// logger. It builds no SDK clients; include awssdk.Module() for that.
var Module = fx.Module("awsx",
	fx.Provide(
		NewConfig,
		NewResolver,
		NewLogger,
	),
	fx.Invoke(registerLifecycle),
)

// ConfigParams defines the parameters needed for config creation
type ConfigParams struct {
	fx.In

	// Viper instance for configuration (optional)
	Viper *viper.Viper `optional:"true"`

	// Loader is the core configuration loader, used when no Viper is supplied
	Loader configx.Loader `optional:"true"`
}

// NewConfig creates a new configuration from Viper, the configx loader or
// defaults, in that order. Only a Viper created here gets AutomaticEnv.
func NewConfig(params ConfigParams) (*Config, error) {
	var (
		cfg *Config
		err error
	)

	switch {
	case params.Viper != nil:
		bindEnvVars(params.Viper)
		cfg, err = LoadConfig(params.Viper)
	case params.Loader != nil:
		cfg, err = LoadConfigFromLoader(params.Loader)
	default:
		v := viper.New()
		setupViper(v)
		bindEnvVars(v)
		cfg, err = LoadConfig(v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg = cfg.Sanitize()
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LifecycleParams defines parameters for lifecycle management
type LifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *Config
	Resolver  *Resolver
	Logger    *zap.Logger `optional:"true"`
}

func registerLifecycle(params LifecycleParams) {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logIgnoredFields(logger, params.Config)
			logger.Info("AWSX module started",
				zap.Strings("services", params.Resolver.ConfiguredKeys()),
				zap.Any("config", params.Config.ConfigSummary()),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("AWSX module stopped")
			// Sync fails on console sinks; nothing to recover there
			_ = logger.Sync()
			return nil
		},
	})
}

// TestModule provides a module for testing without config files or env
var TestModule = fx.Module("awsx-test",
	fx.Provide(
		NewTestConfig,
		NewResolver,
		NewTestLogger,
	),
)

// NewTestConfig creates a test configuration pointing S3 at a local endpoint
func NewTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.Clients[StorageServiceKey] = ServiceSettings{
		Endpoint: EndpointSettings{
			ServiceEndpoint: "http://localhost:9000",
			SigningRegion:   "us-east-1",
		},
	}
	cfg.Clients[DefaultKey] = ServiceSettings{Region: "us-east-1"}
	cfg.Storage.PathStyleAccessEnabled = Bool(true)
	cfg.Credentials.AccessKey = "minioadmin"
	cfg.Credentials.SecretKey = "minioadmin"
	return cfg
}

// NewTestLogger creates a test logger
func NewTestLogger() *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	logger, _ := config.Build()
	return logger
}

// ConfigFromViper creates configuration from an existing Viper instance
func ConfigFromViper(v *viper.Viper) fx.Option {
	return fx.Supply(v)
}

// ConfigFromLoader creates configuration from a core configx.Loader
func ConfigFromLoader(loader configx.Loader) fx.Option {
	return fx.Provide(func() configx.Loader { return loader })
}

// WithCustomLogger provides a custom logger to the DI container
func WithCustomLogger(logger *zap.Logger) fx.Option {
	return fx.Supply(logger)
}

// ModuleOptions allows customization of the awsx module
type ModuleOptions struct {
	// DisableLifecycle disables automatic lifecycle logging
	DisableLifecycle bool

	// ExternalLogger skips NewLogger; a *zap.Logger must then be supplied
	ExternalLogger bool

	// CustomProviders allows adding custom providers to the module
	CustomProviders []fx.Option
}

// NewModuleWithOptions creates a customized awsx module
func NewModuleWithOptions(opts ModuleOptions) fx.Option {
	constructors := []any{NewConfig, NewResolver}
	if !opts.ExternalLogger {
		constructors = append(constructors, NewLogger)
	}

	providers := []fx.Option{fx.Provide(constructors...)}
	providers = append(providers, opts.CustomProviders...)

	if !opts.DisableLifecycle {
		providers = append(providers, fx.Invoke(registerLifecycle))
	}

	return fx.Module("awsx", providers...)
}
