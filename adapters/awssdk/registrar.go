package awssdk

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/gostratum/awsx"
)

// Registrar builds and registers a client for every enabled service key that
// has a builder.
type Registrar struct {
	resolver    *awsx.Resolver
	builders    map[string]ClientBuilder
	credentials awsx.CredentialsConfig
	logger      *zap.Logger
	loader      awsConfigLoader
}

// NewRegistrar creates a registrar. Later builders replace earlier ones for
// the same service.
func NewRegistrar(resolver *awsx.Resolver, creds awsx.CredentialsConfig, logger *zap.Logger, builders ...ClientBuilder) *Registrar {
	if logger == nil {
		logger = zap.NewNop()
	}

	byService := make(map[string]ClientBuilder, len(builders))
	for _, b := range builders {
		byService[awsx.BaseService(b.Service())] = b
	}

	return &Registrar{
		resolver:    resolver,
		builders:    byService,
		credentials: creds,
		logger:      logger,
		loader:      defaultLoader,
	}
}

// candidateKeys returns each builder's sync key, plus its async key when one
// is configured, in a stable order.
func (r *Registrar) candidateKeys() []string {
	var keys []string
	for _, service := range sortedKeys(r.builders) {
		keys = append(keys, service)
		if async := service + awsx.AsyncSuffix; r.resolver.HasKey(async) {
			keys = append(keys, async)
		}
	}
	return keys
}

// RegisterAll builds every candidate client into a fresh registry.
func (r *Registrar) RegisterAll(ctx context.Context) (*Registry, error) {
	registry := NewRegistry()

	for _, key := range r.resolver.ConfiguredKeys() {
		if _, ok := r.builders[awsx.BaseService(key)]; !ok {
			r.logger.Warn("No client builder for configured service key; skipping",
				zap.String("service_key", key))
		}
	}

	for _, key := range r.candidateKeys() {
		if err := r.register(ctx, registry, key); err != nil {
			return nil, err
		}
	}

	r.logger.Info("AWS clients registered", zap.Strings("service_keys", registry.Keys()))
	return registry, nil
}

func (r *Registrar) register(ctx context.Context, registry *Registry, key string) error {
	eff := r.resolver.Effective(key)
	if !eff.Enabled {
		r.logger.Info("Client disabled by configuration", zap.String("service_key", key))
		return nil
	}

	awsConfig, credSource, err := buildAWSConfigWithLoader(ctx, eff, r.credentials, r.logger, r.loader)
	if err != nil {
		return &BuildError{Key: key, Err: err}
	}

	client, err := r.builders[awsx.BaseService(key)].Build(BuildInput{
		AWS:      awsConfig,
		Settings: eff,
		Storage:  r.resolver.ResolveStorageOverlay(),
		Logger:   r.logger,
	})
	if err != nil {
		return &BuildError{Key: key, Err: err}
	}

	if err := registry.Register(key, client); err != nil {
		return &BuildError{Key: key, Err: err}
	}

	fields := []zap.Field{
		zap.String("service_key", key),
		zap.String("cred_source", credSource),
		zap.String("region", awsConfig.Region),
	}
	if eff.Endpoint != nil {
		fields = append(fields, zap.String("endpoint", eff.Endpoint.URL))
	}
	r.logger.Debug("Client registered", fields...)

	return nil
}

func sortedKeys(m map[string]ClientBuilder) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
