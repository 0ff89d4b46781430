package awssdk

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/gostratum/awsx"
)

const buildersGroup = `group:"awsx_builders"`

// buildTimeout bounds loading shared config and credentials for all clients
const buildTimeout = 30 * time.Second

// Module returns an fx.Module which builds the SDK clients and registers them.
// It requires awsx.Module (or awsx.TestModule) for *awsx.Config and *awsx.Resolver.
//
// Example usage:
//
//	app := fx.New(
//	    awsx.Module,
//	    awssdk.Module(),
//	    fx.Invoke(func(client *s3.Client) {
//	        // Use client...
//	    }),
//	)
func Module() fx.Option {
	return fx.Module("awsx-sdk",
		fx.Provide(
			fx.Annotate(NewS3Builder, fx.ResultTags(buildersGroup)),
			fx.Annotate(NewSTSBuilder, fx.ResultTags(buildersGroup)),
			provideRegistry,
			provideS3Client,
			provideSTSClient,
		),
	)
}

// WithBuilder adds a builder for a service this package does not cover.
func WithBuilder(b ClientBuilder) fx.Option {
	return fx.Provide(
		fx.Annotate(func() ClientBuilder { return b }, fx.ResultTags(buildersGroup)),
	)
}

// RegistryParams defines the parameters needed for registry creation
type RegistryParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *awsx.Config
	Resolver  *awsx.Resolver
	Builders  []ClientBuilder `group:"awsx_builders"`
	Logger    *zap.Logger     `optional:"true"`
}

func provideRegistry(params RegistryParams) (*Registry, error) {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()

	registrar := NewRegistrar(params.Resolver, params.Config.Credentials, logger, params.Builders...)
	registry, err := registrar.RegisterAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to register AWS clients: %w", err)
	}

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Releasing AWS clients", zap.Int("count", registry.Len()))
			return registry.Close()
		},
	})

	return registry, nil
}

func provideS3Client(registry *Registry) (*s3.Client, error) {
	return registry.S3(awsx.StorageServiceKey)
}

func provideSTSClient(registry *Registry) (*sts.Client, error) {
	return registry.STS("sts")
}
