package awssdk

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gostratum/awsx"
)

func newTestRegistrar(clients awsx.ClientsConfig, logger *zap.Logger) (*Registrar, *[]string) {
	cfg := awsx.DefaultConfig()
	cfg.Clients = clients

	var loaded []string
	r := NewRegistrar(awsx.NewResolver(cfg), cfg.Credentials, logger, DefaultBuilders()...)
	r.loader = func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
		var lo config.LoadOptions
		for _, opt := range opts {
			if err := opt(&lo); err != nil {
				return aws.Config{}, err
			}
		}
		loaded = append(loaded, lo.Region)
		return aws.Config{Region: lo.Region}, nil
	}
	return r, &loaded
}

func TestRegistrar_RegistersEnabledClients(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	r, loaded := newTestRegistrar(awsx.ClientsConfig{
		"default":       {Region: "us-east-1"},
		"default-async": {Region: "eu-west-1"},
		"s3":            {Enabled: awsx.Bool(false)},
		"s3-async":      {},
		"sqs":           {Region: "us-west-2"},
	}, zap.New(core))

	reg, err := r.RegisterAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"s3-async", "sts"}, reg.Keys())
	assert.ElementsMatch(t, []string{"eu-west-1", "us-east-1"}, *loaded)

	_, err = reg.S3("s3")
	assert.ErrorIs(t, err, ErrClientNotRegistered)

	asyncClient, err := reg.S3("s3-async")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", asyncClient.Options().Region)

	assert.Equal(t, 1, logs.FilterMessage("Client disabled by configuration").Len())
	skipped := logs.FilterMessage("No client builder for configured service key; skipping").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "sqs", skipped[0].ContextMap()["service_key"])
}

func TestRegistrar_AsyncOnlyWhenConfigured(t *testing.T) {
	r, _ := newTestRegistrar(awsx.ClientsConfig{
		"default-async": {Region: "eu-west-1"},
	}, nil)

	reg, err := r.RegisterAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s3", "sts"}, reg.Keys())
}

func TestRegistrar_BuildFailureNamesKey(t *testing.T) {
	r, _ := newTestRegistrar(awsx.ClientsConfig{}, nil)
	r.loader = func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no shared config")
	}

	_, err := r.RegisterAll(context.Background())
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "s3", buildErr.Key)
}

type fakeBuilder struct{ service string }

func (f fakeBuilder) Service() string { return f.service }

func (f fakeBuilder) Build(in BuildInput) (any, error) {
	return "client:" + in.Settings.Key, nil
}

func TestRegistrar_CustomBuilder(t *testing.T) {
	cfg := awsx.DefaultConfig()
	cfg.Clients["sqs-async"] = awsx.ServiceSettings{Region: "us-west-2"}

	r := NewRegistrar(awsx.NewResolver(cfg), cfg.Credentials, nil, fakeBuilder{service: "sqs"})
	r.loader = func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}

	reg, err := r.RegisterAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"sqs", "sqs-async"}, reg.Keys())
	got, _ := reg.Get("sqs-async")
	assert.Equal(t, "client:sqs-async", got)
}
