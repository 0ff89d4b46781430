package awssdk

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gostratum/awsx"
)

func buildS3(t *testing.T, in BuildInput) s3.Options {
	t.Helper()

	in.AWS = aws.Config{Region: "us-east-1"}
	client, err := NewS3Builder().Build(in)
	require.NoError(t, err)

	s3Client, ok := client.(*s3.Client)
	require.True(t, ok, "got %T", client)
	return s3Client.Options()
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		client *awsx.ClientSettings
		want   string
	}{
		{name: "keeps https", url: "https://sns.us-west-1.amazonaws.com", want: "https://sns.us-west-1.amazonaws.com"},
		{name: "keeps http", url: "http://localhost:9000", want: "http://localhost:9000"},
		{name: "adds https", url: "sns.us-west-1.amazonaws.com", want: "https://sns.us-west-1.amazonaws.com"},
		{name: "adds http when ssl disabled", url: "localhost:9000", client: &awsx.ClientSettings{DisableSSL: true}, want: "http://localhost:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, endpointURL(&awsx.Endpoint{URL: tt.url}, tt.client))
		})
	}
}

func TestS3Builder_UnsetOverlayKeepsSDKDefaults(t *testing.T) {
	opts := buildS3(t, BuildInput{Settings: awsx.Effective{Key: "s3"}})

	assert.Nil(t, opts.BaseEndpoint)
	assert.False(t, opts.UsePathStyle)
	assert.False(t, opts.UseAccelerate)
	assert.Equal(t, aws.DualStackEndpointStateUnset, opts.EndpointOptions.UseDualStackEndpoint)
}

func TestS3Builder_AppliesOverlayAndEndpoint(t *testing.T) {
	base := buildS3(t, BuildInput{Settings: awsx.Effective{Key: "s3"}})

	opts := buildS3(t, BuildInput{
		Settings: awsx.Effective{
			Key:      "s3",
			Endpoint: &awsx.Endpoint{URL: "minio.local:9000"},
			Client:   &awsx.ClientSettings{DisableSSL: true},
		},
		Storage: awsx.StorageOverlay{
			PathStyleAccessEnabled: awsx.Bool(true),
			AccelerateModeEnabled:  awsx.Bool(true),
			DualstackEnabled:       awsx.Bool(false),
			PayloadSigningEnabled:  awsx.Bool(false),
		},
	})

	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://minio.local:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
	assert.True(t, opts.UseAccelerate)
	assert.Equal(t, aws.DualStackEndpointStateDisabled, opts.EndpointOptions.UseDualStackEndpoint)
	assert.Len(t, opts.APIOptions, len(base.APIOptions)+1, "unsigned payload middleware added")
}

func TestS3Builder_PayloadSigningEnabledAddsNothing(t *testing.T) {
	base := buildS3(t, BuildInput{Settings: awsx.Effective{Key: "s3"}})
	opts := buildS3(t, BuildInput{
		Settings: awsx.Effective{Key: "s3"},
		Storage:  awsx.StorageOverlay{PayloadSigningEnabled: awsx.Bool(true), DualstackEnabled: awsx.Bool(true)},
	})

	assert.Len(t, opts.APIOptions, len(base.APIOptions))
	assert.Equal(t, aws.DualStackEndpointStateEnabled, opts.EndpointOptions.UseDualStackEndpoint)
}

func TestS3Builder_WarnsAboutUnsupportedFlags(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	buildS3(t, BuildInput{
		Settings: awsx.Effective{Key: "s3"},
		Storage: awsx.StorageOverlay{
			ChunkedEncodingDisabled:        awsx.Bool(true),
			ForceGlobalBucketAccessEnabled: awsx.Bool(false),
		},
		Logger: zap.New(core),
	})

	assert.Equal(t, 2, logs.Len())
}

func TestSTSBuilder(t *testing.T) {
	client, err := NewSTSBuilder().Build(BuildInput{
		AWS: aws.Config{Region: "us-east-1"},
		Settings: awsx.Effective{
			Key:      "sts",
			Endpoint: &awsx.Endpoint{URL: "https://sts.example.com"},
		},
	})
	require.NoError(t, err)

	stsClient, ok := client.(*sts.Client)
	require.True(t, ok)
	require.NotNil(t, stsClient.Options().BaseEndpoint)
	assert.Equal(t, "https://sts.example.com", *stsClient.Options().BaseEndpoint)
}

func TestDefaultBuilders(t *testing.T) {
	var services []string
	for _, b := range DefaultBuilders() {
		services = append(services, b.Service())
	}
	assert.Equal(t, []string{"s3", "sts"}, services)
}
