package awssdk_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/gostratum/awsx"
	"github.com/gostratum/awsx/adapters/awssdk"
	"github.com/gostratum/awsx/internal/testutil"
)

func TestModule_S3AgainstFakeServer(t *testing.T) {
	var (
		client   *s3.Client
		registry *awssdk.Registry
	)

	app := fxtest.New(t,
		testutil.FakeS3Module(t),
		awssdk.Module(),
		fx.Populate(&client, &registry),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Equal(t, []string{"s3", "sts"}, registry.Keys())

	ctx := context.Background()
	bucket := aws.String("awsx-test")
	body := "hello from awsx"

	_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: bucket})
	require.NoError(t, err)

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: bucket,
		Key:    aws.String("greetings/hello.txt"),
		Body:   strings.NewReader(body),
	}, func(o *s3.Options) {
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	require.NoError(t, err)

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: bucket,
		Key:    aws.String("greetings/hello.txt"),
	})
	require.NoError(t, err)
	defer out.Body.Close()

	got, err := io.ReadAll(out.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))

	list, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: bucket,
		Prefix: aws.String("greetings/"),
	})
	require.NoError(t, err)
	require.Len(t, list.Contents, 1)
	assert.Equal(t, "greetings/hello.txt", aws.ToString(list.Contents[0].Key))
}

func TestModule_DisabledClientIsNotProvided(t *testing.T) {
	app := fx.New(
		testutil.FakeS3Module(t),
		fx.Decorate(func(cfg *awsx.Config) *awsx.Config {
			cfg.Clients["sts"] = awsx.ServiceSettings{Enabled: awsx.Bool(false)}
			return cfg
		}),
		awssdk.Module(),
		fx.Invoke(func(*sts.Client) {}),
		fx.NopLogger,
	)

	err := app.Err()
	require.Error(t, err)
	assert.ErrorContains(t, err, awssdk.ErrClientNotRegistered.Error())
}

type stubBuilder struct{}

func (stubBuilder) Service() string { return "sqs" }

func (stubBuilder) Build(in awssdk.BuildInput) (any, error) {
	return in.Settings.Region, nil
}

func TestModule_WithBuilder(t *testing.T) {
	var registry *awssdk.Registry

	app := fxtest.New(t,
		testutil.FakeS3Module(t),
		awssdk.Module(),
		awssdk.WithBuilder(stubBuilder{}),
		fx.Populate(&registry),
	)
	app.RequireStart()
	defer app.RequireStop()

	got, ok := registry.Get("sqs")
	require.True(t, ok)
	assert.Equal(t, "us-east-1", got)
}
