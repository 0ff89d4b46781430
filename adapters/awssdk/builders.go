package awssdk

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.uber.org/zap"

	"github.com/gostratum/awsx"
)

// BuildInput carries everything a builder needs for one service key.
type BuildInput struct {
	AWS      aws.Config
	Settings awsx.Effective
	Storage  awsx.StorageOverlay
	Logger   *zap.Logger
}

// ClientBuilder constructs the SDK client of one service. Service returns the
// base service key; async variants reuse the same builder.
type ClientBuilder interface {
	Service() string
	Build(in BuildInput) (any, error)
}

// endpointURL returns the endpoint with a scheme, adding one when missing
func endpointURL(ep *awsx.Endpoint, client *awsx.ClientSettings) string {
	if strings.HasPrefix(ep.URL, "http://") || strings.HasPrefix(ep.URL, "https://") {
		return ep.URL
	}

	scheme := "https"
	if client != nil && client.DisableSSL {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, ep.URL)
}

type s3Builder struct{}

// NewS3Builder returns the builder for S3 clients. The storage overlay is
// applied here and nowhere else.
func NewS3Builder() ClientBuilder { return s3Builder{} }

func (s3Builder) Service() string { return awsx.StorageServiceKey }

func (s3Builder) Build(in BuildInput) (any, error) {
	overlay := in.Storage
	logger := in.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if overlay.ChunkedEncodingDisabled != nil {
		logger.Warn("chunked-encoding-disabled has no effect with this SDK; ignoring",
			zap.String("service_key", in.Settings.Key))
	}
	if overlay.ForceGlobalBucketAccessEnabled != nil {
		logger.Warn("force-global-bucket-access-enabled has no effect with this SDK; ignoring",
			zap.String("service_key", in.Settings.Key))
	}

	return s3.NewFromConfig(in.AWS, func(o *s3.Options) {
		if ep := in.Settings.Endpoint; ep != nil {
			o.BaseEndpoint = aws.String(endpointURL(ep, in.Settings.Client))
		}
		applyStorageOverlay(o, overlay)
	}), nil
}

// applyStorageOverlay touches only the options whose flag is set
func applyStorageOverlay(o *s3.Options, overlay awsx.StorageOverlay) {
	if v := overlay.PathStyleAccessEnabled; v != nil {
		o.UsePathStyle = *v
	}
	if v := overlay.AccelerateModeEnabled; v != nil {
		o.UseAccelerate = *v
	}
	if v := overlay.DualstackEnabled; v != nil {
		if *v {
			o.EndpointOptions.UseDualStackEndpoint = aws.DualStackEndpointStateEnabled
		} else {
			o.EndpointOptions.UseDualStackEndpoint = aws.DualStackEndpointStateDisabled
		}
	}
	if v := overlay.PayloadSigningEnabled; v != nil && !*v {
		o.APIOptions = append(o.APIOptions, v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware)
	}
}

type stsBuilder struct{}

// NewSTSBuilder returns the builder for STS clients.
func NewSTSBuilder() ClientBuilder { return stsBuilder{} }

func (stsBuilder) Service() string { return "sts" }

func (stsBuilder) Build(in BuildInput) (any, error) {
	return sts.NewFromConfig(in.AWS, func(o *sts.Options) {
		if ep := in.Settings.Endpoint; ep != nil {
			o.BaseEndpoint = aws.String(endpointURL(ep, in.Settings.Client))
		}
	}), nil
}

// DefaultBuilders returns the builders shipped with this package.
func DefaultBuilders() []ClientBuilder {
	return []ClientBuilder{NewS3Builder(), NewSTSBuilder()}
}
