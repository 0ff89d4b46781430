package awssdk

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"dario.cat/mergo"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/cenkalti/backoff/v4"
	"github.com/creasty/defaults"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gostratum/awsx"
)

// Credential sources reported by buildAWSConfigWithLoader
const (
	credSourceStatic      = "static"
	credSourceProfile     = "profile"
	credSourceSDKDefault  = "sdk-default"
	credSourceAssumedRole = "assumed-role"
)

// awsConfigLoader is a function that loads an aws.Config given LoadOptions.
type awsConfigLoader func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error)

func defaultLoader(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, opts...)
}

// effectiveClientSettings fills everything the resolver left unset with the
// built-in transport defaults declared on awsx.ClientSettings.
func effectiveClientSettings(resolved *awsx.ClientSettings) (awsx.ClientSettings, error) {
	var builtin awsx.ClientSettings
	if err := defaults.Set(&builtin); err != nil {
		return awsx.ClientSettings{}, fmt.Errorf("apply client defaults: %w", err)
	}

	var settings awsx.ClientSettings
	if resolved != nil {
		settings = *resolved
	}
	if err := mergo.Merge(&settings, builtin); err != nil {
		return awsx.ClientSettings{}, fmt.Errorf("merge client defaults: %w", err)
	}
	return settings, nil
}

// buildAWSConfigWithLoader builds an AWS config for one service key using the
// supplied loader (testable). It returns the loaded aws.Config and the detected
// credential source (one of: "static", "profile", "sdk-default", "assumed-role").
func buildAWSConfigWithLoader(ctx context.Context, eff awsx.Effective, creds awsx.CredentialsConfig, logger *zap.Logger, loader awsConfigLoader) (aws.Config, string, error) {
	settings, err := effectiveClientSettings(eff.Client)
	if err != nil {
		return aws.Config{}, "", err
	}

	var options []func(*config.LoadOptions) error
	credSource := credSourceSDKDefault

	// An endpoint override signs with its own region; otherwise the resolved region
	switch {
	case eff.Endpoint != nil && eff.Endpoint.SigningRegion != "":
		options = append(options, config.WithRegion(eff.Endpoint.SigningRegion))
	case eff.Region != "":
		options = append(options, config.WithRegion(eff.Region))
	}

	if creds.AccessKey != "" && creds.SecretKey != "" {
		provider := credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, creds.SessionToken)
		options = append(options, config.WithCredentialsProvider(provider))
		credSource = credSourceStatic
	} else if creds.Profile != "" {
		options = append(options, config.WithSharedConfigProfile(creds.Profile))
		credSource = credSourceProfile
	}

	options = append(options, config.WithRetryer(newRetryer(settings)))

	httpClient, err := newHTTPClient(settings)
	if err != nil {
		return aws.Config{}, credSource, err
	}
	options = append(options, config.WithHTTPClient(httpClient))

	awsConfig, err := loader(ctx, options...)
	if err != nil {
		return aws.Config{}, credSource, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	logger.Debug("AWS config loaded",
		zap.String("service_key", eff.Key),
		zap.String("region", awsConfig.Region),
		zap.Int("max_retries", settings.MaxRetries),
		zap.String("retry_mode", settings.RetryMode),
		zap.String("cred_source", credSource),
	)

	if creds.RoleARN != "" {
		logger.Info("Assuming role for client credentials",
			zap.String("service_key", eff.Key),
			zap.String("role_arn", creds.RoleARN),
		)

		sessionName := creds.RoleSessionName
		if sessionName == "" {
			sessionName = "awsx-" + uuid.NewString()
		}

		stsClient := sts.NewFromConfig(awsConfig)
		assumeProv := stscreds.NewAssumeRoleProvider(stsClient, creds.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			if creds.ExternalID != "" {
				o.ExternalID = aws.String(creds.ExternalID)
			}
			o.RoleSessionName = sessionName
		})

		awsConfig.Credentials = aws.NewCredentialsCache(assumeProv)
		credSource = credSourceAssumedRole
	}

	return awsConfig, credSource, nil
}

// newRetryer returns a retryer factory for the configured retry mode
func newRetryer(settings awsx.ClientSettings) func() aws.Retryer {
	standard := func(o *retry.StandardOptions) {
		o.MaxAttempts = settings.MaxRetries
		o.MaxBackoff = settings.BackoffMax
		o.Backoff = createBackoffStrategy(settings)
	}

	if settings.RetryMode == string(aws.RetryModeAdaptive) {
		return func() aws.Retryer {
			return retry.NewAdaptiveMode(func(o *retry.AdaptiveModeOptions) {
				o.StandardOptions = append(o.StandardOptions, standard)
			})
		}
	}

	return func() aws.Retryer {
		return retry.NewStandard(standard)
	}
}

// createBackoffStrategy creates a custom backoff strategy
func createBackoffStrategy(settings awsx.ClientSettings) retry.BackoffDelayerFunc {
	return func(attempt int, err error) (time.Duration, error) {
		// Use exponential backoff with jitter
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = settings.BackoffInitial
		b.MaxInterval = settings.BackoffMax
		b.MaxElapsedTime = 0 // No maximum elapsed time
		b.Multiplier = 2.0
		b.RandomizationFactor = 0.1
		b.Reset()

		var delay time.Duration
		for i := 0; i < attempt; i++ {
			delay = b.NextBackOff()
			if delay == backoff.Stop {
				break
			}
		}

		return delay, nil
	}
}

// newHTTPClient builds the SDK transport from the client settings
func newHTTPClient(settings awsx.ClientSettings) (*awshttp.BuildableClient, error) {
	var proxy *url.URL
	if settings.ProxyURL != "" {
		u, err := url.Parse(settings.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy-url %q: %w", settings.ProxyURL, err)
		}
		proxy = u
	}

	client := awshttp.NewBuildableClient().
		WithTimeout(settings.RequestTimeout).
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = settings.ConnectTimeout
		}).
		WithTransportOptions(func(tr *http.Transport) {
			tr.MaxIdleConns = settings.MaxConnections
			tr.MaxIdleConnsPerHost = settings.MaxConnections
			if proxy != nil {
				tr.Proxy = http.ProxyURL(proxy)
			}
		})

	return client, nil
}
