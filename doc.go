// Package awsx provides dependency-injectable auto-configuration for AWS SDK
// for Go v2 clients.
//
// Configuration is read from a hierarchical key-value source (a viper instance,
// or a core configx.Loader via ConfigFromLoader) under the "aws" namespace,
// keyed by service name:
//
//	aws.<service>[-async].client.<property>
//	aws.<service>[-async].endpoint.service-endpoint
//	aws.<service>[-async].endpoint.signing-region
//	aws.<service>[-async].region
//	aws.<service>[-async].enabled
//
// The reserved keys "default" and "default-async" hold fallback profiles for
// sync and async service keys respectively. S3 additionally accepts six
// tri-state flags under aws.s3 (see StorageOverlay).
//
// The Resolver turns the loaded tree into effective per-service settings. The
// concrete SDK clients are built and registered by the adapter package:
//
//	import (
//	    "github.com/gostratum/awsx"
//	    "github.com/gostratum/awsx/adapters/awssdk"
//	)
//
//	app := fx.New(
//	    awsx.Module,
//	    awssdk.Module(),
//	    fx.Invoke(func(client *s3.Client) { ... }),
//	)
package awsx
