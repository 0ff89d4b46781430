package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"

	"github.com/gostratum/awsx"
)

// NewFakeS3 starts an in-memory S3 server that is closed with the test.
func NewFakeS3(t testing.TB) *httptest.Server {
	t.Helper()

	faker := gofakes3.New(s3mem.New())
	ts := httptest.NewServer(faker.Server())
	t.Cleanup(ts.Close)

	return ts
}

// NewFakeS3Config returns a configuration whose s3 key points at endpoint
// with static credentials and path-style addressing.
func NewFakeS3Config(endpoint string) *awsx.Config {
	cfg := awsx.DefaultConfig()
	cfg.Clients[awsx.DefaultKey] = awsx.ServiceSettings{Region: "us-east-1"}
	cfg.Clients[awsx.StorageServiceKey] = awsx.ServiceSettings{
		Endpoint: awsx.EndpointSettings{
			ServiceEndpoint: endpoint,
			SigningRegion:   "us-east-1",
		},
		Client: awsx.ClientSettings{MaxRetries: 1},
	}
	cfg.Storage.PathStyleAccessEnabled = awsx.Bool(true)
	cfg.Credentials = awsx.CredentialsConfig{
		AccessKey: "test-access",
		SecretKey: "test-secret",
	}
	return cfg
}
