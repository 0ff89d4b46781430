package testutil

import (
	"net/http/httptest"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/gostratum/awsx"
)

// FakeS3Module provides a config, resolver and logger wired to a fake S3
// server started for t.
//
// Example usage:
//
//	app := fxtest.New(t,
//	    testutil.FakeS3Module(t),
//	    awssdk.Module(),
//	    fx.Invoke(func(client *s3.Client) {
//	        // Use client...
//	    }),
//	)
func FakeS3Module(t testing.TB) fx.Option {
	ts := NewFakeS3(t)

	return fx.Module("awsx-fakes3",
		fx.Supply(ts),
		fx.Provide(
			func(ts *httptest.Server) *awsx.Config { return NewFakeS3Config(ts.URL) },
			awsx.NewResolver,
			func() *zap.Logger { return zaptest.NewLogger(t) },
		),
	)
}
