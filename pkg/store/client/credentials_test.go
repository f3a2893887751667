package client

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/resilience"
)

type recordingTransport struct {
	requests []*http.Request
}

func (r *recordingTransport) Do(req *http.Request) (*http.Response, error) {
	r.requests = append(r.requests, req)
	return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: http.NoBody, Request: req}, nil
}

func TestCorrelationPolicy(t *testing.T) {
	transport := &recordingTransport{}
	opts := armOptions().ClientOptions
	opts.Transport = transport
	pl := runtime.NewPipeline("finops-sentinel", "test", runtime.PipelineOptions{}, &opts)

	ctx := resilience.WithCorrelationID(context.Background(), "run-1/sub-a")
	req, err := runtime.NewRequest(ctx, http.MethodGet, "https://management.example.test/subscriptions")
	require.NoError(t, err)

	_, err = pl.Do(req)
	require.NoError(t, err)

	require.Len(t, transport.requests, 1)
	assert.Equal(t, "run-1/sub-a", transport.requests[0].Header.Get(CorrelationHeader))
	assert.Equal(t, int32(-1), opts.Retry.MaxRetries)
}

func TestNewAzureCredential(t *testing.T) {
	t.Run("certificate needs tenant and client", func(t *testing.T) {
		_, err := NewAzureCredential(domain.ConfigProfile{Name: "prod", CertificatePath: "/tmp/cert.pem"})
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	})

	t.Run("missing certificate file", func(t *testing.T) {
		_, err := NewAzureCredential(domain.ConfigProfile{
			Name:            "prod",
			TenantID:        "tenant",
			ClientID:        "client",
			CertificatePath: filepath.Join(t.TempDir(), "missing.pem"),
		})
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
		assert.ErrorContains(t, err, "unable to read certificate")
	})

	t.Run("malformed certificate", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cert.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))

		_, err := NewAzureCredential(domain.ConfigProfile{
			Name:            "prod",
			TenantID:        "tenant",
			ClientID:        "client",
			CertificatePath: path,
		})
		assert.ErrorContains(t, err, "unable to parse certificate")
	})
}

var _ policy.Policy = correlationPolicy{}
