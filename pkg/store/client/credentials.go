package client

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/resilience"
)

// CorrelationHeader carries the branch correlation id on every Azure Resource Manager call.
const CorrelationHeader = "x-ms-correlation-request-id"

// NewAzureCredential returns a client certificate credential when the profile names a certificate,
// and the default credential chain otherwise.
func NewAzureCredential(profile domain.ConfigProfile) (azcore.TokenCredential, error) {
	const op = "client.azure_credential"

	if profile.CertificatePath == "" {
		cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
			TenantID: profile.TenantID,
		})
		if err != nil {
			return nil, apperr.Unauthorized(op, fmt.Errorf("failed to create default Azure credential: %w", err))
		}
		return cred, nil
	}

	if profile.TenantID == "" || profile.ClientID == "" {
		return nil, apperr.InvalidArgument(op, "profile %s: certificate authentication needs tenant_id and client_id", profile.Name)
	}

	data, err := os.ReadFile(profile.CertificatePath)
	if err != nil {
		return nil, apperr.InvalidArgument(op, "profile %s: unable to read certificate: %v", profile.Name, err)
	}

	var password []byte
	if profile.CertificatePassword != "" {
		password = []byte(profile.CertificatePassword)
	}
	certs, key, err := azidentity.ParseCertificates(data, password)
	if err != nil {
		return nil, apperr.InvalidArgument(op, "profile %s: unable to parse certificate: %v", profile.Name, err)
	}

	cred, err := azidentity.NewClientCertificateCredential(profile.TenantID, profile.ClientID, certs, key, nil)
	if err != nil {
		return nil, apperr.Unauthorized(op, fmt.Errorf("failed to create certificate credential: %w", err))
	}
	return cred, nil
}

// armOptions disables the SDK retry policy; attempts are owned by the resilience layer.
func armOptions() *arm.ClientOptions {
	return &arm.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Retry:           policy.RetryOptions{MaxRetries: -1},
			PerCallPolicies: []policy.Policy{correlationPolicy{}},
		},
	}
}

type correlationPolicy struct{}

func (correlationPolicy) Do(req *policy.Request) (*http.Response, error) {
	if id := resilience.CorrelationID(req.Raw().Context()); id != "" {
		req.Raw().Header.Set(CorrelationHeader, id)
	}
	return req.Next()
}

// LoadAWSConfig loads the shared AWS configuration for a profile with SDK retries disabled.
func LoadAWSConfig(ctx context.Context, profile domain.ConfigProfile) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRetryMaxAttempts(1),
	}
	if profile.AWSProfile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile.AWSProfile))
	}
	if profile.Region != "" {
		opts = append(opts, config.WithRegion(profile.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, apperr.Unauthorized("client.aws_config", fmt.Errorf("unable to load AWS SDK config: %w", err))
	}
	return cfg, nil
}
