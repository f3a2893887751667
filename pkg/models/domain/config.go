package domain

import "fmt"

type ProfileType string

const (
	ProfileTypeAzure ProfileType = "azure"
	ProfileTypeAWS   ProfileType = "aws"
)

// ConfigProfile names one cloud account profile: an Azure tenant or an AWS account.
type ConfigProfile struct {
	Name string
	Type ProfileType

	// TenantID is the Azure tenant or the AWS account the profile audits. Defaults to Name.
	TenantID string
	// Subscriptions lists Azure subscription ids or AWS linked account ids.
	Subscriptions []string

	ClientID            string
	CertificatePath     string
	CertificatePassword string

	Region     string
	AWSProfile string
}

func (c ConfigProfile) String() string {
	return fmt.Sprintf("%s:%s", c.Type, c.Name)
}

func (c ConfigProfile) Tenant() string {
	if c.TenantID != "" {
		return c.TenantID
	}
	return c.Name
}
