package config

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

// Registry reads cloud profiles from an ini file, one section per Azure tenant or AWS account:
//
//	[contoso]
//	type = azure
//	tenant_id = 00000000-0000-0000-0000-000000000000
//	client_id = 11111111-1111-1111-1111-111111111111
//	certificate_path = /etc/finops/contoso.pem
//	subscriptions = sub-1, sub-2
//
//	[payments]
//	type = aws
//	aws_profile = payments
//	region = us-east-1
//	subscriptions = 123456789012
type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetConfig(ctx context.Context, profile string) (domain.ConfigProfile, error)
	// Profiles returns every profile, or the named ones when names is not empty.
	Profiles(ctx context.Context, names ...string) ([]domain.ConfigProfile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, apperr.InvalidArgument("config.profiles", "unable to load profiles file: %v", err)
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func NewRegistryFromBytes(data []byte) (Registry, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return nil, apperr.InvalidArgument("config.profiles", "unable to parse profiles: %v", err)
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetConfig(_ context.Context, profile string) (domain.ConfigProfile, error) {
	const op = "config.profile"

	section, err := cr.cfg.GetSection(profile)
	if err != nil || len(section.Keys()) == 0 {
		return domain.ConfigProfile{}, apperr.InvalidArgument(op, "profile %s not found", profile)
	}

	p := domain.ConfigProfile{
		Name:                profile,
		Type:                domain.ProfileType(strings.ToLower(section.Key("type").String())),
		TenantID:            section.Key("tenant_id").String(),
		Subscriptions:       splitList(section.Key("subscriptions").String()),
		ClientID:            section.Key("client_id").String(),
		CertificatePath:     section.Key("certificate_path").String(),
		CertificatePassword: section.Key("certificate_password").String(),
		Region:              section.Key("region").String(),
		AWSProfile:          section.Key("aws_profile").String(),
	}

	switch p.Type {
	case domain.ProfileTypeAzure, domain.ProfileTypeAWS:
	default:
		return domain.ConfigProfile{}, apperr.InvalidArgument(op, "profile %s: unsupported type %q", profile, p.Type)
	}
	if len(p.Subscriptions) == 0 {
		return domain.ConfigProfile{}, apperr.InvalidArgument(op, "profile %s: no subscriptions configured", profile)
	}
	return p, nil
}

func (cr *cfgRegistry) Profiles(ctx context.Context, names ...string) ([]domain.ConfigProfile, error) {
	if len(names) == 0 {
		all, err := cr.GetProfiles(ctx)
		if err != nil {
			return nil, err
		}
		names = all
	}

	profiles := make([]domain.ConfigProfile, 0, len(names))
	for _, name := range names {
		p, err := cr.GetConfig(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load profiles: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
