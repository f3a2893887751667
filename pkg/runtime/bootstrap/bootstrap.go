// Package bootstrap assembles the services from the application settings and the profile file.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/resilience"
	"github.com/de-tools/finops-sentinel/pkg/services/budget"
	"github.com/de-tools/finops-sentinel/pkg/services/config"
	"github.com/de-tools/finops-sentinel/pkg/services/cost"
	"github.com/de-tools/finops-sentinel/pkg/services/governance"
	"github.com/de-tools/finops-sentinel/pkg/services/summary"
	"github.com/de-tools/finops-sentinel/pkg/services/waste"
	"github.com/de-tools/finops-sentinel/pkg/store/client"
	"github.com/de-tools/finops-sentinel/pkg/store/pricing"
)

type App struct {
	Settings   config.Settings
	Profiles   []domain.ConfigProfile
	Router     *client.Router
	Anomalies  *cost.Service
	Waste      *waste.Service
	Governance *governance.Service
	Budget     *budget.Estimator
	Summary    *summary.Service
	Metrics    *prometheus.Registry
	// Warnings collected while loading prices and rules.
	Warnings []domain.Warning

	db *sql.DB
}

// Build loads the named profiles (all of them when none is given) and wires every service.
func Build(ctx context.Context, settings config.Settings, profileNames ...string) (*App, error) {
	logger := zerolog.Ctx(ctx)

	registry, err := config.NewRegistry(settings.ProfilesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile registry: %w", err)
	}
	profiles, err := registry.Profiles(ctx, profileNames...)
	if err != nil {
		return nil, err
	}

	fetchers := cost.NewRegistry()
	if err := client.RegisterCostFetchers(ctx, fetchers); err != nil {
		return nil, err
	}
	router, err := client.NewRouterFromProfiles(ctx, profiles, fetchers)
	if err != nil {
		return nil, err
	}

	app, err := assemble(ctx, settings, router)
	if err != nil {
		return nil, err
	}
	app.Profiles = profiles

	logger.Info().
		Int("profiles", len(profiles)).
		Int("subscriptions", len(router.SubscriptionIDs())).
		Int("tenants", len(router.TenantIDs())).
		Msg("services configured")
	return app, nil
}

// assemble wires the services over an already configured router.
func assemble(ctx context.Context, settings config.Settings, router *client.Router) (*App, error) {
	app := &App{
		Settings: settings,
		Router:   router,
		Metrics:  prometheus.NewRegistry(),
	}

	metrics, err := resilience.NewMetrics(app.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	layer, err := resilience.New(settings.Resilience, resilience.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}

	sources, err := app.priceSources(ctx, settings.Pricing)
	if err != nil {
		return nil, errors.Join(err, app.Close())
	}
	prices, warnings, err := pricing.Load(ctx, layer, sources...)
	if err != nil {
		return nil, errors.Join(err, app.Close())
	}
	app.Warnings = append(app.Warnings, warnings...)

	rules, err := governance.LoadRules(settings.Governance.RulesFile)
	if err != nil {
		return nil, errors.Join(err, app.Close())
	}

	app.Anomalies = cost.NewService(router, layer, settings.Cost)
	app.Waste = waste.NewService(router, prices, layer, settings.Waste)
	app.Governance = governance.NewService(router, layer, rules)
	app.Budget = budget.NewEstimator(prices, settings.Budget)
	app.Summary = summary.NewService(app.Anomalies, app.Waste, app.Governance)
	return app, nil
}

// priceSources lists the built-in table followed by every configured override source.
func (a *App) priceSources(ctx context.Context, s config.PricingSettings) ([]pricing.Source, error) {
	sources := []pricing.Source{pricing.NewStaticSource()}

	if s.File != "" {
		sources = append(sources, pricing.NewFileSource(s.File))
	}

	if s.S3Bucket != "" {
		opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRetryMaxAttempts(1)}
		if s.S3Region != "" {
			opts = append(opts, awsconfig.WithRegion(s.S3Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config for price sheet: %w", err)
		}
		sources = append(sources, pricing.NewS3Source(s3.NewFromConfig(cfg), s.S3Bucket, s.S3Key))
	}

	if s.SQLDriver != "" {
		db, err := pricing.OpenDB(s.SQLDriver, s.SQLDSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		sources = append(sources, pricing.NewSQLSource(db, s.SQLDriver, s.SQLQuery))
	}
	return sources, nil
}

// Close releases the price database connection, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
