package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/finops-sentinel/pkg/handlers/finops"
	"github.com/de-tools/finops-sentinel/pkg/runtime/bootstrap"
	"github.com/de-tools/finops-sentinel/pkg/server"
	"github.com/de-tools/finops-sentinel/pkg/services/config"
)

var (
	cfgPath  string
	profiles []string
	addr     string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for FinOps Sentinel",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to finops.yaml (default: ./finops.yaml or $HOME/.finops/finops.yaml)")
	rootCmd.Flags().StringSliceVarP(&profiles, "profile", "p", nil,
		"Profiles to serve from the profile file (default: all)")
	rootCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from settings)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	settings, err := config.LoadSettings(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	app, err := bootstrap.Build(ctx, settings, profiles...)
	if err != nil {
		return fmt.Errorf("failed to configure services: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to release resources")
		}
	}()

	logger.Info().Msgf("Profiles loaded from `%s`:", settings.ProfilesFile)
	for _, p := range app.Profiles {
		logger.Info().Msgf("Name: `%s`, Type: `%s`, Tenant: `%s`", p.Name, p.Type, p.Tenant())
	}
	for _, w := range app.Warnings {
		logger.Warn().Str("subject", w.Subject).Msg(w.Message)
	}

	if addr == "" {
		addr = settings.Server.Addr
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr:            addr,
		ShutdownTimeout: settings.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Anomalies:  app.Anomalies,
			Waste:      app.Waste,
			Governance: app.Governance,
			Budget:     app.Budget,
			Summary:    app.Summary,
			Defaults: finops.Defaults{
				SubscriptionIDs: app.Router.SubscriptionIDs(),
				TenantIDs:       app.Router.TenantIDs(),
				Threshold:       settings.Cost.Threshold,
				MinRiskScore:    settings.Governance.MinRiskScore,
				Frameworks:      settings.Governance.Frameworks,
			},
			Gatherer: app.Metrics,
		},
	})

	return api.Start()
}
