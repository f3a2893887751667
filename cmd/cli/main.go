package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/de-tools/finops-sentinel/pkg/runtime/bootstrap"
	"github.com/de-tools/finops-sentinel/pkg/runtime/terminal"
	"github.com/de-tools/finops-sentinel/pkg/runtime/terminal/commands"
	"github.com/de-tools/finops-sentinel/pkg/services/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := terminal.NewCLI(terminal.Options{
		Bootstrap: build,
		Output:    os.Stdout,
	})

	if err := cli.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func build(ctx context.Context, opts terminal.GlobalOptions) (*commands.Env, func() error, error) {
	settings, err := config.LoadSettings(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	app, err := bootstrap.Build(ctx, settings, opts.Profiles...)
	if err != nil {
		return nil, nil, err
	}

	env := &commands.Env{
		Anomalies:       app.Anomalies,
		Waste:           app.Waste,
		Governance:      app.Governance,
		Budget:          app.Budget,
		Summary:         app.Summary,
		SubscriptionIDs: app.Router.SubscriptionIDs(),
		TenantIDs:       app.Router.TenantIDs(),
		Threshold:       settings.Cost.Threshold,
		MinRiskScore:    settings.Governance.MinRiskScore,
		Frameworks:      settings.Governance.Frameworks,
	}
	return env, app.Close, nil
}
