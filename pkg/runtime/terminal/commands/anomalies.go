package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/de-tools/finops-sentinel/pkg/adapters"
	"github.com/de-tools/finops-sentinel/pkg/runtime/terminal/export"
)

type AnomaliesCmd struct {
	subscriptions []string
	threshold     float64
	runtime       Runtime
}

func NewAnomaliesCmd(rt Runtime) *cobra.Command {
	ac := &AnomaliesCmd{runtime: rt}
	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "Detect daily cost anomalies per subscription and service",
		RunE:  ac.run,
	}

	cmd.Flags().StringSliceVar(&ac.subscriptions, "subscriptions", nil, "Subscription or account ids (default: every configured one)")
	cmd.Flags().Float64Var(&ac.threshold, "threshold", 0, "Ratio of the latest cost to its baseline that counts as an anomaly (default from settings)")

	return cmd
}

func (ac *AnomaliesCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := ac.runtime.Context(cmd)
	defer cancel()

	reporter, err := ac.runtime.Reporter()
	if err != nil {
		return err
	}
	env, err := ac.runtime.Env(ctx)
	if err != nil {
		return err
	}

	threshold := ac.threshold
	if threshold == 0 {
		threshold = env.Threshold
	}
	report, err := env.Anomalies.DetectAcross(ctx, orDefault(splitFlag(ac.subscriptions), env.SubscriptionIDs), threshold)
	if err != nil {
		return fmt.Errorf("failed to detect anomalies: %w", err)
	}

	out := adapters.MapAnomalyReportDomainToApi(report)
	return reporter.Handle(out, export.AnomalyView(out))
}
