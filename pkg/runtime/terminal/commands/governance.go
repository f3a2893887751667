package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/de-tools/finops-sentinel/pkg/adapters"
	"github.com/de-tools/finops-sentinel/pkg/runtime/terminal/export"
)

type GovernanceCmd struct {
	subscriptions []string
	minRiskScore  int
	runtime       Runtime
}

func NewGovernanceCmd(rt Runtime) *cobra.Command {
	gc := &GovernanceCmd{runtime: rt}
	cmd := &cobra.Command{
		Use:   "governance",
		Short: "Score advisor recommendations by security and compliance risk",
		RunE:  gc.run,
	}

	cmd.Flags().StringSliceVar(&gc.subscriptions, "subscriptions", nil, "Subscription ids (default: every configured one)")
	cmd.Flags().IntVar(&gc.minRiskScore, "min-risk", 0, "Minimum risk score from 1 to 10 (default from settings)")

	return cmd
}

func (gc *GovernanceCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := gc.runtime.Context(cmd)
	defer cancel()

	reporter, err := gc.runtime.Reporter()
	if err != nil {
		return err
	}
	env, err := gc.runtime.Env(ctx)
	if err != nil {
		return err
	}

	minRisk := gc.minRiskScore
	if minRisk == 0 {
		minRisk = env.MinRiskScore
	}
	report, err := env.Governance.Advise(ctx, orDefault(splitFlag(gc.subscriptions), env.SubscriptionIDs), minRisk)
	if err != nil {
		return fmt.Errorf("failed to score recommendations: %w", err)
	}

	out := adapters.MapAdviceReportDomainToApi(report)
	return reporter.Handle(out, export.AdviceView(out))
}

type OverlayCmd struct {
	subscriptions []string
	frameworks    []string
	runtime       Runtime
}

func NewOverlayCmd(rt Runtime) *cobra.Command {
	oc := &OverlayCmd{runtime: rt}
	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Check cost recommendations against compliance frameworks before applying them",
		RunE:  oc.run,
	}

	cmd.Flags().StringSliceVar(&oc.subscriptions, "subscriptions", nil, "Subscription ids (default: every configured one)")
	cmd.Flags().StringSliceVar(&oc.frameworks, "frameworks", nil, "Frameworks to enforce (default from settings, else all)")

	return cmd
}

func (oc *OverlayCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := oc.runtime.Context(cmd)
	defer cancel()

	reporter, err := oc.runtime.Reporter()
	if err != nil {
		return err
	}
	env, err := oc.runtime.Env(ctx)
	if err != nil {
		return err
	}

	report, err := env.Governance.ReviewCostActions(
		ctx,
		orDefault(splitFlag(oc.subscriptions), env.SubscriptionIDs),
		orDefault(splitFlag(oc.frameworks), env.Frameworks),
	)
	if err != nil {
		return fmt.Errorf("failed to review cost actions: %w", err)
	}

	out := adapters.MapReviewReportDomainToApi(report)
	return reporter.Handle(out, export.ReviewView(out))
}
