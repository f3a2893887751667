package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/finops-sentinel/pkg/adapters"
	"github.com/de-tools/finops-sentinel/pkg/runtime/terminal/export"
	"github.com/de-tools/finops-sentinel/pkg/services/summary"
)

type SummaryCmd struct {
	period         string
	skipAnomalies  bool
	skipWaste      bool
	skipGovernance bool
	output         string
	runtime        Runtime
}

func NewSummaryCmd(rt Runtime) *cobra.Command {
	sc := &SummaryCmd{runtime: rt}
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Combine anomalies, waste and governance findings into an executive ROI report",
		RunE:  sc.run,
	}

	cmd.Flags().StringVar(&sc.period, "period", string(summary.PeriodMonthly), "Reporting period: monthly or annual")
	cmd.Flags().BoolVar(&sc.skipAnomalies, "skip-anomalies", false, "Leave out the cost anomaly section")
	cmd.Flags().BoolVar(&sc.skipWaste, "skip-waste", false, "Leave out the resource waste section")
	cmd.Flags().BoolVar(&sc.skipGovernance, "skip-governance", false, "Leave out the governance section")
	cmd.Flags().StringVarP(&sc.output, "output", "o", "", "Write the report to this file instead of stdout")

	return cmd
}

func (sc *SummaryCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := sc.runtime.Context(cmd)
	defer cancel()

	period, err := summary.ParsePeriod(sc.period)
	if err != nil {
		return err
	}
	reporter, err := sc.runtime.Reporter()
	if err != nil {
		return err
	}
	env, err := sc.runtime.Env(ctx)
	if err != nil {
		return err
	}

	req := summary.DefaultRequest()
	req.SubscriptionIDs = env.SubscriptionIDs
	req.TenantIDs = env.TenantIDs
	if env.Threshold != 0 {
		req.Threshold = env.Threshold
	}
	if env.MinRiskScore != 0 {
		req.MinRiskScore = env.MinRiskScore
	}
	req.Period = period
	req.IncludeAnomalies = !sc.skipAnomalies
	req.IncludeWaste = !sc.skipWaste
	req.IncludeGovernance = !sc.skipGovernance

	s, err := env.Summary.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}
	out := adapters.MapSummaryDomainToApi(s)

	if sc.output == "" {
		return reporter.Handle(out, export.SummaryView(out))
	}

	f, err := os.Create(sc.output)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", sc.output).Msg("failed to close report file")
		}
	}()
	if err := reporter.WithWriter(f).Handle(out, export.SummaryView(out)); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("path", sc.output).Msg("summary written")
	return nil
}
