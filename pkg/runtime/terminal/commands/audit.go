package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/de-tools/finops-sentinel/pkg/adapters"
	"github.com/de-tools/finops-sentinel/pkg/runtime/terminal/export"
)

type AuditCmd struct {
	tenants []string
	runtime Runtime
}

func NewAuditCmd(rt Runtime) *cobra.Command {
	ac := &AuditCmd{runtime: rt}
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Find unattached disks and idle public IPs and price them",
		RunE:  ac.run,
	}

	cmd.Flags().StringSliceVar(&ac.tenants, "tenants", nil, "Tenant or account ids (default: every configured one)")

	return cmd
}

func (ac *AuditCmd) run(cmd *cobra.Command, _ []string) error {
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

	report, err := env.Waste.AuditTenants(ctx, orDefault(splitFlag(ac.tenants), env.TenantIDs))
	if err != nil {
		return fmt.Errorf("failed to audit resources: %w", err)
	}

	out := adapters.MapWasteReportDomainToApi(report)
	return reporter.Handle(out, export.WasteView(out))
}
