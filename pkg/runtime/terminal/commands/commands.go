package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/runtime/terminal/export"
	"github.com/de-tools/finops-sentinel/pkg/services/cost"
	"github.com/de-tools/finops-sentinel/pkg/services/governance"
	"github.com/de-tools/finops-sentinel/pkg/services/summary"
	"github.com/de-tools/finops-sentinel/pkg/services/waste"
)

type AnomalyDetector interface {
	DetectAcross(ctx context.Context, subscriptionIDs []string, threshold float64) (cost.Report, error)
}

type WasteAuditor interface {
	AuditTenants(ctx context.Context, tenantIDs []string) (waste.Report, error)
}

type Advisor interface {
	Advise(ctx context.Context, subscriptionIDs []string, minRiskScore int) (governance.AdviceReport, error)
	ReviewCostActions(ctx context.Context, subscriptionIDs []string, frameworks []string) (governance.ReviewReport, error)
}

type BudgetEstimator interface {
	Estimate(resources []domain.DeclaredResource, budgetLimit float64, region string) (domain.BudgetResult, error)
}

type SummaryGenerator interface {
	Generate(ctx context.Context, req summary.Request) (summary.Summary, error)
}

// Env holds the services a command runs against.
type Env struct {
	Anomalies  AnomalyDetector
	Waste      WasteAuditor
	Governance Advisor
	Budget     BudgetEstimator
	Summary    SummaryGenerator

	SubscriptionIDs []string
	TenantIDs       []string
	Threshold       float64
	MinRiskScore    int
	Frameworks      []string
}

// Runtime is implemented by the CLI root and resolves the global flags.
type Runtime interface {
	Context(cmd *cobra.Command) (context.Context, context.CancelFunc)
	Env(ctx context.Context) (*Env, error)
	Reporter() (*export.Reporter, error)
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func splitFlag(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
