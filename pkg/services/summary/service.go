package summary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/resilience"
	"github.com/de-tools/finops-sentinel/pkg/services/cost"
	"github.com/de-tools/finops-sentinel/pkg/services/governance"
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
}

type Request struct {
	SubscriptionIDs   []string
	TenantIDs         []string
	Threshold         float64
	MinRiskScore      int
	IncludeAnomalies  bool
	IncludeWaste      bool
	IncludeGovernance bool
	Period            Period
}

func DefaultRequest() Request {
	return Request{
		Threshold:         1.5,
		MinRiskScore:      5,
		IncludeAnomalies:  true,
		IncludeWaste:      true,
		IncludeGovernance: true,
		Period:            PeriodMonthly,
	}
}

// Service runs the requested sections and composes their reports. Any section may be nil when the
// deployment does not provide it.
type Service struct {
	anomalies AnomalyDetector
	waste     WasteAuditor
	advisor   Advisor
	now       func() time.Time
}

func NewService(anomalies AnomalyDetector, waste WasteAuditor, advisor Advisor) *Service {
	return &Service{
		anomalies: anomalies,
		waste:     waste,
		advisor:   advisor,
		now:       time.Now,
	}
}

// Generate runs every requested section. A section that fails is left out with a warning; invalid
// arguments are returned as is, and the summary fails only when every requested section failed.
func (s *Service) Generate(ctx context.Context, req Request) (Summary, error) {
	const op = "summary.generate"
	if req.Period != PeriodMonthly && req.Period != PeriodAnnual {
		return Summary{}, apperr.InvalidArgument(op, "period %q must be %q or %q", req.Period, PeriodMonthly, PeriodAnnual)
	}

	logger := zerolog.Ctx(ctx)
	var (
		in        Inputs
		requested int
		errs      []error
		failed    []string
	)
	fail := func(section string, err error) error {
		if apperr.KindOf(err) == apperr.KindInvalidArgument {
			return err
		}
		logger.Warn().Str("section", section).Str("error", resilience.Redact(err.Error())).Msg("summary section failed")
		errs = append(errs, fmt.Errorf("%s: %w", section, err))
		failed = append(failed, section)
		return nil
	}

	if req.IncludeAnomalies && s.anomalies != nil {
		requested++
		r, err := s.anomalies.DetectAcross(ctx, req.SubscriptionIDs, req.Threshold)
		if err != nil {
			if err := fail(SectionAnomalies, err); err != nil {
				return Summary{}, err
			}
		} else {
			in.Anomalies = &r
		}
	}

	if req.IncludeWaste && s.waste != nil {
		requested++
		r, err := s.waste.AuditTenants(ctx, req.TenantIDs)
		if err != nil {
			if err := fail(SectionWaste, err); err != nil {
				return Summary{}, err
			}
		} else {
			in.Waste = &r
		}
	}

	if req.IncludeGovernance && s.advisor != nil {
		requested++
		r, err := s.advisor.Advise(ctx, req.SubscriptionIDs, req.MinRiskScore)
		if err != nil {
			if err := fail(SectionGovernance, err); err != nil {
				return Summary{}, err
			}
		} else {
			in.Governance = &r
		}
	}

	if requested == 0 {
		return Summary{}, apperr.InvalidArgument(op, "no section requested")
	}
	if len(errs) == requested {
		return Summary{}, apperr.Unavailable(op, errors.Join(errs...))
	}

	out, err := Compose(in, req.Period, s.now())
	if err != nil {
		return Summary{}, err
	}
	for i, section := range failed {
		out.Warnings = append(out.Warnings, sectionWarning(section, errs[i]))
	}

	logger.Info().
		Strs("sections", out.Sections).
		Float64("total_savings_potential", out.Metrics.TotalSavingsPotential).
		Str("period", string(out.Period)).
		Msg("executive summary generated")
	return out, nil
}
