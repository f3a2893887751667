package adapters

import (
	"github.com/shopspring/decimal"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/api"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

const monthsPerYear = 12

func MapSeverityDomainToApi(s domain.Severity) api.Severity {
	switch s {
	case domain.SeverityLow:
		return api.SeverityLow
	case domain.SeverityMedium:
		return api.SeverityMedium
	case domain.SeverityHigh:
		return api.SeverityHigh
	case domain.SeverityCritical:
		return api.SeverityCritical
	default:
		return api.SeverityLow
	}
}

func MapTimePeriodDomainToApi(p domain.TimePeriod) api.TimePeriod {
	return api.TimePeriod{
		Start:    p.Start,
		End:      p.End,
		Duration: p.Duration,
	}
}

func MapWarningsDomainToApi(ws []domain.Warning) []api.Warning {
	if len(ws) == 0 {
		return nil
	}
	res := make([]api.Warning, 0, len(ws))
	for _, w := range ws {
		res = append(res, api.Warning{Kind: w.Kind.String(), Subject: w.Subject, Message: w.Message})
	}
	return res
}

func MapBranchStatusesDomainToApi(ss []domain.BranchStatus) []api.BranchStatus {
	res := make([]api.BranchStatus, 0, len(ss))
	for _, s := range ss {
		res = append(res, api.BranchStatus{
			Target:        s.Target,
			CorrelationID: s.CorrelationID,
			State:         string(s.State),
			ErrorKind:     mapKind(s.ErrorKind),
			Error:         s.Error,
		})
	}
	return res
}

func mapKind(k apperr.Kind) string {
	if k == apperr.KindUnknown {
		return ""
	}
	return k.String()
}

// annual scales a monthly amount to a year, rounded to cents.
func annual(monthly float64) float64 {
	return decimal.NewFromFloat(monthly).Mul(decimal.NewFromInt(monthsPerYear)).Round(2).InexactFloat64()
}
