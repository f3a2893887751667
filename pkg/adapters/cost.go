package adapters

import (
	"github.com/de-tools/finops-sentinel/pkg/models/api"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/services/cost"
)

func MapAnomalyDomainToApi(a domain.Anomaly) api.Anomaly {
	return api.Anomaly{
		SubscriptionID:  a.SubscriptionID,
		ServiceName:     a.ServiceName,
		Date:            a.Date,
		ActualCost:      a.ActualCost,
		BaselineCost:    a.BaselineCost,
		VariancePercent: a.VariancePercent,
		ExcessAmount:    a.ExcessAmount,
	}
}

func MapAnomaliesDomainToApi(as []domain.Anomaly) []api.Anomaly {
	res := make([]api.Anomaly, 0, len(as))
	for _, a := range as {
		res = append(res, MapAnomalyDomainToApi(a))
	}
	return res
}

func MapAnomalyReportDomainToApi(r cost.Report) api.AnomalyReport {
	res := api.AnomalyReport{
		Threshold:        r.Threshold,
		Period:           MapTimePeriodDomainToApi(r.Period),
		TotalAnomalies:   len(r.Anomalies),
		TotalExcessSpend: r.TotalExcessSpend,
		SeriesAnalyzed:   r.SeriesAnalyzed,
		Anomalies:        MapAnomaliesDomainToApi(r.Anomalies),
		Subscriptions:    MapBranchStatusesDomainToApi(r.Statuses),
		Warnings:         MapWarningsDomainToApi(r.Warnings),
	}
	for _, s := range r.Skipped {
		res.Skipped = append(res.Skipped, api.SkippedSeries{
			SubscriptionID: s.Key.SubscriptionID,
			ServiceName:    s.Key.ServiceName,
			Reason:         string(s.Reason),
		})
	}
	return res
}
