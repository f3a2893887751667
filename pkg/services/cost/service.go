package cost

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/resilience"
)

// Service scans several subscriptions for spend anomalies.
type Service struct {
	fetcher  Fetcher
	layer    *resilience.Layer
	settings Settings
	now      func() time.Time
}

func NewService(fetcher Fetcher, layer *resilience.Layer, settings Settings) *Service {
	return &Service{
		fetcher:  fetcher,
		layer:    layer,
		settings: settings,
		now:      time.Now,
	}
}

// DetectAcross fetches the last WindowDays+1 days of every subscription concurrently, then
// aggregates and scores the subscriptions that answered. Failed subscriptions are reported in
// Report.Statuses; the call only fails when its arguments are invalid or every fetch failed.
func (s *Service) DetectAcross(ctx context.Context, subscriptionIDs []string, threshold float64) (Report, error) {
	if len(subscriptionIDs) == 0 {
		return Report{}, apperr.InvalidArgument("cost.detect_across", "at least one subscription is required")
	}
	if err := ValidateThreshold(threshold); err != nil {
		return Report{}, err
	}
	if err := s.settings.Validate(); err != nil {
		return Report{}, err
	}

	to := truncateDay(s.now()).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -(s.settings.WindowDays + 1))
	report := Report{
		Threshold: threshold,
		Period:    domain.TimePeriod{Start: from, End: to, Duration: s.settings.WindowDays + 1},
	}

	logger := zerolog.Ctx(ctx)
	logger.Info().
		Int("subscriptions", len(subscriptionIDs)).
		Time("from", from).
		Time("to", to).
		Float64("threshold", threshold).
		Msg("scanning subscriptions for cost anomalies")

	branches := resilience.FanOut(ctx, s.layer, "cost.fetch_daily", subscriptionIDs,
		func(ctx context.Context, subscriptionID string) ([]domain.CostRow, error) {
			return s.fetcher.FetchDailyCosts(ctx, subscriptionID, from, to)
		})

	var rows []domain.CostRow
	var errs []error
	for _, b := range branches {
		report.Statuses = append(report.Statuses, b.Status())
		if b.Err != nil {
			errs = append(errs, b.Err)
			logger.Warn().
				Str("subscription_id", b.Target).
				Str("correlation_id", b.CorrelationID).
				Str("error", resilience.Redact(b.Err.Error())).
				Msg("subscription cost fetch failed")
			continue
		}
		rows = append(rows, b.Value...)
	}

	if len(errs) == len(branches) {
		return report, apperr.Unavailable("cost.detect_across", fmt.Errorf("all %d subscriptions failed: %w", len(errs), errors.Join(errs...)))
	}

	agg := Aggregate(rows)
	report.Warnings = append(report.Warnings, agg.Warnings...)

	det, err := Detect(agg.Series, threshold, s.settings)
	if err != nil {
		return report, err
	}
	report.Detection = det
	for _, skipped := range det.Skipped {
		report.Warnings = append(report.Warnings, domain.PartialData(skipped.Key.String(), "series skipped: "+string(skipped.Reason)))
	}

	logger.Info().
		Int("anomalies", len(det.Anomalies)).
		Int("series_analyzed", det.SeriesAnalyzed).
		Float64("total_excess", det.TotalExcessSpend).
		Msg("anomaly scan completed")

	return report, nil
}
