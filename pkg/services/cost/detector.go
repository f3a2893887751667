package cost

import (
	"math"
	"sort"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

// Settings configure the anomaly scan.
type Settings struct {
	// WindowDays is the number of calendar days before the latest point used for the baseline (default: 7)
	WindowDays int `mapstructure:"window_days"`
	// MinHistory is the minimum number of baseline points a series needs to be scored (default: 3)
	MinHistory int `mapstructure:"min_history"`
	// Threshold is the default actual/baseline ratio that flags an anomaly (default: 1.5)
	Threshold float64 `mapstructure:"threshold"`
}

func DefaultSettings() Settings {
	return Settings{
		WindowDays: 7,
		MinHistory: 3,
		Threshold:  1.5,
	}
}

func (s Settings) Validate() error {
	if s.WindowDays < 1 {
		return apperr.InvalidArgument("cost.settings", "window must be at least one day, got %d", s.WindowDays)
	}
	if s.MinHistory < 1 || s.MinHistory > s.WindowDays {
		return apperr.InvalidArgument("cost.settings", "min history must be within [1, %d], got %d", s.WindowDays, s.MinHistory)
	}
	return ValidateThreshold(s.Threshold)
}

func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 1.0 {
		return apperr.InvalidArgument("cost.detect", "threshold %.2f must be >= 1.0", threshold)
	}
	return nil
}

type SkipReason string

const (
	SkipEmpty               SkipReason = "empty_series"
	SkipInsufficientHistory SkipReason = "insufficient_history"
	SkipNonPositiveBaseline SkipReason = "non_positive_baseline"
)

type SkippedSeries struct {
	Key    domain.SeriesKey
	Reason SkipReason
}

// Detection is the result of scoring a set of series.
type Detection struct {
	// Anomalies are ordered by variance (highest first), then subscription and service.
	Anomalies        []domain.Anomaly
	TotalExcessSpend float64
	SeriesAnalyzed   int
	Skipped          []SkippedSeries
}

// Detect compares the latest point of each series to the mean of the points in the preceding
// window and reports every series whose ratio reaches threshold. It never mutates its input.
func Detect(series []domain.CostSeries, threshold float64, settings Settings) (Detection, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return Detection{}, err
	}
	settings.Threshold = threshold
	if err := settings.Validate(); err != nil {
		return Detection{}, err
	}

	var det Detection
	for _, s := range series {
		latest, ok := s.Latest()
		if !ok {
			det.Skipped = append(det.Skipped, SkippedSeries{Key: s.Key, Reason: SkipEmpty})
			continue
		}

		baseline, n := baselineOf(s, settings.WindowDays)
		if n < settings.MinHistory {
			det.Skipped = append(det.Skipped, SkippedSeries{Key: s.Key, Reason: SkipInsufficientHistory})
			continue
		}
		if baseline <= 0 {
			det.Skipped = append(det.Skipped, SkippedSeries{Key: s.Key, Reason: SkipNonPositiveBaseline})
			continue
		}
		det.SeriesAnalyzed++

		if latest.Amount/baseline < threshold {
			continue
		}

		excess := latest.Amount - baseline
		det.Anomalies = append(det.Anomalies, domain.Anomaly{
			SubscriptionID:  s.Key.SubscriptionID,
			ServiceName:     s.Key.ServiceName,
			Date:            latest.Date,
			ActualCost:      latest.Amount,
			BaselineCost:    baseline,
			VariancePercent: excess / baseline * 100,
			ExcessAmount:    excess,
		})
		det.TotalExcessSpend += math.Max(0, excess)
	}

	sort.SliceStable(det.Anomalies, func(i, j int) bool {
		a, b := det.Anomalies[i], det.Anomalies[j]
		if a.VariancePercent != b.VariancePercent {
			return a.VariancePercent > b.VariancePercent
		}
		if a.SubscriptionID != b.SubscriptionID {
			return a.SubscriptionID < b.SubscriptionID
		}
		return a.ServiceName < b.ServiceName
	})

	return det, nil
}

// baselineOf averages the points dated within windowDays calendar days before the latest point.
func baselineOf(s domain.CostSeries, windowDays int) (float64, int) {
	latest := s.Points[len(s.Points)-1]
	start := latest.Date.AddDate(0, 0, -windowDays)

	var sum float64
	var n int
	for _, p := range s.Points[:len(s.Points)-1] {
		if p.Date.Before(start) || !p.Date.Before(latest.Date) {
			continue
		}
		sum += p.Amount
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}
