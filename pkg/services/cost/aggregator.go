package cost

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

// Aggregation is the per-series view of a batch of raw cost rows.
type Aggregation struct {
	// Series are ordered by subscription, then service.
	Series   []domain.CostSeries
	Warnings []domain.Warning
	// RowsAccepted counts rows that contributed to a series.
	RowsAccepted int
}

func (a Aggregation) Lookup(key domain.SeriesKey) (domain.CostSeries, bool) {
	i := sort.Search(len(a.Series), func(i int) bool { return !seriesKeyLess(a.Series[i].Key, key) })
	if i < len(a.Series) && a.Series[i].Key == key {
		return a.Series[i], true
	}
	return domain.CostSeries{}, false
}

// Aggregate groups raw rows into per-(subscription, service) daily series. Rows landing on the
// same UTC day of the same series (several resource groups, say) are summed. Gaps are kept as gaps.
func Aggregate(rows []domain.CostRow) Aggregation {
	var agg Aggregation
	daily := make(map[domain.SeriesKey]map[time.Time]float64)

	for i, row := range rows {
		if problem := rowProblem(row); problem != "" {
			agg.Warnings = append(agg.Warnings, domain.PartialData(
				fmt.Sprintf("row %d", i),
				fmt.Sprintf("dropped cost row for %s/%s: %s", row.SubscriptionID, row.ServiceName, problem),
			))
			continue
		}

		key := domain.SeriesKey{SubscriptionID: row.SubscriptionID, ServiceName: row.ServiceName}
		day := truncateDay(row.Date)
		if daily[key] == nil {
			daily[key] = make(map[time.Time]float64)
		}
		daily[key][day] += row.Amount
		agg.RowsAccepted++
	}

	agg.Series = make([]domain.CostSeries, 0, len(daily))
	for key, days := range daily {
		series := domain.CostSeries{Key: key, Points: make([]domain.CostPoint, 0, len(days))}
		for day, amount := range days {
			series.Points = append(series.Points, domain.CostPoint{
				SubscriptionID: key.SubscriptionID,
				ServiceName:    key.ServiceName,
				Date:           day,
				Amount:         amount,
			})
		}
		sort.Slice(series.Points, func(i, j int) bool {
			return series.Points[i].Date.Before(series.Points[j].Date)
		})
		agg.Series = append(agg.Series, series)
	}
	sort.Slice(agg.Series, func(i, j int) bool {
		return seriesKeyLess(agg.Series[i].Key, agg.Series[j].Key)
	})

	return agg
}

func rowProblem(row domain.CostRow) string {
	switch {
	case row.SubscriptionID == "":
		return "missing subscription"
	case row.ServiceName == "":
		return "missing service name"
	case row.Date.IsZero():
		return "missing date"
	case math.IsNaN(row.Amount) || math.IsInf(row.Amount, 0):
		return "non-finite amount"
	case row.Amount < 0:
		return fmt.Sprintf("negative amount %.2f", row.Amount)
	}
	return ""
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func seriesKeyLess(a, b domain.SeriesKey) bool {
	if a.SubscriptionID != b.SubscriptionID {
		return a.SubscriptionID < b.SubscriptionID
	}
	return a.ServiceName < b.ServiceName
}
