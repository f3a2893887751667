package domain

import "time"

// CostRow is a raw daily cost row as decoded from a provider query.
type CostRow struct {
	SubscriptionID string
	ServiceName    string
	ResourceGroup  string
	Date           time.Time
	Amount         float64
	Currency       string // USD
}

type CostPoint struct {
	SubscriptionID string
	ServiceName    string
	Date           time.Time // UTC, truncated to the day
	Amount         float64
}

type SeriesKey struct {
	SubscriptionID string
	ServiceName    string
}

func (k SeriesKey) String() string {
	return k.SubscriptionID + "/" + k.ServiceName
}

// CostSeries holds the points of one (subscription, service) pair, sorted by date with unique dates.
type CostSeries struct {
	Key    SeriesKey
	Points []CostPoint
}

func (s CostSeries) Latest() (CostPoint, bool) {
	if len(s.Points) == 0 {
		return CostPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

type Anomaly struct {
	SubscriptionID  string
	ServiceName     string
	Date            time.Time
	ActualCost      float64
	BaselineCost    float64
	VariancePercent float64
	ExcessAmount    float64
}
