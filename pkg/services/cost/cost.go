package cost

import (
	"context"
	"time"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

// Fetcher returns raw daily cost rows of one subscription (or AWS account) for [from, to).
type Fetcher interface {
	FetchDailyCosts(ctx context.Context, subscriptionID string, from, to time.Time) ([]domain.CostRow, error)
}

// Report is the outcome of an anomaly scan across several subscriptions.
type Report struct {
	Detection
	Threshold float64
	Period    domain.TimePeriod
	Statuses  []domain.BranchStatus
	Warnings  []domain.Warning
}
