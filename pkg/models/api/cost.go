package api

import "time"

type AnomalyRequest struct {
	SubscriptionIDs []string `json:"subscription_ids"`
	Threshold       float64  `json:"threshold"`
}

type Anomaly struct {
	SubscriptionID  string    `json:"subscription_id"`
	ServiceName     string    `json:"service_name"`
	Date            time.Time `json:"date"`
	ActualCost      float64   `json:"actual_cost"`
	BaselineCost    float64   `json:"baseline_cost"`
	VariancePercent float64   `json:"variance_percent"`
	ExcessAmount    float64   `json:"excess_amount"`
}

type SkippedSeries struct {
	SubscriptionID string `json:"subscription_id"`
	ServiceName    string `json:"service_name"`
	Reason         string `json:"reason"`
}

type AnomalyReport struct {
	Threshold        float64         `json:"threshold"`
	Period           TimePeriod      `json:"period"`
	TotalAnomalies   int             `json:"total_anomalies"`
	TotalExcessSpend float64         `json:"total_excess_spend"`
	SeriesAnalyzed   int             `json:"series_analyzed"`
	Anomalies        []Anomaly       `json:"anomalies"`
	Skipped          []SkippedSeries `json:"skipped,omitempty"`
	Subscriptions    []BranchStatus  `json:"subscriptions"`
	Warnings         []Warning       `json:"warnings,omitempty"`
}
