package domain

import (
	"strings"
	"time"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
)

// TimePeriod represents a time range for the report
type TimePeriod struct {
	Start    time.Time
	End      time.Time
	Duration int // in days
}

// Warning is a non-fatal data-quality note attached to a result.
type Warning struct {
	Kind    apperr.Kind
	Subject string
	Message string
}

func PartialData(subject, message string) Warning {
	return Warning{Kind: apperr.KindPartialData, Subject: subject, Message: message}
}

type BranchState string

const (
	BranchOK     BranchState = "ok"
	BranchFailed BranchState = "failed"
)

// BranchStatus reports the outcome of one fan-out branch (a subscription or a tenant).
type BranchStatus struct {
	Target        string
	CorrelationID string
	State         BranchState
	ErrorKind     apperr.Kind
	Error         string
}

func lower(s string) string {
	return strings.ToLower(s)
}
