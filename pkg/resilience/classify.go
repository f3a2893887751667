package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/aws/smithy-go"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
)

// FailureClass is the resilience-level classification of a failed attempt.
type FailureClass string

const (
	FailureNetwork      FailureClass = "network"
	FailureTimeout      FailureClass = "timeout"
	FailureRateLimited  FailureClass = "rate_limited"
	FailureServer       FailureClass = "server_error"
	FailureUnauthorized FailureClass = "unauthorized"
	FailureBadRequest   FailureClass = "bad_request"
	FailureCanceled     FailureClass = "canceled"
	FailureExhausted    FailureClass = "exhausted"
	FailureUnknown      FailureClass = "unknown"
)

func (c FailureClass) Retryable() bool {
	switch c {
	case FailureNetwork, FailureTimeout, FailureRateLimited, FailureServer:
		return true
	default:
		return false
	}
}

type Failure struct {
	Class      FailureClass
	StatusCode int
	// RetryAfter is the server hint for rate-limited responses, 0 when absent.
	RetryAfter time.Duration
}

// StatusError lets collaborators that talk plain HTTP report a status code and Retry-After header.
type StatusError struct {
	StatusCode int
	RetryAfter string
	Err        error
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %v", e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

var throttlingCodes = map[string]struct{}{
	"Throttling":                             {},
	"ThrottlingException":                    {},
	"TooManyRequestsException":               {},
	"RequestLimitExceeded":                   {},
	"LimitExceededException":                 {},
	"ProvisionedThroughputExceededException": {},
}

// Classify maps an attempt error onto a FailureClass.
func Classify(err error) Failure {
	return classifyAt(err, time.Now())
}

func classifyAt(err error, now time.Time) Failure {
	if err == nil {
		return Failure{}
	}
	if errors.Is(err, context.Canceled) {
		return Failure{Class: FailureCanceled}
	}

	switch apperr.KindOf(err) {
	case apperr.KindUnauthorized:
		return Failure{Class: FailureUnauthorized}
	case apperr.KindInvalidArgument:
		return Failure{Class: FailureBadRequest}
	case apperr.KindUnavailable:
		// a nested layer already spent its budget
		return Failure{Class: FailureExhausted}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return fromStatus(statusErr.StatusCode, parseRetryAfter(statusErr.RetryAfter, now))
	}

	var authErr *azidentity.AuthenticationFailedError
	if errors.As(err, &authErr) {
		return Failure{Class: FailureUnauthorized}
	}

	var azErr *azcore.ResponseError
	if errors.As(err, &azErr) {
		var hint time.Duration
		if azErr.RawResponse != nil {
			hint = parseRetryAfter(azErr.RawResponse.Header.Get("Retry-After"), now)
		}
		return fromStatus(azErr.StatusCode, hint)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := throttlingCodes[apiErr.ErrorCode()]; ok {
			return Failure{Class: FailureRateLimited, StatusCode: http.StatusTooManyRequests}
		}
	}

	var coded interface{ HTTPStatusCode() int }
	if errors.As(err, &coded) && coded.HTTPStatusCode() > 0 {
		return fromStatus(coded.HTTPStatusCode(), 0)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Failure{Class: FailureTimeout}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Failure{Class: FailureTimeout}
		}
		return Failure{Class: FailureNetwork}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return Failure{Class: FailureNetwork}
	}

	return Failure{Class: FailureUnknown}
}

func fromStatus(code int, retryAfter time.Duration) Failure {
	f := Failure{StatusCode: code}
	switch {
	case code == http.StatusTooManyRequests:
		f.Class = FailureRateLimited
		f.RetryAfter = retryAfter
	case code == http.StatusRequestTimeout:
		f.Class = FailureTimeout
	case code >= 500:
		f.Class = FailureServer
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		f.Class = FailureUnauthorized
	case code >= 400:
		f.Class = FailureBadRequest
	default:
		f.Class = FailureUnknown
	}
	return f
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

var redactions = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`), "[REDACTED PRIVATE KEY]"},
	{regexp.MustCompile(`(?i)bearer\s+[a-z0-9\-._~+/]+=*`), "Bearer [REDACTED]"},
	{regexp.MustCompile(`(?i)\b(sig|client_secret|client_assertion|password|access_token|refresh_token|token|secret|x-amz-security-token)=([^&\s"']+)`), "$1=[REDACTED]"},
}

// Redact strips credential material from text destined for log lines.
func Redact(s string) string {
	for _, r := range redactions {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}
