package resilience

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

// Branch is the immutable outcome of one fan-out target.
type Branch[T any] struct {
	Target        string
	CorrelationID string
	Value         T
	Err           error
}

func (b Branch[T]) Status() domain.BranchStatus {
	status := domain.BranchStatus{
		Target:        b.Target,
		CorrelationID: b.CorrelationID,
		State:         domain.BranchOK,
	}
	if b.Err != nil {
		status.State = domain.BranchFailed
		status.ErrorKind = apperr.KindOf(b.Err)
		status.Error = Redact(b.Err.Error())
	}
	return status
}

// FanOut runs fetch once per target through Execute, at most Settings.Concurrency at a time.
// Branches share the parent correlation id as a prefix. A failed branch never cancels its
// siblings; results come back in target order once every branch has finished.
func FanOut[T any](
	ctx context.Context,
	l *Layer,
	operation string,
	targets []string,
	fetch func(ctx context.Context, target string) (T, error),
) []Branch[T] {
	ctx, parent := EnsureCorrelationID(ctx)

	branches := make([]Branch[T], len(targets))
	var g errgroup.Group
	g.SetLimit(l.settings.Concurrency)

	for i, target := range targets {
		branchID := BranchID(parent, target)
		branches[i] = Branch[T]{Target: target, CorrelationID: branchID}

		g.Go(func() error {
			bctx := WithCorrelationID(ctx, branchID)
			value, err := Execute(bctx, l, operation, func(ctx context.Context) (T, error) {
				return fetch(ctx, target)
			})
			branches[i].Value = value
			branches[i].Err = err
			return nil
		})
	}

	_ = g.Wait()
	return branches
}
