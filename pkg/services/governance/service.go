package governance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/resilience"
)

const costCategory = "Cost"

// RecommendationFetcher lists the advisor recommendations of one subscription.
type RecommendationFetcher interface {
	FetchRecommendations(ctx context.Context, subscriptionID string) ([]domain.Recommendation, error)
}

type AdviceReport struct {
	ScoringResult
	Statuses []domain.BranchStatus
}

type ReviewReport struct {
	OverlayResult
	Statuses []domain.BranchStatus
}

type Service struct {
	fetcher RecommendationFetcher
	layer   *resilience.Layer
	scorer  *Scorer
	overlay *Overlay
}

func NewService(fetcher RecommendationFetcher, layer *resilience.Layer, rules Rules) *Service {
	return &Service{
		fetcher: fetcher,
		layer:   layer,
		scorer:  NewScorer(rules),
		overlay: NewOverlay(rules),
	}
}

// Advise scores the advisor recommendations of every subscription that answered.
func (s *Service) Advise(ctx context.Context, subscriptionIDs []string, minRiskScore int) (AdviceReport, error) {
	if minRiskScore < MinRiskScore || minRiskScore > MaxRiskScore {
		return AdviceReport{}, apperr.InvalidArgument("governance.advise",
			"min risk score %d outside [%d, %d]", minRiskScore, MinRiskScore, MaxRiskScore)
	}

	recs, statuses, err := s.fetchAll(ctx, "governance.advise", subscriptionIDs)
	if err != nil {
		return AdviceReport{Statuses: statuses}, err
	}

	scored, err := s.scorer.Score(recs, minRiskScore)
	if err != nil {
		return AdviceReport{Statuses: statuses}, err
	}

	zerolog.Ctx(ctx).Info().
		Int("recommendations", scored.Summary.Total).
		Int("high_risk", scored.Summary.HighRisk).
		Int("min_risk_score", minRiskScore).
		Msg("governance scoring completed")
	return AdviceReport{ScoringResult: scored, Statuses: statuses}, nil
}

// ReviewCostActions runs the cost-category recommendations of every subscription through the
// compliance overlay.
func (s *Service) ReviewCostActions(ctx context.Context, subscriptionIDs []string, frameworks []string) (ReviewReport, error) {
	if err := s.overlay.CheckFrameworks(frameworks); err != nil {
		return ReviewReport{}, err
	}

	recs, statuses, err := s.fetchAll(ctx, "governance.review", subscriptionIDs)
	if err != nil {
		return ReviewReport{Statuses: statuses}, err
	}

	var costActions []domain.Recommendation
	for _, r := range recs {
		if strings.EqualFold(r.Category, costCategory) {
			costActions = append(costActions, r)
		}
	}

	result, err := s.overlay.Apply(costActions, frameworks)
	if err != nil {
		return ReviewReport{Statuses: statuses}, err
	}

	zerolog.Ctx(ctx).Info().
		Int("safe", result.Summary.Safe).
		Int("flagged", result.Summary.Flagged).
		Int("requires_approval", result.Summary.RequiresApproval).
		Msg("compliance overlay completed")
	return ReviewReport{OverlayResult: result, Statuses: statuses}, nil
}

func (s *Service) fetchAll(ctx context.Context, op string, subscriptionIDs []string) ([]domain.Recommendation, []domain.BranchStatus, error) {
	if len(subscriptionIDs) == 0 {
		return nil, nil, apperr.InvalidArgument(op, "at least one subscription is required")
	}

	logger := zerolog.Ctx(ctx)
	branches := resilience.FanOut(ctx, s.layer, "governance.fetch_recommendations", subscriptionIDs, s.fetcher.FetchRecommendations)

	var recs []domain.Recommendation
	var statuses []domain.BranchStatus
	var errs []error
	for _, b := range branches {
		statuses = append(statuses, b.Status())
		if b.Err != nil {
			errs = append(errs, b.Err)
			logger.Warn().
				Str("subscription_id", b.Target).
				Str("correlation_id", b.CorrelationID).
				Str("error", resilience.Redact(b.Err.Error())).
				Msg("advisor fetch failed")
			continue
		}
		for _, r := range b.Value {
			if r.SubscriptionID == "" {
				r.SubscriptionID = b.Target
			}
			recs = append(recs, r)
		}
	}

	if len(errs) == len(branches) {
		return nil, statuses, apperr.Unavailable(op, fmt.Errorf("all %d subscriptions failed: %w", len(errs), errors.Join(errs...)))
	}
	return recs, statuses, nil
}
