package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/resilience"
)

// Load reads every source through the resilience layer and merges the results into one Store.
// Later sources override earlier ones entry by entry. A failing source is reported as a warning;
// Load only fails when no source could be read.
func Load(ctx context.Context, layer *resilience.Layer, sources ...Source) (Store, []domain.Warning, error) {
	if len(sources) == 0 {
		return nil, nil, apperr.InvalidArgument("pricing.load", "at least one price source is required")
	}

	logger := zerolog.Ctx(ctx)
	var (
		entries  []domain.PriceEntry
		warnings []domain.Warning
		errs     []error
	)

	for _, src := range sources {
		loaded, err := resilience.Execute(ctx, layer, "pricing.load", src.LoadPrices)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, err
			}
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			warnings = append(warnings, domain.PartialData(src.Name(), "price source unavailable: "+resilience.Redact(err.Error())))
			logger.Warn().Err(err).Str("source", src.Name()).Msg("failed to load price source")
			continue
		}
		logger.Debug().Str("source", src.Name()).Int("entries", len(loaded)).Msg("price source loaded")
		entries = append(entries, loaded...)
	}

	if len(errs) == len(sources) {
		return nil, warnings, apperr.Unavailable("pricing.load", errors.Join(errs...))
	}

	store, invalid := NewStore(entries)
	return store, append(warnings, invalid...), nil
}
