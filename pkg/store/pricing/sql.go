package pricing

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

// DefaultPriceQuery reads the current list prices. The table lives in a Databricks or
// Snowflake billing schema and is refreshed by an external job.
const DefaultPriceQuery = `
	SELECT
		resource_type,
		sku_name,
		COALESCE(size_gb, 0) AS size_gb,
		COALESCE(region, '') AS region,
		monthly_price,
		COALESCE(unit, 'month') AS unit,
		currency_code
	FROM billing.list_prices
	WHERE price_end_time IS NULL
	ORDER BY resource_type, sku_name, size_gb`

type sqlSource struct {
	db     *sql.DB
	driver string
	query  string
}

// NewSQLSource reads prices with query (DefaultPriceQuery when empty) from db.
func NewSQLSource(db *sql.DB, driver, query string) Source {
	if query == "" {
		query = DefaultPriceQuery
	}
	return &sqlSource{db: db, driver: driver, query: query}
}

func (s *sqlSource) Name() string { return "sql:" + s.driver }

func (s *sqlSource) LoadPrices(ctx context.Context) ([]domain.PriceEntry, error) {
	logger := zerolog.Ctx(ctx)

	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("list prices query failed: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close list prices rows")
		}
	}(rows)

	var entries []domain.PriceEntry
	for rows.Next() {
		var e domain.PriceEntry
		if err := rows.Scan(&e.ResourceType, &e.SKU, &e.SizeGB, &e.Region, &e.MonthlyPrice, &e.Unit, &e.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan list price row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list prices rows iteration failed: %w", err)
	}

	logger.Debug().Int("entries", len(entries)).Str("driver", s.driver).Msg("loaded list prices")
	return entries, nil
}
