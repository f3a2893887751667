package pricing

import (
	"database/sql"

	_ "github.com/databricks/databricks-sql-go"
	sf "github.com/snowflakedb/gosnowflake"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
)

const (
	DriverDatabricks = "databricks"
	DriverSnowflake  = "snowflake"
)

// OpenDB opens the billing warehouse that holds the list price table. The connection is
// established lazily on the first query.
func OpenDB(driver, dsn string) (*sql.DB, error) {
	const op = "pricing.open_db"

	switch driver {
	case DriverDatabricks:
	case DriverSnowflake:
		cfg, err := sf.ParseDSN(dsn)
		if err != nil {
			return nil, apperr.InvalidArgument(op, "invalid snowflake dsn: %v", err)
		}
		if dsn, err = sf.DSN(cfg); err != nil {
			return nil, apperr.InvalidArgument(op, "invalid snowflake dsn: %v", err)
		}
	default:
		return nil, apperr.InvalidArgument(op, "unsupported price database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, apperr.InvalidArgument(op, "failed to open %s: %v", driver, err)
	}
	return db, nil
}
