package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// DatasetStats summarizes a downloaded Parquet dataset.
type DatasetStats struct {
	Symbol    string
	BarCount  int64
	StartTime time.Time
	EndTime   time.Time
	AvgVolume float64
}

// ReadDatasetStats opens the Parquet file through an in-memory DuckDB
// view and returns per-symbol summary statistics.
func ReadDatasetStats(parquetPath string) ([]DatasetStats, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open DuckDB connection", err)
	}
	defer db.Close()

	// CREATE VIEW is not expressible with squirrel; raw SQL here.
	_, err = db.Exec(fmt.Sprintf(`CREATE VIEW market_data AS SELECT * FROM read_parquet('%s')`, parquetPath))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to open dataset %s", parquetPath)
	}

	sq := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

	query, args, err := sq.
		Select(
			"symbol",
			"COUNT(*) AS bar_count",
			"MIN(time) AS start_time",
			"MAX(time) AS end_time",
			"AVG(volume) AS avg_volume",
		).
		From("market_data").
		GroupBy("symbol").
		OrderBy("symbol").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build stats query", err)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query dataset stats", err)
	}
	defer rows.Close()

	stats := []DatasetStats{}

	for rows.Next() {
		var s DatasetStats
		if err := rows.Scan(&s.Symbol, &s.BarCount, &s.StartTime, &s.EndTime, &s.AvgVolume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan stats row", err)
		}

		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read stats rows", err)
	}

	return stats, nil
}
