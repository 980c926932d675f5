package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// DuckDBSpreadWriter persists spread records to a Parquet file with
// real-time persistence: every write re-exports the table so the file
// stays current if the process dies.
type DuckDBSpreadWriter struct {
	db         *sql.DB
	outputPath string
	mu         sync.Mutex
}

// NewDuckDBSpreadWriter creates a writer targeting the given Parquet
// file path.
func NewDuckDBSpreadWriter(outputPath string) *DuckDBSpreadWriter {
	return &DuckDBSpreadWriter{
		outputPath: outputPath,
	}
}

// Initialize implements SpreadWriter. Existing data in the output file
// is loaded back so restarts append rather than overwrite.
func (w *DuckDBSpreadWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create data directory %s", dir)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open DuckDB connection", err)
	}

	w.db = db

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS spreads (
			id TEXT,
			symbol TEXT,
			time TIMESTAMP,
			bid DOUBLE,
			ask DOUBLE,
			spread DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create spreads table", err)
	}

	if _, err := os.Stat(w.outputPath); err == nil {
		_, err = w.db.Exec(fmt.Sprintf(`
			INSERT INTO spreads
			SELECT * FROM read_parquet('%s')
		`, w.outputPath))
		if err != nil {
			// Unreadable previous file; start fresh.
			_ = err
		}
	}

	return nil
}

// Write implements SpreadWriter.
func (w *DuckDBSpreadWriter) Write(record SpreadRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	_, err := w.db.Exec(`
		INSERT INTO spreads (id, symbol, time, bid, ask, spread)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), record.Symbol, record.Time, record.Bid, record.Ask, record.Spread)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to insert spread record", err)
	}

	return w.exportToParquet()
}

// Count returns the number of stored spread records.
func (w *DuckDBSpreadWriter) Count() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return 0, errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	var count int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM spreads").Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count spread records", err)
	}

	return count, nil
}

// Close implements SpreadWriter.
func (w *DuckDBSpreadWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close database", err)
		}

		w.db = nil
	}

	return nil
}

func (w *DuckDBSpreadWriter) exportToParquet() error {
	_, err := w.db.Exec(fmt.Sprintf(`
		COPY (SELECT * FROM spreads ORDER BY time ASC)
		TO '%s' (FORMAT PARQUET)
	`, w.outputPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to export to parquet", err)
	}

	return nil
}
