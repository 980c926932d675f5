package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// CSVSpreadWriter appends records to one CSV file per symbol per UTC
// day, named SYMBOL_YYYY-MM-DD.csv, writing a header when it creates a
// file. Files roll over when the record date changes.
type CSVSpreadWriter struct {
	logDir string

	mu    sync.Mutex
	files map[string]*csvFile
}

type csvFile struct {
	handle *os.File
	writer *csv.Writer
	date   string
}

// NewCSVSpreadWriter creates a writer targeting the given directory.
func NewCSVSpreadWriter(logDir string) *CSVSpreadWriter {
	return &CSVSpreadWriter{
		logDir: logDir,
		files:  map[string]*csvFile{},
	}
}

// Initialize implements SpreadWriter.
func (w *CSVSpreadWriter) Initialize() error {
	if err := os.MkdirAll(w.logDir, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create spread log directory %s", w.logDir)
	}

	return nil
}

// Write implements SpreadWriter.
func (w *CSVSpreadWriter) Write(record SpreadRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	date := record.Time.Format("2006-01-02")

	file, err := w.fileFor(record.Symbol, date)
	if err != nil {
		return err
	}

	err = file.writer.Write([]string{
		record.Time.Format("2006-01-02T15:04:05.999999999Z07:00"),
		strconv.FormatFloat(record.Bid, 'f', -1, 64),
		strconv.FormatFloat(record.Ask, 'f', -1, 64),
		strconv.FormatFloat(record.Spread, 'f', -1, 64),
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write spread row", err)
	}

	// Flush per row; the recorder samples at second granularity so the
	// write rate is low and a crash must not lose the day's log.
	file.writer.Flush()

	if err := file.writer.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to flush spread row", err)
	}

	return nil
}

// Close implements SpreadWriter.
func (w *CSVSpreadWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var closeErr error

	for symbol, file := range w.files {
		file.writer.Flush()

		if err := file.handle.Close(); err != nil && closeErr == nil {
			closeErr = errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to close spread log for %s", symbol)
		}
	}

	w.files = map[string]*csvFile{}

	return closeErr
}

func (w *CSVSpreadWriter) fileFor(symbol, date string) (*csvFile, error) {
	file, ok := w.files[symbol]
	if ok && file.date == date {
		return file, nil
	}

	if ok {
		// Day changed; roll over to a fresh file.
		file.writer.Flush()
		file.handle.Close()
		delete(w.files, symbol)
	}

	path := filepath.Join(w.logDir, fmt.Sprintf("%s_%s.csv", symbol, date))

	handle, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to open spread log %s", path)
	}

	info, err := handle.Stat()
	if err != nil {
		handle.Close()

		return nil, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to stat spread log %s", path)
	}

	writer := csv.NewWriter(handle)

	if info.Size() == 0 {
		if err := writer.Write([]string{"timestamp", "bid", "ask", "spread"}); err != nil {
			handle.Close()

			return nil, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write spread log header", err)
		}

		writer.Flush()
	}

	file = &csvFile{handle: handle, writer: writer, date: date}
	w.files[symbol] = file

	return file, nil
}
