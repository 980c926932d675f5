// Package marketdata provides the historical data download client used
// to build local Parquet datasets for research and replay.
package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/writer"
	"github.com/schollz/progressbar/v3"
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// downloadChunk caps how much history one provider call covers so that
// progress is reported and cancellation is checked between chunks.
const downloadChunk = 7 * 24 * time.Hour

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  provider.ProviderType `validate:"required,oneof=polygon binance"`
	WriterType    WriterType            `validate:"required,oneof=duckdb"`
	DataPath      string                `validate:"required"`
	PolygonAPIKey string                `validate:"required_if=ProviderType polygon"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Symbol    string          `validate:"required"`
	Timeframe types.Timeframe `validate:"required"`
	StartDate time.Time       `validate:"required"`
	EndDate   time.Time       `validate:"required,gtfield=StartDate"`
}

// Client downloads historical bars from a provider and stores them with
// a writer.
type Client struct {
	provider provider.Provider
	config   ClientConfig
	validate *validator.Validate
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, config.PolygonAPIKey)
	if err != nil {
		return nil, err
	}

	return &Client{
		provider: marketProvider,
		config:   config,
		validate: validate,
	}, nil
}

// Download fetches bars chunk by chunk and persists them, rendering a
// progress bar on stderr. The context cancels between chunks; an
// in-flight provider call is not interrupted.
func (c *Client) Download(ctx context.Context, params DownloadParams) (outputPath string, err error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	if err := params.Timeframe.Validate(); err != nil {
		return "", err
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", err
	}

	defer func() {
		if closeErr := marketWriter.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := c.provider.Connect(ctx); err != nil {
		return "", err
	}
	defer c.provider.Shutdown()

	totalChunks := int(params.EndDate.Sub(params.StartDate)/downloadChunk) + 1
	bar := progressbar.Default(int64(totalChunks), fmt.Sprintf("downloading %s", params.Symbol))

	for chunkStart := params.StartDate; chunkStart.Before(params.EndDate); chunkStart = chunkStart.Add(downloadChunk) {
		select {
		case <-ctx.Done():
			return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "download cancelled", ctx.Err())
		default:
		}

		chunkEnd := chunkStart.Add(downloadChunk)
		if chunkEnd.After(params.EndDate) {
			chunkEnd = params.EndDate
		}

		bars, err := c.provider.GetBarData(ctx, params.Symbol, params.Timeframe, chunkStart, chunkEnd)
		if err != nil {
			return "", err
		}

		for _, b := range bars {
			if err := marketWriter.Write(b); err != nil {
				return "", err
			}
		}

		bar.Add(1)
	}

	bar.Finish()

	return marketWriter.Finalize()
}

// setupWriter initializes the appropriate market data writer based on
// configuration.
func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		// Filename: SYMBOL_START_END_TIMEFRAME.parquet
		outputFileName := fmt.Sprintf("%s_%s_%s_%s.parquet",
			params.Symbol,
			params.StartDate.Format("2006-01-02"),
			params.EndDate.Format("2006-01-02"),
			params.Timeframe)
		outputPath := filepath.Join(c.config.DataPath, outputFileName)

		if _, err := os.Stat(c.config.DataPath); os.IsNotExist(err) {
			os.MkdirAll(c.config.DataPath, 0755)
		}

		duckdbWriter := writer.NewDuckDBWriter(outputPath)
		if err := duckdbWriter.Initialize(); err != nil {
			return nil, err
		}

		return duckdbWriter, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type: %s", c.config.WriterType)
	}
}
