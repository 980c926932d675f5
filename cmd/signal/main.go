package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/pipeline"
	"github.com/rxtech-lab/argo-signal/internal/server"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// runAction loads the pipeline configuration, starts the pipeline and,
// when configured, the status server, then blocks until interrupted.
func runAction(ctx context.Context, cmd *cli.Command) error {
	appLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	config, err := pipeline.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(config, appLogger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := p.Start(ctx); err != nil {
		return err
	}

	var statusServer *server.Server
	if config.Server.Enabled {
		statusServer = server.NewServer(config.Server.Addr, p.Channel(), p.Tracker(), appLogger)

		go func() {
			if err := statusServer.Start(); err != nil {
				appLogger.Error("status server failed", zap.Error(err))
				cancel()
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		appLogger.Info("received interrupt signal, stopping")
	case <-ctx.Done():
	}

	if statusServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := statusServer.Stop(shutdownCtx); err != nil {
			appLogger.Warn("status server shutdown failed", zap.Error(err))
		}
	}

	return p.Stop()
}

// downloadAction downloads historical bars into a Parquet dataset.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	timeframe, err := types.ParseTimeframe(cmd.String("timeframe"))
	if err != nil {
		return err
	}

	clientConfig := marketdata.ClientConfig{
		ProviderType:  provider.ProviderType(cmd.String("provider")),
		WriterType:    marketdata.WriterType(cmd.String("writer")),
		DataPath:      cmd.String("data"),
		PolygonAPIKey: os.Getenv("POLYGON_API_KEY"),
	}

	client, err := marketdata.NewClient(clientConfig)
	if err != nil {
		return err
	}

	outputPath, err := client.Download(ctx, marketdata.DownloadParams{
		Symbol:    cmd.String("symbol"),
		Timeframe: timeframe,
		StartDate: cmd.Timestamp("start"),
		EndDate:   cmd.Timestamp("end"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Downloaded data to %s\n", outputPath)

	return nil
}

// statsAction prints summary statistics for a downloaded dataset.
func statsAction(_ context.Context, cmd *cli.Command) error {
	stats, err := marketdata.ReadDatasetStats(cmd.String("file"))
	if err != nil {
		return err
	}

	for _, s := range stats {
		fmt.Printf("%s: %d bars from %s to %s, avg volume %.2f\n",
			s.Symbol, s.BarCount,
			s.StartTime.Format("2006-01-02 15:04"), s.EndTime.Format("2006-01-02 15:04"),
			s.AvgVolume)
	}

	return nil
}

// providersAction lists the supported market data providers.
func providersAction(_ context.Context, _ *cli.Command) error {
	for _, name := range marketdata.GetSupportedProviders() {
		info, err := marketdata.GetProviderInfo(name)
		if err != nil {
			return err
		}

		auth := "no auth"
		if info.RequiresAuth {
			auth = "requires auth"
		}

		fmt.Printf("%s (%s): %s [%s]\n", info.DisplayName, info.Name, info.Description, auth)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "argo-signal",
		Usage: "Trading signal pipeline",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the signal pipeline",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML pipeline configuration",
						Required: true,
					},
				},
				Action: runAction,
			},
			{
				Name:  "download",
				Usage: "Download historical market data",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "symbol",
						Aliases:  []string{"s"},
						Usage:    "Instrument symbol",
						Required: true,
					},
					&cli.TimestampFlag{
						Name:     "start",
						Usage:    "Start date in `YYYY-MM-DD` format",
						Required: true,
						Config: cli.TimestampConfig{
							Layouts: []string{"2006-01-02"},
						},
					},
					&cli.TimestampFlag{
						Name:  "end",
						Usage: "End date in `YYYY-MM-DD` format. Defaults to today.",
						Value: time.Now(),
						Config: cli.TimestampConfig{
							Layouts: []string{"2006-01-02"},
						},
					},
					&cli.StringFlag{
						Name:  "timeframe",
						Usage: "Bar timeframe (M1, M5, M15, M30, H1, H4, D1, W1, MN1)",
						Value: string(types.TimeframeM1),
					},
					&cli.StringFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage:   fmt.Sprintf("Data provider (%s, %s)", provider.ProviderPolygon, provider.ProviderBinance),
						Value:   string(provider.ProviderBinance),
					},
					&cli.StringFlag{
						Name:    "writer",
						Aliases: []string{"w"},
						Usage:   "Data writer format",
						Value:   string(marketdata.WriterDuckDB),
					},
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Path to the data output directory",
						Value:   "data",
					},
				},
				Action: downloadAction,
			},
			{
				Name:  "stats",
				Usage: "Show statistics for a downloaded dataset",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the Parquet dataset",
						Required: true,
					},
				},
				Action: statsAction,
			},
			{
				Name:   "providers",
				Usage:  "List supported market data providers",
				Action: providersAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
