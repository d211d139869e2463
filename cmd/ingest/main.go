// Package main ingests OHLCV bars into the bar store, either by
// importing CSV files or by streaming live klines over WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"strategy-lab/internal/dataset"
	"strategy-lab/internal/ingestion"
	"strategy-lab/internal/storage"
	chstore "strategy-lab/internal/storage/clickhouse"
	"strategy-lab/internal/storage/memory"
	"strategy-lab/internal/storage/migrations"
)

func main() {
	// Parse flags
	mode := flag.String("mode", "import", "Ingestion mode: import or live")
	dataDir := flag.String("data-dir", "data", "Directory with OHLCV CSV files (import mode)")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("KLINE_WS_ENDPOINT"), "Kline WebSocket base endpoint (live mode)")
	symbols := flag.String("symbols", "", "Comma-separated symbols to stream (live mode)")
	interval := flag.String("interval", "1h", "Bar interval (live mode)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of ClickHouse")

	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Create store
	var store storage.BarStore
	if *useMemory {
		store = memory.NewBarStore()
		logger.Println("Using in-memory storage")
	} else {
		if *clickhouseDSN == "" {
			logger.Fatal("--clickhouse-dsn is required (use --use-memory for in-memory storage)")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("clickhouse migrations: %v", err)
		}
		defer conn.Close()
		store = chstore.NewBarStore(conn)
	}

	importer := ingestion.NewImporter(store, logger)

	switch *mode {
	case "import":
		total, err := importer.ImportCatalog(ctx, dataset.NewCatalog(*dataDir))
		if err != nil {
			logger.Fatalf("Import failed after %d bars: %v", total, err)
		}
		logger.Printf("Imported %d bars from %s", total, *dataDir)

	case "live":
		if *wsEndpoint == "" {
			logger.Fatal("--ws-endpoint is required in live mode")
		}
		symbolList := splitSymbols(*symbols)
		if len(symbolList) == 0 {
			logger.Fatal("--symbols is required in live mode")
		}

		streamURL := ingestion.StreamURL(*wsEndpoint, symbolList, *interval)
		logger.Printf("Streaming klines from %s", streamURL)

		client, err := ingestion.NewKlineClient(ctx, streamURL, nil, logger)
		if err != nil {
			logger.Fatalf("Connect kline stream: %v", err)
		}
		defer client.Close()

		stored, err := importer.Collect(ctx, client.Klines())
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatalf("Collect failed after %d bars: %v", stored, err)
		}
		logger.Printf("Stored %d bars", stored)

	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
