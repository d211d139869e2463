// Package main runs a backtest and writes its results as report files:
// REPORT.md, trades.csv and metrics.csv in the output directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"strategy-lab/internal/backtest"
	"strategy-lab/internal/dataset"
	"strategy-lab/internal/domain"
	"strategy-lab/internal/reporting"
)

func main() {
	dataDir := flag.String("data-dir", "data", "Directory with OHLCV CSV files")
	strategyPath := flag.String("strategy", "", "Path to strategy JSON file (entry/exit logic)")
	symbols := flag.String("symbols", "", "Comma-separated symbols to backtest")
	interval := flag.String("interval", "1h", "Bar interval")
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")

	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *strategyPath == "" {
		logger.Fatal("--strategy is required")
	}
	symbolList := splitSymbols(*symbols)
	if len(symbolList) == 0 {
		logger.Fatal("--symbols is required")
	}

	req, err := buildRequest(*strategyPath, symbolList, *interval)
	if err != nil {
		logger.Fatalf("Build request: %v", err)
	}

	loader := dataset.NewLoader(dataset.NewCatalog(*dataDir))
	runner := backtest.NewRunner(loader, logger)

	results := runner.Run(context.Background(), req)
	report := reporting.NewGenerator().Build(*interval, results)

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("Create output directory: %v", err)
	}

	files := map[string]string{
		"REPORT.md":   reporting.RenderMarkdown(report),
		"trades.csv":  reporting.RenderTradesCSV(report),
		"metrics.csv": reporting.RenderMetricsCSV(report),
	}
	for name, content := range files {
		path := filepath.Join(*outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			logger.Fatalf("Write %s: %v", path, err)
		}
		logger.Printf("Wrote %s", path)
	}

	for symbol, res := range results {
		if res.Err != "" {
			logger.Printf("%s failed: %s", symbol, res.Err)
		}
	}
}

func buildRequest(path string, symbols []string, interval string) (*domain.BacktestRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy file: %w", err)
	}

	var req domain.BacktestRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse strategy file: %w", err)
	}

	req.Symbols = symbols
	req.Interval = interval
	return &req, nil
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
