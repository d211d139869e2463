// Package main runs one backtest from the command line and prints the
// per-symbol results as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"strategy-lab/internal/backtest"
	"strategy-lab/internal/dataset"
	"strategy-lab/internal/domain"
)

func main() {
	dataDir := flag.String("data-dir", "data", "Directory with OHLCV CSV files")
	strategyPath := flag.String("strategy", "", "Path to strategy JSON file (entry/exit logic)")
	symbols := flag.String("symbols", "", "Comma-separated symbols to backtest")
	interval := flag.String("interval", "1h", "Bar interval")
	signalsOnly := flag.Bool("signals-only", false, "Generate signals without trade simulation")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

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

	ctx := context.Background()
	var results map[string]*domain.SymbolResult
	if *signalsOnly {
		results = runner.RunSignals(ctx, req)
	} else {
		results = runner.Run(ctx, req)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		logger.Fatalf("Encode results: %v", err)
	}

	for symbol, res := range results {
		if res.Err != "" {
			logger.Printf("%s failed: %s", symbol, res.Err)
		}
	}
}

// buildRequest loads the strategy file and assembles the request. The
// file carries the same shape as the HTTP API body minus symbols and
// interval, which come from flags.
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
