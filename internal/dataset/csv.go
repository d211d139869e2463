// Package dataset discovers and loads OHLCV CSV files and serves them
// through a bounded in-memory cache.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"strategy-lab/internal/domain"
)

// columnAliases maps vendor CSV headers onto canonical column names.
// Binance exports use "Open time"/"Open"/... ; already-normalized files
// pass through unchanged.
var columnAliases = map[string]string{
	"open time": "timestamp",
	"timestamp": "timestamp",
	"time":      "timestamp",
	"date":      "timestamp",
	"open":      "open",
	"high":      "high",
	"low":       "low",
	"close":     "close",
	"volume":    "volume",
}

// ParseCSV reads an OHLCV CSV stream, normalizes column names, parses
// timestamps and returns bars sorted by timestamp ascending. Unknown
// columns are ignored. Rows whose timestamp cannot be parsed are
// rejected; blank numeric cells become undefined (NaN).
func ParseCSV(r io.Reader) ([]domain.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int)
	for i, name := range header {
		canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, exists := cols[canonical]; !exists {
			cols[canonical] = i
		}
	}
	if _, ok := cols["timestamp"]; !ok {
		return nil, fmt.Errorf("csv has no timestamp column (header: %v)", header)
	}
	if _, ok := cols["close"]; !ok {
		return nil, fmt.Errorf("csv has no close column (header: %v)", header)
	}

	var bars []domain.Bar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		ts, err := parseTimestamp(record[cols["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		bars = append(bars, domain.Bar{
			Timestamp: ts,
			Open:      cell(record, cols, "open"),
			High:      cell(record, cols, "high"),
			Low:       cell(record, cols, "low"),
			Close:     cell(record, cols, "close"),
			Volume:    cell(record, cols, "volume"),
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	return bars, nil
}

// LoadFile loads one CSV file from disk.
func LoadFile(path string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	defer f.Close()

	bars, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return bars, nil
}

func cell(record []string, cols map[string]int, name string) float64 {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return math.NaN()
	}
	s := strings.TrimSpace(record[idx])
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts epoch seconds, epoch milliseconds, and the
// common date/datetime layouts.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
		const msThreshold = int64(1e12)
		if epoch >= msThreshold {
			return time.UnixMilli(epoch).UTC(), nil
		}
		return time.Unix(epoch, 0).UTC(), nil
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
