package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"strategy-lab/internal/domain"
)

// ErrNotFound is returned when no dataset file matches the requested
// symbol and interval.
var ErrNotFound = errors.New("dataset not found")

// Catalog maps (symbol, interval) pairs onto CSV files in a data
// directory. File names follow `{symbol}_{interval}_*.csv`, lowercase,
// e.g. btc_1d_data_2018_to_2025.csv.
type Catalog struct {
	dir string
}

// NewCatalog creates a catalog over the given directory.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// Resolve returns the path of the first file matching the symbol and
// interval. Returns ErrNotFound when nothing matches.
func (c *Catalog) Resolve(symbol, interval string) (string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return "", fmt.Errorf("read data dir: %w", err)
	}

	// Trailing separator keeps "1" from matching "1d" files.
	prefix := strings.ToLower(symbol) + "_" + strings.ToLower(interval) + "_"
	var matches []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s_%s", ErrNotFound, symbol, interval)
	}
	sort.Strings(matches)
	return filepath.Join(c.dir, matches[0]), nil
}

// List enumerates the datasets available in the directory by parsing
// file names of the form `{symbol}_{interval}_*.csv`. Files that do
// not fit the pattern are skipped.
func (c *Catalog) List() ([]domain.DatasetInfo, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var infos []domain.DatasetInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		symbol, interval, ok := parseDatasetName(name)
		if !ok {
			continue
		}
		infos = append(infos, domain.DatasetInfo{Symbol: symbol, Interval: interval})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Symbol != infos[j].Symbol {
			return infos[i].Symbol < infos[j].Symbol
		}
		return infos[i].Interval < infos[j].Interval
	})
	return infos, nil
}

// parseDatasetName extracts symbol and interval from names like
// "btc_1d_data_2018_to_2025.csv".
func parseDatasetName(name string) (symbol, interval string, ok bool) {
	base := strings.TrimSuffix(name, ".csv")
	parts := strings.Split(base, "_")
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
