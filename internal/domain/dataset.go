package domain

// DatasetInfo describes one available OHLCV dataset: a symbol and the
// bar interval it was recorded at.
type DatasetInfo struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
}
