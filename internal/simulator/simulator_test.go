package simulator

import (
	"math"
	"testing"
	"time"

	"strategy-lab/internal/domain"
)

// zeroCost disables fees, slippage and both thresholds so price
// arithmetic in assertions stays exact.
func zeroCost() domain.ExecutionConfig {
	return domain.ExecutionConfig{
		OrderType:   domain.OrderTypeMarket,
		QuantityPct: 100,
	}
}

func sigBars(closes []float64, entries, exits map[int]bool) []domain.SignalBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.SignalBar, len(closes))
	for i, c := range closes {
		out[i] = domain.SignalBar{
			Bar: domain.Bar{
				Timestamp: start.Add(time.Duration(i) * time.Hour),
				Open:      c,
				High:      c,
				Low:       c,
				Close:     c,
			},
			EntrySignal: entries[i],
			ExitSignal:  exits[i],
		}
	}
	return out
}

func TestSimulate_RoundTrip(t *testing.T) {
	bars := sigBars([]float64{100, 100, 100, 100},
		map[int]bool{1: true}, map[int]bool{3: true})

	trades := Simulate(bars, zeroCost())
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}

	tr := trades[0]
	if tr.EntryPrice != 100.00 || tr.ExitPrice != 100.00 {
		t.Errorf("prices = %v / %v, want 100.00 / 100.00", tr.EntryPrice, tr.ExitPrice)
	}
	if !tr.EntryTime.Equal(bars[1].Timestamp) || !tr.ExitTime.Equal(bars[3].Timestamp) {
		t.Errorf("times = %v / %v", tr.EntryTime, tr.ExitTime)
	}
	if tr.PnlPct != 0 {
		t.Errorf("pnl = %v, want 0", tr.PnlPct)
	}
	if tr.Reason != domain.ExitReasonSignal {
		t.Errorf("reason = %s, want %s", tr.Reason, domain.ExitReasonSignal)
	}
}

func TestSimulate_SlippageAndFees(t *testing.T) {
	cfg := domain.ExecutionConfig{
		OrderType:   domain.OrderTypeMarket,
		QuantityPct: 100,
		FeeBps:      10,
		SlippageBps: 5,
	}
	bars := sigBars([]float64{100, 110},
		map[int]bool{0: true}, map[int]bool{1: true})

	trades := Simulate(bars, cfg)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}

	tr := trades[0]
	if tr.EntryPrice != 100.05 {
		t.Errorf("entry price = %v, want 100.05", tr.EntryPrice)
	}
	if tr.ExitPrice != 109.95 { // 109.945 rounded
		t.Errorf("exit price = %v, want 109.95", tr.ExitPrice)
	}
	if tr.PnlPct != 9.67 {
		t.Errorf("pnl = %v, want 9.67", tr.PnlPct)
	}
}

func TestSimulate_EntryBarConsumed(t *testing.T) {
	// Entry and exit signal on the same bar: no same-bar exit, the trade
	// closes on the next exit signal instead.
	bars := sigBars([]float64{100, 100, 105},
		map[int]bool{0: true}, map[int]bool{0: true, 2: true})

	trades := Simulate(bars, zeroCost())
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if !trades[0].ExitTime.Equal(bars[2].Timestamp) {
		t.Errorf("exit time = %v, want bar 2", trades[0].ExitTime)
	}
}

func TestSimulate_TakeProfit(t *testing.T) {
	cfg := zeroCost()
	cfg.TakeProfitPct = 5
	cfg.StopLossPct = 2

	bars := sigBars([]float64{100, 101, 106}, map[int]bool{0: true}, nil)

	trades := Simulate(bars, cfg)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].Reason != domain.ExitReasonTakeProfit {
		t.Errorf("reason = %s, want %s", trades[0].Reason, domain.ExitReasonTakeProfit)
	}
	if trades[0].ExitPrice != 106.00 {
		t.Errorf("exit price = %v, want 106.00", trades[0].ExitPrice)
	}
	if trades[0].PnlPct != 6.00 {
		t.Errorf("pnl = %v, want 6.00", trades[0].PnlPct)
	}
}

func TestSimulate_StopLoss(t *testing.T) {
	cfg := zeroCost()
	cfg.TakeProfitPct = 5
	cfg.StopLossPct = 2

	bars := sigBars([]float64{100, 99, 97.9}, map[int]bool{0: true}, nil)

	trades := Simulate(bars, cfg)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].Reason != domain.ExitReasonStopLoss {
		t.Errorf("reason = %s, want %s", trades[0].Reason, domain.ExitReasonStopLoss)
	}
}

func TestSimulate_ReasonPrecedence(t *testing.T) {
	// Take-profit and exit signal on the same bar: tp wins.
	cfg := zeroCost()
	cfg.TakeProfitPct = 5
	bars := sigBars([]float64{100, 106}, map[int]bool{0: true}, map[int]bool{1: true})

	trades := Simulate(bars, cfg)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].Reason != domain.ExitReasonTakeProfit {
		t.Errorf("reason = %s, want %s", trades[0].Reason, domain.ExitReasonTakeProfit)
	}

	// Stop-loss and exit signal on the same bar: sl wins.
	cfg = zeroCost()
	cfg.StopLossPct = 2
	bars = sigBars([]float64{100, 97}, map[int]bool{0: true}, map[int]bool{1: true})

	trades = Simulate(bars, cfg)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].Reason != domain.ExitReasonStopLoss {
		t.Errorf("reason = %s, want %s", trades[0].Reason, domain.ExitReasonStopLoss)
	}
}

func TestSimulate_NoOverlappingTrades(t *testing.T) {
	// Entry signals everywhere: only one position at a time.
	entries := map[int]bool{}
	for i := 0; i < 6; i++ {
		entries[i] = true
	}
	bars := sigBars([]float64{100, 100, 100, 100, 100, 100},
		entries, map[int]bool{2: true, 5: true})

	trades := Simulate(bars, zeroCost())
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if !trades[0].EntryTime.Equal(bars[0].Timestamp) || !trades[0].ExitTime.Equal(bars[2].Timestamp) {
		t.Errorf("first trade = %v..%v", trades[0].EntryTime, trades[0].ExitTime)
	}
	if !trades[1].EntryTime.Equal(bars[3].Timestamp) || !trades[1].ExitTime.Equal(bars[5].Timestamp) {
		t.Errorf("second trade = %v..%v", trades[1].EntryTime, trades[1].ExitTime)
	}
}

func TestSimulate_OpenPositionDiscarded(t *testing.T) {
	bars := sigBars([]float64{100, 101, 102}, map[int]bool{0: true}, nil)

	trades := Simulate(bars, zeroCost())
	if len(trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(trades))
	}
	if trades == nil {
		t.Fatal("trades should be an empty slice, not nil")
	}
}

func TestSimulate_SkipsUndefinedBars(t *testing.T) {
	bars := sigBars([]float64{100, 100, 100, 100},
		map[int]bool{0: true}, map[int]bool{1: true, 3: true})
	bars[1].Close = math.NaN()       // exit signal on an undefined bar
	bars[2].Timestamp = time.Time{}  // and on a zero-timestamp bar
	bars[2].ExitSignal = true

	trades := Simulate(bars, zeroCost())
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if !trades[0].ExitTime.Equal(bars[3].Timestamp) {
		t.Errorf("exit time = %v, want bar 3", trades[0].ExitTime)
	}
}
