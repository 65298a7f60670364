package history

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func opp(symbol, buy, sell string, net float64) domain.Opportunity {
	return domain.Opportunity{
		ID:             "id-" + symbol + buy + sell,
		Symbol:         symbol,
		BuyVenue:       buy,
		SellVenue:      sell,
		BuyPrice:       100.10,
		SellPrice:      100.50,
		GrossProfitPct: net + 0.2,
		NetProfitPct:   net,
		DetectedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordQueryRoundTrip(t *testing.T) {
	st, err := Open(t.TempDir(), 0.5, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	ctx := context.Background()

	in := opp("BTC/USDT", "Binance", "Kraken", 0.199600798403194)
	if err := st.Record(ctx, in); err != nil {
		t.Fatal(err)
	}

	recs, err := st.Query(ctx, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	got := recs[0]
	if got.ID != in.ID || got.Symbol != in.Symbol || got.BuyVenue != in.BuyVenue || got.SellVenue != in.SellVenue {
		t.Errorf("round trip changed identity fields: %+v", got.Opportunity)
	}
	if got.BuyPrice != in.BuyPrice || got.SellPrice != in.SellPrice {
		t.Errorf("round trip changed prices: %+v", got.Opportunity)
	}
	if got.GrossProfitPct != in.GrossProfitPct || got.NetProfitPct != in.NetProfitPct {
		t.Errorf("round trip lost profit precision: gross %.15f net %.15f", got.GrossProfitPct, got.NetProfitPct)
	}
	if !got.DetectedAt.Equal(in.DetectedAt) {
		t.Errorf("detected_at = %v, want %v", got.DetectedAt, in.DetectedAt)
	}
	if got.RecordedAt.IsZero() {
		t.Error("storage timestamp missing")
	}
}

func TestAlertThreshold(t *testing.T) {
	st, err := Open(t.TempDir(), 0.3, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	ctx := context.Background()

	for _, net := range []float64{0.06, 0.48, -0.165} {
		if err := st.Record(ctx, opp("BTC/USDT", "Binance", "Kraken", net)); err != nil {
			t.Fatal(err)
		}
	}

	alerts := st.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].Record.NetProfitPct != 0.48 {
		t.Errorf("alert on %g, want 0.48", alerts[0].Record.NetProfitPct)
	}
	if want := "HIGH PROFIT ALERT: 0.480% on BTC/USDT"; alerts[0].Message != want {
		t.Errorf("message = %q, want %q", alerts[0].Message, want)
	}

	// Drain clears the list but leaves the log alone.
	drained := st.DrainAlerts()
	if len(drained) != 1 || len(st.Alerts()) != 0 {
		t.Error("drain did not hand over and clear the alert list")
	}
	recs, err := st.Query(ctx, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Errorf("log has %d records after drain, want 3", len(recs))
	}
}

func TestAlertAtExactThreshold(t *testing.T) {
	st, err := Open(t.TempDir(), 0.3, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if err := st.Record(context.Background(), opp("ETH/USDT", "Kraken", "Binance", 0.3)); err != nil {
		t.Fatal(err)
	}
	if got := len(st.Alerts()); got != 1 {
		t.Errorf("threshold is inclusive; got %d alerts", got)
	}
}

func TestQueryToleratesTruncatedTail(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir, 1.0, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := st.Record(ctx, opp("BTC/USDT", "Binance", "Kraken", 0.2)); err != nil {
		t.Fatal(err)
	}
	if err := st.Record(ctx, opp("ETH/USDT", "Kraken", "Binance", 0.1)); err != nil {
		t.Fatal(err)
	}
	st.Close()

	// Simulate a crash mid-append: a partial JSON object on the last line.
	f, err := os.OpenFile(filepath.Join(dir, HistoryFile), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(`{"id":"partial","symbol":"BT`); err != nil {
		t.Fatal(err)
	}
	f.Close()

	st2, err := Open(dir, 1.0, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer st2.Close()

	recs, err := st2.Query(ctx, time.Time{})
	if err != nil {
		t.Fatalf("truncated tail must not fail the read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2 intact ones", len(recs))
	}
	if recs[0].Symbol != "BTC/USDT" || recs[1].Symbol != "ETH/USDT" {
		t.Error("record order not preserved across reopen")
	}
}

func TestRecordsAreOneLineEach(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir, 1.0, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := st.Record(ctx, opp("BTC/USDT", "Binance", "Kraken", 0.2)); err != nil {
			t.Fatal(err)
		}
	}
	st.Close()

	raw, err := os.ReadFile(filepath.Join(dir, HistoryFile))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			t.Errorf("line is not a self-contained object: %q", line)
		}
	}
}

type failingMirror struct{ calls int }

func (m *failingMirror) Insert(ctx context.Context, rec domain.HistoryRecord) error {
	m.calls++
	return domain.ErrVenueUnavailable
}

func (m *failingMirror) ListRecent(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	return nil, nil
}

func TestMirrorFailureDoesNotFailRecord(t *testing.T) {
	mirror := &failingMirror{}
	st, err := Open(t.TempDir(), 1.0, mirror, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if err := st.Record(context.Background(), opp("BTC/USDT", "Binance", "Kraken", 0.2)); err != nil {
		t.Fatalf("mirror failure leaked: %v", err)
	}
	if mirror.calls != 1 {
		t.Errorf("mirror called %d times, want 1", mirror.calls)
	}
}
