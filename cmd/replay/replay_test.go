package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/scranton_spreads/internal/config"
	"github.com/eddiefleurent/scranton_spreads/internal/models"
)

const testBook = `
strategies:
  - id: fly
    structure: butterfly
    side: call
    strike: 6000
    width: 20
    dte: 0
    debit: 5
    visible: true
alerts:
  - id: breakout
    type: price
    condition: above
    target: 6050
    behavior: fire_repeat
    enabled: true
  - type: dynamic_zone
    behavior: fire_once
    enabled: true
    strategy_id: fly
`

const testTicks = `timestamp,spot,volatility
2026-10-19T18:00:00Z,6040,0.15
2026-10-19T18:01:00Z,6060,0.15
1792432920,6030,0.15
2026-10-19T18:03:00Z,6070,0.15
`

type recordingDispatcher struct {
	events []models.Fired
}

func (r *recordingDispatcher) Dispatch(ev models.Fired) {
	r.events = append(r.events, ev)
}

func TestParseBook(t *testing.T) {
	book, err := ParseBook([]byte(testBook))
	require.NoError(t, err)

	require.Len(t, book.Strategies, 1)
	assert.Equal(t, models.StructureButterfly, book.Strategies[0].Structure)
	require.Len(t, book.Alerts, 2)
	assert.Equal(t, "breakout", book.Alerts[0].ID)
	assert.NotEmpty(t, book.Alerts[1].ID, "missing IDs are generated")
	assert.Equal(t, "fly", book.Alerts[1].StrategyID)
}

func TestParseBook_RejectsDanglingAlert(t *testing.T) {
	_, err := ParseBook([]byte(`
alerts:
  - id: x
    type: debit
    condition: below
    target: 1
    behavior: fire_once
    strategy_id: missing
`))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestParseTicks(t *testing.T) {
	ticks, err := ParseTicks(strings.NewReader(testTicks))
	require.NoError(t, err)
	require.Len(t, ticks, 4)

	assert.Equal(t, 6040.0, ticks[0].Spot)
	assert.Equal(t, 0.15, ticks[0].Volatility)
	assert.True(t, ticks[0].Timestamp.Equal(time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(1792432920), ticks[2].Timestamp.Unix())
}

func TestParseTicks_BadTimestamp(t *testing.T) {
	_, err := ParseTicks(strings.NewReader("timestamp,spot,volatility\nyesterday,6000,0.1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick 1")
}

func TestReplayer_Run(t *testing.T) {
	cfg := config.Default()
	book, err := ParseBook([]byte(testBook))
	require.NoError(t, err)
	ticks, err := ParseTicks(strings.NewReader(testTicks))
	require.NoError(t, err)

	dispatcher := &recordingDispatcher{}
	logger := cfg.NewLoggerTo(&bytes.Buffer{})
	report, err := NewReplayer(cfg, dispatcher, logger).Run(context.Background(), book, ticks, models.Scenario{})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Ticks)
	var breakouts int
	for _, ev := range report.Fired {
		if ev.AlertID == "breakout" {
			breakouts++
		}
	}
	assert.Equal(t, 2, breakouts)
	assert.Len(t, dispatcher.events, len(report.Fired))
	require.Len(t, report.Snapshots, 2)

	require.NotNil(t, report.Surface)
	assert.Len(t, report.Surface.ExpirationBreakevens, 2)

	var out bytes.Buffer
	report.Render(&out)
	assert.Contains(t, out.String(), "Replayed 4 tick(s)")
	assert.Contains(t, out.String(), "breakout")
	assert.Contains(t, out.String(), "5985.00")
}

func TestReplayer_RunCanceled(t *testing.T) {
	cfg := config.Default()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ticks := []models.MarketSnapshot{{Spot: 6000, Volatility: 0.1}}
	_, err := NewReplayer(cfg, nil, cfg.NewLoggerTo(&bytes.Buffer{})).Run(ctx, models.Book{}, ticks, models.Scenario{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadTape_Synthetic(t *testing.T) {
	opts := &options{synthetic: 30, startSpot: 6000, startVol: 0.15, seed: 7}
	ticks, err := loadTape(opts)
	require.NoError(t, err)
	require.Len(t, ticks, 30)
	assert.InDelta(t, 6000, ticks[0].Spot, 2)
	for _, tick := range ticks {
		assert.True(t, tick.HasSpot())
		assert.True(t, tick.HasVolatility())
	}
}

func TestLoadTape_MissingFile(t *testing.T) {
	_, err := loadTape(&options{ticksPath: "does-not-exist.csv"})
	assert.Error(t, err)
}
