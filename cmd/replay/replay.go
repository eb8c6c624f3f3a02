package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v3"

	"github.com/eddiefleurent/scranton_spreads/internal/alerts"
	"github.com/eddiefleurent/scranton_spreads/internal/config"
	"github.com/eddiefleurent/scranton_spreads/internal/models"
	"github.com/eddiefleurent/scranton_spreads/internal/surface"
	"github.com/eddiefleurent/scranton_spreads/internal/util"
)

// tickRow is one line of the tick CSV
type tickRow struct {
	Timestamp  string  `csv:"timestamp"`
	Spot       float64 `csv:"spot"`
	Volatility float64 `csv:"volatility"`
}

// LoadBook reads strategies and alerts from YAML, generating missing IDs and validating each entry
func LoadBook(path string) (models.Book, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is a user-provided book file
	if err != nil {
		return models.Book{}, fmt.Errorf("reading book file: %w", err)
	}
	return ParseBook(data)
}

// ParseBook decodes a YAML book
func ParseBook(data []byte) (models.Book, error) {
	var raw models.Book
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return models.Book{}, fmt.Errorf("parsing book: %w", err)
	}

	var book models.Book
	var err error
	for _, s := range raw.Strategies {
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		if book, err = book.AddStrategy(s); err != nil {
			return models.Book{}, fmt.Errorf("loading strategy: %w", err)
		}
	}
	for _, a := range raw.Alerts {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if book, err = book.AddAlert(a); err != nil {
			return models.Book{}, fmt.Errorf("loading alert: %w", err)
		}
	}
	return book, nil
}

// LoadTicks reads the tick CSV
func LoadTicks(path string) ([]models.MarketSnapshot, error) {
	f, err := os.Open(path) // #nosec G304 -- path is a user-provided tick file
	if err != nil {
		return nil, fmt.Errorf("opening ticks file: %w", err)
	}
	defer f.Close()
	return ParseTicks(f)
}

// ParseTicks decodes tick CSV rows. Timestamps are RFC3339 or unix seconds.
func ParseTicks(r io.Reader) ([]models.MarketSnapshot, error) {
	var rows []*tickRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parsing ticks: %w", err)
	}

	out := make([]models.MarketSnapshot, 0, len(rows))
	for i, row := range rows {
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", i+1, err)
		}
		out = append(out, models.MarketSnapshot{Spot: row.Spot, Volatility: row.Volatility, Timestamp: ts})
	}
	return out, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return ts, nil
}

// Replayer feeds ticks through a Monitor
type Replayer struct {
	engine     alerts.Engine
	sampler    surface.Sampler
	dispatcher alerts.Dispatcher
	logger     *logrus.Logger
}

// NewReplayer builds a Replayer from the configuration
func NewReplayer(cfg *config.Config, dispatcher alerts.Dispatcher, logger *logrus.Logger) *Replayer {
	return &Replayer{
		engine:     alerts.NewEngine(cfg),
		sampler:    surface.NewSampler(cfg),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Report is the outcome of a replay
type Report struct {
	Fired     []models.Fired
	Snapshots []models.AlertSnapshot
	Surface   *surface.Surface
	Ticks     int
}

// Run evaluates every tick in order and samples the surface at the last tick
func (r *Replayer) Run(
	ctx context.Context,
	book models.Book,
	ticks []models.MarketSnapshot,
	scenario models.Scenario,
) (*Report, error) {
	monitor := alerts.NewMonitor(r.engine, book, r.dispatcher, r.logger)
	report := &Report{}

	for _, snap := range ticks {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replay canceled: %w", err)
		}
		res := monitor.OnTick(alerts.Tick{Snapshot: snap, Scenario: scenario})
		report.Fired = append(report.Fired, res.Fired...)
		report.Ticks++
	}

	final := monitor.Book()
	report.Snapshots = final.Snapshots()
	if len(ticks) > 0 {
		surf, err := r.sampler.Build(ctx, final, ticks[len(ticks)-1], scenario)
		switch {
		case errors.Is(err, surface.ErrNoVisibleStrategies):
			r.logger.Info("No visible strategies, skipping surface")
		case err != nil:
			return nil, err
		default:
			report.Surface = surf
		}
	}
	return report, nil
}

// Render prints the report as tables
func (rep *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "Replayed %d tick(s), %d alert firing(s)\n\n", rep.Ticks, len(rep.Fired))

	fired := tablewriter.NewWriter(w)
	fired.SetHeader([]string{"Fired At", "Alert", "Type", "Value", "Removed"})
	for _, ev := range rep.Fired {
		fired.Append([]string{
			ev.FiredAt.UTC().Format(time.RFC3339),
			ev.AlertID,
			string(ev.Type),
			price(ev.Value),
			strconv.FormatBool(ev.Removed),
		})
	}
	fired.Render()

	states := tablewriter.NewWriter(w)
	states.SetHeader([]string{"Alert", "Type", "State", "Zone", "HWM", "HWM Profit"})
	for _, s := range rep.Snapshots {
		zoneText := "-"
		if s.ZoneActive {
			zoneText = price(s.ZoneLow) + " - " + price(s.ZoneHigh)
		}
		states.Append([]string{
			s.ID,
			string(s.Type),
			string(s.State),
			zoneText,
			optionalPrice(s.HighWaterMark, s.HighWaterMarkSet),
			optionalPrice(s.HighWaterMarkProfit, s.HighWaterMarkProfitSet),
		})
	}
	states.Render()

	if rep.Surface == nil {
		return
	}
	be := tablewriter.NewWriter(w)
	be.SetHeader([]string{"Curve", "Breakevens", "Viewport Min", "Viewport Max"})
	be.Append([]string{"expiration", formatBreakevens(rep.Surface.ExpirationBreakevens),
		price(rep.Surface.ExpirationExtent.Min), price(rep.Surface.ExpirationExtent.Max)})
	if rep.Surface.Theoretical != nil {
		be.Append([]string{"theoretical", formatBreakevens(rep.Surface.TheoreticalBreakevens),
			price(rep.Surface.TheoreticalExtent.Min), price(rep.Surface.TheoreticalExtent.Max)})
	}
	be.Render()
}

func formatBreakevens(bes []models.Breakeven) string {
	if len(bes) == 0 {
		return "none"
	}
	parts := make([]string, len(bes))
	for i, b := range bes {
		parts[i] = price(float64(b))
	}
	return strings.Join(parts, ", ")
}

func optionalPrice(x float64, ok bool) string {
	if !ok {
		return "-"
	}
	return price(x)
}

func price(x float64) string {
	return util.FormatPrice(x, util.CentTick)
}
