package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/eddiefleurent/scranton_spreads/internal/config"
	"github.com/eddiefleurent/scranton_spreads/internal/mock"
	"github.com/eddiefleurent/scranton_spreads/internal/models"
	"github.com/eddiefleurent/scranton_spreads/internal/notify"
)

type options struct {
	configPath string
	bookPath   string
	ticksPath  string
	envPath    string
	scenario   models.Scenario

	// synthetic tape
	synthetic int
	startSpot float64
	startVol  float64
	seed      int64
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay market ticks against a book of strategies and alerts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to configuration file (defaults when empty)")
	flags.StringVar(&opts.bookPath, "book", "book.yaml", "Path to the strategies and alerts file")
	flags.StringVar(&opts.ticksPath, "ticks", "ticks.csv", "Path to the tick CSV (timestamp,spot,volatility)")
	flags.StringVar(&opts.envPath, "env", ".env", "Optional .env file loaded before the config")
	flags.Float64Var(&opts.scenario.HoursForward, "hours-forward", 0, "What-if: simulated hours elapsed")
	flags.Float64Var(&opts.scenario.VolatilityOffset, "vol-offset", 0, "What-if: volatility offset (0.02 = +2 points)")
	flags.Float64Var(&opts.scenario.SpotOffset, "spot-offset", 0, "What-if: spot offset in price units")
	flags.IntVar(&opts.synthetic, "synthetic", 0, "Generate this many random-walk ticks instead of reading --ticks")
	flags.Float64Var(&opts.startSpot, "start-spot", 6000, "Synthetic tape: starting spot")
	flags.Float64Var(&opts.startVol, "start-vol", 0.15, "Synthetic tape: starting volatility")
	flags.Int64Var(&opts.seed, "seed", 0, "Synthetic tape: random seed (0 = non-reproducible)")
	return cmd
}

func run(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(opts.envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: no %s file loaded, using system environment variables\n", opts.envPath)
	}

	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	logger := cfg.NewLogger()

	book, err := LoadBook(opts.bookPath)
	if err != nil {
		return err
	}
	ticks, err := loadTape(opts)
	if err != nil {
		return err
	}

	dispatcher, err := notify.NewDispatcher(notify.LogNotifier{Logger: logger}, notify.SettingsFromConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	logger.Infof("Replaying %d tick(s) against %d strategy(ies) and %d alert(s)",
		len(ticks), len(book.Strategies), len(book.Alerts))

	report, err := NewReplayer(cfg, dispatcher, logger).Run(ctx, book, ticks, opts.scenario)
	if err != nil {
		return err
	}
	report.Render(os.Stdout)
	return nil
}

func loadTape(opts *options) ([]models.MarketSnapshot, error) {
	if opts.synthetic <= 0 {
		return LoadTicks(opts.ticksPath)
	}
	gen := mock.NewTickGenerator(models.MarketSnapshot{
		Spot:       opts.startSpot,
		Volatility: opts.startVol,
		Timestamp:  time.Now().UTC().Truncate(time.Minute),
	}, time.Minute)
	if opts.seed != 0 {
		gen.WithSource(rand.New(rand.NewSource(opts.seed)).Float64) // #nosec G404 -- reproducible test tape
	}
	return gen.Take(opts.synthetic), nil
}
