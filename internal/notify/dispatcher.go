// Package notify delivers fired alert events to a host sink, best effort.
package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/eddiefleurent/scranton_spreads/internal/config"
	"github.com/eddiefleurent/scranton_spreads/internal/models"
)

// TopicFired is the bus topic fired events are published on
const TopicFired = "alerts:fired"

// Notifier is a host sink for fired events (sound, toast, chat message)
type Notifier interface {
	Notify(ctx context.Context, event models.Fired) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, event models.Fired) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, event models.Fired) error {
	return f(ctx, event)
}

// Settings configures delivery
type Settings struct {
	Timeout      time.Duration // per-notification deadline
	OpenTimeout  time.Duration // how long the breaker stays open
	MinRequests  uint32        // requests before the breaker may trip
	FailureRatio float64       // trip threshold
}

// SettingsFromConfig reads the notify section
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Timeout:      cfg.GetNotifyTimeout(),
		OpenTimeout:  cfg.GetBreakerOpen(),
		MinRequests:  cfg.Notify.MinRequests,
		FailureRatio: cfg.Notify.FailureRatio,
	}
}

// Dispatcher publishes fired events on an async bus. Every delivery runs on
// its own goroutine, so Dispatch never blocks the evaluation pass. Sink
// failures are logged and dropped; repeated failures open the breaker and
// later events are dropped without calling the sink.
type Dispatcher struct {
	bus     EventBus.Bus
	breaker *gobreaker.CircuitBreaker
	sink    Notifier
	timeout time.Duration
	logger  *logrus.Logger
}

// NewDispatcher subscribes sink to the fired topic. A nil logger discards output.
func NewDispatcher(sink Notifier, settings Settings, logger *logrus.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 5 * time.Second
	}

	d := &Dispatcher{
		bus:     EventBus.New(),
		sink:    sink,
		timeout: settings.Timeout,
		logger:  logger,
	}
	d.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "NotifierCircuitBreaker",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnf("Circuit breaker %s state changed from %s to %s", name, from, to)
		},
	})

	if sink != nil {
		if err := d.bus.SubscribeAsync(TopicFired, d.deliver, false); err != nil {
			return nil, fmt.Errorf("subscribing notifier: %w", err)
		}
	}
	return d, nil
}

// Dispatch publishes the event and returns immediately
func (d *Dispatcher) Dispatch(event models.Fired) {
	d.bus.Publish(TopicFired, event)
}

// Subscribe registers an extra asynchronous listener, e.g. a host persisting events
func (d *Dispatcher) Subscribe(fn func(models.Fired)) error {
	return d.bus.SubscribeAsync(TopicFired, fn, false)
}

// Close waits for in-flight deliveries
func (d *Dispatcher) Close() {
	d.bus.WaitAsync()
}

// BreakerState reports the circuit breaker state
func (d *Dispatcher) BreakerState() gobreaker.State {
	return d.breaker.State()
}

func (d *Dispatcher) deliver(event models.Fired) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	_, err := d.breaker.Execute(func() (interface{}, error) {
		return nil, d.sink.Notify(ctx, event)
	})
	if err != nil {
		d.logger.WithFields(logrus.Fields{
			"alert_id": event.AlertID,
			"type":     event.Type,
		}).Warnf("notification dropped: %v", err)
	}
}
