package alerts

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/scranton_spreads/internal/models"
)

// Dispatcher delivers fired events without blocking the caller
type Dispatcher interface {
	Dispatch(event models.Fired)
}

// Monitor owns a Book and evaluates it one tick at a time.
// Ticks and book mutations are serialized; no two passes interleave.
type Monitor struct {
	mu         sync.Mutex
	engine     Engine
	book       models.Book
	dispatcher Dispatcher
	logger     *logrus.Logger
}

// NewMonitor creates a Monitor. A nil dispatcher drops events; a nil logger discards output.
func NewMonitor(engine Engine, book models.Book, dispatcher Dispatcher, logger *logrus.Logger) *Monitor {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Monitor{
		engine:     engine,
		book:       book,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// OnTick evaluates the book against one tick, keeps the result and dispatches fired events
func (m *Monitor) OnTick(tick Tick) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := m.engine.Evaluate(m.book, tick)
	m.book = res.Book

	for _, skip := range res.Skipped {
		m.logger.WithFields(logrus.Fields{
			"alert_id": skip.AlertID,
			"spot":     tick.Snapshot.Spot,
		}).Debugf("alert skipped: %v", skip.Reason)
	}

	for _, ev := range res.Fired {
		m.logger.WithFields(logrus.Fields{
			"alert_id":    ev.AlertID,
			"strategy_id": ev.StrategyID,
			"type":        ev.Type,
			"value":       ev.Value,
			"removed":     ev.Removed,
		}).Info("alert fired")
		if m.dispatcher != nil {
			m.dispatcher.Dispatch(ev)
		}
	}

	return res
}

// Book returns the current book
func (m *Monitor) Book() models.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book
}

// Update applies a book mutation such as models.Book.AddAlert between ticks
func (m *Monitor) Update(fn func(models.Book) (models.Book, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := fn(m.book)
	if err != nil {
		return err
	}
	m.book = next
	return nil
}

// Snapshots returns the current state of every alert
func (m *Monitor) Snapshots() []models.AlertSnapshot {
	return m.Book().Snapshots()
}
