package notify

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/scranton_spreads/internal/config"
	"github.com/eddiefleurent/scranton_spreads/internal/models"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, event models.Fired) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func testSettings() Settings {
	return Settings{
		Timeout:      time.Second,
		OpenTimeout:  time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	}
}

func fired(id string) models.Fired {
	return models.Fired{
		AlertID: id,
		Type:    models.AlertPrice,
		FiredAt: time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC),
		Value:   6060,
	}
}

func TestDispatcher_DeliversToSink(t *testing.T) {
	sink := &mockNotifier{}
	sink.On("Notify", mock.Anything, fired("a")).Return(nil).Once()
	sink.On("Notify", mock.Anything, fired("b")).Return(nil).Once()

	d, err := NewDispatcher(sink, testSettings(), nil)
	require.NoError(t, err)

	d.Dispatch(fired("a"))
	d.Dispatch(fired("b"))
	d.Close()

	sink.AssertExpectations(t)
	assert.Equal(t, gobreaker.StateClosed, d.BreakerState())
}

func TestDispatcher_SinkGetsDeadline(t *testing.T) {
	var hasDeadline atomic.Bool
	sink := NotifierFunc(func(ctx context.Context, _ models.Fired) error {
		_, ok := ctx.Deadline()
		hasDeadline.Store(ok)
		return nil
	})

	d, err := NewDispatcher(sink, testSettings(), nil)
	require.NoError(t, err)
	d.Dispatch(fired("a"))
	d.Close()

	assert.True(t, hasDeadline.Load())
}

func TestDispatcher_FailuresAreLoggedAndTripBreaker(t *testing.T) {
	var calls atomic.Int32
	sink := NotifierFunc(func(context.Context, models.Fired) error {
		calls.Add(1)
		return errors.New("speaker unplugged")
	})

	var buf bytes.Buffer
	var mu sync.Mutex
	logger := logrus.New()
	logger.SetOutput(&lockedWriter{w: &buf, mu: &mu})

	d, err := NewDispatcher(sink, testSettings(), logger)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		d.Dispatch(fired("a"))
		d.Close()
	}

	assert.Equal(t, gobreaker.StateOpen, d.BreakerState())
	assert.Equal(t, int32(2), calls.Load(), "open breaker stops calling the sink")

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, buf.String(), "notification dropped")
	assert.Contains(t, buf.String(), "speaker unplugged")
}

func TestDispatcher_ExtraSubscriber(t *testing.T) {
	d, err := NewDispatcher(nil, testSettings(), nil)
	require.NoError(t, err)

	var got atomic.Value
	require.NoError(t, d.Subscribe(func(ev models.Fired) { got.Store(ev.AlertID) }))

	d.Dispatch(fired("z"))
	d.Close()
	assert.Equal(t, "z", got.Load())
}

func TestSettingsFromConfig(t *testing.T) {
	s := SettingsFromConfig(config.Default())
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, 30*time.Second, s.OpenTimeout)
	assert.Equal(t, uint32(5), s.MinRequests)
	assert.Equal(t, 0.6, s.FailureRatio)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	err := LogNotifier{Logger: logger}.Notify(context.Background(), fired("a"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "alert a (price) fired")
	assert.Contains(t, buf.String(), "level=warning")
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
