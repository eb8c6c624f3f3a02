package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/scranton_spreads/internal/models"
)

// LogNotifier writes fired events to a logger
type LogNotifier struct {
	Logger *logrus.Logger
}

// Notify logs the event at warn level so it stands out from tick noise
func (n LogNotifier) Notify(_ context.Context, event models.Fired) error {
	n.Logger.WithFields(logrus.Fields{
		"alert_id":    event.AlertID,
		"strategy_id": event.StrategyID,
		"fired_at":    event.FiredAt,
	}).Warn(event.String())
	return nil
}
