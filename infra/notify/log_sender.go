package notify

import (
	"context"

	"github.com/propscan/scheduler/core/reminder"
	"github.com/propscan/scheduler/infra/logger"
)

// LogSender writes notifications to the log instead of a broker. It is the
// fallback when no broker is configured, keeping the dispatcher runnable in
// development.
type LogSender struct {
	log logger.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender() *LogSender {
	return &LogSender{log: logger.New("notify")}
}

func (s *LogSender) Send(_ context.Context, n reminder.Notification) error {
	s.log.Infof("reminder %s for inspection %s (appointment %s)",
		n.Channel, n.InspectionID, n.AppointmentStart.Format("2006-01-02 15:04"))
	return nil
}

var _ reminder.Sender = (*LogSender)(nil)
