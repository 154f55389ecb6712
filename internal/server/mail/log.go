package mail

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
)

// LogSender writes messages to the log instead of delivering them. Used in
// development, where the links can be copied from the output.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "email (not delivered)",
		"to", msg.To, "subject", msg.Subject, "html", msg.HTML)
	return nil
}
