package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender 用于本地开发：只记录收件人、主题和标签，不真正发信。
// 正文与链接包含一次性令牌，不写入日志。
type LogSender struct {
	from   string
	logger logrus.FieldLogger
}

func NewLogSender(from string) *LogSender {
	return &LogSender{from: from, logger: logrus.StandardLogger()}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	from := msg.From
	if from == "" {
		from = s.from
	}
	s.logger.WithFields(logrus.Fields{
		"from":    from,
		"to":      msg.To,
		"subject": msg.Subject,
		"tag":     msg.Tag,
	}).Info("email delivered to log")
	return nil
}

var _ Notifier = (*LogSender)(nil)
