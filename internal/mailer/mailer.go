package mailer

import (
	"accounts/internal/config"
	"accounts/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFailedToSend  = errors.New("mailer: failed to send email")
	ErrInvalidConfig = errors.New("mailer: invalid config")
	ErrInvalidInput  = errors.New("mailer: invalid message")
)

// Message 是一封待发送的事务邮件。
// Link 是邮件中的操作链接，仅供开发驱动打印，不会写入归档。
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Tag     string
	Link    string
}

// Validate checks the fields every driver needs.
func (m Message) Validate() error {
	switch {
	case strings.TrimSpace(m.To) == "":
		return fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	case strings.TrimSpace(m.Subject) == "":
		return fmt.Errorf("%w: subject is required", ErrInvalidInput)
	case strings.TrimSpace(m.HTML) == "":
		return fmt.Errorf("%w: body is required", ErrInvalidInput)
	}
	return nil
}

// Notifier delivers transactional email.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// New 根据 MAIL_DRIVER 创建发送器；store 非空时包上归档装饰器。
func New(cfg config.Config, store storage.Storage) (Notifier, error) {
	var (
		notifier Notifier
		err      error
	)

	switch strings.ToLower(strings.TrimSpace(cfg.MailDriver)) {
	case "", config.MailDriverLog:
		notifier = NewLogSender(cfg.EmailFrom)
	case config.MailDriverPostmark:
		notifier, err = NewPostmarkSender(cfg.PostmarkServerToken, cfg.PostmarkAccountToken, cfg.EmailFrom)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported mail driver %q", ErrInvalidConfig, cfg.MailDriver)
	}

	if store != nil {
		notifier = NewArchive(notifier, store)
	}
	return notifier, nil
}
