package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"
)

// Postmark TrackLinks 取值之一，覆盖服务器级默认设置
const trackLinksNone = "None"

// postmarkAPI is the subset of the postmark client the sender uses.
type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSender sends mail through Postmark's transactional API.
type PostmarkSender struct {
	client postmarkAPI
	from   string
}

// NewPostmarkSender requires both tokens and a sender address.
func NewPostmarkSender(serverToken, accountToken, from string) (*PostmarkSender, error) {
	if strings.TrimSpace(serverToken) == "" {
		return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(accountToken) == "" {
		return nil, fmt.Errorf("%w: postmark account token is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("%w: sender address is required", ErrInvalidConfig)
	}
	return &PostmarkSender{
		client: postmark.NewClient(serverToken, accountToken),
		from:   from,
	}, nil
}

func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	from := msg.From
	if from == "" {
		from = s.from
	}

	// 链接包含一次性令牌：显式关闭链接追踪，避免被改写成 Postmark 跳转地址；打开追踪同样不需要
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       from,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTML,
		TrackOpens: false,
		TrackLinks: trackLinksNone,
	})
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSend, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

var _ Notifier = (*PostmarkSender)(nil)
