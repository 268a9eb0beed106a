package mailer

import (
	"accounts/internal/storage"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const archiveCategory = "mail"

// deliveryRecord 是归档的投递记录，不含正文（正文里有令牌）。
type deliveryRecord struct {
	ID      string    `json:"id"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Tag     string    `json:"tag,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Archive wraps a Notifier and stores a delivery record after each successful send.
// Archive failures are logged and never fail the send.
type Archive struct {
	next  Notifier
	store storage.Storage
	now   func() time.Time
}

func NewArchive(next Notifier, store storage.Storage) *Archive {
	return &Archive{next: next, store: store, now: time.Now}
}

func (a *Archive) Send(ctx context.Context, msg Message) error {
	if err := a.next.Send(ctx, msg); err != nil {
		return err
	}

	record := deliveryRecord{
		ID:      uuid.NewString(),
		To:      msg.To,
		Subject: msg.Subject,
		Tag:     msg.Tag,
		SentAt:  a.now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		logrus.WithError(err).Warn("failed to encode delivery record")
		return nil
	}

	key, err := a.store.Put(ctx, data, storage.PutOptions{
		Category:  archiveCategory,
		BaseName:  record.ID,
		Extension: "json",
		At:        record.SentAt,
	})
	if err != nil {
		logrus.WithError(err).WithField("tag", msg.Tag).Warn("failed to archive delivery record")
		return nil
	}
	logrus.WithField("key", key).Debug("delivery record archived")
	return nil
}

var _ Notifier = (*Archive)(nil)
