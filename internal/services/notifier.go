package services

import (
	"context"
	"errors"
	"fmt"

	"trainingcrm/internal/store"
	"trainingcrm/internal/utils"
)

const noticeSubject = "CRM bildirimi"

// Messenger delivers a short text message to people outside the app.
type Messenger interface {
	Name() string
	SendText(ctx context.Context, subject, body string) error
}

// MultiNotifier fans a message out to every configured channel. A failing
// channel does not stop the others.
type MultiNotifier struct {
	channels []Messenger
}

func NewMultiNotifier(channels ...Messenger) *MultiNotifier {
	m := &MultiNotifier{}
	for _, c := range channels {
		if c != nil {
			m.channels = append(m.channels, c)
		}
	}
	return m
}

func (m *MultiNotifier) Name() string { return "multi" }

// Len reports how many channels are configured.
func (m *MultiNotifier) Len() int { return len(m.channels) }

func (m *MultiNotifier) SendText(ctx context.Context, subject, body string) error {
	var errs []error
	for _, c := range m.channels {
		if err := c.SendText(ctx, subject, body); err != nil {
			utils.Log.WithField("channel", c.Name()).WithError(err).Warn("[notify] channel failed")
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiNotifier) Notify(ctx context.Context, n store.Notice) error {
	return m.SendText(ctx, noticeSubject, n.Message)
}
