package mailer

import (
	"context"
	"fmt"
)

// Mailer рендер + отправка писем после оплаты
type Mailer struct {
	sender   Sender
	renderer *Renderer
	log      Logger
}

func New(sender Sender, renderer *Renderer, log Logger) *Mailer {
	return &Mailer{sender: sender, renderer: renderer, log: log}
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, d SessionDetails) error {
	msg, err := m.renderer.OrderConfirmation(d)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *Mailer) SendMeetingDetails(ctx context.Context, d SessionDetails) error {
	msg, err := m.renderer.MeetingDetails(d)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *Mailer) send(ctx context.Context, msg Message) error {
	if m.sender == nil {
		return ErrNoTransport
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %q via %s: %w", msg.Subject, m.sender.Name(), err)
	}
	m.log.Info("Mailer: %q sent via %s", msg.Subject, m.sender.Name())
	return nil
}
