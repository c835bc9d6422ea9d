package mailer

import (
	"context"
	"errors"

	"github.com/m04kA/stancastle-booking/pkg/fallback"
)

// FallbackSender основной транспорт, при ошибке доставки ровно одна попытка через запасной.
// Невалидное письмо не повторяется: запасной транспорт его тоже не примет
type FallbackSender struct {
	primary   Sender
	secondary Sender
	log       Logger
}

// NewFallbackSender secondary может быть nil
func NewFallbackSender(primary, secondary Sender, log Logger) *FallbackSender {
	return &FallbackSender{primary: primary, secondary: secondary, log: log}
}

func (s *FallbackSender) Name() string {
	if s.secondary == nil {
		return s.primary.Name()
	}
	return s.primary.Name() + "+" + s.secondary.Name()
}

func (s *FallbackSender) Send(ctx context.Context, msg Message) error {
	strategy := fallback.Strategy[struct{}]{
		Primary: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.primary.Send(ctx, msg)
		},
		Retryable: func(err error) bool {
			return !errors.Is(err, ErrInvalidMessage)
		},
	}
	if s.secondary != nil {
		strategy.Fallback = func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.secondary.Send(ctx, msg)
		}
		strategy.OnFallback = func(err error) {
			s.log.Warn("Mailer: %s failed for %q (%v), falling back to %s", s.primary.Name(), msg.Subject, err, s.secondary.Name())
		}
	}

	_, err := strategy.Do(ctx)
	return err
}
