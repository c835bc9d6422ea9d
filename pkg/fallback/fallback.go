// Package fallback реализует стратегию "основной способ, затем ровно один запасной".
package fallback

import (
	"context"
	"errors"
	"fmt"
)

// ErrBothFailed возвращается, когда упали и основной, и запасной способ
var ErrBothFailed = errors.New("fallback: primary and fallback both failed")

// Func одна попытка
type Func[T any] func(ctx context.Context) (T, error)

// Strategy основной способ, запасной способ и классификатор ошибок,
// после которых имеет смысл переключаться на запасной
type Strategy[T any] struct {
	Primary   Func[T]
	Fallback  Func[T]
	Retryable func(err error) bool
	// OnFallback вызывается перед запасной попыткой (для логов)
	OnFallback func(primaryErr error)
}

// Do выполняет Primary. Если она вернула ошибку, которую Retryable признаёт
// повторяемой, выполняет Fallback ровно один раз. Циклов нет
func (s Strategy[T]) Do(ctx context.Context) (T, error) {
	res, err := s.Primary(ctx)
	if err == nil {
		return res, nil
	}

	if s.Fallback == nil || !s.retryable(err) {
		return res, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, err
	}

	if s.OnFallback != nil {
		s.OnFallback(err)
	}

	res, fbErr := s.Fallback(ctx)
	if fbErr != nil {
		var zero T
		return zero, fmt.Errorf("%w: primary: %w; fallback: %w", ErrBothFailed, err, fbErr)
	}
	return res, nil
}

func (s Strategy[T]) retryable(err error) bool {
	if s.Retryable == nil {
		return true
	}
	return s.Retryable(err)
}

// Do короткая форма для одноразовых вызовов
func Do[T any](ctx context.Context, primary, fallback Func[T], retryable func(error) bool) (T, error) {
	return Strategy[T]{Primary: primary, Fallback: fallback, Retryable: retryable}.Do(ctx)
}

// On возвращает классификатор, признающий повторяемыми только указанные sentinel-ошибки
func On(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}
