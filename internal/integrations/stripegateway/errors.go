package stripegateway

import "errors"

var (
	// ErrInvalidSignature подпись webhook не прошла проверку; полям события доверять нельзя
	ErrInvalidSignature = errors.New("stripegateway: invalid webhook signature")

	// ErrMalformedEvent подпись верна, но тело события не разбирается
	ErrMalformedEvent = errors.New("stripegateway: malformed event payload")

	// ErrInvalidRequest некорректные параметры checkout-сессии
	ErrInvalidRequest = errors.New("stripegateway: invalid checkout request")

	// ErrSessionCreate шлюз не создал сессию (сеть, ключи, лимиты). Повторяемая ошибка
	ErrSessionCreate = errors.New("stripegateway: failed to create checkout session")

	// ErrSessionLookup шлюз не вернул состояние сессии. Повторяемая ошибка
	ErrSessionLookup = errors.New("stripegateway: failed to retrieve checkout session")
)
